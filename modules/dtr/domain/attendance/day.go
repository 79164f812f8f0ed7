package attendance

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// maxSerial is 9999-12-31 in spreadsheet date serials.
const maxSerial = 2958465

// ParseDay reads a day of month from a day-number cell, a date string or a
// spreadsheet date serial.
func ParseDay(raw any) (int, error) {
	switch v := raw.(type) {
	case nil:
		return 0, fmt.Errorf("day is empty")
	case int:
		return dayFromNumber(float64(v))
	case int64:
		return dayFromNumber(float64(v))
	case float64:
		return dayFromNumber(v)
	case json.Number:
		return ParseDay(v.String())
	case time.Time:
		return v.Day(), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, fmt.Errorf("day is empty")
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return dayFromNumber(f)
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.Day(), nil
			}
		}
		return 0, fmt.Errorf("unrecognized day %q", s)
	default:
		return 0, fmt.Errorf("unsupported day value %v (%T)", raw, raw)
	}
}

func dayFromNumber(f float64) (int, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		return 0, fmt.Errorf("day %v out of range", f)
	}
	if f <= 31 {
		if f != math.Trunc(f) {
			return 0, fmt.Errorf("day %v is not whole", f)
		}
		return int(f), nil
	}
	if f > maxSerial {
		return 0, fmt.Errorf("day %v out of range", f)
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return 0, err
	}
	return t.Day(), nil
}

// parseCount reads an undertime hour or minute cell; blank is zero.
func parseCount(raw any) (int, error) {
	var f float64
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		var err error
		if f, err = strconv.ParseFloat(s, 64); err != nil {
			return 0, fmt.Errorf("undertime %q is not a number", s)
		}
	default:
		return 0, fmt.Errorf("unsupported undertime value %v (%T)", raw, raw)
	}
	if math.IsNaN(f) || f < 0 || f > math.MaxInt32 {
		return 0, fmt.Errorf("undertime %v out of range", f)
	}
	return int(math.Round(f)), nil
}
