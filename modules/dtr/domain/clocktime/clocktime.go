// Package clocktime parses spreadsheet and text time cells into a canonical
// 24-hour wall-clock value.
package clocktime

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/iota-uz/campus-sdk/pkg/serrors"
)

const minutesPerDay = 24 * 60

var ErrInvalidTime = serrors.NewError("DTR_INVALID_TIME", "cell is not a recognizable time", "Errors.InvalidTime")

// ParseError names the raw cell value that could not be read as a time.
type ParseError struct {
	Raw any
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid time %q", fmt.Sprint(e.Raw))
}

func (e *ParseError) Unwrap() error {
	return ErrInvalidTime
}

// Value is a wall-clock time without a date. The zero Value is Absent.
type Value struct {
	minutes int16 // minutes since midnight
	present bool
}

func Absent() Value {
	return Value{}
}

func New(hour, minute int) (Value, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return Value{}, &ParseError{Raw: fmt.Sprintf("%d:%02d", hour, minute)}
	}
	return Value{minutes: int16(hour*60 + minute), present: true}, nil
}

func MustNew(hour, minute int) Value {
	v, err := New(hour, minute)
	if err != nil {
		panic(err)
	}
	return v
}

func (v Value) IsAbsent() bool { return !v.present }
func (v Value) Hour() int      { return int(v.minutes) / 60 }
func (v Value) Minute() int    { return int(v.minutes) % 60 }

// Minutes returns minutes since midnight, or -1 when Absent.
func (v Value) Minutes() int {
	if !v.present {
		return -1
	}
	return int(v.minutes)
}

// String renders "HH:MM", or "" when Absent.
func (v Value) String() string {
	if !v.present {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", v.Hour(), v.Minute())
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.present {
		return []byte("null"), nil
	}
	return json.Marshal(v.String())
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Value{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Parse interprets a raw cell value.
//
// Numbers are fractions of a day; minutes are rounded, and a value whose
// integer part is non-zero is treated as a date-time serial whose fractional
// part holds the time. Strings with a colon are read as H:MM, HH:MM or
// HH:MM:SS, optionally followed by AM/PM. Colon-free numeric strings take the
// numeric path. Empty input is Absent.
func Parse(raw any) (Value, error) {
	switch x := raw.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return x, nil
	case string:
		return parseString(x)
	case float64:
		return parseNumber(x, raw)
	case float32:
		return parseNumber(float64(x), raw)
	case int:
		return parseNumber(float64(x), raw)
	case int64:
		return parseNumber(float64(x), raw)
	case int32:
		return parseNumber(float64(x), raw)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, &ParseError{Raw: raw}
		}
		return parseNumber(f, raw)
	case fmt.Stringer:
		return parseString(x.String())
	default:
		return Value{}, &ParseError{Raw: raw}
	}
}

func parseNumber(f float64, raw any) (Value, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return Value{}, &ParseError{Raw: raw}
	}
	if f >= 1 {
		whole, frac := math.Modf(f)
		if frac == 0 || whole == 0 {
			return Value{}, &ParseError{Raw: raw}
		}
		f = frac
	}
	total := int(math.Round(f * minutesPerDay))
	if total >= minutesPerDay {
		total = 0
	}
	return Value{minutes: int16(total), present: true}, nil
}

func parseString(s string) (Value, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Value{}, nil
	}
	if !strings.Contains(trimmed, ":") {
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return Value{}, &ParseError{Raw: s}
		}
		return parseNumber(f, s)
	}
	return parseClock(trimmed, s)
}

func parseClock(s string, raw string) (Value, error) {
	clock, meridiem := splitMeridiem(s)

	parts := strings.Split(clock, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Value{}, &ParseError{Raw: raw}
	}
	hour, ok := digits(parts[0], 1, 2)
	if !ok {
		return Value{}, &ParseError{Raw: raw}
	}
	minute, ok := digits(parts[1], 2, 2)
	if !ok || minute > 59 {
		return Value{}, &ParseError{Raw: raw}
	}
	if len(parts) == 3 {
		if sec, ok := digits(parts[2], 2, 2); !ok || sec > 59 {
			return Value{}, &ParseError{Raw: raw}
		}
	}

	switch meridiem {
	case "":
		if hour > 23 {
			return Value{}, &ParseError{Raw: raw}
		}
	case "AM", "PM":
		if hour < 1 || hour > 12 {
			return Value{}, &ParseError{Raw: raw}
		}
		hour %= 12
		if meridiem == "PM" {
			hour += 12
		}
	}
	return Value{minutes: int16(hour*60 + minute), present: true}, nil
}

// splitMeridiem strips a trailing AM/PM marker (also "a.m." and "p.m.").
func splitMeridiem(s string) (string, string) {
	upper := strings.ToUpper(s)
	upper = strings.ReplaceAll(upper, ".", "")
	for _, m := range []string{"AM", "PM"} {
		if strings.HasSuffix(upper, m) {
			return strings.TrimSpace(upper[:len(upper)-len(m)]), m
		}
	}
	return s, ""
}

func digits(s string, minLen, maxLen int) (int, bool) {
	if len(s) < minLen || len(s) > maxLen {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}
