package extract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

type WorkbookLayout string

const (
	WorkbookAuto     WorkbookLayout = "auto"
	WorkbookGeneric  WorkbookLayout = "generic"
	WorkbookTemplate WorkbookLayout = "template"
)

// TemplateColumns are the column letters of the fixed DTR form.
type TemplateColumns struct {
	Day              string
	AMArrival        string
	AMDeparture      string
	PMArrival        string
	PMDeparture      string
	UndertimeHours   string
	UndertimeMinutes string
}

// TemplateOptions address the fixed DTR form: one employee per sheet, a
// name cell, a device id cell, and one row per day.
type TemplateOptions struct {
	NameCell    string
	IDCell      string
	FirstDayRow int
	LastDayRow  int
	Columns     TemplateColumns
}

func DefaultTemplateOptions() TemplateOptions {
	return TemplateOptions{
		NameCell:    "B4",
		IDCell:      "F4",
		FirstDayRow: 11,
		LastDayRow:  41,
		Columns: TemplateColumns{
			Day:              "A",
			AMArrival:        "B",
			AMDeparture:      "C",
			PMArrival:        "D",
			PMDeparture:      "E",
			UndertimeHours:   "F",
			UndertimeMinutes: "G",
		},
	}
}

type WorkbookOptions struct {
	Layout   WorkbookLayout
	Template TemplateOptions
	// Sheet restricts the generic layout to one sheet; empty means the first.
	Sheet string
}

var rawValues = excelize.Options{RawCellValue: true}

// FromWorkbook streams rows from an xlsx workbook.
func FromWorkbook(data []byte, opts WorkbookOptions) *Sequence {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return failed(fmt.Errorf("open workbook: %w", err))
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return failed(fmt.Errorf("open workbook: no sheets"))
	}
	if opts.Template.FirstDayRow == 0 {
		opts.Template = DefaultTemplateOptions()
	}

	layout := opts.Layout
	if layout == "" || layout == WorkbookAuto {
		layout = detectWorkbookLayout(f, sheets[0], opts.Template)
	}

	var pull func(s *Sequence) (SourceRow, error)
	switch layout {
	case WorkbookTemplate:
		pull = (&templateReader{f: f, sheets: sheets, opts: opts.Template}).pull
	case WorkbookGeneric:
		sheet := opts.Sheet
		if sheet == "" {
			sheet = sheets[0]
		}
		rows, err := f.Rows(sheet)
		if err != nil {
			_ = f.Close()
			return failed(fmt.Errorf("read sheet %q: %w", sheet, err))
		}
		t := &tabular{r: &sheetRows{rows: rows}, sheet: sheet, layout: DefaultLayout()}
		pull = t.pull
	default:
		_ = f.Close()
		return failed(fmt.Errorf("unknown workbook layout %q", layout))
	}

	return newSequence(func(s *Sequence) (SourceRow, error) {
		row, err := pull(s)
		if err != nil {
			_ = f.Close()
		}
		return row, err
	})
}

// detectWorkbookLayout picks the template when the first sheet has no column
// header above the day rows and numbers its first two day rows 1 and 2.
// Generic sheets carry a header, or repeat one id per day instead.
func detectWorkbookLayout(f *excelize.File, sheet string, t TemplateOptions) WorkbookLayout {
	if hasColumnHeader(f, sheet, min(t.FirstDayRow-1, headerScanRows)) {
		return WorkbookGeneric
	}
	for i, want := range []int64{1, 2} {
		addr, err := excelize.JoinCellName(t.Columns.Day, t.FirstDayRow+i)
		if err != nil {
			return WorkbookGeneric
		}
		v, err := f.GetCellValue(sheet, addr, rawValues)
		if err != nil {
			return WorkbookGeneric
		}
		if n, ok := positiveInt(v); !ok || n != want {
			return WorkbookGeneric
		}
	}
	return WorkbookTemplate
}

func hasColumnHeader(f *excelize.File, sheet string, limit int) bool {
	rows, err := f.Rows(sheet)
	if err != nil {
		return false
	}
	defer func() { _ = rows.Close() }()
	for i := 0; i < limit && rows.Next(); i++ {
		cells, err := rows.Columns(rawValues)
		if err != nil {
			return false
		}
		if isColumnHeader(cells) {
			return true
		}
	}
	return false
}

type sheetRows struct {
	rows *excelize.Rows
}

func (s *sheetRows) Read() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, err
		}
		_ = s.rows.Close()
		return nil, io.EOF
	}
	return s.rows.Columns(rawValues)
}

type templateReader struct {
	f      *excelize.File
	sheets []string
	opts   TemplateOptions

	sheetIdx int
	row      int // 0 until the current sheet header is read
	name     string
	id       int64
	hasID    bool
}

func (t *templateReader) value(sheet, col string, row int) (string, error) {
	addr, err := excelize.JoinCellName(col, row)
	if err != nil {
		return "", err
	}
	v, err := t.f.GetCellValue(sheet, addr, rawValues)
	return strings.TrimSpace(v), err
}

func (t *templateReader) cell(sheet, addr string) (string, error) {
	v, err := t.f.GetCellValue(sheet, addr, rawValues)
	return strings.TrimSpace(v), err
}

func (t *templateReader) pull(seq *Sequence) (SourceRow, error) {
	for t.sheetIdx < len(t.sheets) {
		sheet := t.sheets[t.sheetIdx]

		if t.row == 0 {
			name, err := t.cell(sheet, t.opts.NameCell)
			if err != nil {
				return SourceRow{}, fmt.Errorf("sheet %q name cell: %w", sheet, err)
			}
			rawID, err := t.cell(sheet, t.opts.IDCell)
			if err != nil {
				return SourceRow{}, fmt.Errorf("sheet %q id cell: %w", sheet, err)
			}
			t.name = name
			t.id, t.hasID = positiveInt(rawID)
			if name == "" && !t.hasID {
				seq.skip()
				t.nextSheet()
				continue
			}
			t.row = t.opts.FirstDayRow
		}

		if t.row > t.opts.LastDayRow {
			t.nextSheet()
			continue
		}

		r := t.row
		t.row++

		day, err := t.value(sheet, t.opts.Columns.Day, r)
		if err != nil {
			return SourceRow{}, err
		}
		if _, ok := positiveInt(day); !ok {
			t.nextSheet()
			continue
		}

		row := SourceRow{
			Sheet:         sheet,
			Line:          r,
			ExternalID:    t.id,
			HasExternalID: t.hasID,
			Name:          t.name,
			DayCell:       day,
		}
		cols := []string{t.opts.Columns.AMArrival, t.opts.Columns.AMDeparture, t.opts.Columns.PMArrival, t.opts.Columns.PMDeparture}
		for i, col := range cols {
			if row.Times[i], err = t.optional(sheet, col, r); err != nil {
				return SourceRow{}, err
			}
		}
		if row.UndertimeHours, err = t.optional(sheet, t.opts.Columns.UndertimeHours, r); err != nil {
			return SourceRow{}, err
		}
		if row.UndertimeMinutes, err = t.optional(sheet, t.opts.Columns.UndertimeMinutes, r); err != nil {
			return SourceRow{}, err
		}
		return row, nil
	}
	return SourceRow{}, io.EOF
}

func (t *templateReader) optional(sheet, col string, row int) (any, error) {
	if col == "" {
		return nil, nil
	}
	v, err := t.value(sheet, col, row)
	if err != nil || v == "" {
		return nil, err
	}
	return v, nil
}

func (t *templateReader) nextSheet() {
	t.sheetIdx++
	t.row = 0
	t.name, t.id, t.hasID = "", 0, false
}
