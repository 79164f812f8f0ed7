package extract

import (
	"errors"
	"io"
)

const headerScanRows = 10

// recordReader is the shape shared by csv.Reader and workbook row iterators.
type recordReader interface {
	Read() ([]string, error)
}

// tabular applies header sniffing and a column layout to a stream of records.
type tabular struct {
	r      recordReader
	sheet  string
	layout Layout
	fixed  bool // layout given by the caller; skip header inference

	pending []pendingRecord
	line    int
	started bool
	stopped bool
}

type pendingRecord struct {
	cells []string
	line  int
}

func (t *tabular) read() ([]string, int, error) {
	if len(t.pending) > 0 {
		p := t.pending[0]
		t.pending = t.pending[1:]
		return p.cells, p.line, nil
	}
	cells, err := t.r.Read()
	if err != nil {
		return nil, 0, err
	}
	t.line++
	return cells, t.line, nil
}

// start locates the data boundary: the row after the header found in the
// first rows, or else the first row whose first cell is a positive integer.
// When several rows look like headers, the one naming the most columns wins,
// so a title line above the real header is passed over.
func (t *tabular) start(seq *Sequence) error {
	t.started = true

	var head []pendingRecord
	for len(head) < headerScanRows {
		cells, err := t.r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		t.line++
		head = append(head, pendingRecord{cells: cells, line: t.line})
	}

	header, best := -1, 0
	for i, rec := range head {
		if !looksLikeHeader(rec.cells) {
			continue
		}
		if n := namedColumns(rec.cells); header == -1 || n > best {
			header, best = i, n
		}
	}
	if header >= 0 {
		if !t.fixed {
			t.layout = InferLayout(head[header].cells)
		}
		seq.skipped += header
		t.pending = head[header+1:]
		return nil
	}

	t.pending = head
	for {
		cells, line, err := t.read()
		if err != nil {
			return err
		}
		if t.isFirstDataRow(cells) {
			t.pending = append([]pendingRecord{{cells: cells, line: line}}, t.pending...)
			return nil
		}
		seq.skip()
	}
}

// isFirstDataRow reports whether cells hold a positive id in the id column.
// A layout without an id column accepts the first non-blank row.
func (t *tabular) isFirstDataRow(cells []string) bool {
	idx := t.layout[ColExternalID]
	if idx < 0 {
		return !isBlank(cells)
	}
	_, ok := positiveInt(cell(cells, idx))
	return ok
}

func (t *tabular) pull(seq *Sequence) (SourceRow, error) {
	if t.stopped {
		return SourceRow{}, io.EOF
	}
	if !t.started {
		if err := t.start(seq); err != nil {
			return SourceRow{}, err
		}
	}

	for {
		cells, line, err := t.read()
		if err != nil {
			return SourceRow{}, err
		}
		if isBlank(cells) || len(cells) < t.layout.width() {
			seq.skip()
			continue
		}

		row := SourceRow{
			Sheet:            t.sheet,
			Line:             line,
			Name:             cell(cells, t.layout[ColName]),
			Department:       cell(cells, t.layout[ColDepartment]),
			DayCell:          cellValue(cells, t.layout[ColDay]),
			UndertimeHours:   cellValue(cells, t.layout[ColUndertimeHours]),
			UndertimeMinutes: cellValue(cells, t.layout[ColUndertimeMinutes]),
		}
		for i, c := range []Column{ColAMArrival, ColAMDeparture, ColPMArrival, ColPMDeparture} {
			row.Times[i] = cellValue(cells, t.layout[c])
		}

		if idx := t.layout[ColExternalID]; idx >= 0 {
			raw := cell(cells, idx)
			switch id, ok := positiveInt(raw); {
			case ok:
				row.ExternalID, row.HasExternalID = id, true
			case raw != "":
				// A non-numeric id marks the end of the data block.
				t.stopped = true
				seq.stop = &Stop{Sheet: t.sheet, Line: line, Value: raw}
				return SourceRow{}, io.EOF
			}
		}
		return row, nil
	}
}
