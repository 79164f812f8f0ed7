// Package extract turns CSV and workbook bytes into typed source rows.
package extract

import (
	"errors"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/attendance"
)

// SourceRow is the typed row every reader produces.
type SourceRow = attendance.SourceRow

// Sequence is a lazy, single-pass stream of rows. It cannot be rewound;
// extract again from the source bytes to start over.
type Sequence struct {
	pull    func(s *Sequence) (SourceRow, error)
	skipped int
	stop    *Stop
	err     error
	done    bool
}

// Stop is the row whose non-numeric id ended a data block.
type Stop struct {
	Sheet string
	Line  int
	Value string
}

func newSequence(pull func(s *Sequence) (SourceRow, error)) *Sequence {
	return &Sequence{pull: pull}
}

func failed(err error) *Sequence {
	return &Sequence{err: err, done: true}
}

// Next returns the next row; false means the stream ended or failed (see Err).
func (s *Sequence) Next() (SourceRow, bool) {
	if s.done {
		return SourceRow{}, false
	}
	row, err := s.pull(s)
	if err != nil {
		s.done = true
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		return SourceRow{}, false
	}
	return row, true
}

func (s *Sequence) Err() error {
	return s.err
}

// Skipped counts blank, short or preamble rows passed over so far.
func (s *Sequence) Skipped() int {
	return s.skipped
}

// Stopped reports the row that ended extraction before the end of input.
func (s *Sequence) Stopped() (Stop, bool) {
	if s.stop == nil {
		return Stop{}, false
	}
	return *s.stop, true
}

func (s *Sequence) skip() {
	s.skipped++
}

// Collect drains seq.
func Collect(seq *Sequence) ([]SourceRow, error) {
	var out []SourceRow
	for {
		row, ok := seq.Next()
		if !ok {
			return out, seq.Err()
		}
		out = append(out, row)
	}
}

func positiveInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, n > 0
	}
	// Workbooks store integers as floats ("4570035.0", "1E+3").
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || f != math.Trunc(f) || f > math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cell(cells []string, idx int) string {
	if idx < 0 || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

// cellValue keeps blank cells as nil so they read as absent downstream.
func cellValue(cells []string, idx int) any {
	v := cell(cells, idx)
	if v == "" {
		return nil
	}
	return v
}
