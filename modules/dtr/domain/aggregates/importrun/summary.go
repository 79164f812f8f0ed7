package importrun

import (
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/attendance"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/identity"
)

type UnmappedIdentifier struct {
	ExternalID  int64                 `json:"external_id,omitempty"`
	SourceName  string                `json:"source_name"`
	Occurrences int                   `json:"occurrences"`
	Suggestions []identity.Suggestion `json:"suggestions,omitempty"`
}

type SkippedRow struct {
	Sheet      string `json:"sheet,omitempty"`
	Line       int    `json:"line"`
	ExternalID int64  `json:"external_id,omitempty"`
	SourceName string `json:"source_name,omitempty"`
	Reason     string `json:"reason"`
	Detail     string `json:"detail,omitempty"`
}

// StopRow is the source row that ended extraction early, such as a totals
// line or a second header. Rows after it were not read.
type StopRow struct {
	Sheet string `json:"sheet,omitempty"`
	Line  int    `json:"line"`
	Value string `json:"value"`
}

// RowStatus is one line of the operator review table.
type RowStatus struct {
	Sheet        string              `json:"sheet,omitempty"`
	Line         int                 `json:"line"`
	ExternalID   int64               `json:"external_id,omitempty"`
	SourceName   string              `json:"source_name,omitempty"`
	Status       string              `json:"status"`
	EmployeeID   uint                `json:"employee_id,omitempty"`
	EmployeeName string              `json:"employee_name,omitempty"`
	Method       identity.Method     `json:"method"`
	Confidence   identity.Confidence `json:"confidence"`
	Day          int                 `json:"day,omitempty"`
}

type Counts struct {
	Ready     int `json:"ready"`
	Unmapped  int `json:"unmapped"`
	Duplicate int `json:"duplicate"`
	Invalid   int `json:"invalid"`
	NoDay     int `json:"no_day"`
	NoTime    int `json:"no_time"`
}

type Summary struct {
	TotalRows    int                  `json:"total_rows"`
	MappedCount  int                  `json:"mapped_count"`
	Unmapped     []UnmappedIdentifier `json:"unmapped"`
	RecordsReady []attendance.Record  `json:"records_ready"`
	Placeholders []attendance.Record  `json:"placeholders,omitempty"`
	Skipped      []SkippedRow         `json:"skipped"`
	Rows         []RowStatus          `json:"rows"`
	Counts       Counts               `json:"counts"`
	// LowConfidence counts ready records resolved by a partial name match.
	LowConfidence int `json:"low_confidence"`
	// StaleOverrides lists override entries pointing at unknown employees.
	StaleOverrides []int64 `json:"stale_overrides,omitempty"`
	// BlankRows counts rows the extractor passed over.
	BlankRows int `json:"blank_rows"`

	StoppedAt *StopRow `json:"stopped_at,omitempty"`
}

// Suggester proposes employees for an unmapped source name.
type Suggester func(sourceName string) []identity.Suggestion

type unmappedKey struct {
	id   int64
	name string
}

// Summarize partitions finalized results for review. batch is the output of
// attendance.Finalize; its placeholders are listed apart from real records.
func Summarize(results []attendance.Result, batch []attendance.Record, suggest Suggester) Summary {
	s := Summary{
		TotalRows:    len(results),
		Unmapped:     []UnmappedIdentifier{},
		RecordsReady: []attendance.Record{},
		Skipped:      []SkippedRow{},
		Rows:         make([]RowStatus, 0, len(results)),
	}

	unmapped := make(map[unmappedKey]int)
	stale := make(map[int64]bool)

	for _, res := range results {
		row := RowStatus{
			Sheet:      res.Sheet,
			Line:       res.Line,
			ExternalID: res.ExternalID,
			SourceName: res.SourceName,
			Status:     res.Status(),
			Method:     res.Resolution.Method,
			Confidence: res.Resolution.Confidence,
		}
		if res.Resolution.Resolved() {
			row.EmployeeID = res.Resolution.Identity.EmployeeID
			row.EmployeeName = res.Resolution.Identity.DisplayName
		}
		if res.Resolution.StaleOverride && !stale[res.ExternalID] {
			stale[res.ExternalID] = true
			s.StaleOverrides = append(s.StaleOverrides, res.ExternalID)
		}

		if res.Ready() {
			row.Day = res.Record.Day
			s.Counts.Ready++
			s.Rows = append(s.Rows, row)
			continue
		}
		s.Rows = append(s.Rows, row)
		s.Skipped = append(s.Skipped, SkippedRow{
			Sheet:      res.Sheet,
			Line:       res.Line,
			ExternalID: res.ExternalID,
			SourceName: res.SourceName,
			Reason:     string(res.Skip),
			Detail:     res.Detail,
		})

		switch res.Skip {
		case attendance.ReasonUnmapped:
			s.Counts.Unmapped++
			k := unmappedKey{id: res.ExternalID, name: identity.NormalizeName(res.SourceName)}
			if i, ok := unmapped[k]; ok {
				s.Unmapped[i].Occurrences++
				continue
			}
			unmapped[k] = len(s.Unmapped)
			u := UnmappedIdentifier{ExternalID: res.ExternalID, SourceName: res.SourceName, Occurrences: 1}
			if suggest != nil {
				u.Suggestions = suggest(res.SourceName)
			}
			s.Unmapped = append(s.Unmapped, u)
		case attendance.ReasonDuplicateDay:
			s.Counts.Duplicate++
		case attendance.ReasonInvalidTime:
			s.Counts.Invalid++
		case attendance.ReasonNoDay:
			s.Counts.NoDay++
		case attendance.ReasonNoTimeData:
			s.Counts.NoTime++
		}
	}

	mapped := make(map[uint]bool)
	for _, rec := range batch {
		if rec.Placeholder {
			s.Placeholders = append(s.Placeholders, rec)
			continue
		}
		s.RecordsReady = append(s.RecordsReady, rec)
		mapped[rec.EmployeeID] = true
		if rec.Confidence == identity.Partial {
			s.LowConfidence++
		}
	}
	s.MappedCount = len(mapped)
	return s
}
