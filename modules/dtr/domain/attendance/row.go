// Package attendance assembles source rows and identity resolutions into
// per-day attendance records.
package attendance

// SourceRow is one data row of an attendance file, before any parsing.
// Cell values are kept raw: strings from CSV, raw cell values from workbooks.
type SourceRow struct {
	Sheet            string
	Line             int
	ExternalID       int64
	HasExternalID    bool
	Name             string
	Department       string
	DayCell          any
	Times            [4]any // AM arrival, AM departure, PM arrival, PM departure
	UndertimeHours   any
	UndertimeMinutes any
}

// Key identifies the source person of a row for identity lookup.
func (r SourceRow) Key() (int64, string) {
	if !r.HasExternalID {
		return 0, r.Name
	}
	return r.ExternalID, r.Name
}
