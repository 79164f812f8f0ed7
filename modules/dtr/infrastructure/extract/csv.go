package extract

import (
	"encoding/csv"
)

// FromCSV streams rows from comma-separated data. A nil layout
// selects header inference; pass a Layout to pin columns explicitly.
func FromCSV(data []byte, layout *Layout) *Sequence {
	r := csv.NewReader(decodingReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	r.ReuseRecord = false

	t := &tabular{r: r, layout: DefaultLayout()}
	if layout != nil {
		t.layout = *layout
		t.fixed = true
	}
	return newSequence(t.pull)
}
