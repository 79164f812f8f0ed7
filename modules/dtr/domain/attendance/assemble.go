package attendance

import (
	"sort"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/clocktime"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/identity"
)

// Assemble turns one row into a Record or a skip. Checks run in order:
// day, time parsing, presence of any time, identity.
func Assemble(row SourceRow, res identity.Resolution) Result {
	id, name := row.Key()
	out := Result{
		Sheet:      row.Sheet,
		Line:       row.Line,
		ExternalID: id,
		SourceName: name,
		Resolution: res,
	}

	day, err := ParseDay(row.DayCell)
	if err != nil {
		out.Skip, out.Detail = ReasonNoDay, err.Error()
		return out
	}

	var times [4]clocktime.Value
	present := false
	for i, raw := range row.Times {
		v, err := clocktime.Parse(raw)
		if err != nil {
			out.Skip, out.Detail = ReasonInvalidTime, err.Error()
			return out
		}
		times[i] = v
		present = present || !v.IsAbsent()
	}
	uh, err := parseCount(row.UndertimeHours)
	if err != nil {
		out.Skip, out.Detail = ReasonInvalidTime, err.Error()
		return out
	}
	um, err := parseCount(row.UndertimeMinutes)
	if err != nil {
		out.Skip, out.Detail = ReasonInvalidTime, err.Error()
		return out
	}
	if !present {
		out.Skip = ReasonNoTimeData
		return out
	}

	if !res.Resolved() {
		out.Skip = ReasonUnmapped
		return out
	}

	out.Record = &Record{
		EmployeeID:       res.Identity.EmployeeID,
		EmployeeName:     res.Identity.DisplayName,
		Day:              day,
		AMArrival:        times[0],
		AMDeparture:      times[1],
		PMArrival:        times[2],
		PMDeparture:      times[3],
		UndertimeHours:   uh,
		UndertimeMinutes: um,
		Confidence:       res.Confidence,
		Sheet:            row.Sheet,
		Line:             row.Line,
	}
	return out
}

type dayKey struct {
	employee uint
	day      int
}

// Finalize drops repeated (employee, day) records, keeping the first, and
// returns the updated results with the batch sorted by day then employee.
// With padFirstDay, each employee missing day 1 gets an empty placeholder.
func Finalize(results []Result, padFirstDay bool) ([]Result, []Record) {
	out := make([]Result, len(results))
	copy(out, results)

	seen := make(map[dayKey]bool)
	var records []Record
	var employees []uint
	first := make(map[uint]Record)

	for i := range out {
		rec := out[i].Record
		if rec == nil {
			continue
		}
		k := dayKey{employee: rec.EmployeeID, day: rec.Day}
		if seen[k] {
			out[i].Record = nil
			out[i].Skip = ReasonDuplicateDay
			continue
		}
		seen[k] = true
		records = append(records, *rec)
		if _, ok := first[rec.EmployeeID]; !ok {
			first[rec.EmployeeID] = *rec
			employees = append(employees, rec.EmployeeID)
		}
	}

	if padFirstDay {
		for _, emp := range employees {
			if seen[dayKey{employee: emp, day: 1}] {
				continue
			}
			ref := first[emp]
			records = append(records, Record{
				EmployeeID:   emp,
				EmployeeName: ref.EmployeeName,
				Day:          1,
				AMArrival:    clocktime.Absent(),
				AMDeparture:  clocktime.Absent(),
				PMArrival:    clocktime.Absent(),
				PMDeparture:  clocktime.Absent(),
				Confidence:   ref.Confidence,
				Placeholder:  true,
			})
		}
	}

	sort.SliceStable(records, func(a, b int) bool {
		if records[a].Day != records[b].Day {
			return records[a].Day < records[b].Day
		}
		return records[a].EmployeeID < records[b].EmployeeID
	})
	return out, records
}
