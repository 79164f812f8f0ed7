package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/campus-sdk/modules/dtr/domain/clocktime"
	"github.com/iota-uz/campus-sdk/modules/dtr/domain/identity"
)

func csvRow(id int64, name, day string, times ...any) SourceRow {
	row := SourceRow{Line: 2, ExternalID: id, HasExternalID: id > 0, Name: name, DayCell: day}
	copy(row.Times[:], times)
	return row
}

func resolved(id uint, name string) identity.Resolution {
	return identity.Resolution{
		Identity:   identity.Identity{EmployeeID: id, DisplayName: name},
		Method:     identity.MethodOverride,
		Confidence: identity.Exact,
	}
}

func TestAssemble_OverrideScenario(t *testing.T) {
	r := identity.NewResolver(identity.OverrideTable{4570035: 58}, []identity.Employee{
		{ID: 58, FirstName: "Seven", LastName: "Cruz"},
	})
	row := csvRow(4570035, "SEVEN", "2025-08-01", "08:00", "12:00", "13:00", "17:00")

	res := Assemble(row, r.Resolve(row.Key()))
	require.True(t, res.Ready())
	rec := res.Record
	assert.Equal(t, uint(58), rec.EmployeeID)
	assert.Equal(t, 1, rec.Day)
	assert.Equal(t, "08:00", rec.AMArrival.String())
	assert.Equal(t, "12:00", rec.AMDeparture.String())
	assert.Equal(t, "13:00", rec.PMArrival.String())
	assert.Equal(t, "17:00", rec.PMDeparture.String())
	assert.Equal(t, identity.Exact, rec.Confidence)
}

func TestAssemble_UnresolvedScenario(t *testing.T) {
	r := identity.NewResolver(identity.OverrideTable{}, []identity.Employee{{ID: 1, FirstName: "Ana", LastName: "Reyes"}})
	row := csvRow(4570035, "SEVEN", "2025-08-01", "08:00", "12:00", "13:00", "17:00")

	res := Assemble(row, r.Resolve(row.Key()))
	assert.False(t, res.Ready())
	assert.Equal(t, ReasonUnmapped, res.Skip)
	assert.Equal(t, int64(4570035), res.ExternalID)
	assert.Equal(t, "SEVEN", res.SourceName)
}

func TestAssemble_SkipOrder(t *testing.T) {
	unmapped := identity.Resolution{Method: identity.MethodNone, Confidence: identity.None}
	tests := []struct {
		name string
		row  SourceRow
		res  identity.Resolution
		want Reason
	}{
		{"no day wins over everything", csvRow(1, "x", "", "bogus"), unmapped, ReasonNoDay},
		{"unparseable day", csvRow(1, "x", "someday", "08:00"), unmapped, ReasonNoDay},
		{"invalid time before identity", csvRow(1, "x", "3", "25:99"), unmapped, ReasonInvalidTime},
		{"all blank times", csvRow(1, "x", "15"), resolved(1, "X"), ReasonNoTimeData},
		{"all blank times even if unmapped", csvRow(1, "x", "15"), unmapped, ReasonNoTimeData},
		{"unmapped", csvRow(1, "x", "15", "08:00"), unmapped, ReasonUnmapped},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Assemble(tt.row, tt.res)
			assert.False(t, got.Ready())
			assert.Equal(t, tt.want, got.Skip)
			assert.Equal(t, string(tt.want), got.Status())
		})
	}
}

func TestAssemble_InvalidUndertime(t *testing.T) {
	row := csvRow(1, "x", "2", "08:00")
	row.UndertimeHours = "lots"
	got := Assemble(row, resolved(1, "X"))
	assert.Equal(t, ReasonInvalidTime, got.Skip)
	assert.Contains(t, got.Detail, "lots")
}

func TestAssemble_KeepsAbsentTimes(t *testing.T) {
	row := csvRow(1, "x", "4", 0.3333333333333333, nil, "", "5:30 PM")
	row.UndertimeHours = "1"
	row.UndertimeMinutes = 15.0
	got := Assemble(row, resolved(9, "Nine"))
	require.True(t, got.Ready())
	assert.Equal(t, "08:00", got.Record.AMArrival.String())
	assert.True(t, got.Record.AMDeparture.IsAbsent())
	assert.True(t, got.Record.PMArrival.IsAbsent())
	assert.Equal(t, "17:30", got.Record.PMDeparture.String())
	assert.Equal(t, 1, got.Record.UndertimeHours)
	assert.Equal(t, 15, got.Record.UndertimeMinutes)
	assert.Equal(t, "ready", got.Status())
}

func TestParseDay(t *testing.T) {
	tests := []struct {
		raw     any
		want    int
		wantErr bool
	}{
		{raw: "15", want: 15},
		{raw: 31, want: 31},
		{raw: "7.0", want: 7},
		{raw: "2025-08-09", want: 9},
		{raw: "2025/08/10", want: 10},
		{raw: "08/11/2025", want: 11},
		{raw: "2025-08-12 00:00:00", want: 12},
		{raw: 45870.0, want: 1}, // 2025-08-01
		{raw: "45871", want: 2},
		{raw: "0", wantErr: true},
		{raw: "1.5", wantErr: true},
		{raw: "", wantErr: true},
		{raw: nil, wantErr: true},
		{raw: "Total", wantErr: true},
		{raw: true, wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseDay(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.raw)
			continue
		}
		require.NoError(t, err, "%v", tt.raw)
		assert.Equal(t, tt.want, got, "%v", tt.raw)
	}
}

func ready(emp uint, day int) Result {
	return Result{Record: &Record{
		EmployeeID:   emp,
		EmployeeName: "E",
		Day:          day,
		AMArrival:    clocktime.MustNew(8, 0),
		Confidence:   identity.Exact,
	}}
}

func TestFinalize_PadsDayOne(t *testing.T) {
	results := []Result{ready(7, 5), ready(7, 3)}
	_, records := Finalize(results, true)
	require.Len(t, records, 3)

	assert.Equal(t, 1, records[0].Day)
	assert.True(t, records[0].Placeholder)
	assert.True(t, records[0].AMArrival.IsAbsent())
	assert.Equal(t, 3, records[1].Day)
	assert.Equal(t, 5, records[2].Day)

	_, records = Finalize(results, false)
	require.Len(t, records, 2)
	assert.Equal(t, 3, records[0].Day)
}

func TestFinalize_PlaceholderPerEmployee(t *testing.T) {
	results := []Result{ready(2, 1), ready(1, 4), ready(3, 2)}
	_, records := Finalize(results, true)

	var days []int
	var emps []uint
	for _, r := range records {
		days = append(days, r.Day)
		emps = append(emps, r.EmployeeID)
	}
	assert.Equal(t, []int{1, 1, 1, 2, 4}, days)
	assert.Equal(t, []uint{1, 2, 3, 3, 1}, emps)
	assert.False(t, records[1].Placeholder, "employee 2 had a real day 1")
}

func TestFinalize_DuplicateDay(t *testing.T) {
	first := ready(4, 2)
	second := ready(4, 2)
	second.Line = 9
	out, records := Finalize([]Result{first, second, ready(5, 2)}, false)

	require.Len(t, records, 2)
	assert.True(t, out[0].Ready())
	assert.False(t, out[1].Ready())
	assert.Equal(t, ReasonDuplicateDay, out[1].Skip)
	assert.True(t, first.Ready(), "input untouched")
}

func TestFinalize_Empty(t *testing.T) {
	out, records := Finalize(nil, true)
	assert.Empty(t, out)
	assert.Empty(t, records)
}
