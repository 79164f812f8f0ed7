package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCSV_HeaderInference(t *testing.T) {
	data := []byte("Employee ID,Full Name,Date,AM In,AM Out,PM In,PM Out\n" +
		"4570035,JUAN DELA CRUZ,2024-03-01,08:00,12:00,13:00,17:00\n" +
		",,,,,,\n" +
		"4570035,JUAN DELA CRUZ,2024-03-02,07:55,,,17:05\n")

	rows, err := Collect(FromCSV(data, nil))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, int64(4570035), first.ExternalID)
	assert.True(t, first.HasExternalID)
	assert.Equal(t, "JUAN DELA CRUZ", first.Name)
	assert.Equal(t, "2024-03-01", first.DayCell)
	assert.Equal(t, [4]any{"08:00", "12:00", "13:00", "17:00"}, first.Times)
	assert.Equal(t, 2, first.Line)
	assert.Empty(t, first.Department)

	second := rows[1]
	assert.Equal(t, [4]any{"07:55", nil, nil, "17:05"}, second.Times)
	assert.Equal(t, 4, second.Line)
}

func TestFromCSV_NoHeaderUsesDefaultLayout(t *testing.T) {
	data := []byte("Attendance export\n" +
		"generated 2024-03-31\n" +
		"12,ANA REYES,HR,1,08:00,12:00,13:00,17:00,0,15\n")

	seq := FromCSV(data, nil)
	rows, err := Collect(seq)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 2, seq.Skipped())

	r := rows[0]
	assert.Equal(t, int64(12), r.ExternalID)
	assert.Equal(t, "HR", r.Department)
	assert.Equal(t, "1", r.DayCell)
	assert.Equal(t, "0", r.UndertimeHours)
	assert.Equal(t, "15", r.UndertimeMinutes)
	assert.Equal(t, 3, r.Line)
}

func TestFromCSV_NameContainingIDIsData(t *testing.T) {
	data := []byte("7,DAVID SANTOS,ENG,2,08:00,12:00,13:00,17:00\n")
	rows, err := Collect(FromCSV(data, nil))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "DAVID SANTOS", rows[0].Name)
}

func TestFromCSV_StopsAtNonNumericID(t *testing.T) {
	data := []byte("id,name,date,am in,am out,pm in,pm out\n" +
		"1,A,2024-01-01,08:00,12:00,13:00,17:00\n" +
		"Total,,,,,,\n" +
		"2,B,2024-01-01,08:00,12:00,13:00,17:00\n")
	seq := FromCSV(data, nil)
	rows, err := Collect(seq)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Name)

	stop, ok := seq.Stopped()
	require.True(t, ok)
	assert.Equal(t, 3, stop.Line)
	assert.Equal(t, "Total", stop.Value)
}

func TestFromCSV_TitleAboveHeader(t *testing.T) {
	data := []byte("Employee Attendance Report\n" +
		"ID,Name,Department,Date,AM In,AM Out,PM In,PM Out\n" +
		"4570035,SEVEN,IT,2025-08-01,08:00,12:00,13:00,17:00\n")

	seq := FromCSV(data, nil)
	rows, err := Collect(seq)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, seq.Skipped())
	_, stopped := seq.Stopped()
	assert.False(t, stopped)

	r := rows[0]
	assert.Equal(t, int64(4570035), r.ExternalID)
	assert.Equal(t, "SEVEN", r.Name)
	assert.Equal(t, "IT", r.Department)
	assert.Equal(t, "2025-08-01", r.DayCell)
	assert.Equal(t, [4]any{"08:00", "12:00", "13:00", "17:00"}, r.Times)
	assert.Equal(t, 3, r.Line)
}

func TestFromCSV_BlankIDKeepsRow(t *testing.T) {
	data := []byte("id,name,date,am in,am out,pm in,pm out\n" +
		",MARIA CLARA,2024-01-01,08:00,12:00,13:00,17:00\n")
	rows, err := Collect(FromCSV(data, nil))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.False(t, rows[0].HasExternalID)
	assert.Equal(t, "MARIA CLARA", rows[0].Name)
}

func TestFromCSV_ShortRowsSkipped(t *testing.T) {
	data := []byte("id,name,department,date,am in\n" +
		"1,A\n" +
		"1,A,X,2024-01-02,08:00\n")
	seq := FromCSV(data, nil)
	rows, err := Collect(seq)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, seq.Skipped())
}

func TestFromCSV_FixedLayout(t *testing.T) {
	l := emptyLayout()
	l[ColExternalID] = 1
	l[ColDay] = 0
	l[ColAMArrival] = 2
	data := []byte("2024-05-01,99,08:15\n")

	rows, err := Collect(FromCSV(data, &l))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(99), rows[0].ExternalID)
	assert.Equal(t, "2024-05-01", rows[0].DayCell)
	assert.Equal(t, "08:15", rows[0].Times[0])
}

func TestFromCSV_Windows1252(t *testing.T) {
	// "PEÑA" encoded as Windows-1252.
	data := []byte("1,PE\xd1A,,1,08:00,12:00,13:00,17:00\n")
	rows, err := Collect(FromCSV(data, nil))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "PEÑA", rows[0].Name)
}

func TestFromCSV_UTF8BOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("ID,Name,Date\n5,X,2024-01-01\n")...)
	rows, err := Collect(FromCSV(data, nil))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(5), rows[0].ExternalID)
	assert.Equal(t, "2024-01-01", rows[0].DayCell)
}

func TestDetectEncoding(t *testing.T) {
	assert.Equal(t, "utf-8-bom", DetectEncoding([]byte{0xEF, 0xBB, 0xBF, 'a'}))
	assert.Equal(t, "utf-16le", DetectEncoding([]byte{0xFF, 0xFE, 'a', 0}))
	assert.Equal(t, "utf-16be", DetectEncoding([]byte{0xFE, 0xFF, 0, 'a'}))
	assert.Equal(t, "utf-8", DetectEncoding([]byte("héllo")))
	assert.Equal(t, "windows-1252", DetectEncoding([]byte("h\xe9llo")))
}
