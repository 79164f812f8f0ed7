package extract

import "strings"

// Column names a field of a source row.
type Column int

const (
	ColExternalID Column = iota
	ColName
	ColDepartment
	ColDay
	ColAMArrival
	ColAMDeparture
	ColPMArrival
	ColPMDeparture
	ColUndertimeHours
	ColUndertimeMinutes

	columnCount
)

var columnNames = [columnCount]string{
	"id", "name", "department", "day",
	"am_arrival", "am_departure", "pm_arrival", "pm_departure",
	"undertime_hours", "undertime_minutes",
}

func (c Column) String() string {
	if c < 0 || c >= columnCount {
		return "unknown"
	}
	return columnNames[c]
}

// Layout maps each Column to a zero-based cell index; -1 means not present.
type Layout [columnCount]int

// DefaultLayout is id, name, department, date, four times, undertime hours and minutes.
func DefaultLayout() Layout {
	var l Layout
	for i := range l {
		l[i] = i
	}
	return l
}

func emptyLayout() Layout {
	var l Layout
	for i := range l {
		l[i] = -1
	}
	return l
}

// Index returns the cell index for c, or -1.
func (l Layout) Index(c Column) int {
	return l[c]
}

// width is the minimum row length that still carries an id or a day.
func (l Layout) width() int {
	w := 0
	for _, c := range []Column{ColExternalID, ColDay} {
		if l[c]+1 > w {
			w = l[c] + 1
		}
	}
	return w
}

var headerExact = map[string]Column{
	"id":               ColExternalID,
	"no":               ColExternalID,
	"acno":             ColExternalID,
	"enrollno":         ColExternalID,
	"userid":           ColExternalID,
	"employeeid":       ColExternalID,
	"empid":            ColExternalID,
	"biometricid":      ColExternalID,
	"deviceid":         ColExternalID,
	"name":             ColName,
	"employee":         ColName,
	"employeename":     ColName,
	"fullname":         ColName,
	"department":       ColDepartment,
	"dept":             ColDepartment,
	"office":           ColDepartment,
	"date":             ColDay,
	"day":              ColDay,
	"amin":             ColAMArrival,
	"amarrival":        ColAMArrival,
	"morningin":        ColAMArrival,
	"timein":           ColAMArrival,
	"in1":              ColAMArrival,
	"amout":            ColAMDeparture,
	"amdeparture":      ColAMDeparture,
	"morningout":       ColAMDeparture,
	"breakout":         ColAMDeparture,
	"out1":             ColAMDeparture,
	"pmin":             ColPMArrival,
	"pmarrival":        ColPMArrival,
	"afternoonin":      ColPMArrival,
	"breakin":          ColPMArrival,
	"in2":              ColPMArrival,
	"pmout":            ColPMDeparture,
	"pmdeparture":      ColPMDeparture,
	"afternoonout":     ColPMDeparture,
	"timeout":          ColPMDeparture,
	"out2":             ColPMDeparture,
	"undertimehours":   ColUndertimeHours,
	"undertimehour":    ColUndertimeHours,
	"undertimehrs":     ColUndertimeHours,
	"uthours":          ColUndertimeHours,
	"undertimeminutes": ColUndertimeMinutes,
	"undertimeminute":  ColUndertimeMinutes,
	"undertimemins":    ColUndertimeMinutes,
	"utminutes":        ColUndertimeMinutes,
}

// Order matters: more specific substrings come first.
var headerSubstrings = []struct {
	sub string
	col Column
}{
	{"undertimeh", ColUndertimeHours},
	{"undertimem", ColUndertimeMinutes},
	{"employeeid", ColExternalID},
	{"biometric", ColExternalID},
	{"device", ColExternalID},
	{"name", ColName},
	{"department", ColDepartment},
	{"dept", ColDepartment},
	{"date", ColDay},
}

func normalizeHeader(h string) string {
	s := strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer(" ", "", "_", "", "-", "", ".", "", "/", "").Replace(s)
}

// InferLayout maps header cells onto columns by name. Columns the header
// does not name keep their default position when that cell is unclaimed.
func InferLayout(header []string) Layout {
	l := emptyLayout()
	claimed := make(map[int]bool, len(header))

	for i, h := range header {
		if col, ok := recognize(normalizeHeader(h), l); ok {
			l[col] = i
			claimed[i] = true
		}
	}

	def := DefaultLayout()
	for c := range l {
		if l[c] == -1 && def[c] < len(header) && !claimed[def[c]] {
			l[c] = def[c]
			claimed[def[c]] = true
		}
	}
	return l
}

// recognize maps a normalized header cell onto a column l has not assigned yet.
func recognize(n string, l Layout) (Column, bool) {
	if n == "" {
		return 0, false
	}
	if col, ok := headerExact[n]; ok && l[col] == -1 {
		return col, true
	}
	for _, s := range headerSubstrings {
		if strings.Contains(n, s.sub) && l[s.col] == -1 {
			return s.col, true
		}
	}
	return 0, false
}

// namedColumns counts the distinct columns a row names. A title line such as
// "Employee Attendance Report" names none.
func namedColumns(cells []string) int {
	_, n := named(cells)
	return n
}

// isColumnHeader reports whether cells name an id or name column and at
// least two more. Form labels ("Name:", a day grid caption) fall short.
func isColumnHeader(cells []string) bool {
	l, n := named(cells)
	return n >= 3 && (l[ColExternalID] >= 0 || l[ColName] >= 0)
}

func named(cells []string) (Layout, int) {
	l := emptyLayout()
	n := 0
	for i, h := range cells {
		if col, ok := recognize(normalizeHeader(h), l); ok {
			l[col] = i
			n++
		}
	}
	return l, n
}

// looksLikeHeader reports whether a row names its columns. Rows starting
// with a positive integer are data, even if a name cell contains "id".
func looksLikeHeader(cells []string) bool {
	if len(cells) > 0 {
		if _, ok := positiveInt(cells[0]); ok {
			return false
		}
	}
	for _, c := range cells {
		lc := strings.ToLower(c)
		if strings.Contains(lc, "id") || strings.Contains(lc, "name") || strings.Contains(lc, "employee") {
			return true
		}
	}
	return false
}
