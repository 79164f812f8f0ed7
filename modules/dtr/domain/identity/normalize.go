package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var nameLabels = map[string]bool{"name": true, "employee": true, "employee name": true}

// NormalizeName folds a name for comparison: label prefix dropped,
// diacritics stripped, lowercased, "Last, First" reordered, whitespace collapsed.
func NormalizeName(s string) string {
	if i := strings.IndexByte(s, ':'); i >= 0 && nameLabels[strings.ToLower(strings.TrimSpace(s[:i]))] {
		s = s[i+1:]
	}
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)
	if last, first, ok := strings.Cut(s, ","); ok && !strings.Contains(first, ",") {
		s = first + " " + last
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'' {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
