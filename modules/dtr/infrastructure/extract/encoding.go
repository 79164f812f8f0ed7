package extract

import (
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// DetectEncoding names the text encoding of data: a BOM wins, then valid
// UTF-8, then Windows-1252 (a superset of Latin-1 as exported by spreadsheet tools).
func DetectEncoding(data []byte) string {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return "utf-8-bom"
	case bytes.HasPrefix(data, bomUTF16LE):
		return "utf-16le"
	case bytes.HasPrefix(data, bomUTF16BE):
		return "utf-16be"
	case utf8.Valid(data):
		return "utf-8"
	default:
		return "windows-1252"
	}
}

// decodingReader streams data as UTF-8 with any BOM removed.
func decodingReader(data []byte) io.Reader {
	var fallback encoding.Encoding = unicode.UTF8
	if DetectEncoding(data) == "windows-1252" {
		fallback = charmap.Windows1252
	}
	return transform.NewReader(bytes.NewReader(data), unicode.BOMOverride(fallback.NewDecoder()))
}
