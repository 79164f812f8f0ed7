package extract

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/iota-uz/campus-sdk/pkg/serrors"
)

type Format string

const (
	FormatCSV      Format = "csv"
	FormatWorkbook Format = "xlsx"
)

var ErrUnsupportedFormat = serrors.NewError("DTR_UNSUPPORTED_FORMAT", "unsupported file format", "DTR.Errors.UnsupportedFormat")

// Detect picks the reader for a file by extension, then by content.
func Detect(fileName string, data []byte) (Format, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatWorkbook, nil
	case ".xls":
		return "", ErrUnsupportedFormat
	}
	return sniff(data)
}

// sniff classifies content by walking the detected MIME type up to its
// roots. Any zip container is handed to the workbook reader, which rejects
// archives that are not workbooks.
func sniff(data []byte) (Format, error) {
	if len(data) == 0 {
		return "", ErrUnsupportedFormat
	}
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		switch {
		case m.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"), m.Is("application/zip"):
			return FormatWorkbook, nil
		case m.Is("application/vnd.ms-excel"), m.Is("application/x-ole-storage"):
			return "", ErrUnsupportedFormat
		case m.Is("text/plain"):
			return FormatCSV, nil
		}
	}
	return "", ErrUnsupportedFormat
}

// Options bundles the per-format reader settings.
type Options struct {
	CSVLayout *Layout
	Workbook  WorkbookOptions
}

// Extract detects the format of data and returns its row stream.
func Extract(fileName string, data []byte, opts Options) (Format, *Sequence) {
	format, err := Detect(fileName, data)
	if err != nil {
		return "", failed(err)
	}
	if format == FormatWorkbook {
		return format, FromWorkbook(data, opts.Workbook)
	}
	return format, FromCSV(data, opts.CSVLayout)
}
