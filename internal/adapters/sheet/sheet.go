// Package sheet turns uploaded spreadsheets into raw roster tables and writes
// rosters back out as workbooks.
package sheet

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/okian/recruitstat/internal/domain/model"
)

// Supported upload extensions.
var Extensions = []string{".xlsx", ".xls", ".csv"}

// Supported reports whether filename has an accepted extension.
func Supported(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Parse reads the first worksheet of an upload. The format is chosen by the
// filename extension. The first row is the header; fully blank rows are
// dropped and short rows are padded to the header width.
func Parse(filename string, r io.Reader) (model.Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return parseWorkbook(r)
	case ".csv":
		return parseCSV(r)
	default:
		return model.Table{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
}

// ParseBytes is Parse over an in-memory upload.
func ParseBytes(filename string, content []byte) (model.Table, error) {
	return Parse(filename, bytes.NewReader(content))
}

// tableFromRows applies the header and blank-row rules shared by all formats.
func tableFromRows(rows [][]string) model.Table {
	var t model.Table
	for len(rows) > 0 && blank(rows[0]) {
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return t
	}
	t.Columns = make([]string, len(rows[0]))
	for i, c := range rows[0] {
		t.Columns[i] = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
	}
	width := len(t.Columns)
	t.Rows = make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			row = padded
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
