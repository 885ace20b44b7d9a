package sheet

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/recruitstat/internal/domain/model"
)

// Excel serial day numbers accepted as birth dates (1900-01-01 .. 2099-12-31).
const (
	minDateSerial = 1
	maxDateSerial = 73415
)

// Whole numbers in this range are birth years, never serials.
const (
	minYear = 1900
	maxYear = 2100
)

// Built-in number format ids that display a date.
var dateFormatIDs = [][2]int{{14, 22}, {27, 36}, {45, 47}, {50, 58}}

func parseWorkbook(r io.Reader) (model.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return model.Table{}, ErrNoSheet
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return model.Table{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	d := dateCells{f: f, sheet: sheets[0], date1904: date1904, styles: map[int]bool{}}
	d.fix(rows, model.ColBirthDate)
	return tableFromRows(rows), nil
}

type dateCells struct {
	f        *excelize.File
	sheet    string
	date1904 bool
	styles   map[int]bool
}

// fix rewrites date-formatted serial cells of column into year-first dates so
// cohort parsing sees the same text the cell displays. rows must be indexed
// by sheet row number.
func (d dateCells) fix(rows [][]string, column string) {
	header := 0
	for header < len(rows) && blank(rows[header]) {
		header++
	}
	if header == len(rows) {
		return
	}
	col := -1
	for i, c := range rows[header] {
		if strings.TrimSpace(strings.TrimPrefix(c, "\ufeff")) == column {
			col = i
			break
		}
	}
	if col < 0 {
		return
	}
	for i := header + 1; i < len(rows); i++ {
		if col >= len(rows[i]) || !d.isDate(col+1, i+1) {
			continue
		}
		if v, ok := serialDate(rows[i][col], d.date1904); ok {
			rows[i][col] = v
		}
	}
}

func (d dateCells) isDate(col, row int) bool {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false
	}
	idx, err := d.f.GetCellStyle(d.sheet, cell)
	if err != nil {
		return false
	}
	if v, ok := d.styles[idx]; ok {
		return v
	}
	v := false
	if style, err := d.f.GetStyle(idx); err == nil && style != nil {
		v = dateFormat(style.NumFmt, style.CustomNumFmt)
	}
	d.styles[idx] = v
	return v
}

func dateFormat(id int, custom *string) bool {
	if custom != nil && *custom != "" {
		return customDateFormat(*custom)
	}
	for _, r := range dateFormatIDs {
		if id >= r[0] && id <= r[1] {
			return true
		}
	}
	return false
}

// customDateFormat reports whether a format code has day or year tokens
// outside quoted literals and bracketed sections.
func customDateFormat(code string) bool {
	var quoted, bracket bool
	for _, c := range strings.ToLower(code) {
		switch {
		case c == '"':
			quoted = !quoted
		case quoted:
		case c == '[':
			bracket = true
		case c == ']':
			bracket = false
		case bracket:
		case c == 'y' || c == 'd':
			return true
		}
	}
	return false
}

func serialDate(cell string, date1904 bool) (string, bool) {
	cell = strings.TrimSpace(cell)
	if cell == "" || strings.ContainsAny(cell, "-/") {
		return "", false
	}
	serial, err := strconv.ParseFloat(cell, 64)
	if err != nil || serial < minDateSerial || serial > maxDateSerial {
		return "", false
	}
	if serial == math.Trunc(serial) && serial >= minYear && serial <= maxYear {
		return "", false
	}
	tm, err := excelize.ExcelDateToTime(serial, date1904)
	if err != nil {
		return "", false
	}
	return tm.Format("2006-01-02"), true
}
