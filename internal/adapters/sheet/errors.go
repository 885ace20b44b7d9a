package sheet

import "errors"

var (
	// ErrUnsupportedFormat is returned for file extensions other than .xlsx, .xls and .csv.
	ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")
	// ErrNoSheet is returned when a workbook has no worksheet.
	ErrNoSheet = errors.New("workbook has no worksheet")
	// ErrParse wraps reader failures.
	ErrParse = errors.New("spreadsheet parse failed")
)
