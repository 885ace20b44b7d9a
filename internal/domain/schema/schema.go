// Package schema enforces the roster input contract before any processing.
package schema

import (
	"errors"
	"strings"

	"github.com/okian/recruitstat/internal/domain/model"
)

// Sentinel kinds for schema rejections.
var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrNoRecords      = errors.New("no records")
)

// Result reports every violation found in one pass.
type Result struct {
	// Missing lists absent required columns in required order.
	Missing []string
	// HasRecords is false when the table has a header but no data rows.
	HasRecords bool
}

// OK reports whether the table satisfies the contract.
func (r Result) OK() bool { return len(r.Missing) == 0 && r.HasRecords }

// Err returns nil for a valid table, otherwise an *Error.
func (r Result) Err() error {
	if r.OK() {
		return nil
	}
	return &Error{Missing: append([]string(nil), r.Missing...), Empty: !r.HasRecords}
}

// Error is the user-facing validation rejection. Its message is the Chinese
// text shown to uploaders.
type Error struct {
	Missing []string
	Empty   bool
}

func (e *Error) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "缺少必需字段: "+strings.Join(e.Missing, ", "))
	}
	if e.Empty {
		parts = append(parts, "Excel文件中没有数据")
	}
	return strings.Join(parts, "; ")
}

// Unwrap exposes the sentinel kinds to errors.Is.
func (e *Error) Unwrap() []error {
	var errs []error
	if len(e.Missing) > 0 {
		errs = append(errs, ErrMissingColumns)
	}
	if e.Empty {
		errs = append(errs, ErrNoRecords)
	}
	return errs
}

// Validate checks that every required column is present and that at least
// one data row exists. Blank trailing rows do not count as records.
func Validate(t model.Table) Result {
	idx := t.Index()
	var missing []string
	for _, col := range model.RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	return Result{Missing: missing, HasRecords: hasData(t.Rows)}
}

func hasData(rows [][]string) bool {
	for _, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				return true
			}
		}
	}
	return false
}

// Check validates t and, when valid, returns its typed records.
func Check(t model.Table) (model.Dataset, error) {
	if err := Validate(t).Err(); err != nil {
		return nil, err
	}
	return t.Records(), nil
}
