package sheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/okian/recruitstat/internal/domain/model"
)

// DefaultSheet is the worksheet name used by WriteWorkbook.
const DefaultSheet = "Sheet1"

// WriteWorkbook writes a header row plus data rows as a single-sheet xlsx.
func WriteWorkbook(w io.Writer, columns []string, rows [][]string) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	write := func(rowNum int, cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		return f.SetSheetRow(DefaultSheet, cell, &cells)
	}

	if err := write(1, columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		if err := write(i+2, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteEnriched writes an enriched dataset with the derived columns appended.
func WriteEnriched(w io.Writer, ds model.EnrichedDataset) error {
	rows := make([][]string, len(ds))
	for i := range ds {
		rows[i] = ds.Row(i)
	}
	return WriteWorkbook(w, ds.Columns(), rows)
}
