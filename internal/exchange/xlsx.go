package exchange

import (
	"fmt"
	"io"

	"conti/internal/core"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet ExportXLSX writes to.
const SheetName = "Transactions"

// ExportXLSX writes txs as a single-sheet workbook with the CSV column layout.
func ExportXLSX(w io.Writer, txs []core.Transaction) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range Header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for idx, t := range txs {
		row := idx + 2
		values := []any{
			t.ID,
			t.Date.String(),
			t.Amount.InexactFloat64(),
			string(t.Kind),
			t.Category,
			t.Notes,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
	}

	f.SetColWidth(SheetName, "A", "A", 8)
	f.SetColWidth(SheetName, "B", "B", 12)
	f.SetColWidth(SheetName, "C", "C", 12)
	f.SetColWidth(SheetName, "D", "D", 10)
	f.SetColWidth(SheetName, "E", "E", 16)
	f.SetColWidth(SheetName, "F", "F", 40)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
