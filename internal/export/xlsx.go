// Package export writes indicator rows to spreadsheet files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"moodcycle/internal/domain"
	"moodcycle/internal/util"
)

// SheetName is the worksheet holding the indicator rows.
const SheetName = "emotion_cycle"

// WriteXLSX writes one header row of column names followed by one row per
// record, in the order given. Undefined values are left as empty cells.
func WriteXLSX(w io.Writer, records []domain.IndicatorRecord) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	header := domain.ColumnNames()
	for i, name := range header {
		if err := setCell(f, i+1, 1, name); err != nil {
			return err
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	cols := domain.IndicatorColumns()
	for i := range records {
		row := i + 2
		if err := setCell(f, 1, row, util.FormatDate(records[i].TradeDate)); err != nil {
			return err
		}
		for j, v := range records[i].Values() {
			if !v.Valid {
				continue
			}
			var cell any = v.Float64
			if cols[j].Kind == domain.KindCount {
				cell = int64(v.Float64)
			}
			if err := setCell(f, j+2, row, cell); err != nil {
				return err
			}
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", 12); err != nil {
		return fmt.Errorf("sizing date column: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, col, row int, v any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(SheetName, cell, v); err != nil {
		return fmt.Errorf("setting %s: %w", cell, err)
	}
	return nil
}
