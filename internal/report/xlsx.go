package report

import (
	"fmt"
	"os"

	"github.com/pable/go-nrl-stats/internal/model"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the table is written to.
const SheetName = "Stats"

// WriteXLSX writes the table as a single-sheet workbook. Numbers become numeric cells, the
// dash marker and text stay strings, empty cells are left blank. Like WriteFile, an existing
// file at path is only replaced once the workbook has been saved in full.
func WriteXLSX(path string, headers []string, rows []model.PlayerRecord) error {
	st, err := StageXLSX(path, headers, rows)
	if err != nil {
		return err
	}
	return st.Commit()
}

// StageXLSX saves the workbook to a temp file next to path without touching path itself.
func StageXLSX(path string, headers []string, rows []model.PlayerRecord) (*Staged, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	hdr := make([]any, len(headers))
	for i, h := range headers {
		hdr[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &hdr); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i := range rows {
		cells := rows[i].CellMap()
		row := make([]any, len(headers))
		for j, h := range headers {
			row[j] = cellValue(cells[h])
		}
		start, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, start, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	return stage(path, ".xlsx", func(tmp *os.File) error {
		return f.Write(tmp)
	})
}

func cellValue(v model.Value) any {
	if f, ok := v.Float(); ok {
		return f
	}
	if v.IsEmpty() {
		return nil
	}
	return v.String()
}
