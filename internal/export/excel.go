package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// workbook wraps excelize with sequential row writing per sheet.
type workbook struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

func newWorkbook() *workbook {
	return &workbook{file: excelize.NewFile()}
}

// addSheet opens a new sheet and makes it current.
func (w *workbook) addSheet(name string) error {
	// Excel caps sheet names at 31 chars.
	if len(name) > 31 {
		name = name[:31]
	}

	if w.currentSheet == "" {
		// Rename the default sheet instead of leaving an empty Sheet1.
		w.file.SetSheetName("Sheet1", name)
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// writeHeader writes a bold header row to the current sheet.
func (w *workbook) writeHeader(columns []string) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, col := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, col); err != nil {
			return err
		}
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, startCell, endCell, style)
	}

	w.currentRow++
	return nil
}

// writeRow appends a data row to the current sheet.
func (w *workbook) writeRow(row []interface{}) error {
	if w.currentSheet == "" {
		return fmt.Errorf("no active sheet")
	}

	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}

	w.currentRow++
	return nil
}

func (w *workbook) save(wr io.Writer) error {
	return w.file.Write(wr)
}

func (w *workbook) saveToFile(path string) error {
	return w.file.SaveAs(path)
}

func (w *workbook) close() error {
	return w.file.Close()
}
