package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/carfinder/internal/scan"
)

// XLSXWriter saves each scan run as a workbook with ACCEPTED and ALL sheets.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates an XLSXWriter that overwrites path on every write.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

func (w *XLSXWriter) Name() string { return "xlsx" }

// Write builds the workbook for run and saves it.
func (w *XLSXWriter) Write(_ context.Context, run scan.Run) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetAccepted); err != nil {
		return fmt.Errorf("renaming default sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetAll); err != nil {
		return fmt.Errorf("creating %s sheet: %w", sheetAll, err)
	}

	if err := writeSheet(f, sheetAccepted, buildRows(run.Report.AcceptedResults())); err != nil {
		return err
	}
	if err := writeSheet(f, sheetAll, buildRows(run.Report.Results)); err != nil {
		return err
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
