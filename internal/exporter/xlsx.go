package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"stflow/internal/files"
)

// XLSXWriter writes tables as workbooks
type XLSXWriter struct {
	reportDir string
	files     *files.Manager
	logger    *slog.Logger
}

// NewXLSXWriter creates a workbook writer that resolves relative paths against reportDir
func NewXLSXWriter(reportDir string, logger *slog.Logger) *XLSXWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &XLSXWriter{
		reportDir: reportDir,
		files:     files.NewManager(logger),
		logger:    logger.With(slog.String("component", "xlsx_writer")),
	}
}

// Sheet is one worksheet of a workbook
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// WriteTable writes a single-sheet workbook
func (w *XLSXWriter) WriteTable(filePath, sheet string, headers []string, rows [][]any) error {
	return w.WriteSheets(filePath, Sheet{Name: sheet, Headers: headers, Rows: rows})
}

// WriteSheets writes a workbook with one worksheet per sheet, in order.
// Headers are bold and the header row is frozen.
func (w *XLSXWriter) WriteSheets(filePath string, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("workbook %s has no sheets", filePath)
	}
	fullPath := resolve(w.reportDir, filePath)

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), sheet.Name); err != nil {
				return fmt.Errorf("failed to name sheet %q: %w", sheet.Name, err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			return fmt.Errorf("failed to add sheet %q: %w", sheet.Name, err)
		}
		if err := writeSheet(f, sheet, bold); err != nil {
			return err
		}
	}

	w.logger.Info("writing workbook",
		slog.String("file_path", filePath),
		slog.String("full_path", fullPath),
		slog.Int("sheets", len(sheets)))

	return w.files.WriteAtomic(fullPath, func(out io.Writer) error {
		if err := f.Write(out); err != nil {
			return fmt.Errorf("failed to write workbook: %w", err)
		}
		return nil
	})
}

func writeSheet(f *excelize.File, sheet Sheet, headerStyle int) error {
	row := 1
	if len(sheet.Headers) > 0 {
		header := make([]any, len(sheet.Headers))
		for i, h := range sheet.Headers {
			header[i] = h
		}
		if err := f.SetSheetRow(sheet.Name, "A1", &header); err != nil {
			return fmt.Errorf("failed to write headers of %q: %w", sheet.Name, err)
		}
		last, err := excelize.CoordinatesToCellName(len(header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet.Name, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("failed to style headers of %q: %w", sheet.Name, err)
		}
		if err := f.SetPanes(sheet.Name, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("failed to freeze headers of %q: %w", sheet.Name, err)
		}
		row++
	}

	for _, values := range sheet.Rows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := values
		if err := f.SetSheetRow(sheet.Name, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %q: %w", row, sheet.Name, err)
		}
		row++
	}
	return nil
}
