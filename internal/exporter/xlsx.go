package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"macrostudy/internal/infrastructure"
	"macrostudy/internal/services"
)

// DefaultWorkbookName is the workbook file written by XLSXWriter
const DefaultWorkbookName = "event_study.xlsx"

// XLSXWriter writes all report tables into one workbook, one sheet per table
type XLSXWriter struct {
	filename string
	logger   *slog.Logger
}

// NewXLSXWriter creates a workbook writer. An empty filename uses
// DefaultWorkbookName; a nil logger uses the process logger.
func NewXLSXWriter(filename string, logger *slog.Logger) *XLSXWriter {
	if filename == "" {
		filename = DefaultWorkbookName
	}
	return &XLSXWriter{
		filename: filename,
		logger:   infrastructure.WithComponent(logger, "xlsx_exporter"),
	}
}

// WriteReport writes report to dir/<filename>
func (w *XLSXWriter) WriteReport(dir string, report *services.Report) error {
	path := filepath.Join(dir, w.filename)
	if err := WriteWorkbook(path, ReportTables(report)); err != nil {
		return err
	}

	w.logger.Info("XLSX report written",
		slog.String("file_path", path),
		slog.String("run_id", report.RunID))
	return nil
}

// WriteWorkbook writes tables to an .xlsx file at path, replacing it atomically
func WriteWorkbook(path string, tables []Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	defaultSheet := f.GetSheetName(0)
	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, t.Name); err != nil {
				return fmt.Errorf("failed to rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", t.Name, err)
		}

		if err := writeSheet(f, t, bold); err != nil {
			return fmt.Errorf("sheet %s: %w", t.Name, err)
		}
	}
	f.SetActiveSheet(0)

	return writeFileAtomic(path, func(out io.Writer) error {
		if _, err := f.WriteTo(out); err != nil {
			return fmt.Errorf("failed to save workbook: %w", err)
		}
		return nil
	})
}

func writeSheet(f *excelize.File, t Table, headerStyle int) error {
	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(t.Name, "A1", &header); err != nil {
		return err
	}

	last, err := excelize.CoordinatesToCellName(len(t.Headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(t.Name, "A1", last, headerStyle); err != nil {
		return err
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(t.Name, cell, &values); err != nil {
			return err
		}
	}

	return f.SetPanes(t.Name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
