package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"macrostudy/internal/infrastructure"
	"macrostudy/internal/services"
)

// CSVWriter writes report tables as CSV files
type CSVWriter struct {
	logger    *slog.Logger
	bomPrefix bool
}

// NewCSVWriter creates a new CSV writer instance. A nil logger uses the
// process logger.
func NewCSVWriter(logger *slog.Logger) *CSVWriter {
	return &CSVWriter{logger: infrastructure.WithComponent(logger, "csv_exporter")}
}

// WithBOM makes the writer prefix files with a UTF-8 BOM for Excel compatibility
func (w *CSVWriter) WithBOM() *CSVWriter {
	w.bomPrefix = true
	return w
}

// WriteReport writes every table of report to dir/<table>.csv
func (w *CSVWriter) WriteReport(dir string, report *services.Report) error {
	for _, t := range ReportTables(report) {
		if err := w.WriteTable(filepath.Join(dir, t.Name+".csv"), t); err != nil {
			return fmt.Errorf("write %s: %w", t.Name, err)
		}
	}

	w.logger.Info("CSV report written",
		slog.String("dir", dir),
		slog.String("run_id", report.RunID))
	return nil
}

// WriteTable writes t to filePath, creating parent directories. The file is
// replaced atomically.
func (w *CSVWriter) WriteTable(filePath string, t Table) error {
	w.logger.Debug("Writing CSV file",
		slog.String("file_path", filePath),
		slog.Int("record_count", len(t.Rows)))

	return writeFileAtomic(filePath, func(out io.Writer) error {
		return w.encode(out, t)
	})
}

func (w *CSVWriter) encode(out io.Writer, t Table) error {
	if w.bomPrefix {
		if _, err := out.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)
	if err := writer.Write(t.Headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	record := make([]string, len(t.Headers))
	for i, row := range t.Rows {
		for j := range record {
			record[j] = ""
			if j < len(row) {
				record[j] = formatCell(row[j])
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
