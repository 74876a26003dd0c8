// Package exporter persists analysis reports.
//
// Every report is flattened into named tables (see ReportTables). CSVWriter
// writes one CSV file per table with NaN as an empty cell, and XLSXWriter
// writes a single workbook with one sheet per table.
//
// Example usage:
//
//	svc.AddWriter(exporter.NewCSVWriter(nil))
//	svc.AddWriter(exporter.NewXLSXWriter("event_study.xlsx", logger))
package exporter
