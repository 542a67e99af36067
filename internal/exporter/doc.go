// Package exporter writes tabular reports to disk.
//
// CSVWriter handles CSV files with optional headers, appending, streaming
// and a UTF-8 BOM for spreadsheet compatibility. XLSXWriter writes the same
// tables as a single-sheet workbook. Relative paths resolve against the
// writer's report directory.
//
// Example usage:
//
//	w := exporter.NewCSVWriter("reports", logger)
//	err := w.WriteSimpleCSV("baseline_report.csv", headers, records)
//
//	x := exporter.NewXLSXWriter("reports", logger)
//	err = x.WriteTable("baseline_report.xlsx", "Results", headers, rows)
package exporter
