package parquetstore

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"enersense/domain/sensitivity"
	"enersense/ports"
)

// writeExcelReport exports a two-sheet workbook: a run summary with the
// top-ranked parameters, and the full flat results table.
func writeExcelReport(path string, batch sensitivity.Batch, report ports.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("excel report: %w", err)
	}

	summary := [][]interface{}{
		{"Analysis ID", report.AnalysisID},
		{"Analysis Type", report.AnalysisType},
		{"Timestamp", report.Timestamp},
		{"Parameters", report.ParameterCount},
		{"Outputs", report.OutputCount},
		{"Results", report.ResultCount},
		{"Skipped pairs", report.SkipCount},
		{},
		{"Top Parameters", "Score"},
	}
	for _, tp := range report.TopParameters {
		summary = append(summary, []interface{}{tp.Parameter, tp.Score})
	}
	for i, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("excel report: %w", err)
		}
	}

	const resultsSheet = "Results"
	if _, err := f.NewSheet(resultsSheet); err != nil {
		return fmt.Errorf("excel report: %w", err)
	}
	header := []interface{}{"parameter", "output_variable", "sensitivity_score", "method", "n_samples"}
	if err := f.SetSheetRow(resultsSheet, "A1", &header); err != nil {
		return fmt.Errorf("excel report: %w", err)
	}
	for i, r := range batch.Results {
		row := []interface{}{string(r.Parameter), string(r.OutputVariable), r.Score, string(r.Method), r.NSamples}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(resultsSheet, cell, &row); err != nil {
			return fmt.Errorf("excel report: %w", err)
		}
	}

	return f.SaveAs(path)
}
