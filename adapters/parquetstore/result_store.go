package parquetstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"enersense/domain/sensitivity"
	"enersense/ports"
)

// ResultStore persists sensitivity results as a flat parquet table plus a
// JSON report, and optionally an Excel summary workbook.
type ResultStore struct {
	dir        string
	writeExcel bool
}

// NewResultStore creates a result store writing into dir.
func NewResultStore(dir string, writeExcel bool) *ResultStore {
	return &ResultStore{dir: dir, writeExcel: writeExcel}
}

// SaveResults implements ports.ResultStore.
func (s *ResultStore) SaveResults(analysisType string, batch sensitivity.Batch, report ports.Report) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create results dir: %w", err)
	}

	rows := make([]SensitivityRow, 0, len(batch.Results))
	for _, r := range batch.Results {
		rows = append(rows, SensitivityRow{
			Parameter:        string(r.Parameter),
			OutputVariable:   string(r.OutputVariable),
			SensitivityScore: r.Score,
			Method:           string(r.Method),
			NSamples:         int64(r.NSamples),
			PValue:           r.Meta("p_value", 0),
			CILower:          r.Meta("ci_lower", 0),
			CIUpper:          r.Meta("ci_upper", 0),
			RegionID:         int64(r.Meta("region_id", -1)),
			SegmentIndex:     int64(r.Meta("segment_index", -1)),
			BreakpointValue:  r.Meta("breakpoint_value", 0),
		})
	}
	resultsPath := filepath.Join(s.dir, analysisType+"_sensitivity_results.parquet")
	if err := WriteRows(resultsPath, rows); err != nil {
		return err
	}

	reportPath := filepath.Join(s.dir, analysisType+"_sensitivity_report.json")
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(reportPath, payload, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", reportPath, err)
	}

	if s.writeExcel {
		excelPath := filepath.Join(s.dir, analysisType+"_sensitivity_report.xlsx")
		if err := writeExcelReport(excelPath, batch, report); err != nil {
			return err
		}
	}
	return nil
}

// LoadResults reads a previously persisted flat results table back.
func (s *ResultStore) LoadResults(analysisType string) ([]SensitivityRow, error) {
	return ReadRows[SensitivityRow](filepath.Join(s.dir, analysisType+"_sensitivity_results.parquet"))
}
