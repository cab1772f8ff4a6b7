package ports

import "enersense/domain/sensitivity"

// Report is the JSON metadata written alongside the flat results table.
type Report struct {
	AnalysisID     string                       `json:"analysis_id"`
	AnalysisType   string                       `json:"analysis_type"`
	Timestamp      string                       `json:"timestamp"`
	ParameterCount int                          `json:"parameter_count"`
	OutputCount    int                          `json:"output_count"`
	ResultCount    int                          `json:"result_count"`
	SkipCount      int                          `json:"skip_count"`
	TopParameters  []TopParameter               `json:"top_parameters"`
	TimeSlice      *sensitivity.TimeSliceConfig `json:"time_slice,omitempty"`
	Methods        []string                     `json:"methods"`
}

// TopParameter is one entry of the report's parameter ranking.
type TopParameter struct {
	Parameter string  `json:"parameter"`
	Score     float64 `json:"score"`
}

// ResultStore persists sensitivity results. This is the only persistence
// boundary of the analysis core; every intermediate structure stays in
// memory.
type ResultStore interface {
	SaveResults(analysisType string, batch sensitivity.Batch, report Report) error
}
