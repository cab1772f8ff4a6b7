package app

import (
	"context"
	"fmt"
	"log"

	"enersense/adapters/stats/methods"
	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
	"enersense/ports"
)

// Analyzer is what concrete analysis flavors implement on top of
// BaseAnalyzer.
type Analyzer interface {
	CalculateSensitivity(ctx context.Context, req AnalysisRequest) (sensitivity.Batch, error)
	AnalysisType() string
}

// AnalysisRequest is one full analysis run description.
type AnalysisRequest struct {
	ResultType      string
	Categories      []string
	OutputVariables []string
	Aggregation     string   // delta aggregation: sum, mean, max, min
	GroupBy         []string // delta grouping dimensions

	Methods           []sensitivity.Method
	MethodAggregation sensitivity.Aggregation // "" = report per-method rows

	TimeSlice          *sensitivity.TimeSliceConfig
	UseCache           bool
	WeightByValidation bool

	ThresholdConfig *sensitivity.ThresholdConfig
	RegionalConfig  *sensitivity.RegionalConfig
}

// ParameterAnalyzer relates scenario parameter modifications to output
// deltas: X comes from the modification log, Y from base-vs-modified deltas.
type ParameterAnalyzer struct {
	*BaseAnalyzer
	cfg methods.Config
}

// NewParameterAnalyzer wires a parameter sensitivity analyzer. A modification
// source is required since it supplies the X matrix.
func NewParameterAnalyzer(deps Deps, cfg methods.Config) (*ParameterAnalyzer, error) {
	if deps.Modifications == nil {
		return nil, core.NewValidationError("modifications", "required for parameter analysis")
	}
	base, err := NewBaseAnalyzer(deps)
	if err != nil {
		return nil, err
	}
	return &ParameterAnalyzer{BaseAnalyzer: base, cfg: cfg}, nil
}

func (p *ParameterAnalyzer) AnalysisType() string { return "parameter_sensitivity" }

// CalculateSensitivity runs the full pipeline: load, delta, pivot, estimate.
// Each requested method contributes its own result rows; when a method
// aggregation is requested the per-method scores are additionally combined
// into one row per (parameter, output).
func (p *ParameterAnalyzer) CalculateSensitivity(ctx context.Context, req AnalysisRequest) (sensitivity.Batch, error) {
	var batch sensitivity.Batch
	if len(req.Methods) == 0 {
		req.Methods = []sensitivity.Method{sensitivity.MethodCorrelation}
	}

	if _, err := p.LoadSimulationResults(ctx, req.ResultType, req.Categories, req.UseCache, req.TimeSlice); err != nil {
		return batch, err
	}
	deltas, err := p.CalculateOutputDeltas(req.OutputVariables, req.Aggregation, req.GroupBy)
	if err != nil {
		return batch, err
	}

	mods, err := p.deps.Modifications.LoadModifications()
	if err != nil {
		return batch, fmt.Errorf("loading modification log: %w", err)
	}
	x, err := BuildParameterMatrix(mods)
	if err != nil {
		return batch, fmt.Errorf("building parameter matrix: %w", err)
	}

	var scores map[core.BuildingID]ports.ValidationScore
	if req.WeightByValidation {
		scores = p.LoadValidationScores()
	}
	y, err := BuildDeltaMatrix(deltas, scores)
	if err != nil {
		return batch, fmt.Errorf("building delta matrix: %w", err)
	}

	var perMethod []sensitivity.Batch
	for _, method := range req.Methods {
		mb, err := p.runMethod(x, y, method, req)
		if err != nil {
			return batch, fmt.Errorf("method %s: %w", method, err)
		}
		perMethod = append(perMethod, mb)
		batch.Append(mb)
	}

	if req.MethodAggregation != "" && len(req.Methods) > 1 {
		agg, err := methods.AggregateMethods(perMethod, req.MethodAggregation, nil)
		if err != nil {
			log.Printf("Warning: method aggregation failed: %v", err)
		} else {
			batch.Append(agg)
		}
	}
	return batch, nil
}

func (p *ParameterAnalyzer) runMethod(x, y *dataset.Matrix, method sensitivity.Method, req AnalysisRequest) (sensitivity.Batch, error) {
	switch method {
	case sensitivity.MethodThreshold:
		cfg := sensitivity.DefaultThresholdConfig()
		if req.ThresholdConfig != nil {
			cfg = *req.ThresholdConfig
		}
		return p.DetectThresholds(x, y, cfg)
	case sensitivity.MethodRegional:
		cfg := sensitivity.DefaultRegionalConfig()
		if req.RegionalConfig != nil {
			cfg = *req.RegionalConfig
		}
		return p.CalculateRegionalSensitivity(x, y, cfg)
	case sensitivity.MethodInteraction:
		return methods.CalculateInteractionEffects(x, y, p.cfg.MaxInteractions, p.cfg)
	case sensitivity.MethodTemporal:
		return p.AnalyzeTemporalPatterns(x, y, nil)
	case sensitivity.MethodSobol:
		return p.PerformVarianceDecomposition(x, y)
	default:
		return p.deps.Library.CalculateSensitivity(x, y, method, p.cfg)
	}
}

// Run executes a request end to end and persists the outcome.
func (p *ParameterAnalyzer) Run(ctx context.Context, req AnalysisRequest) (ports.Report, error) {
	batch, err := p.CalculateSensitivity(ctx, req)
	if err != nil {
		return ports.Report{}, err
	}
	report := p.GenerateBaseReport(p.AnalysisType(), batch, req.TimeSlice)
	if p.deps.ResultStore != nil {
		if err := p.SaveResults(p.AnalysisType(), batch, report); err != nil {
			return report, fmt.Errorf("saving results: %w", err)
		}
	}
	return report, nil
}
