// Package app orchestrates sensitivity analyses: it loads parsed simulation
// results through the data manager, prepares deltas and matrices, drives the
// estimator library and the optional hook analyzers, and persists results
// through the result store.
package app

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"enersense/adapters/relationships"
	"enersense/adapters/stats/methods"
	"enersense/adapters/timeslice"
	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
	"enersense/ports"
)

// LoadedResults is one cached load: per-building base and modified records,
// or the comparison table when the parser exported wide format instead.
type LoadedResults struct {
	ResultType string
	Base       map[core.BuildingID][]dataset.SimulationRecord
	Modified   map[core.BuildingID][]dataset.SimulationRecord
	Comparison map[core.BuildingID][]ports.ComparisonRecord
}

// Deps carries the collaborators an analyzer needs. Optional hooks may be
// nil; the corresponding operations then log a warning and return an empty
// batch instead of failing the run.
type Deps struct {
	DataManager   ports.DataManager
	ResultStore   ports.ResultStore
	Validation    ports.ValidationSource
	Modifications ports.ModificationSource

	Slicer        *timeslice.Slicer
	Relationships *relationships.Manager
	Library       *methods.Library

	Threshold   ports.ThresholdDetector
	Regional    ports.RegionalAnalyzer
	Uncertainty ports.UncertaintyAnalyzer
	Temporal    ports.TemporalAnalyzer
	Variance    ports.VarianceDecomposer

	CacheSize int
}

// BaseAnalyzer is the orchestration core shared by all concrete analyzers.
type BaseAnalyzer struct {
	deps  Deps
	cache *resultCache

	// Most recent load, consumed by CalculateOutputDeltas.
	loaded *LoadedResults
}

// NewBaseAnalyzer wires an analyzer. DataManager is required; everything
// else degrades gracefully when absent.
func NewBaseAnalyzer(deps Deps) (*BaseAnalyzer, error) {
	if deps.DataManager == nil {
		return nil, core.NewValidationError("data_manager", "required")
	}
	if deps.Slicer == nil {
		deps.Slicer = timeslice.NewSlicer()
	}
	if deps.Library == nil {
		deps.Library = methods.NewLibrary()
	}
	return &BaseAnalyzer{deps: deps, cache: newResultCache(deps.CacheSize)}, nil
}

// LoadSimulationResults loads base and modified results, applying the time
// slice when one is configured. Loads are memoized by
// (result type, categories, slice type); ClearCache drops the memo. An
// invalid time-slice config is logged and skipped, never fatal.
func (a *BaseAnalyzer) LoadSimulationResults(ctx context.Context, resultType string, categories []string, useCache bool, slice *sensitivity.TimeSliceConfig) (*LoadedResults, error) {
	if resultType == "" {
		resultType = "daily"
	}
	if slice != nil {
		if ok, problems := slice.Validate(); !ok {
			log.Printf("Warning: invalid time slice config, loading unsliced: %s", strings.Join(problems, "; "))
			slice = nil
		}
	}

	key := cacheKey(resultType, categories, slice)
	if useCache {
		if hit, ok := a.cache.get(key); ok {
			a.loaded = hit
			return hit, nil
		}
	}

	data, err := a.deps.DataManager.LoadSimulationResults(ctx, ports.LoadOptions{
		ResultType:   resultType,
		Categories:   categories,
		LoadModified: true,
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s results: %w", resultType, err)
	}

	loaded := &LoadedResults{
		ResultType: resultType,
		Base:       data.Base,
		Modified:   data.Modified,
		Comparison: data.Comparison,
	}
	if len(loaded.Modified) == 0 && len(loaded.Comparison) > 0 {
		reconstructFromComparison(loaded)
	}

	if slice != nil && slice.Enabled {
		for b, records := range loaded.Base {
			loaded.Base[b] = a.deps.Slicer.SliceData(records, slice)
		}
		for b, records := range loaded.Modified {
			loaded.Modified[b] = a.deps.Slicer.SliceData(records, slice)
		}
	}

	a.cache.put(key, loaded)
	a.loaded = loaded
	return loaded, nil
}

// ClearCache drops all memoized loads.
func (a *BaseAnalyzer) ClearCache() {
	a.cache.clear()
	a.loaded = nil
}

func cacheKey(resultType string, categories []string, slice *sensitivity.TimeSliceConfig) string {
	sorted := append([]string(nil), categories...)
	sort.Strings(sorted)
	return resultType + "|" + strings.Join(sorted, ",") + "|" + slice.CacheKey()
}

// reconstructFromComparison expands wide-format comparison rows into the
// usual base/modified record maps so downstream code has one shape to
// handle. Timestamps are absent in comparison exports, so time slicing does
// not apply to reconstructed data.
func reconstructFromComparison(loaded *LoadedResults) {
	if loaded.Base == nil {
		loaded.Base = make(map[core.BuildingID][]dataset.SimulationRecord)
	}
	if loaded.Modified == nil {
		loaded.Modified = make(map[core.BuildingID][]dataset.SimulationRecord)
	}
	for b, rows := range loaded.Comparison {
		for _, r := range rows {
			base := dataset.SimulationRecord{
				BuildingID: r.BuildingID,
				VariantID:  string(core.VariantBase),
				Variable:   r.Variable,
				Zone:       r.Zone,
				Value:      r.BaseValue,
				Units:      r.Units,
			}
			mod := base
			mod.VariantID = r.VariantID
			mod.Value = r.VariantValue
			loaded.Base[b] = append(loaded.Base[b], base)
			loaded.Modified[b] = append(loaded.Modified[b], mod)
		}
	}
}

// LoadValidationScores fetches per-building calibration quality. Absence of
// the artifact or the collaborator yields an empty map.
func (a *BaseAnalyzer) LoadValidationScores() map[core.BuildingID]ports.ValidationScore {
	if a.deps.Validation == nil {
		return map[core.BuildingID]ports.ValidationScore{}
	}
	scores, err := a.deps.Validation.LoadValidationScores()
	if err != nil {
		log.Printf("Warning: could not load validation scores: %v", err)
		return map[core.BuildingID]ports.ValidationScore{}
	}
	return scores
}

// ValidationWeight converts a calibration score into a sample weight in
// (0, 1]: 1 for a perfectly calibrated building, shrinking as CVRMSE grows.
// Buildings without a score weigh 1.
func ValidationWeight(scores map[core.BuildingID]ports.ValidationScore, b core.BuildingID) float64 {
	s, ok := scores[b]
	if !ok {
		return 1.0
	}
	return 1.0 / (1.0 + s.CVRMSE/100.0)
}

// Optional hook operations. A nil hook logs a warning and returns an empty
// batch; an error from a wired hook propagates.

func (a *BaseAnalyzer) DetectThresholds(x, y *dataset.Matrix, cfg sensitivity.ThresholdConfig) (sensitivity.Batch, error) {
	if a.deps.Threshold == nil {
		log.Printf("Warning: %v: threshold detection", core.ErrHookNotAvailable)
		return sensitivity.Batch{}, nil
	}
	return a.deps.Threshold.Analyze(x, y, cfg)
}

func (a *BaseAnalyzer) DetectNonlinearThresholds(x, y *dataset.Matrix, cfg sensitivity.ThresholdConfig) (sensitivity.Batch, error) {
	if a.deps.Threshold == nil {
		log.Printf("Warning: %v: nonlinear threshold detection", core.ErrHookNotAvailable)
		return sensitivity.Batch{}, nil
	}
	return a.deps.Threshold.DetectNonlinearThresholds(x, y, cfg)
}

func (a *BaseAnalyzer) CalculateRegionalSensitivity(x, y *dataset.Matrix, cfg sensitivity.RegionalConfig) (sensitivity.Batch, error) {
	if a.deps.Regional == nil {
		log.Printf("Warning: %v: regional sensitivity", core.ErrHookNotAvailable)
		return sensitivity.Batch{}, nil
	}
	return a.deps.Regional.Analyze(x, y, cfg)
}

func (a *BaseAnalyzer) CalculateLocalDerivatives(x, y *dataset.Matrix, points []map[string]float64, cfg sensitivity.RegionalConfig) (sensitivity.Batch, error) {
	if a.deps.Regional == nil {
		log.Printf("Warning: %v: local derivatives", core.ErrHookNotAvailable)
		return sensitivity.Batch{}, nil
	}
	return a.deps.Regional.CalculateLocalDerivatives(x, y, points, cfg)
}

func (a *BaseAnalyzer) CalculateUncertainty(x, y *dataset.Matrix) (sensitivity.Batch, error) {
	if a.deps.Uncertainty == nil {
		log.Printf("Warning: %v: uncertainty analysis", core.ErrHookNotAvailable)
		return sensitivity.Batch{}, nil
	}
	return a.deps.Uncertainty.Analyze(x, y)
}

func (a *BaseAnalyzer) AnalyzeTemporalPatterns(x, y *dataset.Matrix, slices []sensitivity.TimeSliceConfig) (sensitivity.Batch, error) {
	if a.deps.Temporal == nil {
		log.Printf("Warning: %v: temporal patterns", core.ErrHookNotAvailable)
		return sensitivity.Batch{}, nil
	}
	return a.deps.Temporal.Analyze(x, y, slices)
}

func (a *BaseAnalyzer) PerformVarianceDecomposition(x, y *dataset.Matrix) (sensitivity.Batch, error) {
	if a.deps.Variance == nil {
		log.Printf("Warning: %v: variance decomposition", core.ErrHookNotAvailable)
		return sensitivity.Batch{}, nil
	}
	return a.deps.Variance.Decompose(x, y)
}

// GenerateBaseReport summarizes a batch for persistence alongside the flat
// results table.
func (a *BaseAnalyzer) GenerateBaseReport(analysisType string, batch sensitivity.Batch, slice *sensitivity.TimeSliceConfig) ports.Report {
	params := make(map[core.ParameterKey]float64)
	outputs := make(map[core.OutputKey]bool)
	methodSet := make(map[string]bool)
	for _, r := range batch.Results {
		score := r.Score
		if score < 0 {
			score = -score
		}
		if score > params[r.Parameter] {
			params[r.Parameter] = score
		}
		outputs[r.OutputVariable] = true
		methodSet[string(r.Method)] = true
	}

	top := make([]ports.TopParameter, 0, len(params))
	for p, s := range params {
		top = append(top, ports.TopParameter{Parameter: string(p), Score: s})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Score != top[j].Score {
			return top[i].Score > top[j].Score
		}
		return top[i].Parameter < top[j].Parameter
	})
	if len(top) > 10 {
		top = top[:10]
	}

	methodNames := make([]string, 0, len(methodSet))
	for m := range methodSet {
		methodNames = append(methodNames, m)
	}
	sort.Strings(methodNames)

	return ports.Report{
		AnalysisID:     uuid.NewString(),
		AnalysisType:   analysisType,
		Timestamp:      time.Now().UTC().Format(time.RFC3339),
		ParameterCount: len(params),
		OutputCount:    len(outputs),
		ResultCount:    len(batch.Results),
		SkipCount:      len(batch.Skips),
		TopParameters:  top,
		TimeSlice:      slice,
		Methods:        methodNames,
	}
}

// SaveResults persists a batch and its report through the result store.
func (a *BaseAnalyzer) SaveResults(analysisType string, batch sensitivity.Batch, report ports.Report) error {
	if a.deps.ResultStore == nil {
		return core.NewValidationError("result_store", "not configured")
	}
	return a.deps.ResultStore.SaveResults(analysisType, batch, report)
}
