package ports

import (
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// Optional analysis capabilities. Concrete analyzers receive these through
// constructor injection; a nil hook means the capability is unavailable and
// the analyzer degrades to a logged warning plus an empty batch.

// ThresholdDetector finds breakpoints in parameter-output relations.
type ThresholdDetector interface {
	Analyze(x, y *dataset.Matrix, cfg sensitivity.ThresholdConfig) (sensitivity.Batch, error)
	DetectNonlinearThresholds(x, y *dataset.Matrix, cfg sensitivity.ThresholdConfig) (sensitivity.Batch, error)
}

// RegionalAnalyzer decomposes sensitivity by parameter-space region.
type RegionalAnalyzer interface {
	Analyze(x, y *dataset.Matrix, cfg sensitivity.RegionalConfig) (sensitivity.Batch, error)
	CalculateLocalDerivatives(x, y *dataset.Matrix, points []map[string]float64, cfg sensitivity.RegionalConfig) (sensitivity.Batch, error)
}

// UncertaintyAnalyzer quantifies estimate uncertainty (bootstrap or Monte
// Carlo based).
type UncertaintyAnalyzer interface {
	Analyze(x, y *dataset.Matrix) (sensitivity.Batch, error)
}

// TemporalAnalyzer computes sensitivity per time slice.
type TemporalAnalyzer interface {
	Analyze(x, y *dataset.Matrix, slices []sensitivity.TimeSliceConfig) (sensitivity.Batch, error)
}

// VarianceDecomposer attributes output variance across parameters
// (Sobol-style).
type VarianceDecomposer interface {
	Decompose(x, y *dataset.Matrix) (sensitivity.Batch, error)
}
