// Package methods is the stateless sensitivity estimator library:
// correlation, regression, mutual information, random forest, elasticity and
// bootstrap estimators over a parameter matrix X and output matrix Y, plus
// cross-method aggregation and interaction-effect scoring.
//
// Every estimator shares one contract: numeric columns only, a minimum
// sample count, and per-(parameter, output) isolation. A pair that cannot
// compute (NaNs, zero variance, degenerate fit) is recorded as a skip in the
// batch instead of failing the run.
package methods

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// Config carries every estimator knob with documented defaults.
type Config struct {
	MinSamples      int     // minimum joined sample count (default 10)
	ConfidenceLevel float64 // CI level for correlation and bootstrap (default 0.95)

	// correlation
	CorrelationType CorrelationType

	// regression
	RegressionType RegressionType
	Standardize    bool
	RidgeAlpha     float64
	LassoAlpha     float64

	// mutual information
	MIBins int

	// random forest
	NTrees         int
	MinSamplesLeaf int

	// elasticity
	DeltaFraction float64

	// bootstrap
	BootstrapIterations int
	BootstrapBase       sensitivity.Method // correlation or regression

	// interactions
	MaxInteractions int

	// Seed fixes all stochastic estimators for reproducible runs.
	Seed int64

	// FailFast aborts a batch on the first skip instead of collecting
	// skips and continuing.
	FailFast bool
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MinSamples:          10,
		ConfidenceLevel:     0.95,
		CorrelationType:     Pearson,
		RegressionType:      Linear,
		Standardize:         true,
		RidgeAlpha:          1.0,
		LassoAlpha:          0.1,
		MIBins:              10,
		NTrees:              100,
		MinSamplesLeaf:      2,
		DeltaFraction:       0.01,
		BootstrapIterations: 1000,
		BootstrapBase:       sensitivity.MethodCorrelation,
		MaxInteractions:     10,
		Seed:                42,
	}
}

// Estimator is one sensitivity estimation strategy.
type Estimator interface {
	Method() sensitivity.Method
	Estimate(x, y *dataset.Matrix, cfg Config) (sensitivity.Batch, error)
}

// Library dispatches to the built-in estimators by method. It carries no
// per-call state and a single reusable scaler; instances are not safe for
// concurrent use.
type Library struct {
	estimators map[sensitivity.Method]Estimator
	scaler     *StandardScaler
}

// NewLibrary builds the estimator strategy table.
func NewLibrary() *Library {
	l := &Library{scaler: NewStandardScaler()}
	l.estimators = map[sensitivity.Method]Estimator{
		sensitivity.MethodCorrelation:  &correlationEstimator{},
		sensitivity.MethodRegression:   &regressionEstimator{scaler: l.scaler},
		sensitivity.MethodMutualInfo:   &mutualInfoEstimator{},
		sensitivity.MethodRandomForest: &forestEstimator{},
		sensitivity.MethodElasticity:   &elasticityEstimator{},
		sensitivity.MethodBootstrap:    &bootstrapEstimator{},
	}
	return l
}

// Methods lists the built-in estimator methods.
func (l *Library) Methods() []sensitivity.Method {
	out := make([]sensitivity.Method, 0, len(l.estimators))
	for m := range l.estimators {
		out = append(out, m)
	}
	return out
}

// CalculateSensitivity runs one estimator over all (parameter, output)
// pairs. Unknown methods are an explicit error rather than a silent
// fallback.
func (l *Library) CalculateSensitivity(x, y *dataset.Matrix, method sensitivity.Method, cfg Config) (sensitivity.Batch, error) {
	est, ok := l.estimators[method]
	if !ok {
		return sensitivity.Batch{}, fmt.Errorf("%w: %q", core.ErrUnknownMethod, method)
	}
	jx, jy := dataset.InnerJoin(x.DropAllNaNRows(), y.DropAllNaNRows())
	if jx.RowCount() < cfg.MinSamples {
		return sensitivity.Batch{}, fmt.Errorf("%w: %d joined samples, need %d",
			core.ErrInsufficientData, jx.RowCount(), cfg.MinSamples)
	}
	return est.Estimate(jx, jy, cfg)
}

// pairData prepares one (parameter, output) pair: drops NaN rows and
// enforces the minimum sample count and variance preconditions shared by the
// pairwise estimators.
func pairData(x, y *dataset.Matrix, xi, yj int, cfg Config) ([]float64, []float64, error) {
	xs, ys := dataset.PairedColumns(x, y, xi, yj)
	if len(xs) < cfg.MinSamples {
		return nil, nil, fmt.Errorf("%w: %d samples", core.ErrInsufficientData, len(xs))
	}
	if stat.Variance(xs, nil) == 0 {
		return nil, nil, fmt.Errorf("parameter: %w", core.ErrZeroVariance)
	}
	if stat.Variance(ys, nil) == 0 {
		return nil, nil, fmt.Errorf("output: %w", core.ErrZeroVariance)
	}
	return xs, ys, nil
}

// collectPair appends a unit result or records the skip, honoring FailFast.
func collectPair(batch *sensitivity.Batch, cfg Config, p core.ParameterKey, o core.OutputKey, r *sensitivity.Result, err error) error {
	if err != nil {
		if cfg.FailFast {
			return core.NewSkipError(string(p), string(o), err)
		}
		batch.AddSkip(p, o, err)
		return nil
	}
	batch.Results = append(batch.Results, *r)
	return nil
}

// finiteOr returns v, or def when v is NaN or infinite.
func finiteOr(v, def float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	return v
}
