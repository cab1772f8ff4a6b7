package methods

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/montanaflynn/stats"
	gstat "gonum.org/v1/gonum/stat"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// bootstrapEstimator resamples rows with replacement and recomputes a base
// sensitivity measure (correlation or a pairwise regression slope) per
// iteration, reporting the bootstrap mean, std and a percentile confidence
// interval next to the non-resampled original score.
type bootstrapEstimator struct{}

func (e *bootstrapEstimator) Method() sensitivity.Method { return sensitivity.MethodBootstrap }

func (e *bootstrapEstimator) Estimate(x, y *dataset.Matrix, cfg Config) (sensitivity.Batch, error) {
	iters := cfg.BootstrapIterations
	if iters <= 0 {
		iters = 1000
	}
	level := cfg.ConfidenceLevel
	if level <= 0 || level >= 1 {
		level = 0.95
	}
	base := cfg.BootstrapBase
	if base == "" {
		base = sensitivity.MethodCorrelation
	}
	if base != sensitivity.MethodCorrelation && base != sensitivity.MethodRegression {
		return sensitivity.Batch{}, fmt.Errorf("%w: bootstrap base %q", core.ErrUnknownMethod, base)
	}

	var batch sensitivity.Batch
	for xi, param := range x.Columns {
		for yj, output := range y.Columns {
			r, err := e.estimatePair(x, y, xi, yj, param, output, base, iters, level, cfg)
			if cerr := collectPair(&batch, cfg, core.ParameterKey(param), core.OutputKey(output), r, err); cerr != nil {
				return batch, cerr
			}
		}
	}
	return batch, nil
}

func (e *bootstrapEstimator) estimatePair(x, y *dataset.Matrix, xi, yj int, param, output string, base sensitivity.Method, iters int, level float64, cfg Config) (*sensitivity.Result, error) {
	xs, ys, err := pairData(x, y, xi, yj, cfg)
	if err != nil {
		return nil, err
	}
	n := len(xs)
	original := baseScore(xs, ys, base)
	if math.IsNaN(original) {
		return nil, fmt.Errorf("original score: %w", core.ErrDegenerateFit)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	scores := make([]float64, 0, iters)
	rx := make([]float64, n)
	ry := make([]float64, n)
	for it := 0; it < iters; it++ {
		for i := 0; i < n; i++ {
			j := rng.Intn(n)
			rx[i], ry[i] = xs[j], ys[j]
		}
		s := baseScore(rx, ry, base)
		if !math.IsNaN(s) {
			scores = append(scores, s)
		}
	}
	if len(scores) == 0 {
		return nil, fmt.Errorf("all resamples degenerate: %w", core.ErrDegenerateFit)
	}

	alpha := (1 - level) / 2
	lo, err := stats.Percentile(scores, 100*alpha)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDegenerateFit, err)
	}
	hi, err := stats.Percentile(scores, 100*(1-alpha))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDegenerateFit, err)
	}

	res := sensitivity.Result{
		Parameter:      core.ParameterKey(param),
		OutputVariable: core.OutputKey(output),
		Score:          math.Abs(gstat.Mean(scores, nil)),
		Method:         sensitivity.MethodBootstrap,
		NSamples:       n,
		Labels:         map[string]string{"bootstrap_base": string(base)},
	}
	res.WithMeta("original_score", original)
	res.WithMeta("bootstrap_mean", gstat.Mean(scores, nil))
	res.WithMeta("bootstrap_std", gstat.StdDev(scores, nil))
	res.WithMeta("ci_lower", lo)
	res.WithMeta("ci_upper", hi)
	res.WithMeta("iterations", float64(len(scores)))
	return &res, nil
}

// baseScore is the per-resample statistic: Pearson correlation, or the
// simple regression slope for the regression base.
func baseScore(xs, ys []float64, base sensitivity.Method) float64 {
	if gstat.Variance(xs, nil) == 0 || gstat.Variance(ys, nil) == 0 {
		return math.NaN()
	}
	if base == sensitivity.MethodRegression {
		_, slope := gstat.LinearRegression(xs, ys, nil, false)
		return slope
	}
	return gstat.Correlation(xs, ys, nil)
}
