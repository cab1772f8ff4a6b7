package methods

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// CorrelationType selects the correlation coefficient.
type CorrelationType string

const (
	Pearson  CorrelationType = "pearson"
	Spearman CorrelationType = "spearman"
	Kendall  CorrelationType = "kendall"
)

// correlationEstimator scores each (parameter, output) pair by its
// correlation coefficient, with a t-test p-value and, for Pearson, a
// Fisher-z confidence interval.
type correlationEstimator struct{}

func (e *correlationEstimator) Method() sensitivity.Method { return sensitivity.MethodCorrelation }

func (e *correlationEstimator) Estimate(x, y *dataset.Matrix, cfg Config) (sensitivity.Batch, error) {
	var batch sensitivity.Batch
	for xi, param := range x.Columns {
		for yj, output := range y.Columns {
			r, err := e.estimatePair(x, y, xi, yj, param, output, cfg)
			if err := collectPair(&batch, cfg, core.ParameterKey(param), core.OutputKey(output), r, err); err != nil {
				return batch, err
			}
		}
	}
	return batch, nil
}

func (e *correlationEstimator) estimatePair(x, y *dataset.Matrix, xi, yj int, param, output string, cfg Config) (*sensitivity.Result, error) {
	xs, ys, err := pairData(x, y, xi, yj, cfg)
	if err != nil {
		return nil, err
	}
	n := len(xs)

	var r float64
	switch cfg.CorrelationType {
	case Spearman:
		r = stat.Correlation(Ranks(xs), Ranks(ys), nil)
	case Kendall:
		r = stat.Kendall(xs, ys, nil)
	case Pearson, "":
		r = stat.Correlation(xs, ys, nil)
	default:
		return nil, fmt.Errorf("%w: correlation type %q", core.ErrUnknownMethod, cfg.CorrelationType)
	}
	if math.IsNaN(r) {
		return nil, fmt.Errorf("correlation: %w", core.ErrDegenerateFit)
	}
	r = clamp(r, -1, 1)

	res := sensitivity.Result{
		Parameter:      core.ParameterKey(param),
		OutputVariable: core.OutputKey(output),
		Score:          math.Abs(r),
		Method:         sensitivity.MethodCorrelation,
		NSamples:       n,
		Labels:         map[string]string{"correlation_type": string(corrTypeOrDefault(cfg))},
	}
	res.WithMeta("correlation", r)
	res.WithMeta("p_value", correlationPValue(r, n, cfg.CorrelationType))

	if corrTypeOrDefault(cfg) == Pearson && n > 3 {
		lo, hi := fisherCI(r, n, cfg.ConfidenceLevel)
		res.WithMeta("ci_lower", lo)
		res.WithMeta("ci_upper", hi)
	}
	return &res, nil
}

func corrTypeOrDefault(cfg Config) CorrelationType {
	if cfg.CorrelationType == "" {
		return Pearson
	}
	return cfg.CorrelationType
}

// correlationPValue computes a two-tailed p-value. Pearson and Spearman use
// the t transform against Student's t with n-2 degrees of freedom; Kendall
// uses the normal approximation of tau's null distribution.
func correlationPValue(r float64, n int, ct CorrelationType) float64 {
	if n < 3 {
		return 1.0
	}
	if ct == Kendall {
		z := 3 * r * math.Sqrt(float64(n*(n-1))) / math.Sqrt(2*float64(2*n+5))
		norm := distuv.Normal{Mu: 0, Sigma: 1}
		return clamp(2*(1-norm.CDF(math.Abs(z))), 0, 1)
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return clamp(2*(1-tDist.CDF(math.Abs(t))), 0, 1)
}

// fisherCI computes the Fisher z-transform confidence interval for a Pearson
// correlation.
func fisherCI(r float64, n int, level float64) (float64, float64) {
	if level <= 0 || level >= 1 {
		level = 0.95
	}
	z := math.Atanh(clamp(r, -0.999999, 0.999999))
	se := 1 / math.Sqrt(float64(n-3))
	norm := distuv.Normal{Mu: 0, Sigma: 1}
	zCrit := norm.Quantile(1 - (1-level)/2)
	return math.Tanh(z - zCrit*se), math.Tanh(z + zCrit*se)
}

// Ranks converts values to fractional ranks, averaging ties.
func Ranks(data []float64) []float64 {
	n := len(data)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return data[idx[a]] < data[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i + 1
		for j < n && data[idx[j]] == data[idx[i]] {
			j++
		}
		avg := float64(i+1) + float64(j-i-1)/2.0
		for k := i; k < j; k++ {
			ranks[idx[k]] = avg
		}
		i = j
	}
	return ranks
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
