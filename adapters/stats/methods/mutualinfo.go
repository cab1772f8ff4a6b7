package methods

import (
	"math"
	"sort"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// mutualInfoEstimator scores each (parameter, output) pair by binned mutual
// information, normalized to [0,1] per output by dividing by the largest MI
// among that output's parameters.
type mutualInfoEstimator struct{}

func (e *mutualInfoEstimator) Method() sensitivity.Method { return sensitivity.MethodMutualInfo }

func (e *mutualInfoEstimator) Estimate(x, y *dataset.Matrix, cfg Config) (sensitivity.Batch, error) {
	bins := cfg.MIBins
	if bins <= 1 {
		bins = 10
	}

	var batch sensitivity.Batch
	for yj, output := range y.Columns {
		// Raw MI per parameter first; normalization needs the column max.
		raw := make(map[string]struct {
			mi float64
			n  int
		})
		maxMI := 0.0
		for xi, param := range x.Columns {
			xs, ys, err := pairData(x, y, xi, yj, cfg)
			if err != nil {
				if cerr := collectPair(&batch, cfg, core.ParameterKey(param), core.OutputKey(output), nil, err); cerr != nil {
					return batch, cerr
				}
				continue
			}
			mi := mutualInformation(xs, ys, bins)
			raw[param] = struct {
				mi float64
				n  int
			}{mi, len(xs)}
			if mi > maxMI {
				maxMI = mi
			}
		}
		for _, param := range x.Columns {
			v, ok := raw[param]
			if !ok {
				continue
			}
			score := 0.0
			if maxMI > 0 {
				score = v.mi / maxMI
			}
			res := sensitivity.Result{
				Parameter:      core.ParameterKey(param),
				OutputVariable: core.OutputKey(output),
				Score:          score,
				Method:         sensitivity.MethodMutualInfo,
				NSamples:       v.n,
			}
			res.WithMeta("mutual_information", v.mi)
			batch.Results = append(batch.Results, res)
		}
	}
	return batch, nil
}

// mutualInformation computes I(X;Y) = H(X) + H(Y) − H(X,Y) over
// quantile-binned variables.
func mutualInformation(xs, ys []float64, bins int) float64 {
	xb := quantileBins(xs, bins)
	yb := quantileBins(ys, bins)
	return math.Max(0, entropy(xb)+entropy(yb)-jointEntropy(xb, yb))
}

// quantileBins discretizes values into equal-population bins.
func quantileBins(data []float64, bins int) []int {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	out := make([]int, len(data))
	for i, v := range data {
		bin := 0
		for b := 1; b < bins; b++ {
			if v >= sorted[(len(sorted)*b)/bins] {
				bin = b
			} else {
				break
			}
		}
		out[i] = bin
	}
	return out
}

func entropy(bins []int) float64 {
	counts := make(map[int]int)
	for _, b := range bins {
		counts[b]++
	}
	h, n := 0.0, float64(len(bins))
	for _, c := range counts {
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}

func jointEntropy(xb, yb []int) float64 {
	counts := make(map[[2]int]int)
	for i := range xb {
		counts[[2]int{xb[i], yb[i]}]++
	}
	h, n := 0.0, float64(len(xb))
	for _, c := range counts {
		p := float64(c) / n
		h -= p * math.Log2(p)
	}
	return h
}
