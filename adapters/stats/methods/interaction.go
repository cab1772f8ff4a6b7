package methods

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// CalculateInteractionEffects ranks parameter pairs by the variance of their
// product feature, fits y ~ x1 + x2 + x1·x2 for the top pairs, and scores
// each by the interaction coefficient's share of total coefficient
// magnitude.
func CalculateInteractionEffects(x, y *dataset.Matrix, maxInteractions int, cfg Config) (sensitivity.Batch, error) {
	if maxInteractions <= 0 {
		maxInteractions = 10
	}
	var batch sensitivity.Batch
	p := x.ColumnCount()
	if p < 2 {
		return batch, fmt.Errorf("%w: need at least 2 parameters for interactions", core.ErrInsufficientData)
	}
	n := x.RowCount()
	if n < cfg.MinSamples {
		return batch, fmt.Errorf("%w: %d samples", core.ErrInsufficientData, n)
	}

	type pair struct {
		i, j    int
		prodVar float64
	}
	var pairs []pair
	for i := 0; i < p-1; i++ {
		ci := x.ColumnAt(i)
		for j := i + 1; j < p; j++ {
			cj := x.ColumnAt(j)
			var prod []float64
			for k := 0; k < n; k++ {
				if math.IsNaN(ci[k]) || math.IsNaN(cj[k]) {
					continue
				}
				prod = append(prod, ci[k]*cj[k])
			}
			if len(prod) < cfg.MinSamples {
				continue
			}
			pairs = append(pairs, pair{i, j, stat.Variance(prod, nil)})
		}
	}
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].prodVar > pairs[b].prodVar })
	if len(pairs) > maxInteractions {
		pairs = pairs[:maxInteractions]
	}

	for yj, output := range y.Columns {
		ys := y.ColumnAt(yj)
		for _, pr := range pairs {
			res, err := interactionFit(x, ys, pr.i, pr.j, output, cfg.MinSamples)
			key := core.ParameterKey(x.Columns[pr.i] + "*" + x.Columns[pr.j])
			if cerr := collectPair(&batch, cfg, key, core.OutputKey(output), res, err); cerr != nil {
				return batch, cerr
			}
		}
	}
	return batch, nil
}

func interactionFit(x *dataset.Matrix, ys []float64, i, j int, output string, minSamples int) (*sensitivity.Result, error) {
	ci, cj := x.ColumnAt(i), x.ColumnAt(j)

	var x1, x2, yv []float64
	for k := range ys {
		if math.IsNaN(ci[k]) || math.IsNaN(cj[k]) || math.IsNaN(ys[k]) {
			continue
		}
		x1 = append(x1, ci[k])
		x2 = append(x2, cj[k])
		yv = append(yv, ys[k])
	}
	n := len(yv)
	if n < minSamples {
		return nil, fmt.Errorf("%w: %d complete rows", core.ErrInsufficientData, n)
	}

	a := mat.NewDense(n, 4, nil)
	for k := 0; k < n; k++ {
		a.Set(k, 0, 1)
		a.Set(k, 1, x1[k])
		a.Set(k, 2, x2[k])
		a.Set(k, 3, x1[k]*x2[k])
	}
	b := mat.NewVecDense(n, yv)
	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDegenerateFit, err)
	}

	c1, c2, c12 := beta.AtVec(1), beta.AtVec(2), beta.AtVec(3)
	total := math.Abs(c1) + math.Abs(c2) + math.Abs(c12)
	if total == 0 {
		return nil, fmt.Errorf("all coefficients zero: %w", core.ErrDegenerateFit)
	}

	res := sensitivity.Result{
		Parameter:      core.ParameterKey(x.Columns[i] + "*" + x.Columns[j]),
		OutputVariable: core.OutputKey(output),
		Score:          math.Abs(c12) / total,
		Method:         sensitivity.MethodInteraction,
		NSamples:       n,
		Labels: map[string]string{
			"parameter_1": x.Columns[i],
			"parameter_2": x.Columns[j],
		},
	}
	res.WithMeta("interaction_importance", math.Abs(c12)/total)
	res.WithMeta("coefficient_1", c1)
	res.WithMeta("coefficient_2", c2)
	res.WithMeta("interaction_coefficient", c12)
	return &res, nil
}
