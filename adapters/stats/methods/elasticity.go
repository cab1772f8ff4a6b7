package methods

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// elasticityEstimator computes percentage-change sensitivity near the
// parameter mean: a local linear slope over a ±delta window around x̄,
// scaled by x̄/ȳ.
type elasticityEstimator struct{}

func (e *elasticityEstimator) Method() sensitivity.Method { return sensitivity.MethodElasticity }

func (e *elasticityEstimator) Estimate(x, y *dataset.Matrix, cfg Config) (sensitivity.Batch, error) {
	deltaFrac := cfg.DeltaFraction
	if deltaFrac <= 0 {
		deltaFrac = 0.01
	}

	var batch sensitivity.Batch
	for xi, param := range x.Columns {
		for yj, output := range y.Columns {
			r, err := e.estimatePair(x, y, xi, yj, param, output, deltaFrac, cfg)
			if cerr := collectPair(&batch, cfg, core.ParameterKey(param), core.OutputKey(output), r, err); cerr != nil {
				return batch, cerr
			}
		}
	}
	return batch, nil
}

func (e *elasticityEstimator) estimatePair(x, y *dataset.Matrix, xi, yj int, param, output string, deltaFrac float64, cfg Config) (*sensitivity.Result, error) {
	xs, ys, err := pairData(x, y, xi, yj, cfg)
	if err != nil {
		return nil, err
	}

	xMean := stat.Mean(xs, nil)
	yMean := stat.Mean(ys, nil)
	if xMean == 0 || yMean == 0 {
		return nil, fmt.Errorf("zero mean: %w", core.ErrDegenerateFit)
	}

	// Restrict to the local window around the parameter mean. The estimate
	// is local by definition; a window too sparse to fit a slope is a skip,
	// not a license to widen.
	window := math.Abs(xMean) * deltaFrac
	var wx, wy []float64
	for i, v := range xs {
		if math.Abs(v-xMean) <= window {
			wx = append(wx, v)
			wy = append(wy, ys[i])
		}
	}
	if len(wx) < 2 || stat.Variance(wx, nil) == 0 {
		return nil, fmt.Errorf("local window: %w", core.ErrInsufficientData)
	}

	_, slope := stat.LinearRegression(wx, wy, nil, false)
	if math.IsNaN(slope) {
		return nil, fmt.Errorf("local slope: %w", core.ErrDegenerateFit)
	}
	elasticity := slope * xMean / yMean

	res := sensitivity.Result{
		Parameter:      core.ParameterKey(param),
		OutputVariable: core.OutputKey(output),
		Score:          math.Abs(elasticity),
		Method:         sensitivity.MethodElasticity,
		NSamples:       len(xs),
	}
	res.WithMeta("elasticity", elasticity)
	res.WithMeta("local_slope", slope)
	res.WithMeta("window_points", float64(len(wx)))
	return &res, nil
}
