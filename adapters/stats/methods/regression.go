package methods

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// RegressionType selects the linear model fitted per output.
type RegressionType string

const (
	Linear RegressionType = "linear"
	Ridge  RegressionType = "ridge"
	Lasso  RegressionType = "lasso"
)

// regressionEstimator fits each output on the full parameter set jointly
// (not pairwise) and scores each parameter by its standardized coefficient
// magnitude.
type regressionEstimator struct {
	scaler *StandardScaler
}

func (e *regressionEstimator) Method() sensitivity.Method { return sensitivity.MethodRegression }

func (e *regressionEstimator) Estimate(x, y *dataset.Matrix, cfg Config) (sensitivity.Batch, error) {
	var batch sensitivity.Batch
	n, p := x.RowCount(), x.ColumnCount()
	if n < p+1 {
		return batch, fmt.Errorf("%w: %d samples for %d parameters", core.ErrInsufficientData, n, p)
	}

	design := x
	if cfg.Standardize {
		design = e.scaler.FitTransform(x)
	}

	for yj, output := range y.Columns {
		ys := y.ColumnAt(yj)
		coefs, r2, err := e.fit(design, ys, cfg)
		if err != nil {
			for _, param := range x.Columns {
				if cerr := collectPair(&batch, cfg, core.ParameterKey(param), core.OutputKey(output), nil, err); cerr != nil {
					return batch, cerr
				}
			}
			continue
		}
		for xi, param := range x.Columns {
			stdCoef := coefs[xi]
			rawCoef := stdCoef
			if cfg.Standardize && e.scaler.Std(xi) > 0 {
				rawCoef = stdCoef / e.scaler.Std(xi)
			}
			res := sensitivity.Result{
				Parameter:      core.ParameterKey(param),
				OutputVariable: core.OutputKey(output),
				Score:          math.Abs(stdCoef),
				Method:         sensitivity.MethodRegression,
				NSamples:       n,
				Labels:         map[string]string{"regression_type": string(regTypeOrDefault(cfg))},
			}
			res.WithMeta("coefficient", rawCoef)
			res.WithMeta("std_coefficient", stdCoef)
			res.WithMeta("r_squared", r2)
			batch.Results = append(batch.Results, res)
		}
	}
	return batch, nil
}

// fit returns the per-parameter coefficients (intercept excluded) and R².
func (e *regressionEstimator) fit(x *dataset.Matrix, ys []float64, cfg Config) ([]float64, float64, error) {
	switch regTypeOrDefault(cfg) {
	case Ridge:
		return ridgeFit(x, ys, cfg.RidgeAlpha)
	case Lasso:
		return lassoFit(x, ys, cfg.LassoAlpha)
	case Linear:
		return olsFit(x, ys)
	default:
		return nil, 0, fmt.Errorf("%w: regression type %q", core.ErrUnknownMethod, cfg.RegressionType)
	}
}

func regTypeOrDefault(cfg Config) RegressionType {
	if cfg.RegressionType == "" {
		return Linear
	}
	return cfg.RegressionType
}

// olsFit solves the least-squares problem with an intercept column.
func olsFit(x *dataset.Matrix, ys []float64) ([]float64, float64, error) {
	n, p := x.RowCount(), x.ColumnCount()
	a := mat.NewDense(n, p+1, nil)
	for i, row := range x.Data {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), ys...))

	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", core.ErrDegenerateFit, err)
	}
	coefs := make([]float64, p)
	for j := 0; j < p; j++ {
		coefs[j] = beta.AtVec(j + 1)
	}
	return coefs, rSquared(a, &beta, ys), nil
}

// ridgeFit solves the L2-penalized normal equations (AᵀA + λI)β = Aᵀy.
// The intercept is not penalized.
func ridgeFit(x *dataset.Matrix, ys []float64, alpha float64) ([]float64, float64, error) {
	if alpha <= 0 {
		alpha = 1.0
	}
	n, p := x.RowCount(), x.ColumnCount()
	a := mat.NewDense(n, p+1, nil)
	for i, row := range x.Data {
		a.Set(i, 0, 1)
		for j, v := range row {
			a.Set(i, j+1, v)
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), ys...))

	var ata mat.Dense
	ata.Mul(a.T(), a)
	for j := 1; j <= p; j++ {
		ata.Set(j, j, ata.At(j, j)+alpha)
	}
	var atb mat.VecDense
	atb.MulVec(a.T(), b)

	var beta mat.VecDense
	if err := beta.SolveVec(&ata, &atb); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", core.ErrDegenerateFit, err)
	}
	coefs := make([]float64, p)
	for j := 0; j < p; j++ {
		coefs[j] = beta.AtVec(j + 1)
	}
	return coefs, rSquared(a, &beta, ys), nil
}

// lassoFit runs cyclic coordinate descent on centered data. Inputs are
// expected standardized when cfg.Standardize is on; convergence tolerance is
// 1e-6 with a 1000-sweep cap.
func lassoFit(x *dataset.Matrix, ys []float64, alpha float64) ([]float64, float64, error) {
	if alpha <= 0 {
		alpha = 0.1
	}
	n, p := x.RowCount(), x.ColumnCount()
	yMean := stat.Mean(ys, nil)
	r := make([]float64, n) // residuals with current coefficients
	for i := range r {
		r[i] = ys[i] - yMean
	}
	cols := make([][]float64, p)
	norms := make([]float64, p)
	for j := 0; j < p; j++ {
		cols[j] = x.ColumnAt(j)
		for _, v := range cols[j] {
			norms[j] += v * v
		}
	}

	coefs := make([]float64, p)
	lambda := alpha * float64(n)
	for sweep := 0; sweep < 1000; sweep++ {
		maxDelta := 0.0
		for j := 0; j < p; j++ {
			if norms[j] == 0 {
				continue
			}
			// rho is the correlation of column j with the partial residual.
			rho := 0.0
			for i, v := range cols[j] {
				rho += v * (r[i] + v*coefs[j])
			}
			next := softThreshold(rho, lambda) / norms[j]
			if delta := next - coefs[j]; delta != 0 {
				for i, v := range cols[j] {
					r[i] -= delta * v
				}
				coefs[j] = next
				if d := math.Abs(delta); d > maxDelta {
					maxDelta = d
				}
			}
		}
		if maxDelta < 1e-6 {
			break
		}
	}

	ssTot, ssRes := 0.0, 0.0
	for i, yv := range ys {
		ssTot += (yv - yMean) * (yv - yMean)
		ssRes += r[i] * r[i]
	}
	if ssTot == 0 {
		return nil, 0, fmt.Errorf("output: %w", core.ErrZeroVariance)
	}
	return coefs, 1 - ssRes/ssTot, nil
}

func softThreshold(v, lambda float64) float64 {
	switch {
	case v > lambda:
		return v - lambda
	case v < -lambda:
		return v + lambda
	default:
		return 0
	}
}

func rSquared(a *mat.Dense, beta *mat.VecDense, ys []float64) float64 {
	var fitted mat.VecDense
	fitted.MulVec(a, beta)
	yMean := stat.Mean(ys, nil)
	ssTot, ssRes := 0.0, 0.0
	for i, yv := range ys {
		ssTot += (yv - yMean) * (yv - yMean)
		d := yv - fitted.AtVec(i)
		ssRes += d * d
	}
	if ssTot == 0 {
		return 0
	}
	return finiteOr(1-ssRes/ssTot, 0)
}
