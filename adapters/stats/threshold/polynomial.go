package threshold

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/mat"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// DetectNonlinearThresholds fits a polynomial to each (parameter, output)
// pair and reports the real critical points (roots of the first derivative)
// inside the observed parameter range, classified as minima or maxima by the
// second derivative. Critical points whose implied local output swing is
// below ThresholdSignificance of the output's observed range are dropped as
// noise.
func (a *Analyzer) DetectNonlinearThresholds(x, y *dataset.Matrix, cfg sensitivity.ThresholdConfig) (sensitivity.Batch, error) {
	cfg = withDefaults(cfg)
	var batch sensitivity.Batch
	for xi, param := range x.Columns {
		for yj, output := range y.Columns {
			rows, err := a.criticalPoints(x, y, xi, yj, cfg)
			if err != nil {
				log.Printf("Warning: nonlinear threshold detection skipped for %s vs %s: %v", param, output, err)
				batch.AddSkip(core.ParameterKey(param), core.OutputKey(output), err)
				continue
			}
			batch.Results = append(batch.Results, rows...)
		}
	}
	return batch, nil
}

func (a *Analyzer) criticalPoints(x, y *dataset.Matrix, xi, yj int, cfg sensitivity.ThresholdConfig) ([]sensitivity.Result, error) {
	xs, ys := dataset.PairedColumns(x, y, xi, yj)
	degree := cfg.PolynomialDegree
	if len(xs) < degree+2 {
		return nil, fmt.Errorf("%w: %d samples for degree %d", core.ErrInsufficientData, len(xs), degree)
	}

	coefs, err := polyFit(xs, ys, degree)
	if err != nil {
		return nil, err
	}

	xMin, xMax := minMax(xs)
	yMin, yMax := minMax(ys)
	yRange := yMax - yMin
	if yRange == 0 {
		return nil, fmt.Errorf("output: %w", core.ErrZeroVariance)
	}

	deriv1 := polyDerivative(coefs)
	deriv2 := polyDerivative(deriv1)
	roots := realRootsInRange(deriv1, xMin, xMax)

	// Local swing implied by curvature over a quarter-range neighborhood
	// around the critical point. A pure parabola spanning the observed range
	// scores 0.25 under this measure, comfortably above the default
	// significance cutoff; gentler wiggles fall below it.
	h := 0.25 * (xMax - xMin)

	param := core.ParameterKey(x.Columns[xi])
	output := core.OutputKey(y.Columns[yj])
	var out []sensitivity.Result
	for _, root := range roots {
		curvature := polyEval(deriv2, root)
		swing := math.Abs(curvature) * h * h / 2
		if swing < cfg.ThresholdSignificance*yRange {
			continue
		}
		kind := "maximum"
		if curvature > 0 {
			kind = "minimum"
		}
		res := sensitivity.Result{
			Parameter:      param,
			OutputVariable: output,
			Score:          swing / yRange,
			Method:         sensitivity.Method("nonlinear_threshold"),
			NSamples:       len(xs),
			Labels:         map[string]string{"critical_point_type": kind},
		}
		res.WithMeta("critical_point", root)
		res.WithMeta("curvature", curvature)
		res.WithMeta("predicted_value", polyEval(coefs, root))
		out = append(out, res)
	}
	return out, nil
}

// polyFit solves the Vandermonde least-squares problem for coefficients
// [c0, c1, ..., cDegree].
func polyFit(xs, ys []float64, degree int) ([]float64, error) {
	n := len(xs)
	a := mat.NewDense(n, degree+1, nil)
	for i, xv := range xs {
		pow := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, pow)
			pow *= xv
		}
	}
	b := mat.NewVecDense(n, append([]float64(nil), ys...))
	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		return nil, fmt.Errorf("polynomial fit: %w: %v", core.ErrDegenerateFit, err)
	}
	coefs := make([]float64, degree+1)
	for j := range coefs {
		coefs[j] = beta.AtVec(j)
	}
	return coefs, nil
}

func polyDerivative(coefs []float64) []float64 {
	if len(coefs) <= 1 {
		return []float64{0}
	}
	out := make([]float64, len(coefs)-1)
	for i := 1; i < len(coefs); i++ {
		out[i-1] = coefs[i] * float64(i)
	}
	return out
}

func polyEval(coefs []float64, x float64) float64 {
	v := 0.0
	for i := len(coefs) - 1; i >= 0; i-- {
		v = v*x + coefs[i]
	}
	return v
}

// realRootsInRange finds the real eigenvalues of the polynomial's companion
// matrix lying inside [lo, hi].
func realRootsInRange(coefs []float64, lo, hi float64) []float64 {
	// Trim negligible leading coefficients so the companion matrix is well
	// formed.
	deg := len(coefs) - 1
	for deg > 0 && math.Abs(coefs[deg]) < 1e-12 {
		deg--
	}
	if deg < 1 {
		return nil
	}
	if deg == 1 {
		root := -coefs[0] / coefs[1]
		if root >= lo && root <= hi {
			return []float64{root}
		}
		return nil
	}

	companion := mat.NewDense(deg, deg, nil)
	for i := 1; i < deg; i++ {
		companion.Set(i, i-1, 1)
	}
	for i := 0; i < deg; i++ {
		companion.Set(i, deg-1, -coefs[i]/coefs[deg])
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil
	}
	var roots []float64
	for _, ev := range eig.Values(nil) {
		if math.Abs(imag(ev)) > 1e-8 {
			continue
		}
		if r := real(ev); r >= lo && r <= hi {
			roots = append(roots, r)
		}
	}
	return roots
}

func minMax(vs []float64) (float64, float64) {
	lo, hi := vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
