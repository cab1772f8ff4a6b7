package regional

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"enersense/domain/core"
)

// fitPoly returns least-squares coefficients [c0..cDegree] of y on x.
func fitPoly(xs, ys []float64, degree int) ([]float64, error) {
	if len(xs) < degree+1 {
		return nil, core.ErrInsufficientData
	}
	a := mat.NewDense(len(xs), degree+1, nil)
	for i, xv := range xs {
		pow := 1.0
		for j := 0; j <= degree; j++ {
			a.Set(i, j, pow)
			pow *= xv
		}
	}
	b := mat.NewVecDense(len(ys), append([]float64(nil), ys...))
	var beta mat.VecDense
	if err := beta.SolveVec(a, b); err != nil {
		return nil, core.ErrDegenerateFit
	}
	coefs := make([]float64, degree+1)
	for j := range coefs {
		coefs[j] = beta.AtVec(j)
	}
	return coefs, nil
}

func evalPoly(coefs []float64, x float64) float64 {
	v := 0.0
	for i := len(coefs) - 1; i >= 0; i-- {
		v = v*x + coefs[i]
	}
	return v
}

func derivCoefs(coefs []float64) []float64 {
	if len(coefs) <= 1 {
		return []float64{0}
	}
	out := make([]float64, len(coefs)-1)
	for i := 1; i < len(coefs); i++ {
		out[i-1] = coefs[i] * float64(i)
	}
	return out
}

func residualSS(coefs []float64, xs, ys []float64) float64 {
	ss := 0.0
	for i, xv := range xs {
		d := ys[i] - evalPoly(coefs, xv)
		ss += d * d
	}
	return ss
}

func columnMedian(vs []float64) float64 {
	clean := make([]float64, 0, len(vs))
	for _, v := range vs {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	mid := len(clean) / 2
	if len(clean)%2 == 1 {
		return clean[mid]
	}
	return (clean[mid-1] + clean[mid]) / 2
}
