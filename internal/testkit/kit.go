// Package testkit generates synthetic building-energy fixtures with known
// parameter-output relationships, so estimator tests can assert recovered
// sensitivities against planted ground truth.
package testkit

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/ports"
)

// Kit bundles the synthetic fixtures one test scenario needs.
type Kit struct {
	rng *rand.Rand
}

// NewKit creates a kit with a deterministic seed.
func NewKit(seed int64) *Kit {
	return &Kit{rng: rand.New(rand.NewSource(seed))}
}

// LinearPair returns x uniform in [lo, hi] and y = slope*x + intercept plus
// Gaussian noise. noise = 0 gives an exact linear relation.
func (k *Kit) LinearPair(n int, lo, hi, slope, intercept, noise float64) (xs, ys []float64) {
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := range xs {
		xs[i] = lo + k.rng.Float64()*(hi-lo)
		ys[i] = slope*xs[i] + intercept + k.rng.NormFloat64()*noise
	}
	return xs, ys
}

// StepPair returns x uniform in [lo, hi] and y that jumps from low to high at
// the breakpoint. The classic piecewise fixture for threshold detection.
func (k *Kit) StepPair(n int, lo, hi, breakpoint, low, high float64) (xs, ys []float64) {
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := range xs {
		xs[i] = lo + k.rng.Float64()*(hi-lo)
		if xs[i] < breakpoint {
			ys[i] = low
		} else {
			ys[i] = high
		}
	}
	return xs, ys
}

// QuadraticPair returns y = a*x^2 + b*x + c plus noise, for nonlinear
// threshold and regional fixtures.
func (k *Kit) QuadraticPair(n int, lo, hi, a, b, c, noise float64) (xs, ys []float64) {
	xs = make([]float64, n)
	ys = make([]float64, n)
	for i := range xs {
		xs[i] = lo + k.rng.Float64()*(hi-lo)
		ys[i] = a*xs[i]*xs[i] + b*xs[i] + c + k.rng.NormFloat64()*noise
	}
	return xs, ys
}

// TwoClusterColumn returns n/2 values in [0, 1] and n/2 values in
// [offset, offset+1]: two clearly separated clusters for k-means fixtures.
func (k *Kit) TwoClusterColumn(n int, offset float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		v := k.rng.Float64()
		if i >= n/2 {
			v += offset
		}
		out[i] = v
	}
	return out
}

// Matrix builds a single-column matrix over synthetic variant entities.
func Matrix(column string, values []float64) *dataset.Matrix {
	m := dataset.NewMatrix()
	keys := EntityKeys(len(values))
	if err := m.AddColumn(column, keys, values); err != nil {
		panic(err)
	}
	return m
}

// MatrixOf builds a multi-column matrix over synthetic variant entities. All
// columns must have equal length.
func MatrixOf(columns map[string][]float64, order []string) *dataset.Matrix {
	m := dataset.NewMatrix()
	var keys []core.EntityKey
	for _, name := range order {
		values := columns[name]
		if keys == nil {
			keys = EntityKeys(len(values))
		}
		if err := m.AddColumn(name, keys, values); err != nil {
			panic(err)
		}
	}
	return m
}

// EntityKeys returns n synthetic (building, variant) keys.
func EntityKeys(n int) []core.EntityKey {
	keys := make([]core.EntityKey, n)
	for i := range keys {
		keys[i] = core.EntityKey{
			Building: "bldg_test",
			Variant:  core.VariantID(fmt.Sprintf("variant_%04d", i)),
		}
	}
	return keys
}

// NaNs returns a slice of n NaN values.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// StaticDataManager serves pre-built simulation data, standing in for the
// parquet-backed manager in orchestration tests.
type StaticDataManager struct {
	Data *ports.SimulationData
	Err  error

	// LoadCount tracks how many times the orchestrator actually hit the
	// manager, for cache assertions.
	LoadCount int
}

// LoadSimulationResults implements ports.DataManager.
func (m *StaticDataManager) LoadSimulationResults(ctx context.Context, opts ports.LoadOptions) (*ports.SimulationData, error) {
	m.LoadCount++
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Data, nil
}
