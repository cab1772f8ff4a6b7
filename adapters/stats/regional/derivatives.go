package regional

import (
	"fmt"
	"log"
	"math"
	"sort"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

const minNeighbors = 10

// CalculateLocalDerivatives estimates output derivatives w.r.t. each
// parameter at user-supplied operating points. Neighbors are the sample rows
// within NeighborhoodSize of the point under a per-parameter range-normalized
// distance; a local polynomial of degree DerivativeOrder+1 supplies the
// derivative estimates. Points with too few neighbors are skipped.
func (a *Analyzer) CalculateLocalDerivatives(x, y *dataset.Matrix, points []map[string]float64, cfg sensitivity.RegionalConfig) (sensitivity.Batch, error) {
	cfg = withDefaults(cfg)
	var batch sensitivity.Batch

	jx, jy := dataset.InnerJoin(x, y)
	if jx.RowCount() < minNeighbors {
		return batch, fmt.Errorf("local derivatives: %w: %d joined rows", core.ErrInsufficientData, jx.RowCount())
	}

	ranges := make(map[string]float64, len(jx.Columns))
	for j, name := range jx.Columns {
		lo, hi := finiteRange(jx.ColumnAt(j))
		if hi > lo {
			ranges[name] = hi - lo
		}
	}

	for pi, point := range points {
		params := pointParams(point, jx, ranges)
		if len(params) == 0 {
			err := core.NewValidationError("operating_point",
				fmt.Sprintf("point %d names no usable parameter column", pi))
			log.Printf("Warning: %v", err)
			batch.AddSkip(core.ParameterKey(fmt.Sprintf("operating_point_%d", pi)), "", err)
			continue
		}

		mask := neighborMask(jx, point, params, ranges, cfg.NeighborhoodSize)
		count := 0
		for _, in := range mask {
			if in {
				count++
			}
		}
		if count < minNeighbors {
			err := fmt.Errorf("%w: %d neighbors within %.3f, need %d",
				core.ErrInsufficientData, count, cfg.NeighborhoodSize, minNeighbors)
			log.Printf("Warning: operating point %d skipped: %v", pi, err)
			batch.AddSkip(core.ParameterKey(fmt.Sprintf("operating_point_%d", pi)), "", err)
			continue
		}

		nx := jx.SelectRows(mask)
		ny := jy.SelectRows(mask)
		degree := cfg.DerivativeOrder + 1

		for _, param := range params {
			xi, _ := nx.ColumnIndex(param)
			for yj, output := range ny.Columns {
				xs, ys := dataset.PairedColumns(nx, ny, xi, yj)
				coefs, err := fitPoly(xs, ys, degree)
				if err != nil {
					batch.AddSkip(core.ParameterKey(param), core.OutputKey(output), err)
					continue
				}
				at := point[param]
				d1 := derivCoefs(coefs)
				d2 := derivCoefs(d1)
				first := evalPoly(d1, at)
				second := evalPoly(d2, at)

				res := sensitivity.Result{
					Parameter:      core.ParameterKey(param),
					OutputVariable: core.OutputKey(output),
					Score:          math.Abs(first),
					Method:         sensitivity.MethodRegional,
					NSamples:       len(xs),
					Labels:         map[string]string{"derivative": "local"},
				}
				res.WithMeta("operating_point_index", float64(pi))
				res.WithMeta("operating_point_value", at)
				res.WithMeta("first_derivative", first)
				res.WithMeta("second_derivative", second)
				res.WithMeta("n_neighbors", float64(count))
				batch.Results = append(batch.Results, res)
			}
		}
	}
	return batch, nil
}

// pointParams returns the point's parameters that exist as columns with a
// usable range, sorted for deterministic output order.
func pointParams(point map[string]float64, x *dataset.Matrix, ranges map[string]float64) []string {
	var params []string
	for name := range point {
		if _, ok := x.ColumnIndex(name); !ok {
			continue
		}
		if _, ok := ranges[name]; !ok {
			continue
		}
		params = append(params, name)
	}
	sort.Strings(params)
	return params
}

// neighborMask marks rows whose range-normalized distance to the point over
// the given parameters is within radius. Rows with NaN in any of those
// parameters are excluded.
func neighborMask(x *dataset.Matrix, point map[string]float64, params []string, ranges map[string]float64, radius float64) []bool {
	idxs := make([]int, len(params))
	for i, p := range params {
		idxs[i], _ = x.ColumnIndex(p)
	}
	mask := make([]bool, x.RowCount())
	for i := 0; i < x.RowCount(); i++ {
		sum := 0.0
		ok := true
		for k, p := range params {
			v := x.Data[i][idxs[k]]
			if math.IsNaN(v) {
				ok = false
				break
			}
			d := (v - point[p]) / ranges[p]
			sum += d * d
		}
		if !ok {
			continue
		}
		if math.Sqrt(sum/float64(len(params))) <= radius {
			mask[i] = true
		}
	}
	return mask
}
