package regional

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

const maxGridDims = 3

// gridRegions bins the highest-variance parameter columns into equal-width
// intervals and makes a region of every occupied cell in the resulting grid.
func gridRegions(x *dataset.Matrix, nBins int) ([]sensitivity.RegionDescriptor, error) {
	dims := topVarianceColumns(x, maxGridDims)
	if len(dims) == 0 {
		return nil, fmt.Errorf("grid partitioning: %w: no column with variance", core.ErrZeroVariance)
	}

	type dim struct {
		idx   int
		name  string
		lo    float64
		width float64
	}
	var grid []dim
	for _, j := range dims {
		col := x.ColumnAt(j)
		lo, hi := finiteRange(col)
		if hi <= lo {
			continue
		}
		grid = append(grid, dim{idx: j, name: x.Columns[j], lo: lo, width: (hi - lo) / float64(nBins)})
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("grid partitioning: %w: degenerate column ranges", core.ErrZeroVariance)
	}

	// Group rows by bin tuple. Rows with NaN in any grid dimension fall out.
	cells := make(map[string][]int)
	cellBins := make(map[string][]int)
	for i := 0; i < x.RowCount(); i++ {
		bins := make([]int, len(grid))
		ok := true
		for d, g := range grid {
			v := x.Data[i][g.idx]
			if math.IsNaN(v) {
				ok = false
				break
			}
			b := int((v - g.lo) / g.width)
			if b >= nBins {
				b = nBins - 1
			}
			if b < 0 {
				b = 0
			}
			bins[d] = b
		}
		if !ok {
			continue
		}
		key := fmt.Sprint(bins)
		cells[key] = append(cells[key], i)
		cellBins[key] = bins
	}

	keys := make([]string, 0, len(cells))
	for k := range cells {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	regions := make([]sensitivity.RegionDescriptor, 0, len(keys))
	for _, key := range keys {
		rows := cells[key]
		bins := cellBins[key]
		mask := make([]bool, x.RowCount())
		for _, i := range rows {
			mask[i] = true
		}
		center := make(map[string]float64, len(grid))
		for d, g := range grid {
			center[g.name] = g.lo + (float64(bins[d])+0.5)*g.width
		}
		regions = append(regions, sensitivity.RegionDescriptor{
			Method:    sensitivity.RegionGrid,
			ID:        len(regions),
			Size:      len(rows),
			Mask:      mask,
			BinIndex:  append([]int(nil), bins...),
			BinCenter: center,
		})
	}
	return regions, nil
}

// topVarianceColumns returns up to limit column indices ordered by descending
// variance, skipping zero-variance columns.
func topVarianceColumns(x *dataset.Matrix, limit int) []int {
	type cv struct {
		idx int
		v   float64
	}
	var ranked []cv
	for j := range x.Columns {
		col := finiteValues(x.ColumnAt(j))
		if len(col) < 2 {
			continue
		}
		if v := stat.Variance(col, nil); v > 0 {
			ranked = append(ranked, cv{idx: j, v: v})
		}
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].v != ranked[b].v {
			return ranked[a].v > ranked[b].v
		}
		return ranked[a].idx < ranked[b].idx
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]int, len(ranked))
	for i, r := range ranked {
		out[i] = r.idx
	}
	return out
}

func finiteValues(vs []float64) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

func finiteRange(vs []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
