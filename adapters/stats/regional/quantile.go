package regional

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// quantileRegions projects the rows onto their first principal component and
// slices the projection into nRegions quantile bins, ordered along PC1. The
// final bin includes its upper boundary so the max row is never orphaned.
func quantileRegions(x *dataset.Matrix, nRegions int) ([]sensitivity.RegionDescriptor, error) {
	cols, feats := usableFeatures(x)
	if len(cols) == 0 {
		return nil, fmt.Errorf("quantile partitioning: %w: no usable parameter columns", core.ErrAllMissing)
	}
	n := len(feats)
	if n < nRegions {
		nRegions = n
	}
	if nRegions < 1 {
		return nil, core.ErrInsufficientData
	}

	proj, err := pc1Projection(feats)
	if err != nil {
		return nil, err
	}

	sorted := append([]float64(nil), proj...)
	sort.Float64s(sorted)
	edges := make([]float64, nRegions+1)
	edges[0] = sorted[0]
	edges[nRegions] = sorted[n-1]
	for q := 1; q < nRegions; q++ {
		edges[q] = stat.Quantile(float64(q)/float64(nRegions), stat.Empirical, sorted, nil)
	}

	regions := make([]sensitivity.RegionDescriptor, 0, nRegions)
	for r := 0; r < nRegions; r++ {
		mask := make([]bool, x.RowCount())
		size := 0
		for i, p := range proj {
			in := p >= edges[r] && p < edges[r+1]
			if r == nRegions-1 {
				in = p >= edges[r] && p <= edges[r+1]
			}
			if in {
				mask[i] = true
				size++
			}
		}
		if size == 0 {
			continue
		}
		means := make(map[string]float64, len(cols))
		for j, name := range cols {
			sum := 0.0
			for i := range feats {
				if mask[i] {
					sum += feats[i][j]
				}
			}
			means[name] = sum / float64(size)
		}
		regions = append(regions, sensitivity.RegionDescriptor{
			Method:      sensitivity.RegionQuantile,
			ID:          len(regions),
			Size:        size,
			Mask:        mask,
			PC1Low:      edges[r],
			PC1High:     edges[r+1],
			ColumnMeans: means,
		})
	}
	return regions, nil
}

// pc1Projection returns each row's coordinate along the first right-singular
// vector of the standardized feature matrix.
func pc1Projection(feats [][]float64) ([]float64, error) {
	scaled, _, _ := standardize(feats)
	n, p := len(scaled), len(scaled[0])
	a := mat.NewDense(n, p, nil)
	for i, row := range scaled {
		a.SetRow(i, row)
	}
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThinV); !ok {
		return nil, fmt.Errorf("pc1 projection: %w: svd failed", core.ErrDegenerateFit)
	}
	var v mat.Dense
	svd.VTo(&v)
	proj := make([]float64, n)
	for i, row := range scaled {
		s := 0.0
		for j := 0; j < p; j++ {
			s += row[j] * v.At(j, 0)
		}
		proj[i] = s
	}
	return proj, nil
}
