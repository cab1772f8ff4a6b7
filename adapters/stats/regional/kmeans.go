package regional

import (
	"fmt"
	"log"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

const (
	kmeansSeed     = 42
	kmeansMaxIters = 100
	nanColumnLimit = 0.5
)

// kmeansRegions clusters the standardized parameter matrix with Lloyd's
// algorithm. Columns that are more than half NaN are dropped; remaining NaNs
// are filled with the column median so every row stays usable.
func kmeansRegions(x *dataset.Matrix, nRegions int) ([]sensitivity.RegionDescriptor, error) {
	cols, feats := usableFeatures(x)
	if len(cols) == 0 {
		return nil, fmt.Errorf("kmeans partitioning: %w: no usable parameter columns", core.ErrAllMissing)
	}
	n := len(feats)
	k := nRegions
	if n < k*10 {
		k = n / 10
		if k < 2 {
			k = 2
		}
		log.Printf("Warning: reducing regions from %d to %d for %d samples", nRegions, k, n)
	}
	if k > n {
		k = n
	}

	scaled, means, stds := standardize(feats)

	rng := rand.New(rand.NewSource(kmeansSeed))
	centers := make([][]float64, k)
	for i, ri := range rng.Perm(n)[:k] {
		centers[i] = append([]float64(nil), scaled[ri]...)
	}

	assign := make([]int, n)
	for iter := 0; iter < kmeansMaxIters; iter++ {
		changed := false
		for i, row := range scaled {
			best, bestD := 0, math.Inf(1)
			for c, center := range centers {
				if d := sqDist(row, center); d < bestD {
					best, bestD = c, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}
		recomputeCenters(scaled, assign, centers, rng)
	}

	regions := make([]sensitivity.RegionDescriptor, 0, k)
	for c := 0; c < k; c++ {
		mask := make([]bool, x.RowCount())
		size := 0
		for i, a := range assign {
			if a == c {
				mask[i] = true
				size++
			}
		}
		if size == 0 {
			continue
		}
		centroid := make(map[string]float64, len(cols))
		for j, name := range cols {
			centroid[name] = centers[c][j]*stds[j] + means[j]
		}
		regions = append(regions, sensitivity.RegionDescriptor{
			Method:   sensitivity.RegionKMeans,
			ID:       len(regions),
			Size:     size,
			Mask:     mask,
			Centroid: centroid,
		})
	}
	return regions, nil
}

// usableFeatures drops NaN-heavy columns and median-fills what remains.
// Returned rows are index-aligned with x.
func usableFeatures(x *dataset.Matrix) (cols []string, feats [][]float64) {
	n := x.RowCount()
	var keep []int
	for j := range x.Columns {
		nanCount := 0
		for i := 0; i < n; i++ {
			if math.IsNaN(x.Data[i][j]) {
				nanCount++
			}
		}
		if float64(nanCount) > nanColumnLimit*float64(n) {
			continue
		}
		keep = append(keep, j)
		cols = append(cols, x.Columns[j])
	}

	medians := make([]float64, len(keep))
	for jj, j := range keep {
		medians[jj] = columnMedian(x.ColumnAt(j))
	}

	feats = make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, len(keep))
		for jj, j := range keep {
			v := x.Data[i][j]
			if math.IsNaN(v) {
				v = medians[jj]
			}
			row[jj] = v
		}
		feats[i] = row
	}
	return cols, feats
}

func standardize(feats [][]float64) (scaled [][]float64, means, stds []float64) {
	if len(feats) == 0 {
		return nil, nil, nil
	}
	p := len(feats[0])
	means = make([]float64, p)
	stds = make([]float64, p)
	col := make([]float64, len(feats))
	for j := 0; j < p; j++ {
		for i := range feats {
			col[i] = feats[i][j]
		}
		means[j] = stat.Mean(col, nil)
		stds[j] = stat.StdDev(col, nil)
		if stds[j] == 0 || math.IsNaN(stds[j]) {
			stds[j] = 1
		}
	}
	scaled = make([][]float64, len(feats))
	for i, row := range feats {
		s := make([]float64, p)
		for j, v := range row {
			s[j] = (v - means[j]) / stds[j]
		}
		scaled[i] = s
	}
	return scaled, means, stds
}

func sqDist(a, b []float64) float64 {
	d := 0.0
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

func recomputeCenters(rows [][]float64, assign []int, centers [][]float64, rng *rand.Rand) {
	p := len(rows[0])
	counts := make([]int, len(centers))
	for c := range centers {
		centers[c] = make([]float64, p)
	}
	for i, row := range rows {
		c := assign[i]
		counts[c]++
		for j, v := range row {
			centers[c][j] += v
		}
	}
	for c, cnt := range counts {
		if cnt == 0 {
			// Reseed an empty cluster from a random row.
			centers[c] = append([]float64(nil), rows[rng.Intn(len(rows))]...)
			continue
		}
		for j := range centers[c] {
			centers[c][j] /= float64(cnt)
		}
	}
}
