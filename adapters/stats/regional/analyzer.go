// Package regional decomposes sensitivity by parameter-space region: the
// sample rows are partitioned (k-means, grid, or PC1 quantiles) and each
// region gets its own local sensitivity score, normalized against the global
// trend. Regions are recomputed on every call and never persisted.
package regional

import (
	"fmt"
	"log"
	"math"

	"gonum.org/v1/gonum/stat"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// Analyzer implements ports.RegionalAnalyzer.
type Analyzer struct{}

func NewAnalyzer() *Analyzer { return &Analyzer{} }

func withDefaults(cfg sensitivity.RegionalConfig) sensitivity.RegionalConfig {
	def := sensitivity.DefaultRegionalConfig()
	if cfg.NRegions <= 0 {
		cfg.NRegions = def.NRegions
	}
	if cfg.RegionMethod == "" {
		cfg.RegionMethod = def.RegionMethod
	}
	if cfg.NeighborhoodSize <= 0 {
		cfg.NeighborhoodSize = def.NeighborhoodSize
	}
	if cfg.DerivativeOrder <= 0 {
		cfg.DerivativeOrder = def.DerivativeOrder
	}
	return cfg
}

// Analyze partitions parameter space and emits one result per
// (parameter, output, region). Regions with fewer than 2 members are skipped.
func (a *Analyzer) Analyze(x, y *dataset.Matrix, cfg sensitivity.RegionalConfig) (sensitivity.Batch, error) {
	cfg = withDefaults(cfg)
	var batch sensitivity.Batch

	jx, jy := dataset.InnerJoin(x, y)
	if jx.RowCount() < 2 {
		return batch, fmt.Errorf("regional analysis: %w: %d joined rows", core.ErrInsufficientData, jx.RowCount())
	}

	regions, err := PartitionRegions(jx, cfg)
	if err != nil {
		return batch, err
	}

	globals := globalCorrelations(jx, jy)

	for _, region := range regions {
		if region.Size < 2 {
			log.Printf("Warning: region %d has %d members, skipping", region.ID, region.Size)
			continue
		}
		rx := jx.SelectRows(region.Mask)
		ry := jy.SelectRows(region.Mask)
		center := region.Center()

		for xi, param := range rx.Columns {
			for yj, output := range ry.Columns {
				xs, ys := dataset.PairedColumns(rx, ry, xi, yj)
				if len(xs) < 2 {
					continue
				}
				res := regionScore(xs, ys)
				res.Parameter = core.ParameterKey(param)
				res.OutputVariable = core.OutputKey(output)
				res.Method = sensitivity.MethodRegional
				res.NSamples = len(xs)
				res.WithMeta("region_id", float64(region.ID))
				res.WithMeta("region_size", float64(region.Size))
				if c, ok := center[param]; ok {
					res.WithMeta("region_center", c)
				}
				g := globals[param+"|"+output]
				res.WithMeta("global_sensitivity", g)
				res.WithMeta("relative_sensitivity", res.Score/(math.Abs(g)+1e-10))
				res.Labels = map[string]string{"region_method": string(region.Method)}
				batch.Results = append(batch.Results, res)
			}
		}
	}
	return batch, nil
}

// PartitionRegions dispatches to the configured partitioning method.
func PartitionRegions(x *dataset.Matrix, cfg sensitivity.RegionalConfig) ([]sensitivity.RegionDescriptor, error) {
	cfg = withDefaults(cfg)
	switch cfg.RegionMethod {
	case sensitivity.RegionKMeans:
		return kmeansRegions(x, cfg.NRegions)
	case sensitivity.RegionGrid:
		return gridRegions(x, cfg.NRegions)
	case sensitivity.RegionQuantile:
		return quantileRegions(x, cfg.NRegions)
	}
	return nil, fmt.Errorf("%w: region method %q", core.ErrUnknownMethod, cfg.RegionMethod)
}

// regionScore blends local slope and curvature into one score. The linear
// weight shrinks as nonlinearity grows, so regions where a quadratic clearly
// outperforms a line score on curvature rather than slope.
func regionScore(xs, ys []float64) sensitivity.Result {
	var res sensitivity.Result

	stdX := stat.StdDev(xs, nil)
	stdY := stat.StdDev(ys, nil)
	intercept, slope := stat.LinearRegression(xs, ys, nil, false)

	normSlope := 0.0
	if stdY > 0 {
		normSlope = slope * stdX / stdY
	}

	nonlinearity := 0.0
	if len(xs) >= 3 && stdX > 0 {
		lin := []float64{intercept, slope}
		ssLin := residualSS(lin, xs, ys)
		if quad, err := fitPoly(xs, ys, 2); err == nil && ssLin > 0 {
			if nl := 1 - residualSS(quad, xs, ys)/ssLin; nl > 0 {
				nonlinearity = nl
			}
		}
	}

	linWeight := 1 - nonlinearity
	res.Score = linWeight*math.Abs(normSlope) + (1-linWeight)*nonlinearity

	corr := 0.0
	if stdX > 0 && stdY > 0 {
		corr = stat.Correlation(xs, ys, nil)
	}
	res.WithMeta("local_correlation", corr)
	res.WithMeta("local_slope", slope)
	res.WithMeta("local_nonlinearity", nonlinearity)
	res.WithMeta("normalized_slope", normSlope)
	res.WithMeta("param_mean", stat.Mean(xs, nil))
	res.WithMeta("param_std", stdX)
	res.WithMeta("param_min", minOf(xs))
	res.WithMeta("param_max", maxOf(xs))
	return res
}

// globalCorrelations computes the whole-dataset Pearson correlation per pair,
// keyed "param|output", for the relative-sensitivity context columns.
func globalCorrelations(x, y *dataset.Matrix) map[string]float64 {
	out := make(map[string]float64, len(x.Columns)*len(y.Columns))
	for xi, param := range x.Columns {
		for yj, output := range y.Columns {
			xs, ys := dataset.PairedColumns(x, y, xi, yj)
			c := 0.0
			if len(xs) >= 2 && stat.StdDev(xs, nil) > 0 && stat.StdDev(ys, nil) > 0 {
				c = stat.Correlation(xs, ys, nil)
			}
			out[param+"|"+output] = c
		}
	}
	return out
}

func minOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func maxOf(vs []float64) float64 {
	m := vs[0]
	for _, v := range vs[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
