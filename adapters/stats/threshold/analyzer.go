// Package threshold detects breakpoints in parameter-output relations: a
// shallow regression tree, a residual-CUSUM peak search, and an exhaustive
// dynamic-programming changepoint search, plus polynomial critical-point
// detection for smooth nonlinearities.
package threshold

import (
	"fmt"
	"log"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// Analyzer implements ports.ThresholdDetector.
type Analyzer struct{}

// NewAnalyzer creates a threshold analyzer.
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze detects breakpoints for every (parameter, output) pair and emits
// one result row per segment. A pair that cannot compute is skipped with a
// logged warning; the analysis never aborts on a single ill-conditioned
// pair.
func (a *Analyzer) Analyze(x, y *dataset.Matrix, cfg sensitivity.ThresholdConfig) (sensitivity.Batch, error) {
	cfg = withDefaults(cfg)
	var batch sensitivity.Batch
	for xi, param := range x.Columns {
		for yj, output := range y.Columns {
			rows, err := a.analyzePair(x, y, xi, yj, cfg)
			if err != nil {
				log.Printf("Warning: threshold analysis skipped for %s vs %s: %v", param, output, err)
				batch.AddSkip(core.ParameterKey(param), core.OutputKey(output), err)
				continue
			}
			batch.Results = append(batch.Results, rows...)
		}
	}
	return batch, nil
}

func withDefaults(cfg sensitivity.ThresholdConfig) sensitivity.ThresholdConfig {
	if cfg.DetectionMethod == "" {
		cfg.DetectionMethod = sensitivity.DetectTree
	}
	if cfg.MinSegmentSize <= 0 {
		cfg.MinSegmentSize = 10
	}
	if cfg.MaxBreakpoints <= 0 {
		cfg.MaxBreakpoints = 3
	}
	if cfg.PolynomialDegree <= 0 {
		cfg.PolynomialDegree = 4
	}
	if cfg.ThresholdSignificance <= 0 {
		cfg.ThresholdSignificance = 0.1
	}
	return cfg
}

func (a *Analyzer) analyzePair(x, y *dataset.Matrix, xi, yj int, cfg sensitivity.ThresholdConfig) ([]sensitivity.Result, error) {
	xs, ys := dataset.PairedColumns(x, y, xi, yj)
	if len(xs) < 2*cfg.MinSegmentSize {
		return nil, fmt.Errorf("%w: %d samples, need %d", core.ErrInsufficientData, len(xs), 2*cfg.MinSegmentSize)
	}
	if stat.Variance(xs, nil) == 0 {
		return nil, fmt.Errorf("parameter: %w", core.ErrZeroVariance)
	}

	sx, sy := sortByX(xs, ys)

	var breakIdx []int
	var err error
	switch cfg.DetectionMethod {
	case sensitivity.DetectTree:
		breakIdx, err = treeBreakpoints(sx, sy, cfg.MaxBreakpoints, cfg.MinSegmentSize)
	case sensitivity.DetectStatistical:
		breakIdx, err = cusumBreakpoints(sx, sy, cfg.MaxBreakpoints, cfg.MinSegmentSize)
	case sensitivity.DetectPELT:
		breakIdx, err = peltBreakpoints(sy, cfg.MaxBreakpoints, cfg.MinSegmentSize)
	default:
		return nil, fmt.Errorf("%w: detection method %q", core.ErrUnknownMethod, cfg.DetectionMethod)
	}
	if err != nil {
		return nil, err
	}

	param := core.ParameterKey(x.Columns[xi])
	output := core.OutputKey(y.Columns[yj])
	return buildSegmentResults(sx, sy, breakIdx, param, output, cfg), nil
}

// sortByX sorts both series by ascending parameter value.
func sortByX(xs, ys []float64) ([]float64, []float64) {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })
	sx := make([]float64, len(xs))
	sy := make([]float64, len(ys))
	for i, j := range idx {
		sx[i] = xs[j]
		sy[i] = ys[j]
	}
	return sx, sy
}

// buildSegmentResults turns sorted breakpoint indices into contiguous
// segments, computes per-segment sensitivity, and flags the critical region:
// the segment immediately after the largest jump in per-segment sensitivity.
func buildSegmentResults(sx, sy []float64, breakIdx []int, param core.ParameterKey, output core.OutputKey, cfg sensitivity.ThresholdConfig) []sensitivity.Result {
	sort.Ints(breakIdx)
	bounds := append([]int{0}, breakIdx...)
	bounds = append(bounds, len(sx))

	type segment struct {
		start, end int // [start, end)
		score      float64
		corr       float64
		slope      float64
		breakAt    float64 // breakpoint value opening this segment (NaN for first)
	}
	var segments []segment
	for s := 0; s+1 < len(bounds); s++ {
		start, end := bounds[s], bounds[s+1]
		if end-start < cfg.MinSegmentSize {
			continue
		}
		segX, segY := sx[start:end], sy[start:end]
		corr, slope, score := segmentSensitivity(segX, segY)
		breakAt := math.NaN()
		if s > 0 {
			breakAt = sx[bounds[s]]
		}
		segments = append(segments, segment{start, end, score, corr, slope, breakAt})
	}

	// No usable breakpoints: one whole-range row, never critical.
	if len(segments) == 0 || len(breakIdx) == 0 {
		corr, slope, score := segmentSensitivity(sx, sy)
		res := sensitivity.Result{
			Parameter:      param,
			OutputVariable: output,
			Score:          score,
			Method:         sensitivity.MethodThreshold,
			NSamples:       len(sx),
			Labels:         map[string]string{"detection_method": string(cfg.DetectionMethod)},
		}
		res.WithMeta("segment_index", 0)
		res.WithMeta("segment_start", sx[0])
		res.WithMeta("segment_end", sx[len(sx)-1])
		res.WithMeta("segment_size", float64(len(sx)))
		res.WithMeta("correlation", corr)
		res.WithMeta("slope", slope)
		res.WithMeta("is_critical_region", 0)
		return []sensitivity.Result{res}
	}

	// The critical region follows the largest sensitivity jump between
	// consecutive segments. Tied jumps (including all-zero, as with two
	// internally flat plateaus) flag the earliest following segment.
	critical := -1
	largestJump := -1.0
	for s := 1; s < len(segments); s++ {
		if jump := math.Abs(segments[s].score - segments[s-1].score); jump > largestJump {
			largestJump = jump
			critical = s
		}
	}

	var out []sensitivity.Result
	for s, seg := range segments {
		res := sensitivity.Result{
			Parameter:      param,
			OutputVariable: output,
			Score:          seg.score,
			Method:         sensitivity.MethodThreshold,
			NSamples:       seg.end - seg.start,
			Labels:         map[string]string{"detection_method": string(cfg.DetectionMethod)},
		}
		res.WithMeta("segment_index", float64(s))
		res.WithMeta("segment_start", sx[seg.start])
		res.WithMeta("segment_end", sx[seg.end-1])
		res.WithMeta("segment_size", float64(seg.end-seg.start))
		res.WithMeta("correlation", seg.corr)
		res.WithMeta("slope", seg.slope)
		if !math.IsNaN(seg.breakAt) {
			res.WithMeta("breakpoint_value", seg.breakAt)
		}
		if s == critical {
			res.WithMeta("is_critical_region", 1)
		} else {
			res.WithMeta("is_critical_region", 0)
		}
		out = append(out, res)
	}
	return out
}

// segmentSensitivity blends correlation and normalized slope into one
// magnitude: sqrt(corr² + normSlope²)/sqrt(2), which is 1 for a perfect
// linear relation of unit normalized slope.
func segmentSensitivity(xs, ys []float64) (corr, slope, score float64) {
	if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
		return 0, 0, 0
	}
	sy := stat.StdDev(ys, nil)
	corr = stat.Correlation(xs, ys, nil)
	if math.IsNaN(corr) {
		corr = 0
	}
	_, slope = stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(slope) {
		slope = 0
	}
	normSlope := 0.0
	if sy > 0 {
		normSlope = slope * stat.StdDev(xs, nil) / sy
	}
	score = math.Sqrt(corr*corr+normSlope*normSlope) / math.Sqrt2
	return corr, slope, score
}
