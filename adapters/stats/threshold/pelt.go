package threshold

import (
	"fmt"
	"math"

	"enersense/domain/core"
)

// peltBreakpoints runs an exhaustive dynamic-programming changepoint search
// over the sorted output series with a Gaussian-variance segment cost and a
// fixed per-split penalty of 2·log n. Despite the config name it keeps none
// of PELT's pruning: every candidate previous changepoint is scanned, so the
// search is O(n²). For the sample counts this analysis sees (hundreds of
// variants) that cost is immaterial and the result is exact.
func peltBreakpoints(sy []float64, maxBreakpoints, minSegment int) ([]int, error) {
	n := len(sy)
	if n < 2*minSegment {
		return nil, fmt.Errorf("%w: %d samples", core.ErrInsufficientData, n)
	}
	penalty := 2 * math.Log(float64(n))

	// Prefix sums for O(1) segment cost.
	sum := make([]float64, n+1)
	sumSq := make([]float64, n+1)
	for i, v := range sy {
		sum[i+1] = sum[i] + v
		sumSq[i+1] = sumSq[i] + v*v
	}
	// cost of segment [a, b) under a Gaussian model: m·log(variance).
	cost := func(a, b int) float64 {
		m := float64(b - a)
		mean := (sum[b] - sum[a]) / m
		variance := (sumSq[b]-sumSq[a])/m - mean*mean
		if variance < 1e-12 {
			variance = 1e-12
		}
		return m * math.Log(variance)
	}

	best := make([]float64, n+1)
	prev := make([]int, n+1)
	best[0] = -penalty
	for end := minSegment; end <= n; end++ {
		best[end] = math.Inf(1)
		for start := 0; start+minSegment <= end; start++ {
			if start != 0 && start < minSegment {
				continue
			}
			if c := best[start] + cost(start, end) + penalty; c < best[end] {
				best[end] = c
				prev[end] = start
			}
		}
	}

	var breaks []int
	for at := n; at > 0; at = prev[at] {
		if prev[at] > 0 {
			breaks = append(breaks, prev[at])
		}
	}
	// Backtracking yields changepoints right-to-left.
	for i, j := 0, len(breaks)-1; i < j; i, j = i+1, j-1 {
		breaks[i], breaks[j] = breaks[j], breaks[i]
	}
	if len(breaks) > maxBreakpoints {
		breaks = breaks[:maxBreakpoints]
	}
	return breaks, nil
}
