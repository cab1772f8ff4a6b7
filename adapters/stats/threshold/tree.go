package threshold

import (
	"fmt"
	"sort"

	"enersense/domain/core"
)

// treeBreakpoints fits a shallow regression tree to the 1-D sorted relation
// and returns each internal split as a breakpoint index. Growth is
// best-first so the leaf count never exceeds maxBreakpoints+1, mirroring a
// max_leaf_nodes-limited tree; split thresholds land exactly on observed x
// values because candidate splits are taken between consecutive samples.
func treeBreakpoints(sx, sy []float64, maxBreakpoints, minLeaf int) ([]int, error) {
	n := len(sx)
	if n < 2*minLeaf {
		return nil, fmt.Errorf("%w: %d samples", core.ErrInsufficientData, n)
	}

	type leaf struct {
		start, end int // [start, end)
		splitAt    int // best split index within [start, end), -1 if none
		gain       float64
	}

	evaluate := func(start, end int) leaf {
		l := leaf{start: start, end: end, splitAt: -1}
		parent := sse(sy[start:end])
		for i := start + minLeaf; i <= end-minLeaf; i++ {
			// Avoid splitting between equal x values; the tree cannot
			// separate them.
			if sx[i] == sx[i-1] {
				continue
			}
			if gain := parent - sse(sy[start:i]) - sse(sy[i:end]); gain > l.gain {
				l.gain = gain
				l.splitAt = i
			}
		}
		return l
	}

	leaves := []leaf{evaluate(0, n)}
	var breaks []int
	for len(leaves) < maxBreakpoints+1 {
		best := -1
		for i, l := range leaves {
			if l.splitAt >= 0 && (best < 0 || l.gain > leaves[best].gain) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		l := leaves[best]
		breaks = append(breaks, l.splitAt)
		leaves = append(leaves[:best], leaves[best+1:]...)
		leaves = append(leaves, evaluate(l.start, l.splitAt), evaluate(l.splitAt, l.end))
	}
	sort.Ints(breaks)
	return breaks, nil
}

// sse is the sum of squared errors around the mean.
func sse(ys []float64) float64 {
	if len(ys) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range ys {
		mean += v
	}
	mean /= float64(len(ys))
	sum := 0.0
	for _, v := range ys {
		d := v - mean
		sum += d * d
	}
	return sum
}
