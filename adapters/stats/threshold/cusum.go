package threshold

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"enersense/domain/core"
)

// cusumBreakpoints detrends the sorted relation with a degree-1 fit,
// accumulates the residuals, and picks the most prominent peaks of the
// absolute CUSUM curve as changepoints, at least minDistance apart.
func cusumBreakpoints(sx, sy []float64, maxBreakpoints, minDistance int) ([]int, error) {
	n := len(sx)
	if n < 2*minDistance {
		return nil, fmt.Errorf("%w: %d samples", core.ErrInsufficientData, n)
	}

	alpha, beta := stat.LinearRegression(sx, sy, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return nil, fmt.Errorf("trend fit: %w", core.ErrDegenerateFit)
	}

	cusum := make([]float64, n)
	acc := 0.0
	for i := range sx {
		acc += sy[i] - (alpha + beta*sx[i])
		cusum[i] = math.Abs(acc)
	}

	peaks := findPeaks(cusum, minDistance)
	sort.Slice(peaks, func(a, b int) bool { return peaks[a].prominence > peaks[b].prominence })
	if len(peaks) > maxBreakpoints {
		peaks = peaks[:maxBreakpoints]
	}

	breaks := make([]int, 0, len(peaks))
	for _, p := range peaks {
		// A peak at i means the regime changes after sample i.
		if p.index+1 >= minDistance && n-(p.index+1) >= minDistance {
			breaks = append(breaks, p.index+1)
		}
	}
	sort.Ints(breaks)
	return breaks, nil
}

type peak struct {
	index      int
	prominence float64
}

// findPeaks locates local maxima at least minDistance apart, keeping the
// higher peak when two fall closer than that. Prominence is the height above
// the deepest valley separating the peak from a higher one (or from the
// curve boundary).
func findPeaks(curve []float64, minDistance int) []peak {
	if minDistance < 1 {
		minDistance = 1
	}
	var maxima []int
	for i := 1; i+1 < len(curve); i++ {
		if curve[i] > curve[i-1] && curve[i] >= curve[i+1] {
			maxima = append(maxima, i)
		}
	}

	// Enforce minimum distance, preferring taller peaks.
	sort.Slice(maxima, func(a, b int) bool { return curve[maxima[a]] > curve[maxima[b]] })
	var kept []int
	for _, m := range maxima {
		ok := true
		for _, k := range kept {
			if abs(m-k) < minDistance {
				ok = false
				break
			}
		}
		if ok {
			kept = append(kept, m)
		}
	}

	peaks := make([]peak, 0, len(kept))
	for _, m := range kept {
		peaks = append(peaks, peak{index: m, prominence: prominence(curve, m)})
	}
	return peaks
}

func prominence(curve []float64, idx int) float64 {
	h := curve[idx]
	leftBase := h
	for i := idx - 1; i >= 0; i-- {
		if curve[i] > h {
			break
		}
		if curve[i] < leftBase {
			leftBase = curve[i]
		}
	}
	rightBase := h
	for i := idx + 1; i < len(curve); i++ {
		if curve[i] > h {
			break
		}
		if curve[i] < rightBase {
			rightBase = curve[i]
		}
	}
	base := leftBase
	if rightBase > base {
		base = rightBase
	}
	return h - base
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
