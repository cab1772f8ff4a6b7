package sensitivity

// DetectionMethod selects the breakpoint detection algorithm.
type DetectionMethod string

const (
	DetectTree        DetectionMethod = "tree"
	DetectStatistical DetectionMethod = "statistical"
	DetectPELT        DetectionMethod = "pelt"
)

// ThresholdConfig configures breakpoint/changepoint detection.
type ThresholdConfig struct {
	DetectionMethod DetectionMethod `json:"detection_method"`
	MinSegmentSize  int             `json:"min_segment_size"`
	MaxBreakpoints  int             `json:"max_breakpoints"`

	// Nonlinear critical-point detection.
	PolynomialDegree      int     `json:"polynomial_degree"`
	ThresholdSignificance float64 `json:"threshold_significance"`
}

// DefaultThresholdConfig returns the documented defaults.
func DefaultThresholdConfig() ThresholdConfig {
	return ThresholdConfig{
		DetectionMethod:       DetectTree,
		MinSegmentSize:        10,
		MaxBreakpoints:        3,
		PolynomialDegree:      4,
		ThresholdSignificance: 0.1,
	}
}

// RegionalConfig configures regional sensitivity decomposition.
type RegionalConfig struct {
	NRegions     int          `json:"n_regions"`
	RegionMethod RegionMethod `json:"region_method"`

	// Placeholder for future local refinement; accepted but unused.
	LocalWindowSize float64 `json:"local_window_size"`

	// Local derivative estimation.
	NeighborhoodSize float64 `json:"neighborhood_size"`
	DerivativeOrder  int     `json:"derivative_order"`
}

// DefaultRegionalConfig returns the documented defaults.
func DefaultRegionalConfig() RegionalConfig {
	return RegionalConfig{
		NRegions:         5,
		RegionMethod:     RegionKMeans,
		LocalWindowSize:  0.1,
		NeighborhoodSize: 0.1,
		DerivativeOrder:  2,
	}
}
