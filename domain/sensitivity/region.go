package sensitivity

// RegionMethod identifies how parameter space was partitioned.
type RegionMethod string

const (
	RegionKMeans   RegionMethod = "kmeans"
	RegionGrid     RegionMethod = "grid"
	RegionQuantile RegionMethod = "quantile"
)

// RegionDescriptor describes one region of parameter space as a tagged
// variant: Method selects which payload fields are populated.
//
//	kmeans:   Centroid (per-parameter cluster center, original units)
//	grid:     BinIndex (one bin per grid dimension) and BinCenter
//	quantile: PC1Low/PC1High (projection bounds) and ColumnMeans
//
// Size and Mask are populated for every method. Regions are ephemeral,
// recomputed on each analysis call and never persisted.
type RegionDescriptor struct {
	Method RegionMethod `json:"method"`
	ID     int          `json:"region_id"`
	Size   int          `json:"size"`
	Mask   []bool       `json:"-"`

	Centroid map[string]float64 `json:"centroid,omitempty"`

	BinIndex  []int              `json:"bin_index,omitempty"`
	BinCenter map[string]float64 `json:"bin_center,omitempty"`

	PC1Low      float64            `json:"pc1_low,omitempty"`
	PC1High     float64            `json:"pc1_high,omitempty"`
	ColumnMeans map[string]float64 `json:"column_means,omitempty"`
}

// Center returns the per-parameter center regardless of partition method.
// Downstream consumers should use this rather than sniffing payload fields.
func (r RegionDescriptor) Center() map[string]float64 {
	switch r.Method {
	case RegionKMeans:
		return r.Centroid
	case RegionGrid:
		return r.BinCenter
	case RegionQuantile:
		return r.ColumnMeans
	}
	return nil
}
