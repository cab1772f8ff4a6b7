package ports

import (
	"context"

	"enersense/domain/core"
	"enersense/domain/dataset"
)

// LoadOptions selects which simulation results the data manager loads.
type LoadOptions struct {
	ResultType   string   // "daily", "hourly", "monthly", ...
	Categories   []string // e.g. "hvac", "lighting"; nil = all available
	Variables    []string // optional variable filter
	LoadModified bool
}

// ComparisonRecord is one row of a pre-built base-vs-variant comparison
// table, the wide-format alternative the parsing layer sometimes produces
// instead of separate per-variant result tables.
type ComparisonRecord struct {
	BuildingID   string  `parquet:"building_id" json:"building_id"`
	VariantID    string  `parquet:"variant_id" json:"variant_id"`
	Variable     string  `parquet:"Variable" json:"variable"`
	Zone         string  `parquet:"Zone,optional" json:"zone,omitempty"`
	BaseValue    float64 `parquet:"base_value" json:"base_value"`
	VariantValue float64 `parquet:"variant_value" json:"variant_value"`
	Units        string  `parquet:"Units,optional" json:"units,omitempty"`
}

// SimulationData is the raw load result. Base holds the unmodified run per
// building; Modified holds all variant rows per building (variant_id is on
// each record). Comparison, when non-nil, replaces Base/Modified for
// buildings whose parser emitted comparison tables instead.
type SimulationData struct {
	Base       map[core.BuildingID][]dataset.SimulationRecord
	Modified   map[core.BuildingID][]dataset.SimulationRecord
	Comparison map[core.BuildingID][]ComparisonRecord
}

// DataManager loads parsed simulation outputs. Implementations sit on the
// parquet layout produced by the external parsing layer.
type DataManager interface {
	LoadSimulationResults(ctx context.Context, opts LoadOptions) (*SimulationData, error)
}

// ValidationScore is one building's calibration quality, produced by the
// external validation subsystem. Lower CVRMSE means a better-calibrated
// model.
type ValidationScore struct {
	CVRMSE float64 `json:"cvrmse"`
	NMBE   float64 `json:"nmbe"`
}

// ValidationSource loads per-building validation summaries. The artifact is
// optional; implementations return an empty map when it is absent.
type ValidationSource interface {
	LoadValidationScores() (map[core.BuildingID]ValidationScore, error)
}

// ModificationSource loads the scenario modification log: which parameter
// each variant changed and the value it was set to. This is the X side of
// parameter sensitivity analysis.
type ModificationSource interface {
	LoadModifications() ([]dataset.ModificationRecord, error)
}
