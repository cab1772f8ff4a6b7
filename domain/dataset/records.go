package dataset

import (
	"time"

	"enersense/domain/core"
)

// SimulationRecord is one long-format row of parsed simulation output, as
// produced by the external parsing layer. Units travel with the variable name
// in brackets in some exports; MatchesVariable handles both spellings.
type SimulationRecord struct {
	BuildingID string    `parquet:"building_id" json:"building_id"`
	VariantID  string    `parquet:"variant_id" json:"variant_id"`
	Variable   string    `parquet:"Variable" json:"variable"`
	Zone       string    `parquet:"Zone,optional" json:"zone,omitempty"`
	DateTime   time.Time `parquet:"DateTime,optional" json:"date_time,omitempty"`
	Value      float64   `parquet:"Value" json:"value"`
	Units      string    `parquet:"Units,optional" json:"units,omitempty"`
}

// ResultTable holds the simulation records for one building and one variant.
type ResultTable struct {
	Building core.BuildingID
	Variant  core.VariantID
	Records  []SimulationRecord
}

// OutputDelta is one base-vs-modified comparison for a single output
// variable, optionally grouped (e.g. per zone). Deltas are recomputed on
// every analysis call and never persisted as a primary artifact.
type OutputDelta struct {
	Building       core.BuildingID   `json:"building_id"`
	Variant        core.VariantID    `json:"variant_id"`
	OutputVariable string            `json:"output_variable"`
	Group          map[string]string `json:"group,omitempty"`
	BaseValue      float64           `json:"base_value"`
	ModifiedValue  float64           `json:"modified_value"`
	Delta          float64           `json:"delta"`
	PctChange      float64           `json:"pct_change"`
	Units          string            `json:"units,omitempty"`
}

// NewOutputDelta computes the delta and the NaN-safe percent change
// (0 when the base value is 0).
func NewOutputDelta(b core.BuildingID, v core.VariantID, output string, base, modified float64) OutputDelta {
	d := OutputDelta{
		Building:       b,
		Variant:        v,
		OutputVariable: output,
		BaseValue:      base,
		ModifiedValue:  modified,
		Delta:          modified - base,
	}
	if base != 0 {
		d.PctChange = 100 * d.Delta / base
	}
	return d
}

// ModificationRecord is one row of the scenario modification log: which IDF
// object a variant changed, and the numeric value it was set to.
type ModificationRecord struct {
	BuildingID string  `parquet:"building_id" json:"building_id"`
	VariantID  string  `parquet:"variant_id" json:"variant_id"`
	Parameter  string  `parquet:"parameter" json:"parameter"`
	ObjectName string  `parquet:"object_name" json:"object_name"`
	ObjectType string  `parquet:"object_type" json:"object_type"`
	NewValue   float64 `parquet:"new_value" json:"new_value"`
}
