package core

import "fmt"

// BuildingID identifies one building model in the simulation set.
type BuildingID string

// VariantID identifies one modified run of a building. The unmodified run
// uses VariantBase.
type VariantID string

// VariantBase is the reserved variant identifier for the unmodified run.
const VariantBase VariantID = "base"

// ParameterKey identifies a modified input parameter (e.g. "hvac_cop",
// "infiltration_ach").
type ParameterKey string

// OutputKey identifies a simulation output variable (e.g.
// "Zone Air System Sensible Cooling Energy").
type OutputKey string

// ZoneName is a zone identifier. IDF and SQL outputs may spell the same zone
// differently; RelationshipManager owns the mapping between the two.
type ZoneName string

// EntityKey is the row key shared by parameter and output matrices: one row
// per (building, variant).
type EntityKey struct {
	Building BuildingID `json:"building_id"`
	Variant  VariantID  `json:"variant_id"`
}

func (k EntityKey) String() string {
	return fmt.Sprintf("%s/%s", k.Building, k.Variant)
}
