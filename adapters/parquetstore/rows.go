// Package parquetstore owns every parquet artifact the analysis core reads
// or writes: parsed relationship tables, simulation results, validation
// summaries, and the flat sensitivity results it persists.
package parquetstore

// ZoneMappingRow mirrors relationships/zone_mappings.parquet.
type ZoneMappingRow struct {
	BuildingID  string `parquet:"building_id"`
	IDFZoneName string `parquet:"idf_zone_name"`
	SQLZoneName string `parquet:"sql_zone_name"`
	ZoneType    string `parquet:"zone_type,optional"`
	Multiplier  int32  `parquet:"multiplier,optional"`
}

// EquipmentAssignmentRow mirrors relationships/equipment_assignments.parquet.
type EquipmentAssignmentRow struct {
	BuildingID    string  `parquet:"building_id"`
	EquipmentName string  `parquet:"equipment_name"`
	EquipmentType string  `parquet:"equipment_type,optional"`
	AssignedZone  string  `parquet:"assigned_zone,optional"`
	Schedule      string  `parquet:"schedule,optional"`
	Capacity      float64 `parquet:"capacity,optional"`
}

// GeometryZoneRow mirrors idf_data/by_category/geometry_zones.parquet. Some
// exports carry floor_area, others floor_area_numeric; FloorArea resolves to
// whichever is set.
type GeometryZoneRow struct {
	BuildingID       string  `parquet:"building_id"`
	ZoneName         string  `parquet:"zone_name,optional"`
	Name             string  `parquet:"name,optional"`
	FloorArea        float64 `parquet:"floor_area,optional"`
	FloorAreaNumeric float64 `parquet:"floor_area_numeric,optional"`
	VolumeNumeric    float64 `parquet:"volume_numeric,optional"`
}

// Zone returns the zone name from whichever column is populated.
func (r GeometryZoneRow) Zone() string {
	if r.ZoneName != "" {
		return r.ZoneName
	}
	return r.Name
}

// Area returns the floor area from whichever column is populated.
func (r GeometryZoneRow) Area() float64 {
	if r.FloorAreaNumeric != 0 {
		return r.FloorAreaNumeric
	}
	return r.FloorArea
}

// ValidationRow mirrors validation_summary_{baseline,modified}.parquet, an
// artifact of the external calibration/validation subsystem.
type ValidationRow struct {
	BuildingID string  `parquet:"building_id"`
	CVRMSE     float64 `parquet:"cvrmse"`
	NMBE       float64 `parquet:"nmbe,optional"`
}

// SensitivityRow is one row of the persisted flat results table.
type SensitivityRow struct {
	Parameter        string  `parquet:"parameter"`
	OutputVariable   string  `parquet:"output_variable"`
	SensitivityScore float64 `parquet:"sensitivity_score"`
	Method           string  `parquet:"method"`
	NSamples         int64   `parquet:"n_samples"`
	PValue           float64 `parquet:"p_value,optional"`
	CILower          float64 `parquet:"ci_lower,optional"`
	CIUpper          float64 `parquet:"ci_upper,optional"`
	RegionID         int64   `parquet:"region_id,optional"`
	SegmentIndex     int64   `parquet:"segment_index,optional"`
	BreakpointValue  float64 `parquet:"breakpoint_value,optional"`
}
