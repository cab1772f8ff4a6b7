package app

import (
	"math"
	"path/filepath"
	"testing"

	"enersense/adapters/parquetstore"
	"enersense/adapters/relationships"
	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/ports"
)

func TestBuildParameterMatrix_PivotsModifications(t *testing.T) {
	mods := []dataset.ModificationRecord{
		{BuildingID: "b1", VariantID: "v1", Parameter: "watts_per_area", ObjectType: "Lights", NewValue: 8},
		{BuildingID: "b1", VariantID: "v1", Parameter: "thickness", ObjectType: "Material", NewValue: 0.1},
		{BuildingID: "b1", VariantID: "v2", Parameter: "watts_per_area", ObjectType: "Lights", NewValue: 12},
	}

	m, err := BuildParameterMatrix(mods)
	if err != nil {
		t.Fatal(err)
	}
	if m.RowCount() != 2 || m.ColumnCount() != 2 {
		t.Fatalf("expected 2x2 matrix, got %dx%d", m.RowCount(), m.ColumnCount())
	}
	// Columns are sorted ObjectType.Parameter names.
	if m.Columns[0] != "Lights.watts_per_area" || m.Columns[1] != "Material.thickness" {
		t.Fatalf("column names wrong: %v", m.Columns)
	}
	if m.Data[0][0] != 8 || m.Data[1][0] != 12 {
		t.Errorf("lights values wrong: %g, %g", m.Data[0][0], m.Data[1][0])
	}
	// v2 never touched Material.thickness, so its cell is NaN.
	if m.Data[0][1] != 0.1 || !math.IsNaN(m.Data[1][1]) {
		t.Errorf("thickness column wrong: %g, %g", m.Data[0][1], m.Data[1][1])
	}

	if _, err := BuildParameterMatrix(nil); err == nil {
		t.Error("empty modification log should fail")
	}
}

func TestBuildDeltaMatrix_AppliesValidationWeights(t *testing.T) {
	deltas := []dataset.OutputDelta{
		dataset.NewOutputDelta("b1", "v1", "Electricity:Facility", 100, 140),
		dataset.NewOutputDelta("b2", "v1", "Electricity:Facility", 100, 140),
	}
	scores := map[core.BuildingID]ports.ValidationScore{
		"b2": {CVRMSE: 100}, // weight 0.5
	}

	m, err := BuildDeltaMatrix(deltas, scores)
	if err != nil {
		t.Fatal(err)
	}
	if m.RowCount() != 2 || m.ColumnCount() != 1 {
		t.Fatalf("expected 2x1 matrix, got %dx%d", m.RowCount(), m.ColumnCount())
	}
	if m.Data[0][0] != 40 {
		t.Errorf("unscored building keeps its raw delta, got %g", m.Data[0][0])
	}
	if m.Data[1][0] != 20 {
		t.Errorf("CVRMSE 100 should halve the delta, got %g", m.Data[1][0])
	}
}

func TestBuildDeltaMatrix_GroupedColumns(t *testing.T) {
	d := dataset.NewOutputDelta("b1", "v1", "Electricity:Facility", 10, 15)
	d.Group = map[string]string{"zone": "ZONE_A"}

	m, err := BuildDeltaMatrix([]dataset.OutputDelta{d}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if m.Columns[0] != "Electricity:Facility[zone=ZONE_A]" {
		t.Errorf("grouped column name wrong: %q", m.Columns[0])
	}
}

func TestAggregateZoneDeltas_AreaWeighted(t *testing.T) {
	dir := t.TempDir()
	zones := []parquetstore.ZoneMappingRow{
		{BuildingID: "b1", IDFZoneName: "Core_Zone", SQLZoneName: "CORE_ZONE"},
		{BuildingID: "b1", IDFZoneName: "Perimeter_Zone", SQLZoneName: "PERIMETER_ZONE"},
	}
	if err := parquetstore.WriteRows(filepath.Join(dir, "relationships", "zone_mappings.parquet"), zones); err != nil {
		t.Fatal(err)
	}
	geometry := []parquetstore.GeometryZoneRow{
		{BuildingID: "b1", ZoneName: "Core_Zone", FloorAreaNumeric: 300},
		{BuildingID: "b1", ZoneName: "Perimeter_Zone", FloorAreaNumeric: 100},
	}
	if err := parquetstore.WriteRows(filepath.Join(dir, "idf_data", "by_category", "geometry_zones.parquet"), geometry); err != nil {
		t.Fatal(err)
	}
	mgr := relationships.NewManager(dir)

	core_ := dataset.NewOutputDelta("b1", "v1", "Electricity:Facility", 100, 120)
	core_.Group = map[string]string{"zone": "CORE_ZONE"}
	perim := dataset.NewOutputDelta("b1", "v1", "Electricity:Facility", 40, 80)
	perim.Group = map[string]string{"zone": "PERIMETER_ZONE"}

	out := AggregateZoneDeltas([]dataset.OutputDelta{core_, perim}, mgr, relationships.WeightArea)
	if len(out) != 1 {
		t.Fatalf("expected one building-level delta, got %d", len(out))
	}
	// Area weights are 0.75 and 0.25: base = 0.75*100 + 0.25*40 = 85,
	// modified = 0.75*120 + 0.25*80 = 110.
	if math.Abs(out[0].BaseValue-85) > 1e-9 || math.Abs(out[0].ModifiedValue-110) > 1e-9 {
		t.Errorf("weighted aggregate wrong: base %g modified %g", out[0].BaseValue, out[0].ModifiedValue)
	}
	if math.Abs(out[0].Delta-25) > 1e-9 {
		t.Errorf("delta: got %g, want 25", out[0].Delta)
	}
}

func TestAggregateZoneDeltas_PassThroughWithoutZoneGroup(t *testing.T) {
	mgr := relationships.NewManager(t.TempDir())
	d := dataset.NewOutputDelta("b1", "v1", "Electricity:Facility", 10, 15)

	out := AggregateZoneDeltas([]dataset.OutputDelta{d}, mgr, relationships.WeightEqual)
	if len(out) != 1 || out[0].Delta != 5 {
		t.Errorf("ungrouped deltas should pass through, got %+v", out)
	}
}
