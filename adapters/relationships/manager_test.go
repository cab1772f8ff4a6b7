package relationships

import (
	"math"
	"path/filepath"
	"testing"

	"enersense/adapters/parquetstore"
	"enersense/domain/core"
	"enersense/domain/dataset"
)

const testBuilding = core.BuildingID("bldg_0042")

// writeFixtures lays out a parsed-data directory with two zones, one piece of
// equipment, and geometry for both zones.
func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	zones := []parquetstore.ZoneMappingRow{
		{BuildingID: string(testBuilding), IDFZoneName: "Core_Zone", SQLZoneName: "CORE_ZONE", ZoneType: "conditioned", Multiplier: 1},
		{BuildingID: string(testBuilding), IDFZoneName: "Perimeter_Zone", SQLZoneName: "PERIMETER_ZONE", ZoneType: "conditioned", Multiplier: 1},
	}
	if err := parquetstore.WriteRows(filepath.Join(dir, "relationships", "zone_mappings.parquet"), zones); err != nil {
		t.Fatal(err)
	}

	equipment := []parquetstore.EquipmentAssignmentRow{
		{BuildingID: string(testBuilding), EquipmentName: "Main_Chiller", EquipmentType: "Chiller:Electric", AssignedZone: "Core_Zone", Capacity: 50000},
	}
	if err := parquetstore.WriteRows(filepath.Join(dir, "relationships", "equipment_assignments.parquet"), equipment); err != nil {
		t.Fatal(err)
	}

	geometry := []parquetstore.GeometryZoneRow{
		{BuildingID: string(testBuilding), ZoneName: "Core_Zone", FloorAreaNumeric: 300, VolumeNumeric: 900},
		{BuildingID: string(testBuilding), ZoneName: "Perimeter_Zone", FloorAreaNumeric: 100, VolumeNumeric: 300},
	}
	if err := parquetstore.WriteRows(filepath.Join(dir, "idf_data", "by_category", "geometry_zones.parquet"), geometry); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestNewManager_LoadsHierarchy(t *testing.T) {
	m := NewManager(writeFixtures(t))

	if got := m.ZoneCount(testBuilding); got != 2 {
		t.Fatalf("expected 2 zones, got %d", got)
	}
	if got := m.GetSQLZoneName(testBuilding, "Core_Zone"); got != "CORE_ZONE" {
		t.Errorf("SQL zone name: got %q, want CORE_ZONE", got)
	}
	// Case-insensitive fallback.
	if got := m.GetSQLZoneName(testBuilding, "core_zone"); got != "CORE_ZONE" {
		t.Errorf("case-insensitive SQL zone name: got %q", got)
	}
	// Unknown names pass through untouched.
	if got := m.GetSQLZoneName(testBuilding, "Attic"); got != "Attic" {
		t.Errorf("unknown zone should pass through, got %q", got)
	}
	if got := m.GetZoneForEquipment(testBuilding, "main_chiller"); got != "Core_Zone" {
		t.Errorf("equipment zone: got %q, want Core_Zone", got)
	}
	if eq := m.GetZoneEquipment(testBuilding, "Core_Zone"); len(eq) != 1 || eq[0] != "Main_Chiller" {
		t.Errorf("zone equipment: got %v", eq)
	}
}

func TestNewManager_MissingFilesLeaveEmptyMaps(t *testing.T) {
	m := NewManager(t.TempDir())

	if got := m.ZoneCount(testBuilding); got != 0 {
		t.Errorf("expected no zones from an empty directory, got %d", got)
	}
	if zones := m.GetBuildingZones(testBuilding); len(zones) != 0 {
		t.Errorf("expected no zone names, got %v", zones)
	}
	// Normalization still works without data.
	if got := m.GetSQLZoneName(testBuilding, "Core_Zone"); got != "Core_Zone" {
		t.Errorf("pass-through without data: got %q", got)
	}
}

func TestDetectModificationScope_AllZonesMarker(t *testing.T) {
	m := NewManager(writeFixtures(t))

	scope, zones := m.DetectModificationScope(testBuilding, "lights_all_zones", "Lights")
	if scope != ScopeBuilding {
		t.Fatalf("all_zones marker should resolve to building scope, got %s", scope)
	}
	if len(zones) != 2 {
		t.Errorf("building scope should list every zone, got %v", zones)
	}
}

func TestDetectModificationScope_EquipmentMatch(t *testing.T) {
	m := NewManager(writeFixtures(t))

	scope, zones := m.DetectModificationScope(testBuilding, "Main_Chiller", "Chiller:Electric")
	if scope != ScopeEquipment {
		t.Fatalf("expected equipment scope, got %s", scope)
	}
	if len(zones) != 1 || zones[0] != "Core_Zone" {
		t.Errorf("equipment scope should resolve its assigned zone, got %v", zones)
	}
}

func TestDetectModificationScope_ZoneSubstring(t *testing.T) {
	m := NewManager(writeFixtures(t))

	scope, zones := m.DetectModificationScope(testBuilding, "perimeter_zone_lights", "Lights")
	if scope != ScopeZone {
		t.Fatalf("expected zone scope, got %s", scope)
	}
	if len(zones) != 1 || zones[0] != "Perimeter_Zone" {
		t.Errorf("expected Perimeter_Zone, got %v", zones)
	}
}

func TestDetectModificationScope_UnmatchedDefaultsToBuilding(t *testing.T) {
	m := NewManager(writeFixtures(t))

	scope, zones := m.DetectModificationScope(testBuilding, "site_orientation", "Building")
	if scope != ScopeBuilding {
		t.Fatalf("unmatched object should default to building scope, got %s", scope)
	}
	if len(zones) != 2 {
		t.Errorf("building scope should list every zone, got %v", zones)
	}
}

func TestCreateModificationHierarchy(t *testing.T) {
	m := NewManager(writeFixtures(t))

	mods := []dataset.ModificationRecord{
		{BuildingID: string(testBuilding), VariantID: "v1", Parameter: "watts_per_area", ObjectName: "lights_all_zones", ObjectType: "Lights"},
		{BuildingID: string(testBuilding), VariantID: "v1", Parameter: "cop", ObjectName: "Main_Chiller", ObjectType: "Chiller:Electric"},
		{BuildingID: string(testBuilding), VariantID: "v1", Parameter: "watts_per_area", ObjectName: "core_zone_lights", ObjectType: "Lights"},
	}

	h := m.CreateModificationHierarchy(mods)
	if got := len(h.BuildingLevel[testBuilding]); got != 1 {
		t.Errorf("expected 1 building-level modification, got %d", got)
	}
	if got := len(h.EquipmentLevel[testBuilding]["Main_Chiller"]); got != 1 {
		t.Errorf("expected 1 equipment-level modification, got %d", got)
	}
	if got := len(h.ZoneLevel[testBuilding]["Core_Zone"]); got != 1 {
		t.Errorf("expected 1 zone-level modification for Core_Zone, got %d", got)
	}
}

func TestGetZoneWeights_AreaAndFallback(t *testing.T) {
	m := NewManager(writeFixtures(t))

	byArea := m.GetZoneWeights(testBuilding, WeightArea)
	if w := byArea["Core_Zone"]; math.Abs(w-0.75) > 1e-9 {
		t.Errorf("Core_Zone area weight: got %g, want 0.75", w)
	}
	if w := byArea["Perimeter_Zone"]; math.Abs(w-0.25) > 1e-9 {
		t.Errorf("Perimeter_Zone area weight: got %g, want 0.25", w)
	}

	equal := m.GetZoneWeights(testBuilding, WeightEqual)
	for zone, w := range equal {
		if math.Abs(w-0.5) > 1e-9 {
			t.Errorf("equal weight for %s: got %g, want 0.5", zone, w)
		}
	}

	// No geometry on disk means area weighting falls back to equal.
	bare := t.TempDir()
	zones := []parquetstore.ZoneMappingRow{
		{BuildingID: string(testBuilding), IDFZoneName: "A", SQLZoneName: "A"},
		{BuildingID: string(testBuilding), IDFZoneName: "B", SQLZoneName: "B"},
	}
	if err := parquetstore.WriteRows(filepath.Join(bare, "relationships", "zone_mappings.parquet"), zones); err != nil {
		t.Fatal(err)
	}
	fallback := NewManager(bare).GetZoneWeights(testBuilding, WeightArea)
	for zone, w := range fallback {
		if math.Abs(w-0.5) > 1e-9 {
			t.Errorf("fallback weight for %s: got %g, want 0.5", zone, w)
		}
	}
}
