// Package relationships holds the building → zone → equipment hierarchy
// loaded from the parsing layer, and resolves which zones a given IDF object
// modification touches.
package relationships

import (
	"log"
	"path/filepath"
	"sort"
	"strings"

	"enersense/adapters/parquetstore"
	"enersense/domain/core"
)

// ZoneInfo describes one zone of a building.
type ZoneInfo struct {
	BuildingID  core.BuildingID
	IDFZoneName string
	SQLZoneName string
	ZoneType    string
	Multiplier  int
	Area        float64
	Volume      float64
	Equipment   []string
}

// EquipmentInfo describes one piece of equipment. Equipment references its
// zone; it does not own it.
type EquipmentInfo struct {
	BuildingID    core.BuildingID
	EquipmentName string
	EquipmentType string
	AssignedZone  string
	Schedule      string
	Capacity      float64
}

// Manager owns the in-memory zone and equipment maps, loaded once from
// parquet at construction. Missing source files leave the corresponding maps
// empty; that is a warning, not an error.
type Manager struct {
	zones     map[core.BuildingID]map[string]*ZoneInfo      // keyed by IDF zone name
	equipment map[core.BuildingID]map[string]*EquipmentInfo // keyed by lowercased equipment name
}

// NewManager loads zone mappings, equipment assignments and zone geometry
// from a parsed-data directory.
func NewManager(dir string) *Manager {
	m := &Manager{
		zones:     make(map[core.BuildingID]map[string]*ZoneInfo),
		equipment: make(map[core.BuildingID]map[string]*EquipmentInfo),
	}
	m.loadZoneMappings(filepath.Join(dir, "relationships", "zone_mappings.parquet"))
	m.loadEquipment(filepath.Join(dir, "relationships", "equipment_assignments.parquet"))
	m.loadGeometry(filepath.Join(dir, "idf_data", "by_category", "geometry_zones.parquet"))
	return m
}

func (m *Manager) loadZoneMappings(path string) {
	if !parquetstore.Exists(path) {
		log.Printf("Warning: zone mappings not found at %s, zone maps will be empty", path)
		return
	}
	rows, err := parquetstore.ReadRows[parquetstore.ZoneMappingRow](path)
	if err != nil {
		log.Printf("Warning: could not read zone mappings: %v", err)
		return
	}
	for _, r := range rows {
		b := core.BuildingID(r.BuildingID)
		if m.zones[b] == nil {
			m.zones[b] = make(map[string]*ZoneInfo)
		}
		m.zones[b][r.IDFZoneName] = &ZoneInfo{
			BuildingID:  b,
			IDFZoneName: r.IDFZoneName,
			SQLZoneName: r.SQLZoneName,
			ZoneType:    r.ZoneType,
			Multiplier:  int(r.Multiplier),
		}
	}
}

func (m *Manager) loadEquipment(path string) {
	if !parquetstore.Exists(path) {
		log.Printf("Warning: equipment assignments not found at %s, equipment maps will be empty", path)
		return
	}
	rows, err := parquetstore.ReadRows[parquetstore.EquipmentAssignmentRow](path)
	if err != nil {
		log.Printf("Warning: could not read equipment assignments: %v", err)
		return
	}
	for _, r := range rows {
		b := core.BuildingID(r.BuildingID)
		if m.equipment[b] == nil {
			m.equipment[b] = make(map[string]*EquipmentInfo)
		}
		m.equipment[b][strings.ToLower(r.EquipmentName)] = &EquipmentInfo{
			BuildingID:    b,
			EquipmentName: r.EquipmentName,
			EquipmentType: r.EquipmentType,
			AssignedZone:  r.AssignedZone,
			Schedule:      r.Schedule,
			Capacity:      r.Capacity,
		}
		if zone := m.zoneByName(b, r.AssignedZone); zone != nil {
			zone.Equipment = append(zone.Equipment, r.EquipmentName)
		}
	}
}

func (m *Manager) loadGeometry(path string) {
	if !parquetstore.Exists(path) {
		log.Printf("Warning: zone geometry not found at %s, area/volume weights fall back to equal", path)
		return
	}
	rows, err := parquetstore.ReadRows[parquetstore.GeometryZoneRow](path)
	if err != nil {
		log.Printf("Warning: could not read zone geometry: %v", err)
		return
	}
	for _, r := range rows {
		b := core.BuildingID(r.BuildingID)
		zone := m.zoneByName(b, r.Zone())
		if zone == nil {
			// Geometry can mention zones absent from the mappings; register
			// them so weights and scope detection still see them.
			if m.zones[b] == nil {
				m.zones[b] = make(map[string]*ZoneInfo)
			}
			zone = &ZoneInfo{BuildingID: b, IDFZoneName: r.Zone(), SQLZoneName: r.Zone()}
			m.zones[b][r.Zone()] = zone
		}
		zone.Area = r.Area()
		zone.Volume = r.VolumeNumeric
	}
}

// zoneByName finds a zone by exact then case-insensitive IDF name match.
func (m *Manager) zoneByName(b core.BuildingID, name string) *ZoneInfo {
	zones := m.zones[b]
	if zones == nil || name == "" {
		return nil
	}
	if z, ok := zones[name]; ok {
		return z
	}
	lower := strings.ToLower(name)
	for n, z := range zones {
		if strings.ToLower(n) == lower {
			return z
		}
	}
	return nil
}

// GetZoneForEquipment returns the zone an equipment item is assigned to, or
// "" when unknown.
func (m *Manager) GetZoneForEquipment(b core.BuildingID, equipmentName string) string {
	if eq, ok := m.equipment[b][strings.ToLower(equipmentName)]; ok {
		return eq.AssignedZone
	}
	return ""
}

// GetSQLZoneName maps an IDF zone name to its SQL-output spelling:
// exact match first, then case-insensitive, else the input unchanged.
// Best-effort normalization that never fails.
func (m *Manager) GetSQLZoneName(b core.BuildingID, idfZoneName string) string {
	if z := m.zoneByName(b, idfZoneName); z != nil && z.SQLZoneName != "" {
		return z.SQLZoneName
	}
	return idfZoneName
}

// GetBuildingZones lists a building's IDF zone names, sorted for stable
// output.
func (m *Manager) GetBuildingZones(b core.BuildingID) []string {
	var out []string
	for name := range m.zones[b] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// GetZoneEquipment lists the equipment assigned to a zone.
func (m *Manager) GetZoneEquipment(b core.BuildingID, zoneName string) []string {
	if z := m.zoneByName(b, zoneName); z != nil {
		return append([]string(nil), z.Equipment...)
	}
	return nil
}

// ZoneCount returns the number of known zones for a building.
func (m *Manager) ZoneCount(b core.BuildingID) int {
	return len(m.zones[b])
}
