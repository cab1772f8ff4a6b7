package relationships

import (
	"strings"

	"enersense/domain/core"
	"enersense/domain/dataset"
)

// Scope classifies how wide a modification reaches.
type Scope string

const (
	ScopeBuilding  Scope = "building"
	ScopeZone      Scope = "zone"
	ScopeEquipment Scope = "equipment"
)

// allZonesMarker in an object name or type means the modification applies to
// every zone of the building.
const allZonesMarker = "all_zones"

// zoneSpecificTypes are IDF object types that always attach to a single zone.
var zoneSpecificTypes = map[string]bool{
	"ZONE":              true,
	"PEOPLE":            true,
	"LIGHTS":            true,
	"ELECTRICEQUIPMENT": true,
	"ZONEINFILTRATION":  true,
	"ZONEVENTILATION":   true,
}

// DetectModificationScope classifies which zones a modified IDF object
// affects. This is a best-effort string-matching heuristic with no ground
// truth: IDF object names carry no formal linkage to zones, so substring
// matching against known zone and equipment names is the strongest signal
// available. Unmatched objects default to building scope.
func (m *Manager) DetectModificationScope(b core.BuildingID, objectName, objectType string) (Scope, []string) {
	lowerName := strings.ToLower(objectName)
	lowerType := strings.ToLower(objectType)

	if strings.Contains(lowerName, allZonesMarker) || strings.Contains(lowerType, allZonesMarker) {
		return ScopeBuilding, m.GetBuildingZones(b)
	}

	if eq, ok := m.equipment[b][lowerName]; ok {
		if eq.AssignedZone != "" {
			return ScopeEquipment, []string{eq.AssignedZone}
		}
		return ScopeEquipment, nil
	}

	if zone := m.matchZoneSubstring(b, lowerName); zone != "" {
		return ScopeZone, []string{zone}
	}

	if zoneSpecificTypes[normalizeObjectType(objectType)] {
		if zone := m.matchZoneSubstring(b, lowerName); zone != "" {
			return ScopeZone, []string{zone}
		}
	}

	return ScopeBuilding, m.GetBuildingZones(b)
}

// matchZoneSubstring finds a zone whose name appears in (or contains) the
// object name, case-insensitively.
func (m *Manager) matchZoneSubstring(b core.BuildingID, lowerObjectName string) string {
	if lowerObjectName == "" {
		return ""
	}
	for _, zoneName := range m.GetBuildingZones(b) {
		lowerZone := strings.ToLower(zoneName)
		if strings.Contains(lowerObjectName, lowerZone) || strings.Contains(lowerZone, lowerObjectName) {
			return zoneName
		}
	}
	return ""
}

// normalizeObjectType uppercases and strips an IDF subtype suffix, so
// "ZoneInfiltration:DesignFlowRate" matches "ZONEINFILTRATION".
func normalizeObjectType(objectType string) string {
	t := strings.ToUpper(strings.TrimSpace(objectType))
	if i := strings.Index(t, ":"); i > 0 {
		t = t[:i]
	}
	return t
}

// Hierarchy groups a flat modification log by the scope each row resolves
// to.
type Hierarchy struct {
	BuildingLevel  map[core.BuildingID][]dataset.ModificationRecord
	ZoneLevel      map[core.BuildingID]map[string][]dataset.ModificationRecord
	EquipmentLevel map[core.BuildingID]map[string][]dataset.ModificationRecord
}

// CreateModificationHierarchy classifies every modification record into the
// three-level building/zone/equipment structure.
func (m *Manager) CreateModificationHierarchy(mods []dataset.ModificationRecord) Hierarchy {
	h := Hierarchy{
		BuildingLevel:  make(map[core.BuildingID][]dataset.ModificationRecord),
		ZoneLevel:      make(map[core.BuildingID]map[string][]dataset.ModificationRecord),
		EquipmentLevel: make(map[core.BuildingID]map[string][]dataset.ModificationRecord),
	}
	for _, mod := range mods {
		b := core.BuildingID(mod.BuildingID)
		scope, zones := m.DetectModificationScope(b, mod.ObjectName, mod.ObjectType)
		switch scope {
		case ScopeZone:
			if h.ZoneLevel[b] == nil {
				h.ZoneLevel[b] = make(map[string][]dataset.ModificationRecord)
			}
			for _, z := range zones {
				h.ZoneLevel[b][z] = append(h.ZoneLevel[b][z], mod)
			}
		case ScopeEquipment:
			if h.EquipmentLevel[b] == nil {
				h.EquipmentLevel[b] = make(map[string][]dataset.ModificationRecord)
			}
			h.EquipmentLevel[b][mod.ObjectName] = append(h.EquipmentLevel[b][mod.ObjectName], mod)
		default:
			h.BuildingLevel[b] = append(h.BuildingLevel[b], mod)
		}
	}
	return h
}
