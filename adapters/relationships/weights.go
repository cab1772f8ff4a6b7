package relationships

import (
	"log"

	"enersense/domain/core"
)

// WeightBy selects how zone weights are derived.
type WeightBy string

const (
	WeightEqual  WeightBy = "equal"
	WeightArea   WeightBy = "area"
	WeightVolume WeightBy = "volume"
)

// GetZoneWeights returns per-zone weights summing to 1.0. Area and volume
// weighting fall back to equal weighting when any zone encountered lacks the
// measure, so a single unmeasured zone cannot silently absorb zero weight.
func (m *Manager) GetZoneWeights(b core.BuildingID, weightBy WeightBy) map[string]float64 {
	zones := m.GetBuildingZones(b)
	if len(zones) == 0 {
		return map[string]float64{}
	}

	weights := make(map[string]float64, len(zones))
	switch weightBy {
	case WeightArea, WeightVolume:
		total := 0.0
		complete := true
		for _, name := range zones {
			z := m.zones[b][name]
			v := z.Area
			if weightBy == WeightVolume {
				v = z.Volume
			}
			if v <= 0 {
				complete = false
				break
			}
			weights[name] = v
			total += v
		}
		if !complete || total == 0 {
			log.Printf("Warning: %s weights unavailable for building %s, falling back to equal weighting", weightBy, b)
			return m.GetZoneWeights(b, WeightEqual)
		}
		for name := range weights {
			weights[name] /= total
		}
	default:
		eq := 1.0 / float64(len(zones))
		for _, name := range zones {
			weights[name] = eq
		}
	}
	return weights
}
