package app

import (
	"log"
	"sort"
	"strings"

	"enersense/adapters/relationships"
	"enersense/domain/core"
	"enersense/domain/dataset"
)

// AggregateZoneDeltas collapses zone-grouped deltas into building-level ones,
// weighting each zone's contribution by floor area, volume, or equally.
// Deltas without a zone group pass through unchanged. Zones missing from the
// relationship tables get an equal share of the residual weight.
func AggregateZoneDeltas(deltas []dataset.OutputDelta, mgr *relationships.Manager, weightBy relationships.WeightBy) []dataset.OutputDelta {
	type bucket struct {
		building core.BuildingID
		variant  core.VariantID
		variable string
		units    string
		base     float64
		modified float64
	}

	var out []dataset.OutputDelta
	buckets := make(map[string]*bucket)
	var order []string

	for _, d := range deltas {
		zone, ok := d.Group["zone"]
		if !ok {
			out = append(out, d)
			continue
		}
		weights := mgr.GetZoneWeights(d.Building, weightBy)
		w, ok := zoneWeight(mgr, weights, d.Building, zone)
		if !ok {
			n := mgr.ZoneCount(d.Building)
			if n == 0 {
				n = 1
			}
			w = 1.0 / float64(n)
			log.Printf("Warning: zone %q of building %s not in relationship tables, using equal weight", zone, d.Building)
		}

		key := string(d.Building) + "|" + string(d.Variant) + "|" + d.OutputVariable
		b, seen := buckets[key]
		if !seen {
			b = &bucket{building: d.Building, variant: d.Variant, variable: d.OutputVariable, units: d.Units}
			buckets[key] = b
			order = append(order, key)
		}
		b.base += w * d.BaseValue
		b.modified += w * d.ModifiedValue
	}

	sort.Strings(order)
	for _, key := range order {
		b := buckets[key]
		d := dataset.NewOutputDelta(b.building, b.variant, b.variable, b.base, b.modified)
		d.Units = b.units
		out = append(out, d)
	}
	return out
}

// zoneWeight resolves a record's zone name (usually the SQL-output spelling)
// against the IDF-keyed weight map, falling back to a case-insensitive match
// on either spelling.
func zoneWeight(mgr *relationships.Manager, weights map[string]float64, b core.BuildingID, zone string) (float64, bool) {
	if w, ok := weights[zone]; ok {
		return w, true
	}
	for idfName, w := range weights {
		if strings.EqualFold(idfName, zone) || strings.EqualFold(mgr.GetSQLZoneName(b, idfName), zone) {
			return w, true
		}
	}
	return 0, false
}
