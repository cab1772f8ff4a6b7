package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"enersense/domain/core"
	"enersense/domain/dataset"
)

// supported CalculateOutputDeltas aggregations.
const (
	AggSum  = "sum"
	AggMean = "mean"
	AggMax  = "max"
	AggMin  = "min"
)

// CalculateOutputDeltas compares base against modified results for every
// building that has both, one delta per (building, variant, variable, group).
// outputVariables defaults to every variable present in the modified data;
// groupby defaults to none, i.e. one whole-table aggregate per variable.
func (a *BaseAnalyzer) CalculateOutputDeltas(outputVariables []string, aggregation string, groupby []string) ([]dataset.OutputDelta, error) {
	if a.loaded == nil {
		return nil, fmt.Errorf("output deltas: %w: no results loaded", core.ErrInsufficientData)
	}
	if aggregation == "" {
		aggregation = AggSum
	}
	switch aggregation {
	case AggSum, AggMean, AggMax, AggMin:
	default:
		return nil, fmt.Errorf("%w: aggregation %q", core.ErrUnknownMethod, aggregation)
	}
	for _, dim := range groupby {
		switch dim {
		case "zone", "month", "units":
		default:
			return nil, core.NewValidationError("groupby", fmt.Sprintf("unknown dimension %q", dim))
		}
	}

	var deltas []dataset.OutputDelta
	for _, b := range sortedBuildings(a.loaded.Base) {
		baseRecords := a.loaded.Base[b]
		modRecords, ok := a.loaded.Modified[b]
		if !ok || len(baseRecords) == 0 || len(modRecords) == 0 {
			continue
		}

		variables := outputVariables
		if len(variables) == 0 {
			variables = distinctVariables(modRecords)
		}

		byVariant := splitByVariant(modRecords)
		for _, variant := range sortedVariants(byVariant) {
			variantRecords := byVariant[variant]
			for _, variable := range variables {
				baseAgg := aggregateGroups(selectVariable(baseRecords, variable), groupby, aggregation)
				modAgg := aggregateGroups(selectVariable(variantRecords, variable), groupby, aggregation)
				for _, key := range sortedGroupKeys(baseAgg) {
					bg := baseAgg[key]
					mg, ok := modAgg[key]
					if !ok {
						continue
					}
					d := dataset.NewOutputDelta(b, variant, variable, bg.value, mg.value)
					d.Group = bg.labels
					d.Units = bg.units
					deltas = append(deltas, d)
				}
			}
		}
	}
	return deltas, nil
}

type groupAgg struct {
	labels map[string]string
	units  string
	value  float64
	sum    float64
	max    float64
	min    float64
	count  int
}

// aggregateGroups groups records by the requested dimensions and reduces each
// group's values with the chosen aggregation.
func aggregateGroups(records []dataset.SimulationRecord, groupby []string, aggregation string) map[string]*groupAgg {
	out := make(map[string]*groupAgg)
	for _, r := range records {
		key, labels := groupLabels(r, groupby)
		g, ok := out[key]
		if !ok {
			g = &groupAgg{labels: labels, units: r.Units, max: r.Value, min: r.Value}
			out[key] = g
		}
		g.sum += r.Value
		g.count++
		if r.Value > g.max {
			g.max = r.Value
		}
		if r.Value < g.min {
			g.min = r.Value
		}
	}
	for _, g := range out {
		switch aggregation {
		case AggMean:
			g.value = g.sum / float64(g.count)
		case AggMax:
			g.value = g.max
		case AggMin:
			g.value = g.min
		default:
			g.value = g.sum
		}
	}
	return out
}

func groupLabels(r dataset.SimulationRecord, groupby []string) (string, map[string]string) {
	if len(groupby) == 0 {
		return "", nil
	}
	labels := make(map[string]string, len(groupby))
	parts := make([]string, len(groupby))
	for i, dim := range groupby {
		var v string
		switch dim {
		case "zone":
			v = r.Zone
		case "month":
			if !r.DateTime.IsZero() {
				v = strconv.Itoa(int(r.DateTime.Month()))
			}
		case "units":
			v = r.Units
		}
		labels[dim] = v
		parts[i] = dim + "=" + v
	}
	return strings.Join(parts, "|"), labels
}

func selectVariable(records []dataset.SimulationRecord, variable string) []dataset.SimulationRecord {
	var out []dataset.SimulationRecord
	for _, r := range records {
		if dataset.MatchesVariable(r.Variable, variable) {
			out = append(out, r)
		}
	}
	return out
}

func distinctVariables(records []dataset.SimulationRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		v := dataset.NormalizeVariable(r.Variable)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func splitByVariant(records []dataset.SimulationRecord) map[core.VariantID][]dataset.SimulationRecord {
	out := make(map[core.VariantID][]dataset.SimulationRecord)
	for _, r := range records {
		v := core.VariantID(r.VariantID)
		out[v] = append(out[v], r)
	}
	return out
}

func sortedBuildings(m map[core.BuildingID][]dataset.SimulationRecord) []core.BuildingID {
	out := make([]core.BuildingID, 0, len(m))
	for b := range m {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedVariants(m map[core.VariantID][]dataset.SimulationRecord) []core.VariantID {
	out := make([]core.VariantID, 0, len(m))
	for v := range m {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sortedGroupKeys(m map[string]*groupAgg) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
