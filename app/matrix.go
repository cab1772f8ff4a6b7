package app

import (
	"math"
	"sort"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/ports"
)

// BuildParameterMatrix pivots the scenario modification log into the X matrix:
// one row per (building, variant), one column per modified parameter, cell =
// the value the variant set. Cells for parameters a variant did not touch are
// NaN and fall out pairwise during estimation.
func BuildParameterMatrix(mods []dataset.ModificationRecord) (*dataset.Matrix, error) {
	if len(mods) == 0 {
		return nil, core.ErrInsufficientData
	}

	keySet := make(map[core.EntityKey]bool)
	colSet := make(map[string]bool)
	for _, m := range mods {
		keySet[core.EntityKey{Building: core.BuildingID(m.BuildingID), Variant: core.VariantID(m.VariantID)}] = true
		colSet[parameterColumn(m)] = true
	}

	keys := sortedEntityKeys(keySet)
	cols := sortedStrings(colSet)
	rowIdx := indexOfKeys(keys)
	colIdx := indexOfStrings(cols)

	data := nanMatrix(len(keys), len(cols))
	for _, m := range mods {
		k := core.EntityKey{Building: core.BuildingID(m.BuildingID), Variant: core.VariantID(m.VariantID)}
		data[rowIdx[k]][colIdx[parameterColumn(m)]] = m.NewValue
	}
	return &dataset.Matrix{Keys: keys, Columns: cols, Data: data}, nil
}

// parameterColumn names a modification's column. The object type prefix keeps
// same-named fields on different IDF object types apart.
func parameterColumn(m dataset.ModificationRecord) string {
	if m.ObjectType == "" {
		return m.Parameter
	}
	return m.ObjectType + "." + m.Parameter
}

// BuildDeltaMatrix pivots output deltas into the Y matrix: one row per
// (building, variant), one column per output variable (per group when deltas
// are grouped). When validation scores are supplied, each cell is scaled by
// its building's calibration weight so poorly calibrated buildings influence
// the fit less.
func BuildDeltaMatrix(deltas []dataset.OutputDelta, scores map[core.BuildingID]ports.ValidationScore) (*dataset.Matrix, error) {
	if len(deltas) == 0 {
		return nil, core.ErrInsufficientData
	}

	keySet := make(map[core.EntityKey]bool)
	colSet := make(map[string]bool)
	for _, d := range deltas {
		keySet[core.EntityKey{Building: d.Building, Variant: d.Variant}] = true
		colSet[deltaColumn(d)] = true
	}

	keys := sortedEntityKeys(keySet)
	cols := sortedStrings(colSet)
	rowIdx := indexOfKeys(keys)
	colIdx := indexOfStrings(cols)

	data := nanMatrix(len(keys), len(cols))
	for _, d := range deltas {
		k := core.EntityKey{Building: d.Building, Variant: d.Variant}
		w := 1.0
		if scores != nil {
			w = ValidationWeight(scores, d.Building)
		}
		data[rowIdx[k]][colIdx[deltaColumn(d)]] = d.Delta * w
	}
	return &dataset.Matrix{Keys: keys, Columns: cols, Data: data}, nil
}

func deltaColumn(d dataset.OutputDelta) string {
	if len(d.Group) == 0 {
		return d.OutputVariable
	}
	dims := make([]string, 0, len(d.Group))
	for dim := range d.Group {
		dims = append(dims, dim)
	}
	sort.Strings(dims)
	col := d.OutputVariable
	for _, dim := range dims {
		col += "[" + dim + "=" + d.Group[dim] + "]"
	}
	return col
}

func nanMatrix(rows, cols int) [][]float64 {
	data := make([][]float64, rows)
	for i := range data {
		row := make([]float64, cols)
		for j := range row {
			row[j] = math.NaN()
		}
		data[i] = row
	}
	return data
}

func sortedEntityKeys(set map[core.EntityKey]bool) []core.EntityKey {
	out := make([]core.EntityKey, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Building != out[j].Building {
			return out[i].Building < out[j].Building
		}
		return out[i].Variant < out[j].Variant
	})
	return out
}

func sortedStrings(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func indexOfKeys(keys []core.EntityKey) map[core.EntityKey]int {
	out := make(map[core.EntityKey]int, len(keys))
	for i, k := range keys {
		out[k] = i
	}
	return out
}

func indexOfStrings(ss []string) map[string]int {
	out := make(map[string]int, len(ss))
	for i, s := range ss {
		out[s] = i
	}
	return out
}
