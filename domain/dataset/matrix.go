package dataset

import (
	"fmt"
	"math"

	"enersense/domain/core"
)

// Matrix is the canonical dense numeric table for all statistical
// computation: one row per (building, variant) entity, one column per
// parameter or output variable. It is the single input shape shared by every
// estimator.
type Matrix struct {
	Keys    []core.EntityKey
	Columns []string
	Data    [][]float64 // rows=entities, cols=variables
}

// NewMatrix creates an empty matrix with no columns.
func NewMatrix() *Matrix {
	return &Matrix{}
}

// AddColumn appends a column. values must be keyed positionally: values[i]
// belongs to keys[i]. The first column fixes the entity set.
func (m *Matrix) AddColumn(name string, keys []core.EntityKey, values []float64) error {
	if len(keys) != len(values) {
		return core.NewValidationError("values", "length mismatch with keys")
	}
	if m.Data == nil {
		m.Keys = append([]core.EntityKey(nil), keys...)
		m.Data = make([][]float64, len(values))
		for i := range m.Data {
			m.Data[i] = make([]float64, 0, 4)
		}
	}
	if len(keys) != len(m.Keys) {
		return core.NewValidationError(name, "entity set differs from existing columns")
	}
	for i, v := range values {
		m.Data[i] = append(m.Data[i], v)
	}
	m.Columns = append(m.Columns, name)
	return nil
}

// ColumnIndex returns the index for a column name.
func (m *Matrix) ColumnIndex(name string) (int, bool) {
	for i, c := range m.Columns {
		if c == name {
			return i, true
		}
	}
	return -1, false
}

// Column returns a copy of the named column's data.
func (m *Matrix) Column(name string) ([]float64, bool) {
	idx, ok := m.ColumnIndex(name)
	if !ok {
		return nil, false
	}
	out := make([]float64, len(m.Data))
	for i, row := range m.Data {
		out[i] = row[idx]
	}
	return out, true
}

// ColumnAt returns a copy of the column at index idx.
func (m *Matrix) ColumnAt(idx int) []float64 {
	out := make([]float64, len(m.Data))
	for i, row := range m.Data {
		out[i] = row[idx]
	}
	return out
}

// RowCount returns the number of entities (rows).
func (m *Matrix) RowCount() int { return len(m.Data) }

// ColumnCount returns the number of variables (columns).
func (m *Matrix) ColumnCount() int { return len(m.Columns) }

// Validate ensures the matrix is internally consistent.
func (m *Matrix) Validate() error {
	if len(m.Data) == 0 {
		return core.ErrInsufficientData
	}
	if len(m.Keys) != len(m.Data) {
		return core.NewValidationError("keys", "length mismatch with data rows")
	}
	for i, row := range m.Data {
		if len(row) != len(m.Columns) {
			return core.NewValidationError("data",
				fmt.Sprintf("row %d has %d columns, expected %d", i, len(row), len(m.Columns)))
		}
	}
	return nil
}

// DropAllNaNRows removes rows whose numeric content is entirely NaN.
func (m *Matrix) DropAllNaNRows() *Matrix {
	out := &Matrix{Columns: append([]string(nil), m.Columns...)}
	for i, row := range m.Data {
		allNaN := true
		for _, v := range row {
			if !math.IsNaN(v) {
				allNaN = false
				break
			}
		}
		if allNaN {
			continue
		}
		out.Keys = append(out.Keys, m.Keys[i])
		out.Data = append(out.Data, append([]float64(nil), row...))
	}
	return out
}

// SelectColumns returns a matrix restricted to the named columns, preserving
// row order. Unknown names are skipped.
func (m *Matrix) SelectColumns(names []string) *Matrix {
	var idxs []int
	out := &Matrix{Keys: append([]core.EntityKey(nil), m.Keys...)}
	for _, n := range names {
		if idx, ok := m.ColumnIndex(n); ok {
			idxs = append(idxs, idx)
			out.Columns = append(out.Columns, n)
		}
	}
	out.Data = make([][]float64, len(m.Data))
	for i, row := range m.Data {
		sel := make([]float64, len(idxs))
		for j, idx := range idxs {
			sel[j] = row[idx]
		}
		out.Data[i] = sel
	}
	return out
}

// SelectRows returns a matrix containing only rows where mask[i] is true.
func (m *Matrix) SelectRows(mask []bool) *Matrix {
	out := &Matrix{Columns: append([]string(nil), m.Columns...)}
	for i, row := range m.Data {
		if i < len(mask) && mask[i] {
			out.Keys = append(out.Keys, m.Keys[i])
			out.Data = append(out.Data, append([]float64(nil), row...))
		}
	}
	return out
}

// InnerJoin aligns two matrices on their entity keys and returns row-aligned
// copies. Rows present in only one side are dropped. X and Y share one key
// space per analysis run, so the join is exact-match on (building, variant).
func InnerJoin(x, y *Matrix) (*Matrix, *Matrix) {
	yIdx := make(map[core.EntityKey]int, len(y.Keys))
	for i, k := range y.Keys {
		yIdx[k] = i
	}
	jx := &Matrix{Columns: append([]string(nil), x.Columns...)}
	jy := &Matrix{Columns: append([]string(nil), y.Columns...)}
	for i, k := range x.Keys {
		j, ok := yIdx[k]
		if !ok {
			continue
		}
		jx.Keys = append(jx.Keys, k)
		jx.Data = append(jx.Data, append([]float64(nil), x.Data[i]...))
		jy.Keys = append(jy.Keys, k)
		jy.Data = append(jy.Data, append([]float64(nil), y.Data[j]...))
	}
	return jx, jy
}

// PairedColumns extracts the i-th column of x and the j-th column of y with
// rows containing NaN in either side removed. It is the common preparation
// step for every pairwise estimator.
func PairedColumns(x, y *Matrix, xi, yj int) (xs, ys []float64) {
	n := len(x.Data)
	if len(y.Data) < n {
		n = len(y.Data)
	}
	for i := 0; i < n; i++ {
		xv := x.Data[i][xi]
		yv := y.Data[i][yj]
		if math.IsNaN(xv) || math.IsNaN(yv) {
			continue
		}
		xs = append(xs, xv)
		ys = append(ys, yv)
	}
	return xs, ys
}
