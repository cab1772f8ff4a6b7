package methods

import (
	"gonum.org/v1/gonum/stat"

	"enersense/domain/dataset"
)

// StandardScaler centers and scales matrix columns to zero mean and unit
// variance. One instance is cached per Library and reused across calls; it
// is not safe for concurrent use.
type StandardScaler struct {
	means []float64
	stds  []float64
}

// NewStandardScaler creates an unfitted scaler.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// FitTransform fits the scaler to m and returns a standardized copy.
// Zero-variance columns pass through centered but unscaled.
func (s *StandardScaler) FitTransform(m *dataset.Matrix) *dataset.Matrix {
	cols := m.ColumnCount()
	s.means = make([]float64, cols)
	s.stds = make([]float64, cols)
	for j := 0; j < cols; j++ {
		col := m.ColumnAt(j)
		s.means[j] = stat.Mean(col, nil)
		s.stds[j] = stat.StdDev(col, nil)
	}
	out := &dataset.Matrix{
		Keys:    m.Keys,
		Columns: append([]string(nil), m.Columns...),
		Data:    make([][]float64, len(m.Data)),
	}
	for i, row := range m.Data {
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = v - s.means[j]
			if s.stds[j] > 0 {
				scaled[j] /= s.stds[j]
			}
		}
		out.Data[i] = scaled
	}
	return out
}

// Mean returns the fitted mean for column j.
func (s *StandardScaler) Mean(j int) float64 { return s.means[j] }

// Std returns the fitted standard deviation for column j.
func (s *StandardScaler) Std(j int) float64 { return s.stds[j] }
