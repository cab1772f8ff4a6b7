package dataset

import (
	"math"
	"testing"

	"enersense/domain/core"
)

func keysOf(variants ...string) []core.EntityKey {
	out := make([]core.EntityKey, len(variants))
	for i, v := range variants {
		out[i] = core.EntityKey{Building: "bldg_test", Variant: core.VariantID(v)}
	}
	return out
}

func TestAddColumn_EnforcesEntitySet(t *testing.T) {
	m := NewMatrix()
	if err := m.AddColumn("a", keysOf("v1", "v2"), []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := m.AddColumn("b", keysOf("v1", "v2", "v3"), []float64{1, 2, 3}); err == nil {
		t.Fatal("adding a column with a different entity set should fail")
	}
	if err := m.AddColumn("c", keysOf("v1"), []float64{1, 2}); err == nil {
		t.Fatal("key/value length mismatch should fail")
	}
	if m.ColumnCount() != 1 || m.RowCount() != 2 {
		t.Errorf("failed adds must not mutate shape: %d cols, %d rows", m.ColumnCount(), m.RowCount())
	}
}

func TestInnerJoin_DropsUnmatchedRows(t *testing.T) {
	x := NewMatrix()
	if err := x.AddColumn("p", keysOf("v1", "v2", "v3"), []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	y := NewMatrix()
	if err := y.AddColumn("o", keysOf("v3", "v1"), []float64{30, 10}); err != nil {
		t.Fatal(err)
	}

	jx, jy := InnerJoin(x, y)
	if jx.RowCount() != 2 || jy.RowCount() != 2 {
		t.Fatalf("expected 2 joined rows, got %d and %d", jx.RowCount(), jy.RowCount())
	}
	// Join preserves x's row order and realigns y.
	if jx.Data[0][0] != 1 || jy.Data[0][0] != 10 {
		t.Errorf("v1 should align: x=%g y=%g", jx.Data[0][0], jy.Data[0][0])
	}
	if jx.Data[1][0] != 3 || jy.Data[1][0] != 30 {
		t.Errorf("v3 should align: x=%g y=%g", jx.Data[1][0], jy.Data[1][0])
	}
}

func TestPairedColumns_DropsNaNRows(t *testing.T) {
	x := NewMatrix()
	if err := x.AddColumn("p", keysOf("v1", "v2", "v3", "v4"), []float64{1, math.NaN(), 3, 4}); err != nil {
		t.Fatal(err)
	}
	y := NewMatrix()
	if err := y.AddColumn("o", keysOf("v1", "v2", "v3", "v4"), []float64{10, 20, math.NaN(), 40}); err != nil {
		t.Fatal(err)
	}

	xs, ys := PairedColumns(x, y, 0, 0)
	if len(xs) != 2 || len(ys) != 2 {
		t.Fatalf("expected 2 complete pairs, got %d", len(xs))
	}
	if xs[0] != 1 || ys[0] != 10 || xs[1] != 4 || ys[1] != 40 {
		t.Errorf("wrong pairs survived: %v %v", xs, ys)
	}
}

func TestSelectRowsAndColumns(t *testing.T) {
	m := NewMatrix()
	if err := m.AddColumn("a", keysOf("v1", "v2", "v3"), []float64{1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	if err := m.AddColumn("b", keysOf("v1", "v2", "v3"), []float64{4, 5, 6}); err != nil {
		t.Fatal(err)
	}

	rows := m.SelectRows([]bool{true, false, true})
	if rows.RowCount() != 2 || rows.Data[1][0] != 3 {
		t.Errorf("row selection wrong: %+v", rows.Data)
	}

	cols := m.SelectColumns([]string{"b", "missing"})
	if cols.ColumnCount() != 1 || cols.Columns[0] != "b" {
		t.Fatalf("column selection wrong: %v", cols.Columns)
	}
	if cols.Data[2][0] != 6 {
		t.Errorf("selected column data wrong: %+v", cols.Data)
	}
}

func TestDropAllNaNRows(t *testing.T) {
	m := NewMatrix()
	if err := m.AddColumn("a", keysOf("v1", "v2"), []float64{math.NaN(), 2}); err != nil {
		t.Fatal(err)
	}
	if err := m.AddColumn("b", keysOf("v1", "v2"), []float64{math.NaN(), math.NaN()}); err != nil {
		t.Fatal(err)
	}

	out := m.DropAllNaNRows()
	if out.RowCount() != 1 {
		t.Fatalf("expected 1 surviving row, got %d", out.RowCount())
	}
	if out.Data[0][0] != 2 {
		t.Errorf("kept the wrong row: %+v", out.Data)
	}
}

func TestNewOutputDelta(t *testing.T) {
	d := NewOutputDelta("bldg_test", "v1", "Electricity:Facility", 100, 150)
	if d.Delta != 50 {
		t.Errorf("delta: got %g, want 50", d.Delta)
	}
	if d.PctChange != 50 {
		t.Errorf("pct change: got %g, want 50", d.PctChange)
	}

	zero := NewOutputDelta("bldg_test", "v1", "Electricity:Facility", 0, 25)
	if zero.Delta != 25 {
		t.Errorf("delta from zero base: got %g, want 25", zero.Delta)
	}
	if zero.PctChange != 0 {
		t.Errorf("pct change with zero base must be 0, got %g", zero.PctChange)
	}
}

func TestNormalizeVariable(t *testing.T) {
	cases := map[string]string{
		"Heating Energy [J]":       "Heating Energy",
		"Heating Energy (J)":       "Heating Energy",
		"Electricity:Facility":     "Electricity:Facility",
		"  Zone Air Temp [C]  ":    "Zone Air Temp",
		"Odd Name [J":              "Odd Name [J",
		"Heating [J] Energy [kWh]": "Heating [J] Energy",
	}
	for in, want := range cases {
		if got := NormalizeVariable(in); got != want {
			t.Errorf("NormalizeVariable(%q) = %q, want %q", in, got, want)
		}
	}
	if !MatchesVariable("Heating Energy [J]", "Heating Energy (GJ)") {
		t.Error("units suffixes should be ignored when matching variables")
	}
	if MatchesVariable("Heating Energy [J]", "Cooling Energy [J]") {
		t.Error("different variables must not match")
	}
}
