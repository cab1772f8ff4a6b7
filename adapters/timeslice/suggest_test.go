package timeslice

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"enersense/domain/dataset"
)

func monthlyRecords(variable string, totals map[int]float64) []dataset.SimulationRecord {
	var out []dataset.SimulationRecord
	for month, value := range totals {
		out = append(out, dataset.SimulationRecord{
			BuildingID: "bldg_01",
			VariantID:  "base",
			Variable:   variable,
			DateTime:   time.Date(2023, time.Month(month), 15, 12, 0, 0, 0, time.UTC),
			Value:      value,
		})
	}
	return out
}

func TestSuggestPeakPeriods_CoolingDominant(t *testing.T) {
	totals := map[int]float64{
		1: 5, 2: 8, 3: 50, 4: 50, 5: 50, 6: 100,
		7: 120, 8: 110, 9: 50, 10: 50, 11: 50, 12: 10,
	}
	records := monthlyRecords("Electricity:Facility [J]", totals)

	got := NewSlicer().SuggestPeakPeriods(records, "Electricity:Facility", 3)

	assert.Equal(t, "cooling", got.DominantSeason)
	assert.Equal(t, []int{6, 7, 8}, got.CoolingMonths)
	assert.Equal(t, []int{1, 2, 12}, got.HeatingMonths)
}

func TestSuggestPeakPeriods_HeatingDominant(t *testing.T) {
	totals := map[int]float64{
		1: 120, 2: 110, 3: 50, 4: 50, 5: 10, 6: 5,
		7: 8, 8: 12, 9: 50, 10: 50, 11: 50, 12: 100,
	}
	records := monthlyRecords("Heating:DistrictHeating [J]", totals)

	got := NewSlicer().SuggestPeakPeriods(records, "Heating:DistrictHeating", 3)

	assert.Equal(t, "heating", got.DominantSeason)
	assert.Equal(t, []int{1, 2, 12}, got.HeatingMonths)
	assert.Equal(t, []int{5, 6, 7}, got.CoolingMonths)
}

func TestSuggestPeakPeriods_DefaultsTopCount(t *testing.T) {
	totals := map[int]float64{1: 5, 6: 100, 7: 120, 8: 110, 12: 10}
	records := monthlyRecords("Electricity:Facility [J]", totals)

	got := NewSlicer().SuggestPeakPeriods(records, "Electricity:Facility", 0)

	assert.Equal(t, []int{6, 7, 8}, got.CoolingMonths, "nMonths 0 should fall back to the top 3")
	assert.Equal(t, "cooling", got.DominantSeason)
}

func TestSuggestPeakPeriods_FewerMonthsThanRequested(t *testing.T) {
	totals := map[int]float64{7: 100, 1: 10}
	records := monthlyRecords("Electricity:Facility [J]", totals)

	got := NewSlicer().SuggestPeakPeriods(records, "Electricity:Facility", 3)

	// Both months appear in top and bottom; each should be listed once.
	assert.Equal(t, []int{7}, got.CoolingMonths)
	assert.Equal(t, []int{1}, got.HeatingMonths)
}

func TestSuggestPeakPeriods_NoMatchingVariable(t *testing.T) {
	records := monthlyRecords("Electricity:Facility [J]", map[int]float64{7: 100})

	got := NewSlicer().SuggestPeakPeriods(records, "Gas:Facility", 3)

	assert.Equal(t, "unknown", got.DominantSeason)
	assert.Empty(t, got.CoolingMonths)
	assert.Empty(t, got.HeatingMonths)
}
