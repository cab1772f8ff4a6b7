package timeslice

import (
	"testing"
	"time"

	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// yearOfHours returns one record per hour across a full year, so every month,
// hour and weekday appears in the fixture.
func yearOfHours(t *testing.T) []dataset.SimulationRecord {
	t.Helper()
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)
	var records []dataset.SimulationRecord
	for ts := start; ts.Before(end); ts = ts.Add(time.Hour) {
		records = append(records, dataset.SimulationRecord{
			BuildingID: "bldg_test",
			VariantID:  "variant_0000",
			Variable:   "Electricity:Facility [J]",
			DateTime:   ts,
			Value:      1.0,
		})
	}
	return records
}

func TestSliceData_DisabledConfigPassesThrough(t *testing.T) {
	records := yearOfHours(t)
	s := NewSlicer()

	if got := s.SliceData(records, nil); len(got) != len(records) {
		t.Errorf("nil config should pass through, got %d of %d", len(got), len(records))
	}
	cfg := &sensitivity.TimeSliceConfig{Enabled: false, SliceType: sensitivity.SlicePeakMonths}
	if got := s.SliceData(records, cfg); len(got) != len(records) {
		t.Errorf("disabled config should pass through, got %d of %d", len(got), len(records))
	}
}

func TestSliceData_MissingTimestampsPassThrough(t *testing.T) {
	records := []dataset.SimulationRecord{
		{BuildingID: "b", Variable: "v", Value: 1},
		{BuildingID: "b", Variable: "v", Value: 2},
	}
	cfg := &sensitivity.TimeSliceConfig{Enabled: true, SliceType: sensitivity.SlicePeakMonths}
	if got := NewSlicer().SliceData(records, cfg); len(got) != 2 {
		t.Errorf("records without timestamps should pass through, got %d", len(got))
	}
}

func TestSliceData_IsIdempotent(t *testing.T) {
	records := yearOfHours(t)
	weekend := false
	cfg := &sensitivity.TimeSliceConfig{
		Enabled:   true,
		SliceType: sensitivity.SliceCombined,
		Months:    []int{7},
		PeakHours: []int{12, 13, 14},
		Weekend:   &weekend,
	}
	s := NewSlicer()

	once := s.SliceData(records, cfg)
	if len(once) == 0 || len(once) == len(records) {
		t.Fatalf("fixture should be strictly narrowed, got %d of %d", len(once), len(records))
	}
	twice := s.SliceData(once, cfg)
	if len(twice) != len(once) {
		t.Fatalf("re-slicing with the same config changed the row count: %d then %d", len(once), len(twice))
	}
	for i := range twice {
		if !twice[i].DateTime.Equal(once[i].DateTime) || twice[i].Value != once[i].Value {
			t.Fatalf("re-slicing reordered or altered records at %d", i)
		}
	}
}

func TestSliceData_PeakMonthsDefaultsToCooling(t *testing.T) {
	records := yearOfHours(t)
	cfg := &sensitivity.TimeSliceConfig{Enabled: true, SliceType: sensitivity.SlicePeakMonths}

	got := NewSlicer().SliceData(records, cfg)
	if len(got) == 0 {
		t.Fatal("cooling months should match part of the year")
	}
	for _, r := range got {
		switch r.DateTime.Month() {
		case time.June, time.July, time.August:
		default:
			t.Fatalf("record at %v outside cooling months", r.DateTime)
		}
	}
	// June + July + August of 2023 is 92 days.
	if want := 92 * 24; len(got) != want {
		t.Errorf("expected %d hourly records in cooling months, got %d", want, len(got))
	}
}

func TestSliceData_ExplicitPeakHours(t *testing.T) {
	records := yearOfHours(t)
	cfg := &sensitivity.TimeSliceConfig{
		Enabled:   true,
		SliceType: sensitivity.SliceTimeOfDay,
		PeakHours: []int{14, 15, 16},
	}

	got := NewSlicer().SliceData(records, cfg)
	if want := 365 * 3; len(got) != want {
		t.Errorf("expected %d records for 3 hours per day, got %d", want, len(got))
	}
	for _, r := range got {
		if h := r.DateTime.Hour(); h < 14 || h > 16 {
			t.Fatalf("hour %d outside requested window", h)
		}
	}
}

func TestSliceData_DayOfWeekSplitsWeekends(t *testing.T) {
	records := yearOfHours(t)
	s := NewSlicer()

	weekdays := s.SliceData(records, &sensitivity.TimeSliceConfig{
		Enabled: true, SliceType: sensitivity.SliceDayOfWeek,
	})
	weekends := s.SliceData(records, &sensitivity.TimeSliceConfig{
		Enabled: true, SliceType: sensitivity.SliceDayOfWeek, AnalyzeWeekends: true,
	})
	if len(weekdays)+len(weekends) != len(records) {
		t.Errorf("weekday and weekend slices should partition the data: %d + %d != %d",
			len(weekdays), len(weekends), len(records))
	}
	for _, r := range weekends {
		wd := r.DateTime.Weekday()
		if wd != time.Saturday && wd != time.Sunday {
			t.Fatalf("weekend slice contains %v", wd)
		}
	}
}

func TestSliceData_CombinedAppliesAllFilters(t *testing.T) {
	records := yearOfHours(t)
	weekend := false
	cfg := &sensitivity.TimeSliceConfig{
		Enabled:   true,
		SliceType: sensitivity.SliceCombined,
		Months:    []int{7},
		PeakHours: []int{12},
		Weekend:   &weekend,
	}

	got := NewSlicer().SliceData(records, cfg)
	if len(got) == 0 {
		t.Fatal("combined slice should keep July weekday noons")
	}
	for _, r := range got {
		ts := r.DateTime
		if ts.Month() != time.July {
			t.Fatalf("record in %v leaked past the month filter", ts.Month())
		}
		if ts.Hour() != 12 {
			t.Fatalf("record at hour %d leaked past the hour filter", ts.Hour())
		}
		if wd := ts.Weekday(); wd == time.Saturday || wd == time.Sunday {
			t.Fatalf("weekend record leaked past the weekday filter")
		}
	}
}

func TestSliceData_CustomDateRange(t *testing.T) {
	records := yearOfHours(t)
	start := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 3, 31, 23, 0, 0, 0, time.UTC)
	cfg := &sensitivity.TimeSliceConfig{
		Enabled:   true,
		SliceType: sensitivity.SliceCustom,
		StartDate: &start,
		EndDate:   &end,
	}

	got := NewSlicer().SliceData(records, cfg)
	if want := 31 * 24; len(got) != want {
		t.Errorf("expected %d records in March, got %d", want, len(got))
	}
}

func TestValidate_RejectsOutOfRangeHours(t *testing.T) {
	cfg := &sensitivity.TimeSliceConfig{
		Enabled:   true,
		SliceType: sensitivity.SliceTimeOfDay,
		PeakHours: []int{22, 25},
	}
	ok, errs := cfg.Validate()
	if ok {
		t.Fatal("hour 25 should fail validation")
	}
	if len(errs) != 1 {
		t.Errorf("expected exactly 1 validation error, got %v", errs)
	}
}

func TestValidate_UnknownSliceType(t *testing.T) {
	cfg := &sensitivity.TimeSliceConfig{Enabled: true, SliceType: sensitivity.SliceType("lunar")}
	if ok, _ := cfg.Validate(); ok {
		t.Fatal("unknown slice_type should fail validation")
	}
}

func TestGetTimeSliceSummary_CountsCoverage(t *testing.T) {
	records := yearOfHours(t)
	sum := NewSlicer().GetTimeSliceSummary(records)

	if sum.RecordCount != len(records) {
		t.Errorf("record count %d, want %d", sum.RecordCount, len(records))
	}
	if len(sum.UniqueMonths) != 12 {
		t.Errorf("expected 12 unique months, got %v", sum.UniqueMonths)
	}
	if len(sum.UniqueHours) != 24 {
		t.Errorf("expected 24 unique hours, got %v", sum.UniqueHours)
	}
	if sum.WeekendCount+sum.WeekdayCount != sum.RecordCount {
		t.Errorf("weekend %d + weekday %d != total %d",
			sum.WeekendCount, sum.WeekdayCount, sum.RecordCount)
	}
	if sum.StartDate.After(sum.EndDate) {
		t.Errorf("start %v after end %v", sum.StartDate, sum.EndDate)
	}
	if sum.MonthlyCounts[1] != 31*24 {
		t.Errorf("January should have %d records, got %d", 31*24, sum.MonthlyCounts[1])
	}
}
