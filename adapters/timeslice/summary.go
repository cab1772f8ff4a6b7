package timeslice

import (
	"sort"
	"time"

	"enersense/domain/dataset"
)

// Summary describes the time coverage of a result table. Diagnostic only;
// nothing dispatches on it.
type Summary struct {
	RecordCount   int         `json:"record_count"`
	StartDate     time.Time   `json:"start_date"`
	EndDate       time.Time   `json:"end_date"`
	UniqueMonths  []int       `json:"unique_months"`
	UniqueYears   []int       `json:"unique_years"`
	UniqueHours   []int       `json:"unique_hours"`
	WeekendCount  int         `json:"weekend_count"`
	WeekdayCount  int         `json:"weekday_count"`
	HourlyCounts  map[int]int `json:"hourly_counts"`
	MonthlyCounts map[int]int `json:"monthly_counts"`
}

// GetTimeSliceSummary computes descriptive stats over the timestamps of a
// result table.
func (s *Slicer) GetTimeSliceSummary(records []dataset.SimulationRecord) Summary {
	sum := Summary{
		HourlyCounts:  make(map[int]int),
		MonthlyCounts: make(map[int]int),
	}
	months := make(map[int]bool)
	years := make(map[int]bool)
	hours := make(map[int]bool)

	for _, r := range records {
		t := r.DateTime
		if t.IsZero() {
			continue
		}
		sum.RecordCount++
		if sum.StartDate.IsZero() || t.Before(sum.StartDate) {
			sum.StartDate = t
		}
		if t.After(sum.EndDate) {
			sum.EndDate = t
		}
		m, h := int(t.Month()), t.Hour()
		months[m] = true
		years[t.Year()] = true
		hours[h] = true
		sum.HourlyCounts[h]++
		sum.MonthlyCounts[m]++
		if wd := t.Weekday(); wd == time.Saturday || wd == time.Sunday {
			sum.WeekendCount++
		} else {
			sum.WeekdayCount++
		}
	}
	sum.UniqueMonths = sortedKeys(months)
	sum.UniqueYears = sortedKeys(years)
	sum.UniqueHours = sortedKeys(hours)
	return sum
}

func sortedKeys(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
