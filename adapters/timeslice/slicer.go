// Package timeslice filters timestamped simulation results down to a
// configured time window: peak months, hour-of-day ranges, weekday/weekend,
// custom date ranges, or a conjunctive combination. Bad configs and missing
// timestamps degrade to pass-through, never to an error.
package timeslice

import (
	"log"
	"time"

	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// Slicer filters result tables by time window. Stateless; safe to reuse
// across sequential calls.
type Slicer struct{}

// NewSlicer creates a time slicer.
func NewSlicer() *Slicer {
	return &Slicer{}
}

// SliceData returns the records matching the configured time window. A nil
// or disabled config, or records without timestamps, pass through unchanged.
func (s *Slicer) SliceData(records []dataset.SimulationRecord, cfg *sensitivity.TimeSliceConfig) []dataset.SimulationRecord {
	if cfg == nil || !cfg.Enabled || cfg.SliceType == sensitivity.SliceNone {
		return records
	}
	if !hasTimestamps(records) {
		log.Printf("Warning: time slicing requested but records carry no timestamps, passing data through")
		return records
	}

	switch cfg.SliceType {
	case sensitivity.SlicePeakMonths:
		return filter(records, monthFilter(peakMonths(cfg)))
	case sensitivity.SliceTimeOfDay:
		return filter(records, hourFilter(peakHours(cfg)))
	case sensitivity.SliceDayOfWeek:
		return filter(records, weekendFilter(cfg.AnalyzeWeekends))
	case sensitivity.SliceCustom:
		return filter(records, dateRangeFilter(cfg.StartDate, cfg.EndDate))
	case sensitivity.SliceCombined:
		return s.sliceCombined(records, cfg)
	default:
		log.Printf("Warning: unknown slice_type %q, passing data through", cfg.SliceType)
		return records
	}
}

// sliceCombined applies month, hour and weekend filters conjunctively; each
// filter only participates when its config field is set.
func (s *Slicer) sliceCombined(records []dataset.SimulationRecord, cfg *sensitivity.TimeSliceConfig) []dataset.SimulationRecord {
	out := records
	if len(cfg.Months) > 0 {
		out = filter(out, monthFilter(cfg.Months))
	}
	if len(cfg.PeakHours) > 0 || cfg.HourRange != nil {
		out = filter(out, hourFilter(peakHours(cfg)))
	}
	if cfg.Weekend != nil {
		out = filter(out, weekendFilter(*cfg.Weekend))
	}
	return out
}

func hasTimestamps(records []dataset.SimulationRecord) bool {
	for i := range records {
		if !records[i].DateTime.IsZero() {
			return true
		}
	}
	return false
}

func filter(records []dataset.SimulationRecord, keep func(time.Time) bool) []dataset.SimulationRecord {
	out := make([]dataset.SimulationRecord, 0, len(records))
	for _, r := range records {
		if keep(r.DateTime) {
			out = append(out, r)
		}
	}
	return out
}

// peakMonths resolves the month set: an explicit list wins, then the season
// default (cooling when unspecified).
func peakMonths(cfg *sensitivity.TimeSliceConfig) []int {
	if len(cfg.Months) > 0 {
		return cfg.Months
	}
	switch cfg.Season {
	case sensitivity.SeasonHeating:
		return sensitivity.HeatingMonths
	case sensitivity.SeasonBoth:
		return append(append([]int{}, sensitivity.CoolingMonths...), sensitivity.HeatingMonths...)
	default:
		return sensitivity.CoolingMonths
	}
}

// peakHours resolves the hour set: explicit list, then inclusive range, then
// the 14-18 default window.
func peakHours(cfg *sensitivity.TimeSliceConfig) map[int]bool {
	hours := make(map[int]bool)
	if len(cfg.PeakHours) > 0 {
		for _, h := range cfg.PeakHours {
			hours[h] = true
		}
		return hours
	}
	r := sensitivity.DefaultPeakHours
	if cfg.HourRange != nil {
		r = *cfg.HourRange
	}
	for h := r.Start; h <= r.End; h++ {
		hours[h] = true
	}
	return hours
}

func monthFilter(months []int) func(time.Time) bool {
	set := make(map[int]bool, len(months))
	for _, m := range months {
		set[m] = true
	}
	return func(t time.Time) bool { return set[int(t.Month())] }
}

func hourFilter(hours map[int]bool) func(time.Time) bool {
	return func(t time.Time) bool { return hours[t.Hour()] }
}

func weekendFilter(weekend bool) func(time.Time) bool {
	return func(t time.Time) bool {
		wd := t.Weekday()
		isWeekend := wd == time.Saturday || wd == time.Sunday
		return isWeekend == weekend
	}
}

func dateRangeFilter(start, end *time.Time) func(time.Time) bool {
	return func(t time.Time) bool {
		if start != nil && t.Before(*start) {
			return false
		}
		if end != nil && t.After(*end) {
			return false
		}
		return true
	}
}
