package sensitivity

import (
	"fmt"
	"time"
)

// SliceType selects which time filter TimeSlicer applies.
type SliceType string

const (
	SliceNone       SliceType = ""
	SlicePeakMonths SliceType = "peak_months"
	SliceTimeOfDay  SliceType = "time_of_day"
	SliceDayOfWeek  SliceType = "day_of_week"
	SliceCustom     SliceType = "custom"
	SliceCombined   SliceType = "combined"
)

// Season selects the default month set for peak_months slicing.
type Season string

const (
	SeasonCooling Season = "cooling"
	SeasonHeating Season = "heating"
	SeasonBoth    Season = "both"
)

// Default peak month sets.
var (
	CoolingMonths = []int{6, 7, 8}
	HeatingMonths = []int{12, 1, 2}
)

// HourRange is an inclusive hour-of-day window.
type HourRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// TimeSliceConfig describes a time window filter over timestamped results.
// A disabled or invalid config causes the slicer to pass data through
// unchanged rather than fail.
type TimeSliceConfig struct {
	Enabled   bool      `json:"enabled"`
	SliceType SliceType `json:"slice_type,omitempty"`

	// peak_months
	Season Season `json:"season,omitempty"`
	Months []int  `json:"months,omitempty"` // explicit override; also used by combined

	// time_of_day: either an explicit hour list or an inclusive range.
	PeakHours []int      `json:"peak_hours,omitempty"` // also used by combined
	HourRange *HourRange `json:"hour_range,omitempty"`

	// day_of_week
	AnalyzeWeekends bool `json:"analyze_weekends,omitempty"`

	// custom
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	// combined: weekend filter is tri-state (nil = no weekday filter).
	Weekend *bool `json:"weekend,omitempty"`
}

// DefaultPeakHours is the default time_of_day window (14:00-18:00 inclusive).
var DefaultPeakHours = HourRange{Start: 14, End: 18}

// Validate checks a time-slice config and returns all problems found. An
// invalid config never raises downstream: callers log the errors and skip
// slicing.
func (c *TimeSliceConfig) Validate() (bool, []string) {
	if c == nil {
		return false, []string{"time slice config is nil"}
	}
	var errs []string
	switch c.SliceType {
	case SliceNone, SlicePeakMonths, SliceTimeOfDay, SliceDayOfWeek, SliceCustom, SliceCombined:
	default:
		errs = append(errs, fmt.Sprintf("unknown slice_type %q", c.SliceType))
	}
	if c.SliceType == SlicePeakMonths && c.Season != "" {
		switch c.Season {
		case SeasonCooling, SeasonHeating, SeasonBoth:
		default:
			errs = append(errs, fmt.Sprintf("unknown season %q", c.Season))
		}
	}
	if c.SliceType == SliceTimeOfDay {
		for _, h := range c.PeakHours {
			if h < 0 || h > 23 {
				errs = append(errs, fmt.Sprintf("hour %d outside valid hour range [0,23]", h))
			}
		}
		if c.HourRange != nil {
			if c.HourRange.Start < 0 || c.HourRange.Start > 23 {
				errs = append(errs, fmt.Sprintf("start hour %d outside valid hour range [0,23]", c.HourRange.Start))
			}
			if c.HourRange.End < 0 || c.HourRange.End > 23 {
				errs = append(errs, fmt.Sprintf("end hour %d outside valid hour range [0,23]", c.HourRange.End))
			}
		}
	}
	return len(errs) == 0, errs
}

// CacheKey distinguishes differently-sliced loads of the same result type.
func (c *TimeSliceConfig) CacheKey() string {
	if c == nil || !c.Enabled {
		return "none"
	}
	return string(c.SliceType)
}
