package timeslice

import (
	"sort"

	"enersense/domain/dataset"
)

// PeakSuggestion is a heuristic recommendation of cooling/heating month sets
// derived from the monthly totals of one output variable.
type PeakSuggestion struct {
	CoolingMonths  []int  `json:"cooling_months"`
	HeatingMonths  []int  `json:"heating_months"`
	DominantSeason string `json:"dominant_season"`
}

var summerMonths = map[int]bool{5: true, 6: true, 7: true, 8: true, 9: true}

// SuggestPeakPeriods aggregates a variable by month, takes the top-N and
// bottom-N months by total, and buckets them into summer/winter sets. It is
// a heuristic for configuring peak_months slices, not an exact analysis.
func (s *Slicer) SuggestPeakPeriods(records []dataset.SimulationRecord, variable string, nMonths int) PeakSuggestion {
	if nMonths <= 0 {
		nMonths = 3
	}
	totals := make(map[int]float64)
	for _, r := range records {
		if r.DateTime.IsZero() || !dataset.MatchesVariable(r.Variable, variable) {
			continue
		}
		totals[int(r.DateTime.Month())] += r.Value
	}
	if len(totals) == 0 {
		return PeakSuggestion{DominantSeason: "unknown"}
	}

	type monthTotal struct {
		month int
		total float64
	}
	ranked := make([]monthTotal, 0, len(totals))
	for m, t := range totals {
		ranked = append(ranked, monthTotal{m, t})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].total > ranked[j].total })

	top := ranked
	if len(top) > nMonths {
		top = ranked[:nMonths]
	}
	bottom := ranked
	if len(ranked) > nMonths {
		bottom = ranked[len(ranked)-nMonths:]
	}

	var suggestion PeakSuggestion
	summerInTop := 0
	for _, mt := range top {
		if summerMonths[mt.month] {
			suggestion.CoolingMonths = append(suggestion.CoolingMonths, mt.month)
			summerInTop++
		} else {
			suggestion.HeatingMonths = append(suggestion.HeatingMonths, mt.month)
		}
	}
	for _, mt := range bottom {
		if summerMonths[mt.month] {
			suggestion.CoolingMonths = appendUnique(suggestion.CoolingMonths, mt.month)
		} else {
			suggestion.HeatingMonths = appendUnique(suggestion.HeatingMonths, mt.month)
		}
	}
	sort.Ints(suggestion.CoolingMonths)
	sort.Ints(suggestion.HeatingMonths)

	if summerInTop*2 > len(top) {
		suggestion.DominantSeason = "cooling"
	} else {
		suggestion.DominantSeason = "heating"
	}
	return suggestion
}

func appendUnique(xs []int, v int) []int {
	for _, x := range xs {
		if x == v {
			return xs
		}
	}
	return append(xs, v)
}
