package methods

import (
	"fmt"
	"sort"

	"github.com/montanaflynn/stats"
	gstat "gonum.org/v1/gonum/stat"

	"enersense/domain/core"
	"enersense/domain/sensitivity"
)

// AggregateMethods combines several method-tagged result batches into one
// consensus score per (parameter, output) pair. Scores from different
// methods live on different scales; aggregation treats them as comparable
// magnitudes, which is the documented normalization step that makes
// cross-method ranking meaningful.
func AggregateMethods(batches []sensitivity.Batch, agg sensitivity.Aggregation, weights map[sensitivity.Method]float64) (sensitivity.Batch, error) {
	type pairKey struct {
		p core.ParameterKey
		o core.OutputKey
	}
	type pairScores struct {
		scores  []float64
		methods []sensitivity.Method
		n       int
	}

	grouped := make(map[pairKey]*pairScores)
	var order []pairKey
	for _, b := range batches {
		for _, r := range b.Results {
			k := pairKey{r.Parameter, r.OutputVariable}
			ps, ok := grouped[k]
			if !ok {
				ps = &pairScores{}
				grouped[k] = ps
				order = append(order, k)
			}
			ps.scores = append(ps.scores, r.Score)
			ps.methods = append(ps.methods, r.Method)
			if r.NSamples > ps.n {
				ps.n = r.NSamples
			}
		}
	}
	sort.Slice(order, func(i, j int) bool {
		if order[i].p != order[j].p {
			return order[i].p < order[j].p
		}
		return order[i].o < order[j].o
	})

	var out sensitivity.Batch
	for _, k := range order {
		ps := grouped[k]
		score, err := aggregateScores(ps.scores, ps.methods, agg, weights)
		if err != nil {
			return out, err
		}
		res := sensitivity.Result{
			Parameter:      k.p,
			OutputVariable: k.o,
			Score:          score,
			Method:         sensitivity.Method("aggregated_" + string(agg)),
			NSamples:       ps.n,
			Labels:         map[string]string{"methods": joinMethods(ps.methods)},
		}
		res.WithMeta("n_methods", float64(len(ps.scores)))
		res.WithMeta("score_std", gstat.StdDev(ps.scores, nil))
		out.Results = append(out.Results, res)
	}
	return out, nil
}

func aggregateScores(scores []float64, methods []sensitivity.Method, agg sensitivity.Aggregation, weights map[sensitivity.Method]float64) (float64, error) {
	switch agg {
	case sensitivity.AggregateMean, "":
		return gstat.Mean(scores, nil), nil
	case sensitivity.AggregateMedian:
		m, err := stats.Median(scores)
		if err != nil {
			return 0, fmt.Errorf("median: %w", err)
		}
		return m, nil
	case sensitivity.AggregateMax:
		max := scores[0]
		for _, s := range scores[1:] {
			if s > max {
				max = s
			}
		}
		return max, nil
	case sensitivity.AggregateWeighted:
		totalW, sum := 0.0, 0.0
		for i, s := range scores {
			w := 1.0
			if weights != nil {
				if wv, ok := weights[methods[i]]; ok {
					w = wv
				}
			}
			sum += w * s
			totalW += w
		}
		if totalW == 0 {
			return 0, fmt.Errorf("%w: zero total weight", core.ErrInvalidConfig)
		}
		return sum / totalW, nil
	default:
		return 0, fmt.Errorf("%w: aggregation %q", core.ErrUnknownMethod, agg)
	}
}

func joinMethods(methods []sensitivity.Method) string {
	seen := make(map[sensitivity.Method]bool)
	out := ""
	for _, m := range methods {
		if seen[m] {
			continue
		}
		seen[m] = true
		if out != "" {
			out += ","
		}
		out += string(m)
	}
	return out
}
