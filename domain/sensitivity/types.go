package sensitivity

import (
	"enersense/domain/core"
)

// Method identifies a sensitivity estimation method. Scores from different
// methods are not directly comparable; AggregateMethods normalizes across
// them.
type Method string

const (
	MethodCorrelation  Method = "correlation"
	MethodRegression   Method = "regression"
	MethodMutualInfo   Method = "mutual_info"
	MethodRandomForest Method = "random_forest"
	MethodElasticity   Method = "elasticity"
	MethodBootstrap    Method = "bootstrap"
	MethodInteraction  Method = "interaction"

	// Advanced methods served by injected hook analyzers rather than the
	// built-in estimator table.
	MethodThreshold Method = "threshold"
	MethodRegional  Method = "regional"
	MethodTemporal  Method = "temporal"
	MethodSobol     Method = "sobol"
)

// Result is one sensitivity estimate for a (parameter, output) pair.
// Method-specific numeric extras (p_value, ci_lower, coefficient, ...) live
// in Metadata; Labels carries string-valued extras such as direction.
type Result struct {
	Parameter      core.ParameterKey  `json:"parameter"`
	OutputVariable core.OutputKey     `json:"output_variable"`
	Score          float64            `json:"sensitivity_score"`
	Method         Method             `json:"method"`
	NSamples       int                `json:"n_samples"`
	Metadata       map[string]float64 `json:"metadata,omitempty"`
	Labels         map[string]string  `json:"labels,omitempty"`
}

// Meta returns a metadata value, or def when absent.
func (r Result) Meta(key string, def float64) float64 {
	if v, ok := r.Metadata[key]; ok {
		return v
	}
	return def
}

// WithMeta sets a metadata value, allocating the map on first use.
func (r *Result) WithMeta(key string, v float64) *Result {
	if r.Metadata == nil {
		r.Metadata = make(map[string]float64, 4)
	}
	r.Metadata[key] = v
	return r
}

// Skip records one (parameter, output) unit of work that contributed nothing
// to the result table, and why.
type Skip struct {
	Parameter      core.ParameterKey `json:"parameter"`
	OutputVariable core.OutputKey    `json:"output_variable"`
	Reason         string            `json:"reason"`
}

// Batch is the outcome of running one estimator over all pairs: the results
// that computed, plus the units that were skipped. Skips are expected during
// normal operation (ill-conditioned pairs, zero variance) and are surfaced
// here instead of being silently logged away.
type Batch struct {
	Results []Result `json:"results"`
	Skips   []Skip   `json:"skips,omitempty"`
}

// Append merges another batch into this one.
func (b *Batch) Append(other Batch) {
	b.Results = append(b.Results, other.Results...)
	b.Skips = append(b.Skips, other.Skips...)
}

// AddSkip records a skipped unit.
func (b *Batch) AddSkip(p core.ParameterKey, o core.OutputKey, err error) {
	b.Skips = append(b.Skips, Skip{Parameter: p, OutputVariable: o, Reason: err.Error()})
}

// Aggregation selects how AggregateMethods combines per-method scores.
type Aggregation string

const (
	AggregateMean     Aggregation = "mean"
	AggregateMedian   Aggregation = "median"
	AggregateMax      Aggregation = "max"
	AggregateWeighted Aggregation = "weighted"
)
