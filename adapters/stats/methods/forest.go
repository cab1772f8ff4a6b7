package methods

import (
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/stat"

	"enersense/domain/core"
	"enersense/domain/dataset"
	"enersense/domain/sensitivity"
)

// forestEstimator trains one random forest per output on the full parameter
// set and scores each parameter by its impurity-decrease importance. A
// single-shuffle permutation importance is reported alongside; unlike true
// permutation importance it is not averaged over repeats, which keeps the
// cost at one extra prediction pass per feature.
type forestEstimator struct{}

func (e *forestEstimator) Method() sensitivity.Method { return sensitivity.MethodRandomForest }

func (e *forestEstimator) Estimate(x, y *dataset.Matrix, cfg Config) (sensitivity.Batch, error) {
	nTrees := cfg.NTrees
	if nTrees <= 0 {
		nTrees = 100
	}
	minLeaf := cfg.MinSamplesLeaf
	if minLeaf <= 0 {
		minLeaf = 2
	}

	var batch sensitivity.Batch
	n := x.RowCount()
	features := toRows(x)

	for yj, output := range y.Columns {
		ys := y.ColumnAt(yj)
		if stat.Variance(ys, nil) == 0 {
			for _, param := range x.Columns {
				if cerr := collectPair(&batch, cfg, core.ParameterKey(param), core.OutputKey(output), nil, core.ErrZeroVariance); cerr != nil {
					return batch, cerr
				}
			}
			continue
		}
		rng := rand.New(rand.NewSource(cfg.Seed))
		forest := growForest(features, ys, nTrees, minLeaf, rng)

		importances := forest.featureImportances(x.ColumnCount())
		baseline := forest.rSquared(features, ys)
		for xi, param := range x.Columns {
			res := sensitivity.Result{
				Parameter:      core.ParameterKey(param),
				OutputVariable: core.OutputKey(output),
				Score:          importances[xi],
				Method:         sensitivity.MethodRandomForest,
				NSamples:       n,
			}
			res.WithMeta("feature_importance", importances[xi])
			res.WithMeta("permutation_importance", forest.permutationImportance(features, ys, xi, baseline, rng))
			res.WithMeta("baseline_r2", baseline)
			batch.Results = append(batch.Results, res)
		}
	}
	return batch, nil
}

func toRows(m *dataset.Matrix) [][]float64 {
	rows := make([][]float64, len(m.Data))
	for i, r := range m.Data {
		rows[i] = append([]float64(nil), r...)
	}
	return rows
}

// ---- CART regression trees ----

type treeNode struct {
	feature   int
	threshold float64
	value     float64
	left      *treeNode
	right     *treeNode
	// impurity bookkeeping for importances
	impurityDecrease float64
	nSamples         int
}

func (n *treeNode) isLeaf() bool { return n.left == nil }

func (n *treeNode) predict(row []float64) float64 {
	for !n.isLeaf() {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

type forest struct {
	trees []*treeNode
}

// growForest trains nTrees CART trees on bootstrap samples with sqrt-style
// feature subsampling (p/3, the regression convention).
func growForest(features [][]float64, ys []float64, nTrees, minLeaf int, rng *rand.Rand) *forest {
	n := len(features)
	p := len(features[0])
	mtry := p / 3
	if mtry < 1 {
		mtry = 1
	}
	f := &forest{trees: make([]*treeNode, 0, nTrees)}
	for t := 0; t < nTrees; t++ {
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}
		f.trees = append(f.trees, growTree(features, ys, idx, mtry, minLeaf, rng))
	}
	return f
}

// growTree recursively splits on the variance-reduction-best (feature,
// threshold) among a random feature subset.
func growTree(features [][]float64, ys []float64, idx []int, mtry, minLeaf int, rng *rand.Rand) *treeNode {
	node := &treeNode{nSamples: len(idx), value: meanAt(ys, idx)}
	if len(idx) < 2*minLeaf || varianceAt(ys, idx) == 0 {
		return node
	}

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	parentImpurity := varianceAt(ys, idx) * float64(len(idx))

	for _, feature := range sampleFeatures(len(features[0]), mtry, rng) {
		thresholds := candidateThresholds(features, idx, feature)
		for _, th := range thresholds {
			var left, right []int
			for _, i := range idx {
				if features[i][feature] <= th {
					left = append(left, i)
				} else {
					right = append(right, i)
				}
			}
			if len(left) < minLeaf || len(right) < minLeaf {
				continue
			}
			childImpurity := varianceAt(ys, left)*float64(len(left)) + varianceAt(ys, right)*float64(len(right))
			if gain := parentImpurity - childImpurity; gain > bestGain {
				bestGain, bestFeature, bestThreshold = gain, feature, th
			}
		}
	}
	if bestFeature < 0 {
		return node
	}

	var left, right []int
	for _, i := range idx {
		if features[i][bestFeature] <= bestThreshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.feature = bestFeature
	node.threshold = bestThreshold
	node.impurityDecrease = bestGain
	node.left = growTree(features, ys, left, mtry, minLeaf, rng)
	node.right = growTree(features, ys, right, mtry, minLeaf, rng)
	return node
}

func sampleFeatures(p, mtry int, rng *rand.Rand) []int {
	perm := rng.Perm(p)
	return perm[:mtry]
}

// candidateThresholds returns midpoints between distinct sorted values,
// capped at 32 quantile candidates for wide columns.
func candidateThresholds(features [][]float64, idx []int, feature int) []float64 {
	vals := make([]float64, 0, len(idx))
	seen := make(map[float64]bool)
	for _, i := range idx {
		v := features[i][feature]
		if !seen[v] {
			seen[v] = true
			vals = append(vals, v)
		}
	}
	if len(vals) < 2 {
		return nil
	}
	sort.Float64s(vals)
	var out []float64
	if len(vals) <= 33 {
		for i := 0; i+1 < len(vals); i++ {
			out = append(out, (vals[i]+vals[i+1])/2)
		}
		return out
	}
	for k := 1; k <= 32; k++ {
		out = append(out, vals[len(vals)*k/33])
	}
	return out
}

func (f *forest) predict(row []float64) float64 {
	sum := 0.0
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees))
}

// featureImportances sums sample-weighted impurity decreases per feature and
// normalizes them to sum to 1.
func (f *forest) featureImportances(p int) []float64 {
	imp := make([]float64, p)
	for _, t := range f.trees {
		accumulateImportance(t, imp)
	}
	total := 0.0
	for _, v := range imp {
		total += v
	}
	if total > 0 {
		for i := range imp {
			imp[i] /= total
		}
	}
	return imp
}

func accumulateImportance(n *treeNode, imp []float64) {
	if n == nil || n.isLeaf() {
		return
	}
	imp[n.feature] += n.impurityDecrease
	accumulateImportance(n.left, imp)
	accumulateImportance(n.right, imp)
}

func (f *forest) rSquared(features [][]float64, ys []float64) float64 {
	yMean := stat.Mean(ys, nil)
	ssTot, ssRes := 0.0, 0.0
	for i, row := range features {
		d := ys[i] - f.predict(row)
		ssRes += d * d
		ssTot += (ys[i] - yMean) * (ys[i] - yMean)
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// permutationImportance shuffles one feature column once and reports the R²
// drop, floored at zero.
func (f *forest) permutationImportance(features [][]float64, ys []float64, feature int, baseline float64, rng *rand.Rand) float64 {
	shuffled := make([][]float64, len(features))
	perm := rng.Perm(len(features))
	for i, row := range features {
		cp := append([]float64(nil), row...)
		cp[feature] = features[perm[i]][feature]
		shuffled[i] = cp
	}
	return math.Max(0, baseline-f.rSquared(shuffled, ys))
}

func meanAt(ys []float64, idx []int) float64 {
	sum := 0.0
	for _, i := range idx {
		sum += ys[i]
	}
	return sum / float64(len(idx))
}

func varianceAt(ys []float64, idx []int) float64 {
	if len(idx) < 2 {
		return 0
	}
	m := meanAt(ys, idx)
	sum := 0.0
	for _, i := range idx {
		d := ys[i] - m
		sum += d * d
	}
	return sum / float64(len(idx))
}
