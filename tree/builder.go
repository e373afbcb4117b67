package tree

import "sort"

// DefaultMaxDepth is the depth limit used by the CLI and by NewDecisionTreeClassifier.
const DefaultMaxDepth = 10

// Builder holds the growth limits for a tree. The zero value is not useful;
// use NewBuilder or Build.
type Builder struct {
	MaxDepth        int
	Criterion       Criterion
	MinSamplesSplit int
	MinSamplesLeaf  int
}

// NewBuilder returns a Builder that splits on entropy with no sample limits
// beyond "both sides non-empty".
func NewBuilder(maxDepth int) *Builder {
	return &Builder{
		MaxDepth:        maxDepth,
		Criterion:       CriterionEntropy,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

// Build grows an entropy tree on X and y with the given depth limit.
// X must be rectangular and len(X) == len(y).
func Build(X [][]float64, y []int, maxDepth int) *Tree {
	return NewBuilder(maxDepth).Build(X, y)
}

// Build grows a tree on X and y. Rows stay paired with their labels
// throughout; a node becomes a leaf labelled with the first label that reached
// it when its labels are all equal, the depth limit is reached, it has fewer
// than MinSamplesSplit rows, or no threshold yields two acceptable sides.
func (b *Builder) Build(X [][]float64, y []int) *Tree {
	t := &Tree{}
	if len(X) > 0 {
		t.NFeatures = len(X[0])
	}
	if len(y) == 0 {
		t.Nodes = append(t.Nodes, Node{Left: NoChild, Right: NoChild, Counts: map[int]int{}})
		return t
	}

	idx := make([]int, len(y))
	for i := range idx {
		idx[i] = i
	}
	g := grower{b: b, X: X, y: y, t: t}
	g.grow(idx, 0)
	return t
}

type grower struct {
	b *Builder
	X [][]float64
	y []int
	t *Tree
}

type split struct {
	feature   int
	threshold float64
	left      []int
	right     []int
}

// grow appends the subtree for rows idx and returns its arena index.
func (g *grower) grow(idx []int, depth int) int {
	labels := g.labels(idx)
	self := len(g.t.Nodes)
	g.t.Nodes = append(g.t.Nodes, Node{
		Left:     NoChild,
		Right:    NoChild,
		Label:    labels[0],
		Samples:  len(idx),
		Impurity: g.b.Criterion.Impurity(labels),
	})

	if pure(labels) || depth >= g.b.MaxDepth || len(idx) < g.b.MinSamplesSplit {
		g.t.Nodes[self].Counts = countLabels(labels)
		return self
	}

	best, ok := g.bestSplit(idx, labels)
	if !ok {
		g.t.Nodes[self].Counts = countLabels(labels)
		return self
	}

	left := g.grow(best.left, depth+1)
	right := g.grow(best.right, depth+1)

	n := &g.t.Nodes[self]
	n.Feature = best.feature
	n.Threshold = best.threshold
	n.Left = left
	n.Right = right
	return self
}

// bestSplit scans features in ascending order and thresholds in ascending
// order, keeping a candidate only when its gain is strictly greater than the
// best so far (starting from -1).
func (g *grower) bestSplit(idx []int, labels []int) (split, bool) {
	nFeatures := len(g.X[idx[0]])
	bestGain := -1.0
	var best split
	found := false

	for f := 0; f < nFeatures; f++ {
		for _, t := range g.thresholds(idx, f) {
			left, right := g.partition(idx, f, t)
			if len(left) < g.b.MinSamplesLeaf || len(right) < g.b.MinSamplesLeaf ||
				len(left) == 0 || len(right) == 0 {
				continue
			}
			gain := g.b.Criterion.Gain(labels, g.labels(left), g.labels(right))
			if gain > bestGain {
				bestGain = gain
				best = split{feature: f, threshold: t, left: left, right: right}
				found = true
			}
		}
	}
	return best, found
}

// thresholds returns the distinct values of feature f over idx, ascending.
func (g *grower) thresholds(idx []int, f int) []float64 {
	seen := make(map[float64]struct{}, len(idx))
	values := make([]float64, 0, len(idx))
	for _, i := range idx {
		v := g.X[i][f]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}
	sort.Float64s(values)
	return values
}

// partition keeps the original row order on both sides.
func (g *grower) partition(idx []int, f int, t float64) (left, right []int) {
	for _, i := range idx {
		if g.X[i][f] <= t {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

func (g *grower) labels(idx []int) []int {
	out := make([]int, len(idx))
	for k, i := range idx {
		out[k] = g.y[i]
	}
	return out
}

func pure(labels []int) bool {
	for _, l := range labels[1:] {
		if l != labels[0] {
			return false
		}
	}
	return true
}
