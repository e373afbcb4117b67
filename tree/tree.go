// Package tree implements a binary-split decision tree classifier.
//
// Build grows a tree greedily: at every node it tries each feature in
// ascending order and each distinct value of that feature as a threshold,
// sending rows with value <= threshold left and the rest right, and keeps the
// split with the highest gain. Ties go to the lowest feature index and then the
// lowest threshold. Nodes live in a flat arena (Tree.Nodes) and refer to their
// children by index.
package tree

// NoChild marks the Left/Right index of a leaf.
const NoChild = -1

// Node is one entry in the tree arena. A leaf has Left == Right == NoChild and
// carries Label; an internal node carries Feature and Threshold and always has
// both children.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int

	// Label is the prediction for a leaf: the first training label that reached it.
	Label int
	// Counts holds the class histogram of the training rows at a leaf.
	Counts map[int]int
	// Samples is the number of training rows that reached the node.
	Samples int
	// Impurity of the training rows at the node under the build criterion.
	Impurity float64
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == NoChild
}

// Tree is an immutable fitted decision tree. Nodes[0] is the root.
type Tree struct {
	Nodes     []Node
	NFeatures int
}

// PredictOne walks from the root to a leaf and returns its label.
// x must have at least as many entries as the largest feature index used.
func (t *Tree) PredictOne(x []float64) int {
	return t.Nodes[t.leafIndex(x)].Label
}

// Predict applies PredictOne to every row of X.
func (t *Tree) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i, x := range X {
		out[i] = t.PredictOne(x)
	}
	return out
}

// Leaf returns the leaf node that x falls into.
func (t *Tree) Leaf(x []float64) *Node {
	return &t.Nodes[t.leafIndex(x)]
}

func (t *Tree) leafIndex(x []float64) int {
	i := 0
	for !t.Nodes[i].IsLeaf() {
		n := &t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return i
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	return t.depth(0)
}

func (t *Tree) depth(i int) int {
	n := &t.Nodes[i]
	if n.IsLeaf() {
		return 0
	}
	return 1 + max(t.depth(n.Left), t.depth(n.Right))
}

// NLeaves returns the number of leaves.
func (t *Tree) NLeaves() int {
	leaves := 0
	for i := range t.Nodes {
		if t.Nodes[i].IsLeaf() {
			leaves++
		}
	}
	return leaves
}

// FeatureImportances returns the total impurity decrease contributed by each
// feature, weighted by node size and normalised to sum to 1. All zeros when
// the tree is a single leaf or no split reduced impurity.
func (t *Tree) FeatureImportances() []float64 {
	imp := make([]float64, t.NFeatures)
	total := 0.0
	for i := range t.Nodes {
		n := &t.Nodes[i]
		if n.IsLeaf() {
			continue
		}
		l, r := &t.Nodes[n.Left], &t.Nodes[n.Right]
		dec := float64(n.Samples)*n.Impurity - float64(l.Samples)*l.Impurity - float64(r.Samples)*r.Impurity
		if dec < 0 {
			dec = 0
		}
		imp[n.Feature] += dec
		total += dec
	}
	if total > 0 {
		for i := range imp {
			imp[i] /= total
		}
	}
	return imp
}
