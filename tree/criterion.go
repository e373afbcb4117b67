package tree

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// Criterion selects the impurity measure used to score candidate splits.
type Criterion int

const (
	// CriterionEntropy scores splits by Shannon entropy (information gain).
	CriterionEntropy Criterion = iota
	// CriterionGini scores splits by Gini impurity.
	CriterionGini
)

func (c Criterion) String() string {
	switch c {
	case CriterionGini:
		return "gini"
	default:
		return "entropy"
	}
}

// ParseCriterion accepts "entropy" or "gini".
func ParseCriterion(s string) (Criterion, error) {
	switch s {
	case "entropy":
		return CriterionEntropy, nil
	case "gini":
		return CriterionGini, nil
	default:
		return CriterionEntropy, errors.NewValidationError("criterion", "must be 'entropy' or 'gini'", s)
	}
}

// Impurity returns the impurity of labels under c.
func (c Criterion) Impurity(labels []int) float64 {
	if c == CriterionGini {
		return Gini(labels)
	}
	return Entropy(labels)
}

// Gain is impurity(parent) minus the size-weighted impurity of the children.
// len(left)+len(right) must equal len(parent).
func (c Criterion) Gain(parent, left, right []int) float64 {
	n := float64(len(parent))
	if n == 0 {
		return 0
	}
	wl := float64(len(left)) / n
	wr := float64(len(right)) / n
	return c.Impurity(parent) - (wl*c.Impurity(left) + wr*c.Impurity(right))
}

// Entropy is -Σ p·log2(p) over the label distribution. It is 0 for empty
// input and for a single distinct label.
func Entropy(labels []int) float64 {
	h := 0.0
	for _, p := range proportions(labels) {
		h -= p * math.Log2(p)
	}
	return h
}

// Gini is 1 - Σ p² over the label distribution.
func Gini(labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	g := 1.0
	for _, p := range proportions(labels) {
		g -= p * p
	}
	return g
}

// InformationGain is Entropy(parent) minus the weighted entropy of left and right.
func InformationGain(parent, left, right []int) float64 {
	return CriterionEntropy.Gain(parent, left, right)
}

// proportions returns class frequencies ordered by label so that sums are
// reproducible between calls.
func proportions(labels []int) []float64 {
	if len(labels) == 0 {
		return nil
	}
	counts := countLabels(labels)
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	n := float64(len(labels))
	ps := make([]float64, len(keys))
	for i, k := range keys {
		ps[i] = float64(counts[k]) / n
	}
	return ps
}

func countLabels(labels []int) map[int]int {
	counts := make(map[int]int)
	for _, l := range labels {
		counts[l]++
	}
	return counts
}
