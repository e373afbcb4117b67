package tree

import (
	"fmt"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/core/model"
	"github.com/YuminosukeSato/tabml/core/parallel"
	"github.com/YuminosukeSato/tabml/metrics"
	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/pkg/log"
)

// DecisionTreeClassifier wraps Builder and Tree behind the estimator interface.
// With default options it grows exactly the tree Build would.
type DecisionTreeClassifier struct {
	state *model.StateManager

	criterion       Criterion
	maxDepth        int
	minSamplesSplit int
	minSamplesLeaf  int

	tree_     *Tree
	classes_  []int
	nClasses_ int

	logger log.Logger
}

// DecisionTreeOption configures a DecisionTreeClassifier.
type DecisionTreeOption func(*DecisionTreeClassifier)

// WithCriterion sets the split criterion. Unknown names fall back to entropy.
func WithCriterion(criterion string) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		if c, err := ParseCriterion(criterion); err == nil {
			dt.criterion = c
		}
	}
}

// WithMaxDepth sets the maximum number of edges on any root-to-leaf path.
func WithMaxDepth(depth int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.maxDepth = depth
	}
}

// WithMinSamplesSplit sets the minimum number of rows a node needs to be split.
func WithMinSamplesSplit(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesSplit = n
	}
}

// WithMinSamplesLeaf sets the minimum number of rows on each side of a split.
func WithMinSamplesLeaf(n int) DecisionTreeOption {
	return func(dt *DecisionTreeClassifier) {
		dt.minSamplesLeaf = n
	}
}

// NewDecisionTreeClassifier creates a classifier with entropy splitting,
// max depth 10, min_samples_split 2 and min_samples_leaf 1.
func NewDecisionTreeClassifier(opts ...DecisionTreeOption) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		state:           model.NewStateManager(),
		criterion:       CriterionEntropy,
		maxDepth:        DefaultMaxDepth,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		logger:          log.GetLoggerWithName("tree"),
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// Fit grows the tree on X and integer labels y (n×1).
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) error {
	if err := dt.validate(); err != nil {
		return err
	}
	if err := model.CheckXY("DecisionTreeClassifier.Fit", X, y); err != nil {
		return err
	}
	labels, err := model.Labels("DecisionTreeClassifier.Fit", y)
	if err != nil {
		return err
	}

	start := time.Now()
	rows := model.Rows(X)
	b := &Builder{
		MaxDepth:        dt.maxDepth,
		Criterion:       dt.criterion,
		MinSamplesSplit: dt.minSamplesSplit,
		MinSamplesLeaf:  dt.minSamplesLeaf,
	}
	dt.tree_ = b.Build(rows, labels)
	dt.classes_ = distinct(labels)
	dt.nClasses_ = len(dt.classes_)

	n, d := X.Dims()
	dt.state.SetDimensions(d, n)
	dt.state.SetFitted()

	dt.logger.Debug("fit complete",
		log.ModelNameKey, "DecisionTreeClassifier",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.ClassesKey, dt.nClasses_,
		log.TreeDepthKey, dt.tree_.Depth(),
		log.TreeLeavesKey, dt.tree_.NLeaves(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict returns the leaf label for each row of X as an n×1 matrix.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkPredict("Predict", X); err != nil {
		return nil, err
	}
	rows := model.Rows(X)
	out := make([]float64, len(rows))
	parallel.ParallelizeWithThreshold(len(rows), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = float64(dt.tree_.PredictOne(rows[i]))
		}
	})
	return model.ColumnVector(out), nil
}

// PredictProba returns the class frequencies of the leaf each row falls
// into, one column per entry of Classes().
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.checkPredict("PredictProba", X); err != nil {
		return nil, err
	}
	rows := model.Rows(X)
	proba := mat.NewDense(len(rows), dt.nClasses_, nil)
	parallel.ParallelizeWithThreshold(len(rows), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			leaf := dt.tree_.Leaf(rows[i])
			if leaf.Samples == 0 {
				continue
			}
			for j, c := range dt.classes_ {
				proba.Set(i, j, float64(leaf.Counts[c])/float64(leaf.Samples))
			}
		}
	})
	return proba, nil
}

// Score returns the accuracy of Predict(X) against y.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// IsFitted reports whether Fit has completed.
func (dt *DecisionTreeClassifier) IsFitted() bool {
	return dt.state.IsFitted()
}

// Classes returns the labels seen during Fit, ascending.
func (dt *DecisionTreeClassifier) Classes() []int {
	return append([]int(nil), dt.classes_...)
}

// Tree returns the fitted tree, or nil before Fit.
func (dt *DecisionTreeClassifier) Tree() *Tree {
	return dt.tree_
}

// GetFeatureImportances returns normalised impurity-decrease importances.
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	if dt.tree_ == nil {
		return nil
	}
	return dt.tree_.FeatureImportances()
}

// GetDepth returns the fitted tree depth in edges.
func (dt *DecisionTreeClassifier) GetDepth() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.tree_.Depth()
}

// GetNLeaves returns the number of leaves of the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.tree_.NLeaves()
}

// GetParams returns the hyperparameters.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion.String(),
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
	}
}

// SetParams updates hyperparameters by name. It does not refit.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "criterion":
			s, ok := value.(string)
			if !ok {
				return errors.NewValidationError(key, "must be a string", value)
			}
			c, err := ParseCriterion(s)
			if err != nil {
				return err
			}
			dt.criterion = c
		case "max_depth", "min_samples_split", "min_samples_leaf":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			switch key {
			case "max_depth":
				dt.maxDepth = v
			case "min_samples_split":
				dt.minSamplesSplit = v
			default:
				dt.minSamplesLeaf = v
			}
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return dt.validate()
}

func (dt *DecisionTreeClassifier) validate() error {
	if dt.maxDepth < 0 {
		return errors.NewValidationError("max_depth", "must be >= 0", dt.maxDepth)
	}
	if dt.minSamplesSplit < 2 {
		return errors.NewValidationError("min_samples_split", "must be >= 2", dt.minSamplesSplit)
	}
	if dt.minSamplesLeaf < 1 {
		return errors.NewValidationError("min_samples_leaf", "must be >= 1", dt.minSamplesLeaf)
	}
	return nil
}

func (dt *DecisionTreeClassifier) checkPredict(method string, X mat.Matrix) error {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", method); err != nil {
		return err
	}
	return dt.state.RequireFeatures(fmt.Sprintf("DecisionTreeClassifier.%s", method), X)
}

func distinct(labels []int) []int {
	seen := make(map[int]struct{})
	var out []int
	for _, l := range labels {
		if _, ok := seen[l]; !ok {
			seen[l] = struct{}{}
			out = append(out, l)
		}
	}
	sort.Ints(out)
	return out
}

type treeSnapshot struct {
	State           model.ModelState
	Criterion       Criterion
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	Tree            *Tree
	Classes         []int
}

// MarshalBinary encodes the fitted classifier with gob.
func (dt *DecisionTreeClassifier) MarshalBinary() ([]byte, error) {
	return model.EncodeSnapshot(treeSnapshot{
		State:           dt.state.GetState(),
		Criterion:       dt.criterion,
		MaxDepth:        dt.maxDepth,
		MinSamplesSplit: dt.minSamplesSplit,
		MinSamplesLeaf:  dt.minSamplesLeaf,
		Tree:            dt.tree_,
		Classes:         dt.classes_,
	})
}

// UnmarshalBinary restores a classifier encoded by MarshalBinary.
func (dt *DecisionTreeClassifier) UnmarshalBinary(data []byte) error {
	var s treeSnapshot
	if err := model.DecodeSnapshot(data, &s); err != nil {
		return err
	}
	if dt.state == nil {
		dt.state = model.NewStateManager()
	}
	if dt.logger == nil {
		dt.logger = log.GetLoggerWithName("tree")
	}
	dt.state.SetState(s.State)
	dt.criterion = s.Criterion
	dt.maxDepth = s.MaxDepth
	dt.minSamplesSplit = s.MinSamplesSplit
	dt.minSamplesLeaf = s.MinSamplesLeaf
	dt.tree_ = s.Tree
	dt.classes_ = s.Classes
	dt.nClasses_ = len(s.Classes)
	return nil
}
