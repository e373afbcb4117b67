// Package neighbors implements the k-nearest-neighbours classifier.
package neighbors

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/core/model"
	"github.com/YuminosukeSato/tabml/core/parallel"
	"github.com/YuminosukeSato/tabml/metrics"
	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/pkg/log"
)

// DefaultK is the number of neighbours consulted when WithK is not given.
const DefaultK = 5

// KNeighborsClassifier predicts the majority label among the k training rows
// closest to a query in Euclidean distance. Fit only stores the data.
type KNeighborsClassifier struct {
	state *model.StateManager

	k int

	X_       [][]float64
	y_       []int
	classes_ []int

	logger log.Logger
}

// KNeighborsOption configures a KNeighborsClassifier.
type KNeighborsOption func(*KNeighborsClassifier)

// WithK sets the number of neighbours.
func WithK(k int) KNeighborsOption {
	return func(c *KNeighborsClassifier) {
		c.k = k
	}
}

// NewKNeighborsClassifier creates a classifier with k = DefaultK.
func NewKNeighborsClassifier(opts ...KNeighborsOption) *KNeighborsClassifier {
	c := &KNeighborsClassifier{
		state:  model.NewStateManager(),
		k:      DefaultK,
		logger: log.GetLoggerWithName("neighbors"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fit stores a copy of X and the integer labels y.
func (c *KNeighborsClassifier) Fit(X, y mat.Matrix) error {
	if c.k < 1 {
		return errors.NewValidationError("k", "must be >= 1", c.k)
	}
	if err := model.CheckXY("KNeighborsClassifier.Fit", X, y); err != nil {
		return err
	}
	labels, err := model.Labels("KNeighborsClassifier.Fit", y)
	if err != nil {
		return err
	}

	start := time.Now()
	c.X_ = model.Rows(X)
	c.y_ = labels
	c.classes_ = uniqueSorted(labels)

	n, d := X.Dims()
	c.state.SetDimensions(d, n)
	c.state.SetFitted()

	c.logger.Debug("fit complete",
		log.ModelNameKey, "KNeighborsClassifier",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.ClassesKey, len(c.classes_),
		"hyperparams.k", c.k,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// KNeighbors returns the indices of the min(k, n) training rows closest to x
// and their distances, nearest first. Equal distances keep training order.
func (c *KNeighborsClassifier) KNeighbors(x []float64) ([]int, []float64, error) {
	if err := c.state.RequireFitted("KNeighborsClassifier", "KNeighbors"); err != nil {
		return nil, nil, err
	}
	if nFeatures, _ := c.state.GetDimensions(); len(x) != nFeatures {
		return nil, nil, errors.NewDimensionError("KNeighborsClassifier.KNeighbors", nFeatures, len(x), 1)
	}
	idx, dist := c.neighbors(x)
	return idx, dist, nil
}

func (c *KNeighborsClassifier) neighbors(x []float64) ([]int, []float64) {
	n := len(c.X_)
	dist := make([]float64, n)
	idx := make([]int, n)
	for i, row := range c.X_ {
		dist[i] = floats.Distance(row, x, 2)
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return dist[idx[a]] < dist[idx[b]]
	})

	k := c.k
	if k > n {
		k = n
	}
	idx = idx[:k]
	out := make([]float64, k)
	for i, j := range idx {
		out[i] = dist[j]
	}
	return idx, out
}

// votes counts neighbour labels in the order of classes_.
func (c *KNeighborsClassifier) votes(x []float64) []int {
	idx, _ := c.neighbors(x)
	counts := make(map[int]int, len(c.classes_))
	for _, i := range idx {
		counts[c.y_[i]]++
	}
	out := make([]int, len(c.classes_))
	for j, cls := range c.classes_ {
		out[j] = counts[cls]
	}
	return out
}

// predictOne returns the majority label; ties go to the smallest label.
func (c *KNeighborsClassifier) predictOne(x []float64) int {
	v := c.votes(x)
	best := 0
	for j := 1; j < len(v); j++ {
		if v[j] > v[best] {
			best = j
		}
	}
	return c.classes_[best]
}

// Predict returns the majority-vote label of each row of X as an n×1 matrix.
func (c *KNeighborsClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := c.checkPredict("Predict", X); err != nil {
		return nil, err
	}
	rows := model.Rows(X)
	out := make([]float64, len(rows))
	parallel.ParallelizeWithThreshold(len(rows), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = float64(c.predictOne(rows[i]))
		}
	})
	return model.ColumnVector(out), nil
}

// PredictProba returns the share of neighbour votes per class, one column per
// entry of Classes().
func (c *KNeighborsClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := c.checkPredict("PredictProba", X); err != nil {
		return nil, err
	}
	rows := model.Rows(X)
	proba := mat.NewDense(len(rows), len(c.classes_), nil)
	parallel.ParallelizeWithThreshold(len(rows), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			v := c.votes(rows[i])
			var total int
			for _, n := range v {
				total += n
			}
			for j, n := range v {
				proba.Set(i, j, float64(n)/float64(total))
			}
		}
	})
	return proba, nil
}

// Score returns the accuracy of Predict(X) against y.
func (c *KNeighborsClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := c.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// IsFitted reports whether Fit has completed.
func (c *KNeighborsClassifier) IsFitted() bool {
	return c.state.IsFitted()
}

// Classes returns the training labels in ascending order.
func (c *KNeighborsClassifier) Classes() []int {
	return append([]int(nil), c.classes_...)
}

// GetParams returns the hyperparameters.
func (c *KNeighborsClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{"k": c.k}
}

// SetParams updates hyperparameters by name.
func (c *KNeighborsClassifier) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "k":
			v, ok := value.(int)
			if !ok || v < 1 {
				return errors.NewValidationError(key, "must be an int >= 1", value)
			}
			c.k = v
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

func (c *KNeighborsClassifier) checkPredict(method string, X mat.Matrix) error {
	if err := c.state.RequireFitted("KNeighborsClassifier", method); err != nil {
		return err
	}
	return c.state.RequireFeatures("KNeighborsClassifier."+method, X)
}

type knnSnapshot struct {
	State   model.ModelState
	K       int
	X       [][]float64
	Y       []int
	Classes []int
}

// MarshalBinary encodes the stored training set with gob.
func (c *KNeighborsClassifier) MarshalBinary() ([]byte, error) {
	return model.EncodeSnapshot(knnSnapshot{
		State:   c.state.GetState(),
		K:       c.k,
		X:       c.X_,
		Y:       c.y_,
		Classes: c.classes_,
	})
}

// UnmarshalBinary restores a classifier encoded by MarshalBinary.
func (c *KNeighborsClassifier) UnmarshalBinary(data []byte) error {
	var s knnSnapshot
	if err := model.DecodeSnapshot(data, &s); err != nil {
		return err
	}
	if c.state == nil {
		c.state = model.NewStateManager()
	}
	if c.logger == nil {
		c.logger = log.GetLoggerWithName("neighbors")
	}
	c.state.SetState(s.State)
	c.k = s.K
	c.X_ = s.X
	c.y_ = s.Y
	c.classes_ = s.Classes
	return nil
}

func uniqueSorted(labels []int) []int {
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
