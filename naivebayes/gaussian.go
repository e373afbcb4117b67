// Package naivebayes provides naive Bayes classifiers.
package naivebayes

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/YuminosukeSato/tabml/core/model"
	"github.com/YuminosukeSato/tabml/core/parallel"
	"github.com/YuminosukeSato/tabml/metrics"
	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/pkg/log"
)

// MinVariance replaces a per-class feature variance of exactly zero.
const MinVariance = 1e-6

// GaussianNB models each feature as an independent normal distribution per
// class and predicts the class with the highest joint log-likelihood.
type GaussianNB struct {
	state *model.StateManager

	classes_    []int
	classPrior_ []float64   // count / n
	theta_      [][]float64 // mean per class and feature
	var_        [][]float64 // population variance per class and feature

	logger log.Logger
}

// NewGaussianNB creates an unfitted GaussianNB.
func NewGaussianNB() *GaussianNB {
	return &GaussianNB{
		state:  model.NewStateManager(),
		logger: log.GetLoggerWithName("naivebayes"),
	}
}

// Fit estimates class priors and per-feature means and variances.
func (nb *GaussianNB) Fit(X, y mat.Matrix) error {
	if err := model.CheckXY("GaussianNB.Fit", X, y); err != nil {
		return err
	}
	labels, err := model.Labels("GaussianNB.Fit", y)
	if err != nil {
		return err
	}

	start := time.Now()
	n, d := X.Dims()
	rows := model.Rows(X)

	groups := make(map[int][]int)
	for i, l := range labels {
		groups[l] = append(groups[l], i)
	}
	nb.classes_ = sortedKeys(groups)

	k := len(nb.classes_)
	nb.classPrior_ = make([]float64, k)
	nb.theta_ = make([][]float64, k)
	nb.var_ = make([][]float64, k)

	col := make([]float64, 0, n)
	for c, cls := range nb.classes_ {
		idx := groups[cls]
		nb.classPrior_[c] = float64(len(idx)) / float64(n)
		nb.theta_[c] = make([]float64, d)
		nb.var_[c] = make([]float64, d)
		for j := 0; j < d; j++ {
			col = col[:0]
			for _, i := range idx {
				col = append(col, rows[i][j])
			}
			mean, variance := stat.PopMeanVariance(col, nil)
			if variance == 0 {
				variance = MinVariance
			}
			nb.theta_[c][j] = mean
			nb.var_[c][j] = variance
		}
	}

	nb.state.SetDimensions(d, n)
	nb.state.SetFitted()

	nb.logger.Debug("fit complete",
		log.ModelNameKey, "GaussianNB",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.ClassesKey, k,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// jointLogLikelihood returns log P(c) + Σ_j log N(x_j | μ_cj, σ²_cj) for every class.
func (nb *GaussianNB) jointLogLikelihood(x []float64) []float64 {
	jll := make([]float64, len(nb.classes_))
	for c := range nb.classes_ {
		s := math.Log(nb.classPrior_[c])
		for j, v := range x {
			s += distuv.Normal{Mu: nb.theta_[c][j], Sigma: math.Sqrt(nb.var_[c][j])}.LogProb(v)
		}
		jll[c] = s
	}
	return jll
}

func (nb *GaussianNB) predictOne(x []float64) int {
	jll := nb.jointLogLikelihood(x)
	best := 0
	for c := 1; c < len(jll); c++ {
		if jll[c] > jll[best] {
			best = c
		}
	}
	return nb.classes_[best]
}

// Predict returns the most likely class of each row of X. When two classes
// score the same the smaller label wins.
func (nb *GaussianNB) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := nb.checkPredict("Predict", X); err != nil {
		return nil, err
	}
	rows := model.Rows(X)
	out := make([]float64, len(rows))
	parallel.ParallelizeWithThreshold(len(rows), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = float64(nb.predictOne(rows[i]))
		}
	})
	return model.ColumnVector(out), nil
}

// PredictProba returns normalised posteriors, one column per entry of Classes().
func (nb *GaussianNB) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := nb.checkPredict("PredictProba", X); err != nil {
		return nil, err
	}
	rows := model.Rows(X)
	proba := mat.NewDense(len(rows), len(nb.classes_), nil)
	parallel.ParallelizeWithThreshold(len(rows), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			jll := nb.jointLogLikelihood(rows[i])
			lse := errors.LogSumExp(jll)
			for c, v := range jll {
				proba.Set(i, c, math.Exp(v-lse))
			}
		}
	})
	return proba, nil
}

// Score returns the accuracy of Predict(X) against y.
func (nb *GaussianNB) Score(X, y mat.Matrix) (float64, error) {
	pred, err := nb.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// IsFitted reports whether Fit has completed.
func (nb *GaussianNB) IsFitted() bool {
	return nb.state.IsFitted()
}

// Classes returns the training labels in ascending order.
func (nb *GaussianNB) Classes() []int {
	return append([]int(nil), nb.classes_...)
}

// ClassPrior returns the fraction of training rows in each class.
func (nb *GaussianNB) ClassPrior() []float64 {
	return append([]float64(nil), nb.classPrior_...)
}

// Theta returns the per-class feature means as a classes×features matrix.
func (nb *GaussianNB) Theta() *mat.Dense {
	return toDense(nb.theta_)
}

// Var returns the per-class feature variances as a classes×features matrix.
func (nb *GaussianNB) Var() *mat.Dense {
	return toDense(nb.var_)
}

// GetParams returns an empty map; GaussianNB has no hyperparameters.
func (nb *GaussianNB) GetParams() map[string]interface{} {
	return map[string]interface{}{}
}

// SetParams rejects every key.
func (nb *GaussianNB) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		return errors.NewValidationError(key, "unknown parameter", value)
	}
	return nil
}

func (nb *GaussianNB) checkPredict(method string, X mat.Matrix) error {
	if err := nb.state.RequireFitted("GaussianNB", method); err != nil {
		return err
	}
	return nb.state.RequireFeatures("GaussianNB."+method, X)
}

type gaussianSnapshot struct {
	State   model.ModelState
	Classes []int
	Prior   []float64
	Theta   [][]float64
	Var     [][]float64
}

// MarshalBinary encodes the fitted parameters with gob.
func (nb *GaussianNB) MarshalBinary() ([]byte, error) {
	return model.EncodeSnapshot(gaussianSnapshot{
		State:   nb.state.GetState(),
		Classes: nb.classes_,
		Prior:   nb.classPrior_,
		Theta:   nb.theta_,
		Var:     nb.var_,
	})
}

// UnmarshalBinary restores a model encoded by MarshalBinary.
func (nb *GaussianNB) UnmarshalBinary(data []byte) error {
	var s gaussianSnapshot
	if err := model.DecodeSnapshot(data, &s); err != nil {
		return err
	}
	if nb.state == nil {
		nb.state = model.NewStateManager()
	}
	if nb.logger == nil {
		nb.logger = log.GetLoggerWithName("naivebayes")
	}
	nb.state.SetState(s.State)
	nb.classes_ = s.Classes
	nb.classPrior_ = s.Prior
	nb.theta_ = s.Theta
	nb.var_ = s.Var
	return nil
}

func toDense(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return nil
	}
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		m.SetRow(i, r)
	}
	return m
}

func sortedKeys(groups map[int][]int) []int {
	keys := make([]int, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
