package experiment

import (
	"encoding"
	"fmt"

	"github.com/YuminosukeSato/tabml/core/model"
	"github.com/YuminosukeSato/tabml/internal/config"
	"github.com/YuminosukeSato/tabml/linear"
	"github.com/YuminosukeSato/tabml/naivebayes"
	"github.com/YuminosukeSato/tabml/neighbors"
	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/tree"
)

// Algorithm is the command-line name of a model.
type Algorithm string

const (
	Linear     Algorithm = "linear"
	Logistic   Algorithm = "logistic"
	KNN        Algorithm = "knn"
	Tree       Algorithm = "tree"
	NaiveBayes Algorithm = "nb"
)

// Algorithms lists every algorithm in the order results are reported.
var Algorithms = []Algorithm{Linear, Logistic, KNN, Tree, NaiveBayes}

// ParseAlgorithm accepts the names in Algorithms.
func ParseAlgorithm(s string) (Algorithm, error) {
	for _, a := range Algorithms {
		if string(a) == s {
			return a, nil
		}
	}
	return "", errors.NewValidationError("algorithm",
		fmt.Sprintf("must be one of %v", Algorithms), s)
}

// DisplayName is the human-readable name printed in results.
func (a Algorithm) DisplayName() string {
	switch a {
	case Linear:
		return "Linear Regression"
	case Logistic:
		return "Logistic Regression"
	case KNN:
		return "k-Nearest Neighbors"
	case Tree:
		return "Decision Tree (ID3)"
	case NaiveBayes:
		return "Gaussian Naive Bayes"
	default:
		return string(a)
	}
}

// IsRegression reports whether a is evaluated with RMSE instead of accuracy.
func (a Algorithm) IsRegression() bool { return a == Linear }

// Model is what the runner trains, evaluates and stores.
type Model interface {
	model.Estimator
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// NewModel builds an unfitted model for a with hyperparameters from cfg.
func NewModel(a Algorithm, cfg config.Config) (Model, error) {
	switch a {
	case Linear:
		return linear.NewRidge(linear.WithLambda(cfg.Linear.Lambda)), nil
	case Logistic:
		return linear.NewLogisticRegression(
			linear.WithLearningRate(cfg.Logistic.LearningRate),
			linear.WithEpochs(cfg.Logistic.Epochs),
			linear.WithRegularization(cfg.Logistic.Regularization),
		), nil
	case KNN:
		return neighbors.NewKNeighborsClassifier(neighbors.WithK(cfg.KNN.K)), nil
	case Tree:
		if _, err := tree.ParseCriterion(cfg.Tree.Criterion); err != nil {
			return nil, err
		}
		return tree.NewDecisionTreeClassifier(
			tree.WithCriterion(cfg.Tree.Criterion),
			tree.WithMaxDepth(cfg.Tree.MaxDepth),
			tree.WithMinSamplesSplit(cfg.Tree.MinSamplesSplit),
			tree.WithMinSamplesLeaf(cfg.Tree.MinSamplesLeaf),
		), nil
	case NaiveBayes:
		return naivebayes.NewGaussianNB(), nil
	default:
		return nil, errors.NewValidationError("algorithm", "unknown algorithm", string(a))
	}
}
