package dataset

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// DefaultTrainFraction is the share of rows assigned to the training set.
const DefaultTrainFraction = 0.8

// Split is a train/test partition of a Dataset.
type Split struct {
	XTrain, XTest [][]float64
	YTrain, YTest []float64
	// Perm maps split position to source row: the first len(XTrain) entries
	// are training rows, the rest test rows.
	Perm []int
}

// Split shuffles the row indices with a generator seeded by seed and assigns
// the first floor(n*fraction) of them to the training set. The same seed and
// data always produce the same partition.
func (d *Dataset) Split(fraction float64, seed int64) (*Split, error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, errors.NewValidationError("train_fraction", "must be in (0, 1)", fraction)
	}
	n := len(d.X)
	nTrain := int(float64(n) * fraction)
	if nTrain == 0 || nTrain == n {
		return nil, errors.NewValueError("dataset.Split",
			fmt.Sprintf("%d rows with fraction %.2f leave an empty partition", n, fraction))
	}

	perm := rand.New(rand.NewSource(seed)).Perm(n)
	s := &Split{Perm: perm}
	for pos, i := range perm {
		if pos < nTrain {
			s.XTrain = append(s.XTrain, d.X[i])
			s.YTrain = append(s.YTrain, d.Y[i])
		} else {
			s.XTest = append(s.XTest, d.X[i])
			s.YTest = append(s.YTest, d.Y[i])
		}
	}
	return s, nil
}

// TrainMatrix returns XTrain as a dense matrix.
func (s *Split) TrainMatrix() *mat.Dense { return denseOf(s.XTrain) }

// TestMatrix returns XTest as a dense matrix.
func (s *Split) TestMatrix() *mat.Dense { return denseOf(s.XTest) }

// TrainTargets returns YTrain as an n×1 matrix.
func (s *Split) TrainTargets() *mat.Dense {
	return mat.NewDense(len(s.YTrain), 1, append([]float64(nil), s.YTrain...))
}

// TestTargets returns YTest as an n×1 matrix.
func (s *Split) TestTargets() *mat.Dense {
	return mat.NewDense(len(s.YTest), 1, append([]float64(nil), s.YTest...))
}

// TestLabels returns YTest as integer labels.
func (s *Split) TestLabels() []int { return toLabels(s.YTest) }
