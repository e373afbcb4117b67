package naivebayes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/pkg/log"
)

// TestGaussianNBBasicFit tests basic fitting functionality
func TestGaussianNBBasicFit(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		1, 2, // class 1
		3, 2, // class 1
		2, 2, // class 1
		10, 0, // class 0
		12, 4, // class 0
		14, 2, // class 0
	})
	y := mat.NewDense(6, 1, []float64{1, 1, 1, 0, 0, 0})

	nb := NewGaussianNB()
	require.NoError(t, nb.Fit(X, y))
	assert.True(t, nb.state.IsFitted())

	// classes are sorted regardless of input order
	assert.Equal(t, []int{0, 1}, nb.Classes())
	assert.Equal(t, []float64{0.5, 0.5}, nb.ClassPrior())

	theta := nb.Theta()
	assert.Equal(t, 12.0, theta.At(0, 0))
	assert.Equal(t, 2.0, theta.At(0, 1))
	assert.Equal(t, 2.0, theta.At(1, 0))

	v := nb.Var()
	// population variance of {10, 12, 14}
	assert.InDelta(t, 8.0/3.0, v.At(0, 0), 1e-12)
	// feature 1 of class 1 is constant
	assert.Equal(t, MinVariance, v.At(1, 1))
}

func TestGaussianNBPredict(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 10, 11, 12})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	nb := NewGaussianNB()
	require.NoError(t, nb.Fit(X, y))

	pred, err := nb.Predict(mat.NewDense(3, 1, []float64{-1, 5.5, 13}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 1.0, pred.At(2, 0))

	score, err := nb.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestGaussianNBTieGoesToFirstClass(t *testing.T) {
	// mirror-image classes: x = 0 is equally likely under both
	X := mat.NewDense(4, 1, []float64{-2, -1, 1, 2})
	y := mat.NewDense(4, 1, []float64{5, 5, 8, 8})

	nb := NewGaussianNB()
	require.NoError(t, nb.Fit(X, y))

	pred, err := nb.Predict(mat.NewDense(1, 1, []float64{0}))
	require.NoError(t, err)
	assert.Equal(t, 5.0, pred.At(0, 0))
}

func TestGaussianNBPriorMatters(t *testing.T) {
	// identical feature distributions, class 2 is three times as frequent
	X := mat.NewDense(8, 1, []float64{0, 1, 0, 1, 0, 1, 0, 1})
	y := mat.NewDense(8, 1, []float64{1, 1, 2, 2, 2, 2, 2, 2})

	nb := NewGaussianNB()
	require.NoError(t, nb.Fit(X, y))

	pred, err := nb.Predict(mat.NewDense(1, 1, []float64{0.5}))
	require.NoError(t, err)
	assert.Equal(t, 2.0, pred.At(0, 0))
}

func TestGaussianNBPredictProba(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 10, 11, 12})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	nb := NewGaussianNB()
	require.NoError(t, nb.Fit(X, y))

	proba, err := nb.PredictProba(mat.NewDense(2, 1, []float64{1, 11}))
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		sum := proba.At(i, 0) + proba.At(i, 1)
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("row %d: probabilities sum to %v", i, sum)
		}
	}
	assert.Greater(t, proba.At(0, 0), 0.99)
	assert.Greater(t, proba.At(1, 1), 0.99)
}

func TestGaussianNBErrors(t *testing.T) {
	nb := NewGaussianNB()
	_, err := nb.Predict(mat.NewDense(1, 1, []float64{0}))
	var nf *errors.NotFittedError
	assert.True(t, errors.As(err, &nf))

	err = nb.Fit(mat.NewDense(2, 1, []float64{0, 1}), mat.NewDense(2, 1, []float64{0, 0.5}))
	var ve *errors.ValueError
	assert.True(t, errors.As(err, &ve))

	var pe *errors.ValidationError
	assert.True(t, errors.As(nb.SetParams(map[string]interface{}{"var_smoothing": 1e-9}), &pe))
	assert.Empty(t, nb.GetParams())
}

func TestGaussianNBLogsFit(t *testing.T) {
	p, logger := log.NewTestLoggerProvider(log.LevelDebug)
	log.SetProvider(p)

	require.NoError(t, NewGaussianNB().Fit(mat.NewDense(2, 1, []float64{0, 1}), mat.NewDense(2, 1, []float64{0, 1})))
	assert.True(t, logger.ContainsField(log.ModelNameKey, "GaussianNB"))
	assert.True(t, logger.ContainsField(log.ClassesKey, 2.0))
}

func TestGaussianNBBinaryRoundTrip(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 10, 11, 12})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	nb := NewGaussianNB()
	require.NoError(t, nb.Fit(X, y))

	data, err := nb.MarshalBinary()
	require.NoError(t, err)
	var restored GaussianNB
	require.NoError(t, restored.UnmarshalBinary(data))

	want, err := nb.PredictProba(X)
	require.NoError(t, err)
	got, err := restored.PredictProba(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}
