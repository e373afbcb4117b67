package linear

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/pkg/log"
)

func separable() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(6, 1, []float64{-3, -2, -1, 1, 2, 3})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
	return X, y
}

func TestLogisticRegression_BinarySeparable(t *testing.T) {
	X, y := separable()
	lr := NewLogisticRegression(WithLearningRate(0.1), WithEpochs(200))
	require.NoError(t, lr.Fit(X, y))

	pred, err := lr.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "row %d", i)
	}
	assert.Greater(t, lr.Weights()[0], 0.0)

	score, err := lr.Score(X, y)
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestLogisticRegression_ZeroEpochsPredictsPositive(t *testing.T) {
	X, y := separable()
	lr := NewLogisticRegression(WithEpochs(0))
	require.NoError(t, lr.Fit(X, y))
	assert.Equal(t, []float64{0}, lr.Weights())
	assert.Equal(t, 0.0, lr.Intercept())

	// sigmoid(0) = 0.5 は陽性クラスに分類される
	pred, err := lr.Predict(X)
	require.NoError(t, err)
	for i := 0; i < 6; i++ {
		assert.Equal(t, 1.0, pred.At(i, 0))
	}
}

func TestLogisticRegression_SingleStep(t *testing.T) {
	X := mat.NewDense(1, 2, []float64{1, 2})
	y := mat.NewDense(1, 1, []float64{1})
	lr := NewLogisticRegression(WithLearningRate(0.5), WithEpochs(1))
	require.NoError(t, lr.Fit(X, y))

	// err = 0.5 - 1 = -0.5
	assert.InDeltaSlice(t, []float64{0.25, 0.5}, lr.Weights(), 1e-12)
	assert.InDelta(t, 0.25, lr.Intercept(), 1e-12)
}

func TestLogisticRegression_PredictProba(t *testing.T) {
	X, y := separable()
	lr := NewLogisticRegression(WithLearningRate(0.1), WithEpochs(50))
	require.NoError(t, lr.Fit(X, y))

	proba, err := lr.PredictProba(X)
	require.NoError(t, err)
	r, c := proba.Dims()
	assert.Equal(t, 6, r)
	assert.Equal(t, 2, c)
	for i := 0; i < r; i++ {
		assert.InDelta(t, 1.0, proba.At(i, 0)+proba.At(i, 1), 1e-12)
	}
	assert.Less(t, proba.At(0, 1), 0.5)
	assert.Greater(t, proba.At(5, 1), 0.5)
	assert.Equal(t, []int{0, 1}, lr.Classes())
}

func TestLogisticRegression_Deterministic(t *testing.T) {
	X, y := separable()
	a := NewLogisticRegression(WithRegularization(0.01))
	b := NewLogisticRegression(WithRegularization(0.01))
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))
	assert.Equal(t, a.Weights(), b.Weights())
	assert.Equal(t, a.Intercept(), b.Intercept())
}

func TestLogisticRegression_NonBinaryLabels(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{0, 1, 2})

	err := NewLogisticRegression().Fit(X, y)
	var ve *errors.ValueError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Message, "0 or 1")
}

func TestLogisticRegression_Divergence(t *testing.T) {
	X := mat.NewDense(1, 1, []float64{1})
	y := mat.NewDense(1, 1, []float64{0})

	// lr*reg = 3 なので重みは毎ステップ -2 倍になる
	lr := NewLogisticRegression(WithLearningRate(1), WithRegularization(3), WithEpochs(5000))
	err := lr.Fit(X, y)
	var ne *errors.NumericalInstabilityError
	require.True(t, errors.As(err, &ne))
	assert.False(t, lr.IsFitted())
}

func TestLogisticRegression_ConvergenceWarning(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(func(error) {})

	// 強い正則化で2エポック目に損失が 0.97 から約 3.0 へ増える
	X := mat.NewDense(2, 1, []float64{1, -1})
	y := mat.NewDense(2, 1, []float64{0, 1})
	lr := NewLogisticRegression(WithLearningRate(1), WithRegularization(3), WithEpochs(2))
	require.NoError(t, lr.Fit(X, y))
	assert.True(t, lr.IsFitted())

	require.Len(t, warnings, 1)
	var cw *errors.ConvergenceWarning
	require.True(t, errors.As(warnings[0], &cw))
	assert.Equal(t, "LogisticRegression", cw.Algorithm)
	assert.Equal(t, 2, cw.Iterations)
	assert.Contains(t, cw.Message, "rose")
}

func TestLogisticRegression_InvalidParams(t *testing.T) {
	X, y := separable()
	var ve *errors.ValidationError
	assert.True(t, errors.As(NewLogisticRegression(WithLearningRate(0)).Fit(X, y), &ve))
	assert.True(t, errors.As(NewLogisticRegression(WithEpochs(-1)).Fit(X, y), &ve))

	lr := NewLogisticRegression()
	require.NoError(t, lr.SetParams(map[string]interface{}{"epochs": 10, "learning_rate": 0.5}))
	assert.Equal(t, 10, lr.GetParams()["epochs"])
	assert.Equal(t, 0.5, lr.GetParams()["learning_rate"])
	assert.True(t, errors.As(lr.SetParams(map[string]interface{}{"epochs": "ten"}), &ve))
}

func TestLogisticRegression_NotFitted(t *testing.T) {
	_, err := NewLogisticRegression().PredictProba(mat.NewDense(1, 1, []float64{0}))
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "PredictProba", nf.Method)
}

func TestLogisticRegression_LogsTrainingLoss(t *testing.T) {
	p, logger := log.NewTestLoggerProvider(log.LevelDebug)
	log.SetProvider(p)

	X, y := separable()
	require.NoError(t, NewLogisticRegression().Fit(X, y))
	assert.True(t, logger.ContainsMessage("fit complete"))
	assert.True(t, logger.ContainsField(log.ModelNameKey, "LogisticRegression"))

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Contains(t, entries[len(entries)-1], "training.log_loss")
}

func TestLogisticRegression_BinaryRoundTrip(t *testing.T) {
	X, y := separable()
	lr := NewLogisticRegression(WithEpochs(20))
	require.NoError(t, lr.Fit(X, y))

	data, err := lr.MarshalBinary()
	require.NoError(t, err)
	var restored LogisticRegression
	require.NoError(t, restored.UnmarshalBinary(data))

	want, err := lr.PredictProba(X)
	require.NoError(t, err)
	got, err := restored.PredictProba(X)
	require.NoError(t, err)
	assert.True(t, mat.Equal(want, got))
}
