package linear

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/core/model"
	"github.com/YuminosukeSato/tabml/core/parallel"
	"github.com/YuminosukeSato/tabml/metrics"
	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/pkg/log"
)

// Default hyperparameters of LogisticRegression.
const (
	DefaultLearningRate = 0.01
	DefaultEpochs       = 100
)

// LogisticRegression is a binary classifier trained by per-sample
// stochastic gradient descent on the log loss.
type LogisticRegression struct {
	state *model.StateManager // State management (composition)

	// Hyperparameters
	learningRate float64 // SGD step size
	epochs       int     // Passes over the training set
	reg          float64 // L2 penalty on the weights (not the bias)

	// Model parameters
	coef_      []float64 // One weight per feature
	intercept_ float64   // Bias

	logger log.Logger
}

// LogisticOption is a functional option for LogisticRegression
type LogisticOption func(*LogisticRegression)

// WithLearningRate sets the SGD step size
func WithLearningRate(lr float64) LogisticOption {
	return func(l *LogisticRegression) {
		l.learningRate = lr
	}
}

// WithEpochs sets the number of passes over the training rows
func WithEpochs(epochs int) LogisticOption {
	return func(l *LogisticRegression) {
		l.epochs = epochs
	}
}

// WithRegularization sets the L2 coefficient applied to the weights
func WithRegularization(reg float64) LogisticOption {
	return func(l *LogisticRegression) {
		l.reg = reg
	}
}

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		learningRate: DefaultLearningRate,
		epochs:       DefaultEpochs,
		logger:       log.GetLoggerWithName("linear"),
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit trains the model. y must contain only 0 and 1.
//
// Weights and bias start at zero. Rows are visited in order every epoch and
// each one takes a step of
//
//	w_j -= lr * (err*x_j + reg*w_j)
//	b   -= lr * err
//
// where err = sigmoid(w·x + b) - y.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validate(); err != nil {
		return err
	}
	if err := model.CheckXY("LogisticRegression.Fit", X, y); err != nil {
		return err
	}
	labels, err := model.Labels("LogisticRegression.Fit", y)
	if err != nil {
		return err
	}
	for i, l := range labels {
		if l != 0 && l != 1 {
			return errors.NewValueError("LogisticRegression.Fit",
				fmt.Sprintf("labels must be 0 or 1, got %d at row %d", l, i))
		}
	}

	start := time.Now()
	rows := model.Rows(X)
	n, d := X.Dims()

	// Initialize weights
	w := make([]float64, d)
	var b float64

	// loss at the end of the last two epochs, for the convergence check
	var prevLoss, lastLoss float64
	for epoch := 0; epoch < lr.epochs; epoch++ {
		for i, x := range rows {
			e := sigmoid(dot(w, x)+b) - float64(labels[i])
			for j := range w {
				w[j] -= lr.learningRate * (e*x[j] + lr.reg*w[j])
			}
			b -= lr.learningRate * e
		}
		if err := errors.CheckNumericalStability("LogisticRegression.Fit", append(w, b), epoch); err != nil {
			return err
		}
		if epoch >= lr.epochs-2 {
			loss, err := logLoss(w, b, rows, labels)
			if err != nil {
				return err
			}
			if err := errors.CheckScalar("LogisticRegression.Fit", loss, epoch); err != nil {
				return err
			}
			prevLoss, lastLoss = lastLoss, loss
		}
	}
	if lr.epochs >= 2 && lastLoss > prevLoss {
		errors.Warn(errors.NewConvergenceWarning("LogisticRegression", lr.epochs,
			fmt.Sprintf("training log loss rose from %.6g to %.6g in the last epoch", prevLoss, lastLoss)))
	}

	lr.coef_ = w
	lr.intercept_ = b
	lr.state.SetDimensions(d, n)
	lr.state.SetFitted()

	fields := []any{
		log.ModelNameKey, "LogisticRegression",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.EpochKey, lr.epochs,
		log.LearningRateKey, lr.learningRate,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	}
	if lr.epochs > 0 {
		fields = append(fields, "training.log_loss", lastLoss)
	}
	lr.logger.Debug("fit complete", fields...)
	return nil
}

func logLoss(w []float64, b float64, rows [][]float64, labels []int) (float64, error) {
	p := make([]float64, len(rows))
	t := make([]float64, len(rows))
	for i, x := range rows {
		p[i] = sigmoid(dot(w, x) + b)
		t[i] = float64(labels[i])
	}
	return metrics.BinaryLogLoss(mat.NewVecDense(len(t), t), mat.NewVecDense(len(p), p))
}

func (lr *LogisticRegression) probability(x []float64) float64 {
	return sigmoid(dot(lr.coef_, x) + lr.intercept_)
}

// Predict returns 1 where the positive-class probability is at least 0.5
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkPredict("Predict", X); err != nil {
		return nil, err
	}
	rows := model.Rows(X)
	out := make([]float64, len(rows))
	parallel.ParallelizeWithThreshold(len(rows), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			if lr.probability(rows[i]) >= 0.5 {
				out[i] = 1
			}
		}
	})
	return model.ColumnVector(out), nil
}

// PredictProba returns an n×2 matrix of [P(y=0), P(y=1)]
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.checkPredict("PredictProba", X); err != nil {
		return nil, err
	}
	rows := model.Rows(X)
	proba := mat.NewDense(len(rows), 2, nil)
	parallel.ParallelizeWithThreshold(len(rows), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			p := lr.probability(rows[i])
			proba.Set(i, 0, 1-p)
			proba.Set(i, 1, p)
		}
	})
	return proba, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	pred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.AccuracyMatrix(y, pred)
}

// IsFitted reports whether Fit has completed
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// Classes always returns [0 1]
func (lr *LogisticRegression) Classes() []int {
	return []int{0, 1}
}

// Weights returns a copy of the learned weights
func (lr *LogisticRegression) Weights() []float64 {
	return append([]float64(nil), lr.coef_...)
}

// Intercept returns the learned bias
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept_
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"learning_rate":  lr.learningRate,
		"epochs":         lr.epochs,
		"regularization": lr.reg,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "learning_rate", "regularization":
			v, ok := toFloat(value)
			if !ok {
				return errors.NewValidationError(key, "must be a number", value)
			}
			if key == "learning_rate" {
				lr.learningRate = v
			} else {
				lr.reg = v
			}
		case "epochs":
			v, ok := value.(int)
			if !ok {
				return errors.NewValidationError(key, "must be an int", value)
			}
			lr.epochs = v
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return lr.validate()
}

func (lr *LogisticRegression) validate() error {
	if lr.learningRate <= 0 {
		return errors.NewValidationError("learning_rate", "must be > 0", lr.learningRate)
	}
	if lr.epochs < 0 {
		return errors.NewValidationError("epochs", "must be >= 0", lr.epochs)
	}
	if lr.reg < 0 {
		return errors.NewValidationError("regularization", "must be >= 0", lr.reg)
	}
	return nil
}

func (lr *LogisticRegression) checkPredict(method string, X mat.Matrix) error {
	if err := lr.state.RequireFitted("LogisticRegression", method); err != nil {
		return err
	}
	return lr.state.RequireFeatures("LogisticRegression."+method, X)
}

type logisticSnapshot struct {
	State        model.ModelState
	LearningRate float64
	Epochs       int
	Reg          float64
	Coef         []float64
	Intercept    float64
}

// MarshalBinary encodes the fitted model with gob
func (lr *LogisticRegression) MarshalBinary() ([]byte, error) {
	return model.EncodeSnapshot(logisticSnapshot{
		State:        lr.state.GetState(),
		LearningRate: lr.learningRate,
		Epochs:       lr.epochs,
		Reg:          lr.reg,
		Coef:         lr.coef_,
		Intercept:    lr.intercept_,
	})
}

// UnmarshalBinary restores a model encoded by MarshalBinary
func (lr *LogisticRegression) UnmarshalBinary(data []byte) error {
	var s logisticSnapshot
	if err := model.DecodeSnapshot(data, &s); err != nil {
		return err
	}
	if lr.state == nil {
		lr.state = model.NewStateManager()
	}
	if lr.logger == nil {
		lr.logger = log.GetLoggerWithName("linear")
	}
	lr.state.SetState(s.State)
	lr.learningRate = s.LearningRate
	lr.epochs = s.Epochs
	lr.reg = s.Reg
	lr.coef_ = s.Coef
	lr.intercept_ = s.Intercept
	return nil
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + errors.StabilizeExp(-z))
}
