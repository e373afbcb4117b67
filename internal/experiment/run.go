// Package experiment trains and evaluates models on one train/test split.
// A Run owns everything a training session needs: the data, the split, the
// scaled matrices and the metrics sink.
package experiment

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/dataset"
	"github.com/YuminosukeSato/tabml/internal/config"
	"github.com/YuminosukeSato/tabml/internal/telemetry"
	"github.com/YuminosukeSato/tabml/metrics"
	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/pkg/log"
	"github.com/YuminosukeSato/tabml/preprocessing"
)

// Run is one training session on a fixed split.
type Run struct {
	ID     string
	Config config.Config
	Data   *dataset.Dataset
	Split  *dataset.Split

	// XTrain and XTest are the split features after the configured scaler.
	XTrain, XTest mat.Matrix
	YTrain, YTest *mat.Dense

	// Metrics may be nil.
	Metrics *telemetry.Metrics

	logger log.Logger
}

// NewRun splits data with cfg's fraction and seed and fits the configured
// scaler on the training partition only.
func NewRun(cfg config.Config, data *dataset.Dataset, m *telemetry.Metrics) (*Run, error) {
	split, err := data.Split(cfg.Data.TrainFraction, cfg.Data.Seed)
	if err != nil {
		return nil, err
	}

	r := &Run{
		ID:      uuid.NewString(),
		Config:  cfg,
		Data:    data,
		Split:   split,
		XTrain:  split.TrainMatrix(),
		XTest:   split.TestMatrix(),
		YTrain:  split.TrainTargets(),
		YTest:   split.TestTargets(),
		Metrics: m,
	}
	r.logger = log.GetLoggerWithName("experiment").With(log.RunIDKey, r.ID)

	scaler, err := preprocessing.New(cfg.Data.Scaler)
	if err != nil {
		return nil, err
	}
	if scaler != nil {
		if r.XTrain, err = scaler.FitTransform(r.XTrain); err != nil {
			return nil, errors.Wrap(err, "scale training data")
		}
		if r.XTest, err = scaler.Transform(r.XTest); err != nil {
			return nil, errors.Wrap(err, "scale test data")
		}
	}

	if m != nil {
		m.SetSplit(len(split.XTrain), len(split.XTest))
	}
	r.logger.Info("split ready",
		log.SamplesKey, data.NSamples(),
		log.FeaturesKey, data.NFeatures(),
		log.RandomSeedKey, cfg.Data.Seed,
		"split.train", len(split.XTrain),
		"split.test", len(split.XTest),
	)
	return r, nil
}

// Train fits a fresh model for a on the training partition and evaluates it
// on the test partition. TrainTime covers Fit only.
func (r *Run) Train(a Algorithm) (*Result, error) {
	m, err := NewModel(a, r.Config)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	err = errors.SafeExecute(fmt.Sprintf("%s fit", a), func() error {
		return m.Fit(r.XTrain, r.YTrain)
	})
	elapsed := time.Since(start)
	if r.Metrics != nil {
		r.Metrics.ObserveFit(string(a), elapsed, err)
	}
	if err != nil {
		r.logger.Error("fit failed", err, log.AlgorithmKey, string(a))
		return nil, errors.Wrapf(err, "train %s", a)
	}

	res, err := r.Evaluate(a, m)
	if err != nil {
		return nil, err
	}
	res.TrainTime = elapsed
	r.logger.Info("model trained", res.logFields()...)
	return res, nil
}

// TrainAll trains every algorithm in Algorithms on the same split. A failing
// algorithm gets a Result with Err set and the rest still run. The returned
// error is non-nil only when every algorithm failed.
func (r *Run) TrainAll() ([]*Result, error) {
	results := make([]*Result, 0, len(Algorithms))
	var errs []error
	for _, a := range Algorithms {
		res, err := r.Train(a)
		if err != nil {
			errs = append(errs, err)
			res = &Result{Algorithm: a, Err: err}
		}
		results = append(results, res)
	}
	if len(errs) == len(Algorithms) {
		return results, errors.Wrap(errors.Join(errs...), "every algorithm failed")
	}
	return results, nil
}

// Evaluate scores an already fitted model on the test partition. Regression
// models get RMSE; classifiers get accuracy, macro-F1 and a per-class report.
func (r *Run) Evaluate(a Algorithm, m Model) (*Result, error) {
	pred, err := m.Predict(r.XTest)
	if err != nil {
		return nil, errors.Wrapf(err, "predict %s", a)
	}
	res := &Result{
		Algorithm:   a,
		Model:       m,
		Predictions: mat.Col(nil, 0, pred),
	}

	if a.IsRegression() {
		rmse, err := metrics.RMSEMatrix(r.YTest, pred)
		if err != nil {
			return nil, err
		}
		res.RMSE = rmse
		r.setScore(a, "rmse", rmse)
		return res, nil
	}

	yTrue := r.Split.TestLabels()
	yPred := make([]int, len(res.Predictions))
	for i, v := range res.Predictions {
		yPred[i] = int(math.Round(v))
	}
	if res.Accuracy, err = metrics.AccuracyScore(yTrue, yPred); err != nil {
		return nil, err
	}
	if res.ClassReport, err = metrics.PrecisionRecallF1(yTrue, yPred); err != nil {
		return nil, err
	}
	res.MacroF1 = metrics.MacroF1FromReports(res.ClassReport)

	r.setScore(a, "accuracy", res.Accuracy)
	r.setScore(a, "macro_f1", res.MacroF1)
	return res, nil
}

func (r *Run) setScore(a Algorithm, metric string, v float64) {
	if r.Metrics != nil {
		r.Metrics.SetScore(string(a), metric, v)
	}
}
