package experiment

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/YuminosukeSato/tabml/internal/report"
	"github.com/YuminosukeSato/tabml/metrics"
	"github.com/YuminosukeSato/tabml/pkg/log"
)

// Result is the outcome of training or evaluating one algorithm.
type Result struct {
	Algorithm Algorithm
	Model     Model
	TrainTime time.Duration

	// RMSE is set for regression, the rest for classifiers.
	RMSE        float64
	Accuracy    float64
	MacroF1     float64
	ClassReport []metrics.ClassReport

	// Predictions holds the raw test-set predictions in split order.
	Predictions []float64

	// Err is set when training failed; no other field but Algorithm is.
	Err error
}

// Metrics returns the test metrics by name, as stored in the registry.
func (r *Result) Metrics() map[string]float64 {
	if r.Algorithm.IsRegression() {
		return map[string]float64{"rmse": r.RMSE}
	}
	return map[string]float64{"accuracy": r.Accuracy, "macro_f1": r.MacroF1}
}

// Print writes the result block shown after training:
//
//	Algorithm: Decision Tree (ID3)
//	Training Time: 0.001234 seconds
//	Test Accuracy: 84.5%
//	Macro-F1 Score: 0.7712
//
// The training time line is left out when TrainTime is zero, as it is for a
// model loaded from the registry and only evaluated.
func (r *Result) Print(w io.Writer) {
	fmt.Fprintf(w, "Algorithm: %s\n", r.Algorithm.DisplayName())
	if r.TrainTime > 0 {
		fmt.Fprintf(w, "Training Time: %.6f seconds\n", r.TrainTime.Seconds())
	}
	if r.Algorithm.IsRegression() {
		fmt.Fprintf(w, "Test RMSE: %.4f\n", r.RMSE)
		return
	}
	fmt.Fprintf(w, "Test Accuracy: %.2f%%\n", r.Accuracy*100)
	fmt.Fprintf(w, "Macro-F1 Score: %.4f\n", r.MacroF1)
}

// Records flattens the result into report rows, one per metric.
func (r *Result) Records(runID string, trainSamples, testSamples int) []report.Record {
	names := []string{"accuracy", "macro_f1"}
	if r.Algorithm.IsRegression() {
		names = []string{"rmse"}
	}
	values := r.Metrics()
	out := make([]report.Record, 0, len(names))
	for _, name := range names {
		out = append(out, report.Record{
			RunID:        runID,
			Algorithm:    string(r.Algorithm),
			Metric:       name,
			Value:        values[name],
			TrainMs:      float64(r.TrainTime.Microseconds()) / 1000,
			TrainSamples: trainSamples,
			TestSamples:  testSamples,
		})
	}
	return out
}

func (r *Result) logFields() []any {
	fields := []any{
		log.AlgorithmKey, string(r.Algorithm),
		log.DurationMsKey, r.TrainTime.Milliseconds(),
	}
	if r.Algorithm.IsRegression() {
		return append(fields, log.RMSEKey, r.RMSE)
	}
	return append(fields, log.AccuracyKey, r.Accuracy, log.MacroF1Key, r.MacroF1)
}

// PrintTable writes a side-by-side summary of several results. Cells that do
// not apply to an algorithm are shown as "-"; a failed algorithm gets its
// error in the STATUS column.
func PrintTable(w io.Writer, results []*Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ALGORITHM\tTRAIN TIME (s)\tACCURACY (%)\tMACRO-F1\tRMSE\tSTATUS")
	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\tfailed: %s\n",
				r.Algorithm.DisplayName(), strings.ReplaceAll(r.Err.Error(), "\n", " "))
			continue
		}
		acc, f1, rmse := "-", "-", "-"
		if r.Algorithm.IsRegression() {
			rmse = fmt.Sprintf("%.4f", r.RMSE)
		} else {
			acc = fmt.Sprintf("%.2f", r.Accuracy*100)
			f1 = fmt.Sprintf("%.4f", r.MacroF1)
		}
		fmt.Fprintf(tw, "%s\t%.6f\t%s\t%s\t%s\tok\n",
			r.Algorithm.DisplayName(), r.TrainTime.Seconds(), acc, f1, rmse)
	}
	return tw.Flush()
}
