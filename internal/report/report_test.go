package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tabml/metrics"
	"github.com/YuminosukeSato/tabml/pkg/errors"
)

func TestWriteRecords(t *testing.T) {
	records := []Record{
		{RunID: "r1", Algorithm: "tree", Metric: "accuracy", Value: 0.75, TrainMs: 1.5, TrainSamples: 8, TestSamples: 2},
		{RunID: "r1", Algorithm: "linear", Metric: "rmse", Value: 0.25, TrainMs: 0.5, TrainSamples: 8, TestSamples: 2},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, records))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "run_id,algorithm,metric,value,train_ms,train_samples,test_samples", lines[0])

	got, err := ReadRecords(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, records, got)
}

func TestWriteClassReportFile(t *testing.T) {
	reports, err := metrics.PrecisionRecallF1([]int{0, 0, 1, 1}, []int{0, 1, 1, 1})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "classes.csv")
	require.NoError(t, WriteClassReportFile(path, reports))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "label,precision,recall,f1,support\n"))
	assert.Equal(t, 3, strings.Count(string(data), "\n"))
}

func TestWriteRecordsFile_BadPath(t *testing.T) {
	err := WriteRecordsFile(filepath.Join(t.TempDir(), "missing", "out.csv"), nil)
	assert.Error(t, err)
}

func TestPredictedVsActual(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pred.png")
	require.NoError(t, PredictedVsActual(path, "ridge", []float64{1, 2, 3}, []float64{1.1, 1.9, 3.2}))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestPredictedVsActual_Errors(t *testing.T) {
	_, err := predictedVsActual("", nil, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = predictedVsActual("", []float64{1, 2}, []float64{1})
	var de *errors.DimensionError
	assert.True(t, errors.As(err, &de))
}
