package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/tabml/internal/registry"
	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// writeAdult writes a small income file: rows with age above 40 earn >50K.
func writeAdult(t *testing.T, dir string) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("age, hours, income\n")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "%d, %d, <=50K\n", 20+i%10, 30+i%5)
		fmt.Fprintf(&b, "%d, %d, >50K\n", 50+i%10, 45+i%5)
	}
	path := filepath.Join(dir, "adult.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestColumns(t *testing.T) {
	data := writeAdult(t, t.TempDir())
	out, err := execute(t, "columns", "--data", data)
	require.NoError(t, err)
	assert.Equal(t, "Available columns:\n0: age\n1: hours\n2: income\n", out)
}

func TestColumns_MissingData(t *testing.T) {
	_, err := execute(t, "columns")
	assert.Error(t, err)
}

func TestTrain(t *testing.T) {
	tests := []struct {
		algo string
		want string
	}{
		{"linear", "Test RMSE"},
		{"logistic", "Test Accuracy"},
		{"knn", "Test Accuracy"},
		{"tree", "Macro-F1 Score"},
		{"nb", "Test Accuracy"},
	}
	for _, tt := range tests {
		t.Run(tt.algo, func(t *testing.T) {
			dir := t.TempDir()
			data := writeAdult(t, dir)
			out, err := execute(t, "train", tt.algo, "--data", data, "--target", "2",
				"--scaler", "standard", "--registry", filepath.Join(dir, "r.db"))
			require.NoError(t, err)
			assert.Contains(t, out, "Algorithm: ")
			assert.Contains(t, out, "Training Time: ")
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestTrain_Outputs(t *testing.T) {
	dir := t.TempDir()
	data := writeAdult(t, dir)
	reportPath := filepath.Join(dir, "report.csv")
	classPath := filepath.Join(dir, "classes.csv")
	metricsPath := filepath.Join(dir, "metrics.prom")
	treePath := filepath.Join(dir, "tree.dot")

	out, err := execute(t, "train", "tree", "--data", data,
		"--registry", filepath.Join(dir, "r.db"),
		"--save", "income-tree",
		"--report", reportPath,
		"--class-report", classPath,
		"--metrics-file", metricsPath,
		"--render", treePath,
		"--max-depth", "3",
	)
	require.NoError(t, err)
	assert.Contains(t, out, `Saved model "income-tree"`)

	for _, p := range []string{reportPath, classPath, metricsPath, treePath} {
		info, err := os.Stat(p)
		require.NoError(t, err, p)
		assert.Greater(t, info.Size(), int64(0), p)
	}
	prom, err := os.ReadFile(metricsPath)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `tabml_fits_total{algorithm="tree"} 1`)

	store, err := registry.Open(filepath.Join(dir, "r.db"))
	require.NoError(t, err)
	defer store.Close()
	entry, err := store.Entry("income-tree")
	require.NoError(t, err)
	assert.Equal(t, "tree", entry.Algorithm)
	assert.Equal(t, []string{"age", "hours"}, entry.Features)
	assert.Contains(t, entry.Metrics, "accuracy")
}

func TestTrain_Errors(t *testing.T) {
	dir := t.TempDir()
	data := writeAdult(t, dir)

	_, err := execute(t, "train", "svm", "--data", data)
	assert.Error(t, err)

	_, err = execute(t, "train", "knn", "--data", data, "--render", filepath.Join(dir, "x.svg"))
	assert.Error(t, err)

	_, err = execute(t, "train", "knn", "--data", data, "--k", "0")
	assert.Error(t, err)

	_, err = execute(t, "train", "knn")
	assert.Error(t, err)
}

func TestEvaluate(t *testing.T) {
	dir := t.TempDir()
	data := writeAdult(t, dir)
	reportPath := filepath.Join(dir, "all.csv")

	out, err := execute(t, "evaluate", "--data", data, "--report", reportPath)
	require.NoError(t, err)
	for _, name := range []string{"Linear Regression", "Logistic Regression", "k-Nearest Neighbors", "Decision Tree (ID3)", "Gaussian Naive Bayes"} {
		assert.Contains(t, out, name)
	}

	csv, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	// header + rmse + 4 classifiers × (accuracy, macro_f1)
	assert.Equal(t, 10, strings.Count(string(csv), "\n"))
}

func TestEvaluate_OneAlgorithmFails(t *testing.T) {
	dir := t.TempDir()
	var b strings.Builder
	b.WriteString("age, zero, income\n")
	for i := 0; i < 30; i++ {
		fmt.Fprintf(&b, "%d, 0, <=50K\n", 20+i%10)
		fmt.Fprintf(&b, "%d, 0, >50K\n", 50+i%10)
	}
	data := filepath.Join(dir, "zero.csv")
	require.NoError(t, os.WriteFile(data, []byte(b.String()), 0o600))
	reportPath := filepath.Join(dir, "all.csv")

	// the zero column makes unregularized ridge singular
	out, err := execute(t, "evaluate", "--data", data, "--lambda", "0", "--report", reportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "failed: ")
	assert.Equal(t, 4, strings.Count(out, "  ok\n"))
	for _, name := range []string{"Logistic Regression", "k-Nearest Neighbors", "Decision Tree (ID3)", "Gaussian Naive Bayes"} {
		assert.Contains(t, out, name)
	}

	csv, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	// header + 4 classifiers × (accuracy, macro_f1), nothing for the failed ridge
	assert.Equal(t, 9, strings.Count(string(csv), "\n"))
	assert.NotContains(t, string(csv), "rmse")
}

func TestPredict_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	data := writeAdult(t, dir)
	db := filepath.Join(dir, "r.db")

	trainOut, err := execute(t, "train", "nb", "--data", data, "--seed", "7", "--registry", db, "--save", "nb1")
	require.NoError(t, err)

	predsPath := filepath.Join(dir, "preds.npy")
	out, err := execute(t, "predict", "--model", "nb1", "--data", data, "--registry", db, "--out", predsPath, "--show", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Model: nb1")
	assert.Contains(t, out, "0: predicted ")
	// predict does not train, so there is no training time to report
	assert.NotContains(t, out, "Training Time")

	// Same seed and split, so the reported accuracy matches training.
	accuracy := func(s string) string {
		for _, line := range strings.Split(s, "\n") {
			if strings.HasPrefix(line, "Test Accuracy") {
				return line
			}
		}
		return ""
	}
	assert.NotEmpty(t, accuracy(out))
	assert.Equal(t, accuracy(trainOut), accuracy(out))

	_, err = os.Stat(predsPath)
	assert.NoError(t, err)
}

func TestPredict_UnknownModel(t *testing.T) {
	dir := t.TempDir()
	data := writeAdult(t, dir)
	_, err := execute(t, "predict", "--model", "nope", "--data", data, "--registry", filepath.Join(dir, "r.db"))
	assert.ErrorIs(t, err, registry.ErrNotFound)

	_, err = execute(t, "predict", "--data", data)
	assert.Error(t, err)
}

func TestModels_ListAndDelete(t *testing.T) {
	dir := t.TempDir()
	data := writeAdult(t, dir)
	db := filepath.Join(dir, "r.db")

	_, err := execute(t, "train", "linear", "--data", data, "--registry", db, "--save", "ridge")
	require.NoError(t, err)

	out, err := execute(t, "models", "--registry", db)
	require.NoError(t, err)
	assert.Contains(t, out, "ridge")
	assert.Contains(t, out, "rmse=")

	out, err = execute(t, "models", "delete", "ridge", "--registry", db)
	require.NoError(t, err)
	assert.Contains(t, out, `Deleted model "ridge"`)

	_, err = execute(t, "models", "delete", "ridge", "--registry", db)
	assert.Error(t, err)
}

func TestConfigFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	data := writeAdult(t, dir)
	cfgPath := filepath.Join(dir, "tabml.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(fmt.Sprintf("data:\n  path: %s\nknn:\n  k: 3\n", data)), 0o600))

	out, err := execute(t, "train", "knn", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, "k-Nearest Neighbors")

	_, err = execute(t, "train", "knn", "--config", cfgPath, "--k", "0")
	assert.Error(t, err, "flags are validated after overriding the file")
}

func TestEnvironmentOverriddenByFlags(t *testing.T) {
	dir := t.TempDir()
	data := writeAdult(t, dir)
	t.Setenv("TABML_K", "0")

	out, err := execute(t, "train", "knn", "--data", data, "--k", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "k-Nearest Neighbors")

	_, err = execute(t, "train", "knn", "--data", data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuration validation failed")
}

func TestModelsDelete_RecoversPanic(t *testing.T) {
	dir := t.TempDir()
	data := writeAdult(t, dir)
	db := filepath.Join(dir, "r.db")
	_, err := execute(t, "train", "linear", "--data", data, "--registry", db, "--save", "ridge")
	require.NoError(t, err)

	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"models", "--registry", db})
	require.NoError(t, root.Execute())

	del, _, err := root.Find([]string{"models", "delete"})
	require.NoError(t, err)
	require.Equal(t, "delete <name>", del.Use)

	// a nil command panics when the confirmation is written
	var runErr error
	assert.NotPanics(t, func() { runErr = del.RunE(nil, []string{"ridge"}) })
	var pe *errors.PanicError
	require.True(t, errors.As(runErr, &pe))
	assert.Equal(t, "models delete", pe.Operation)
}
