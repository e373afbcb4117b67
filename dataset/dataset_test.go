package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

const adult = `age, workclass, hours, income
39, State-gov, 40, <=50K
50, Self-emp, 13, >50K
38, Private, 40, <=50K
53, Private, 40, >50K
`

func TestReadHeader(t *testing.T) {
	headers, err := ReadHeader(strings.NewReader(adult))
	require.NoError(t, err)
	assert.Equal(t, []string{"age", "workclass", "hours", "income"}, headers)

	_, err = ReadHeader(strings.NewReader(""))
	assert.True(t, errors.Is(err, errors.ErrEmptyData))
}

func TestReadCSV_BinaryTarget(t *testing.T) {
	var warnings []error
	errors.SetWarningHandler(func(w error) { warnings = append(warnings, w) })
	defer errors.SetWarningHandler(func(error) {})

	d, err := ReadCSV(strings.NewReader(adult), CSVOptions{Target: 3})
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "workclass", "hours"}, d.FeatureNames)
	assert.Equal(t, 4, d.NSamples())
	assert.Equal(t, 3, d.NFeatures())
	assert.Equal(t, []float64{0, 1, 0, 1}, d.Y)
	assert.Equal(t, []int{0, 1, 0, 1}, d.Labels())
	// workclass is not numeric and becomes 0
	assert.Equal(t, []float64{50, 0, 13}, d.X[1])

	require.Len(t, warnings, 1)
	var dcw *errors.DataConversionWarning
	require.True(t, errors.As(warnings[0], &dcw))
	assert.Contains(t, dcw.Reason, "workclass")
}

func TestReadCSV_TargetInTheMiddle(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	d, err := ReadCSV(strings.NewReader(adult), CSVOptions{Target: 0, Mode: TargetNumeric})
	require.NoError(t, err)
	assert.Equal(t, []float64{39, 50, 38, 53}, d.Y)
	assert.Equal(t, []string{"workclass", "hours", "income"}, d.FeatureNames)
}

func TestReadCSV_NegativeTarget(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	d, err := ReadCSV(strings.NewReader(adult), CSVOptions{Target: -1})
	require.NoError(t, err)
	assert.Equal(t, 3, d.Target)
	assert.Equal(t, []float64{0, 1, 0, 1}, d.Y)
}

func TestReadCSV_CustomPositiveLabel(t *testing.T) {
	in := "x,label\n1,yes\n2,no\n3, yes \n"
	d, err := ReadCSV(strings.NewReader(in), CSVOptions{Target: 1, PositiveLabel: "yes"})
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 0, 1}, d.Y)
	assert.True(t, mat.Equal(mat.NewDense(3, 1, []float64{1, 2, 3}), d.Matrix()))
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(adult), CSVOptions{Target: 4})
	var ve *errors.ValidationError
	assert.True(t, errors.As(err, &ve))
	_, err = ReadCSV(strings.NewReader(adult), CSVOptions{Target: -5})
	assert.True(t, errors.As(err, &ve))

	_, err = ReadCSV(strings.NewReader("a,b\n"), CSVOptions{Target: 1})
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	_, err = ReadCSV(strings.NewReader("a,b\n1,2\n3\n"), CSVOptions{Target: 1})
	assert.Error(t, err)
}

func TestParseTargetMode(t *testing.T) {
	m, err := ParseTargetMode("numeric")
	require.NoError(t, err)
	assert.Equal(t, TargetNumeric, m)

	m, err = ParseTargetMode("")
	require.NoError(t, err)
	assert.Equal(t, TargetBinary, m)

	_, err = ParseTargetMode("ordinal")
	assert.Error(t, err)
}

func TestLoadCSV(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	path := filepath.Join(t.TempDir(), "adult.csv")
	require.NoError(t, os.WriteFile(path, []byte(adult), 0o600))

	headers, err := ReadHeaderFile(path)
	require.NoError(t, err)
	assert.Len(t, headers, 4)

	d, err := LoadCSV(path, CSVOptions{Target: 3})
	require.NoError(t, err)
	assert.Equal(t, 4, d.NSamples())

	_, err = LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), CSVOptions{})
	assert.Error(t, err)
}

func seqDataset(n int) *Dataset {
	d := &Dataset{Target: -1}
	for i := 0; i < n; i++ {
		d.X = append(d.X, []float64{float64(i)})
		d.Y = append(d.Y, float64(i%2))
	}
	return d
}

func TestSplit(t *testing.T) {
	d := seqDataset(11)
	s, err := d.Split(DefaultTrainFraction, 42)
	require.NoError(t, err)

	// floor(11 * 0.8) = 8
	assert.Len(t, s.XTrain, 8)
	assert.Len(t, s.XTest, 3)
	assert.Len(t, s.YTrain, 8)
	assert.Len(t, s.YTest, 3)

	// every row lands exactly once and keeps its target
	seen := make(map[float64]bool)
	for i, x := range append(append([][]float64{}, s.XTrain...), s.XTest...) {
		assert.False(t, seen[x[0]])
		seen[x[0]] = true
		y := append(append([]float64{}, s.YTrain...), s.YTest...)[i]
		assert.Equal(t, float64(int(x[0])%2), y)
	}
	assert.Len(t, seen, 11)

	r, c := s.TrainMatrix().Dims()
	assert.Equal(t, 8, r)
	assert.Equal(t, 1, c)
	r, _ = s.TestTargets().Dims()
	assert.Equal(t, 3, r)
	assert.Len(t, s.TestLabels(), 3)
}

func TestSplit_Deterministic(t *testing.T) {
	d := seqDataset(50)
	a, err := d.Split(0.8, 7)
	require.NoError(t, err)
	b, err := d.Split(0.8, 7)
	require.NoError(t, err)
	assert.Equal(t, a.Perm, b.Perm)

	c, err := d.Split(0.8, 8)
	require.NoError(t, err)
	assert.NotEqual(t, a.Perm, c.Perm)
}

func TestSplit_Errors(t *testing.T) {
	var ve *errors.ValidationError
	_, err := seqDataset(10).Split(1.0, 1)
	assert.True(t, errors.As(err, &ve))

	var vae *errors.ValueError
	_, err = seqDataset(1).Split(0.8, 1)
	assert.True(t, errors.As(err, &vae))
}

func TestNPYRoundTrip(t *testing.T) {
	dir := t.TempDir()
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := []float64{0, 1, 1}

	var buf bytes.Buffer
	require.NoError(t, WriteNPY(&buf, X))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "X.npy"), buf.Bytes(), 0o600))
	buf.Reset()
	require.NoError(t, WriteNPYVector(&buf, y))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "y.npy"), buf.Bytes(), 0o600))

	d, err := LoadNPY(filepath.Join(dir, "X.npy"), filepath.Join(dir, "y.npy"))
	require.NoError(t, err)
	assert.Equal(t, []string{"x0", "x1"}, d.FeatureNames)
	assert.Equal(t, -1, d.Target)
	assert.Equal(t, y, d.Y)
	assert.True(t, mat.Equal(X, d.Matrix()))
}
