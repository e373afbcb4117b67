// Package dataset loads tabular data from CSV or .npy files and splits it into
// train and test partitions.
package dataset

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// DefaultPositiveLabel is the target value encoded as 1 in binary mode.
const DefaultPositiveLabel = ">50K"

// Dataset holds a feature matrix and its encoded target. Rows of X are
// rectangular.
type Dataset struct {
	// Headers lists every CSV column, target included, with spaces removed.
	Headers []string
	// FeatureNames lists the columns of X in order.
	FeatureNames []string
	// Target is the index of the target column in Headers, or -1 when the
	// data did not come from a CSV file.
	Target int

	X [][]float64
	Y []float64
}

// NSamples returns the number of rows.
func (d *Dataset) NSamples() int { return len(d.X) }

// NFeatures returns the number of feature columns.
func (d *Dataset) NFeatures() int {
	if len(d.X) == 0 {
		return len(d.FeatureNames)
	}
	return len(d.X[0])
}

// Matrix returns X as a dense matrix.
func (d *Dataset) Matrix() *mat.Dense {
	return denseOf(d.X)
}

// Labels converts Y to integer class labels.
func (d *Dataset) Labels() []int {
	return toLabels(d.Y)
}

func (d *Dataset) validate() error {
	if len(d.X) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "dataset has no rows")
	}
	if len(d.Y) != len(d.X) {
		return errors.NewDimensionError("dataset", len(d.X), len(d.Y), 0)
	}
	w := len(d.X[0])
	for _, row := range d.X {
		if len(row) != w {
			return errors.NewDimensionError("dataset", w, len(row), 1)
		}
	}
	return nil
}

func denseOf(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return &mat.Dense{}
	}
	m := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, r := range rows {
		m.SetRow(i, r)
	}
	return m
}

func toLabels(y []float64) []int {
	out := make([]int, len(y))
	for i, v := range y {
		out[i] = int(v)
	}
	return out
}
