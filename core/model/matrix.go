package model

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// CheckXY validates that X is non-empty and that y is a column vector with
// one entry per row of X.
func CheckXY(op string, X, y mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.Wrapf(errors.ErrEmptyData, "%s", op)
	}
	yr, yc := y.Dims()
	if yc != 1 {
		return errors.NewDimensionError(op, 1, yc, 1)
	}
	if yr != r {
		return errors.NewDimensionError(op, r, yr, 0)
	}
	return nil
}

// Rows copies X into a slice of rows.
func Rows(X mat.Matrix) [][]float64 {
	r, c := X.Dims()
	rows := make([][]float64, r)
	if d, ok := X.(mat.RawMatrixer); ok {
		raw := d.RawMatrix()
		for i := range rows {
			rows[i] = append([]float64(nil), raw.Data[i*raw.Stride:i*raw.Stride+c]...)
		}
		return rows
	}
	for i := range rows {
		row := make([]float64, c)
		for j := range row {
			row[j] = X.At(i, j)
		}
		rows[i] = row
	}
	return rows
}

// Targets copies the first column of y.
func Targets(y mat.Matrix) []float64 {
	r, _ := y.Dims()
	out := make([]float64, r)
	for i := range out {
		out[i] = y.At(i, 0)
	}
	return out
}

// Labels converts the first column of y to integer class labels. Non-integral
// or non-finite values are rejected.
func Labels(op string, y mat.Matrix) ([]int, error) {
	r, _ := y.Dims()
	out := make([]int, r)
	for i := range out {
		v := y.At(i, 0)
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return nil, errors.NewValueError(op, fmt.Sprintf("label at row %d is not an integer: %v", i, v))
		}
		out[i] = int(v)
	}
	return out, nil
}

// ColumnVector wraps values in an n×1 matrix.
func ColumnVector(values []float64) *mat.Dense {
	return mat.NewDense(len(values), 1, values)
}

// LabelVector converts integer labels to an n×1 matrix.
func LabelVector(labels []int) *mat.Dense {
	values := make([]float64, len(labels))
	for i, l := range labels {
		values[i] = float64(l)
	}
	return ColumnVector(values)
}
