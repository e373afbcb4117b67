package linear

import (
	"math"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// PivotTolerance is the smallest pivot magnitude SolveGaussian accepts.
const PivotTolerance = 1e-12

// SolveGaussian solves A·x = b by Gaussian elimination with partial pivoting.
// A must be square with len(b) rows. A and b are not modified.
//
// For each column the row with the largest absolute value at or below the
// diagonal becomes the pivot row; it is divided by the pivot and eliminated
// from the rows below. The solution is then recovered by back substitution.
// A pivot smaller than PivotTolerance in magnitude yields a
// *errors.SingularMatrixError.
func SolveGaussian(A [][]float64, b []float64) ([]float64, error) {
	n := len(b)
	if len(A) != n {
		return nil, errors.NewDimensionError("SolveGaussian", n, len(A), 0)
	}

	// 拡大係数行列 [A | b]
	m := make([][]float64, n)
	for i := range m {
		if len(A[i]) != n {
			return nil, errors.NewDimensionError("SolveGaussian", n, len(A[i]), 1)
		}
		m[i] = make([]float64, n+1)
		copy(m[i], A[i])
		m[i][n] = b[i]
	}

	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		m[col], m[pivot] = m[pivot], m[col]

		p := m[col][col]
		if math.Abs(p) < PivotTolerance {
			return nil, errors.NewSingularMatrixError("SolveGaussian", col, p)
		}
		for k := col; k <= n; k++ {
			m[col][k] /= p
		}

		for r := col + 1; r < n; r++ {
			f := m[r][col]
			if f == 0 {
				continue
			}
			for k := col; k <= n; k++ {
				m[r][k] -= f * m[col][k]
			}
		}
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		s := m[i][n]
		for k := i + 1; k < n; k++ {
			s -= m[i][k] * x[k]
		}
		x[i] = s
	}
	return x, nil
}
