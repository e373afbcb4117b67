package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRegressionMetrics(t *testing.T) {
	type metricFn func(yTrue, yPred *mat.VecDense) (float64, error)

	tests := []struct {
		name    string
		fn      metricFn
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{
			name:  "MSE simple case",
			fn:    MSE,
			yTrue: mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			yPred: mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5}),
			want:  0.25, // (0.25 * 4) / 4
		},
		{
			name:  "MSE larger errors",
			fn:    MSE,
			yTrue: mat.NewVecDense(3, []float64{10.0, 20.0, 30.0}),
			yPred: mat.NewVecDense(3, []float64{12.0, 18.0, 33.0}),
			want:  17.0 / 3.0,
		},
		{
			name:  "RMSE of identical vectors",
			fn:    RMSE,
			yTrue: mat.NewVecDense(3, []float64{0.1, 1e9, -7.25}),
			yPred: mat.NewVecDense(3, []float64{0.1, 1e9, -7.25}),
			want:  0.0,
		},
		{
			name:  "RMSE simple case",
			fn:    RMSE,
			yTrue: mat.NewVecDense(2, []float64{0, 0}),
			yPred: mat.NewVecDense(2, []float64{3, 4}),
			want:  math.Sqrt(12.5),
		},
		{
			name:  "MAE",
			fn:    MAE,
			yTrue: mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred: mat.NewVecDense(3, []float64{2, 2, 1}),
			want:  1.0,
		},
		{
			name:  "R2 perfect prediction",
			fn:    R2Score,
			yTrue: mat.NewVecDense(3, []float64{1, 2, 3}),
			yPred: mat.NewVecDense(3, []float64{1, 2, 3}),
			want:  1.0,
		},
		{
			name:  "R2 worse than mean baseline",
			fn:    R2Score,
			yTrue: mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			yPred: mat.NewVecDense(4, []float64{4.0, 3.0, 2.0, 1.0}),
			want:  -3.0,
		},
		{
			name:    "R2 no variance in yTrue",
			fn:      R2Score,
			yTrue:   mat.NewVecDense(3, []float64{3, 3, 3}),
			yPred:   mat.NewVecDense(3, []float64{2, 3, 4}),
			wantErr: true,
		},
		{
			name:    "dimension mismatch",
			fn:      MSE,
			yTrue:   mat.NewVecDense(3, []float64{1.0, 2.0, 3.0}),
			yPred:   mat.NewVecDense(2, []float64{1.0, 2.0}),
			wantErr: true,
		},
		{
			name:    "empty vectors",
			fn:      RMSE,
			yTrue:   &mat.VecDense{},
			yPred:   &mat.VecDense{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatrixVariants(t *testing.T) {
	yTrue := mat.NewDense(4, 1, []float64{1.0, 2.0, 3.0, 4.0})
	yPred := mat.NewDense(4, 1, []float64{1.5, 2.5, 2.5, 3.5})

	mse, err := MSEMatrix(yTrue, yPred)
	if err != nil || math.Abs(mse-0.25) > 1e-12 {
		t.Errorf("MSEMatrix() = %v, %v", mse, err)
	}
	rmse, err := RMSEMatrix(yTrue, yPred)
	if err != nil || math.Abs(rmse-0.5) > 1e-12 {
		t.Errorf("RMSEMatrix() = %v, %v", rmse, err)
	}

	wide := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if _, err := MSEMatrix(wide, wide); err == nil {
		t.Error("expected error for multi-column input")
	}
	if _, err := RMSEMatrix(yTrue, mat.NewDense(3, 1, nil)); err == nil {
		t.Error("expected error for row mismatch")
	}
}

func BenchmarkMSE(b *testing.B) {
	size := 10000
	yTrue := mat.NewVecDense(size, nil)
	yPred := mat.NewVecDense(size, nil)
	for i := 0; i < size; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.1*float64(i%10))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
