// Package linear は線形モデル（リッジ回帰とロジスティック回帰）を提供します。
package linear

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/core/model"
	"github.com/YuminosukeSato/tabml/core/parallel"
	"github.com/YuminosukeSato/tabml/metrics"
	"github.com/YuminosukeSato/tabml/pkg/errors"
	"github.com/YuminosukeSato/tabml/pkg/log"
)

// DefaultLambda はリッジ回帰の正則化係数の既定値
const DefaultLambda = 0.1

// FitRidge はリッジ回帰の重みを閉形式で求める。
//
// 各行の末尾に定数1を付加し、正規方程式 (XᵀX + λI')w = Xᵀy を
// SolveGaussian で解く。I' は対角の最後（バイアス）だけ0の単位行列で、
// バイアスは正則化しない。戻り値は長さ d+1 で、最後の要素がバイアス。
// 行列が特異な場合は *errors.SingularMatrixError を返す。
func FitRidge(X [][]float64, y []float64, lambda float64) ([]float64, error) {
	n := len(X)
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "FitRidge")
	}
	if len(y) != n {
		return nil, errors.NewDimensionError("FitRidge", n, len(y), 0)
	}
	d := len(X[0])

	// 切片項のために X に 1 の列を追加（最後の列）
	Xa := mat.NewDense(n, d+1, nil)
	for i, row := range X {
		if len(row) != d {
			return nil, errors.NewDimensionError("FitRidge", d, len(row), 1)
		}
		for j, v := range row {
			Xa.Set(i, j, v)
		}
		Xa.Set(i, d, 1)
	}
	yv := mat.NewVecDense(n, append([]float64(nil), y...))

	// A = XᵀX, b = Xᵀy
	var A mat.Dense
	A.Mul(Xa.T(), Xa)
	var b mat.VecDense
	b.MulVec(Xa.T(), yv)

	rows := make([][]float64, d+1)
	for i := range rows {
		rows[i] = mat.Row(nil, i, &A)
		if i < d {
			rows[i][i] += lambda
		}
	}

	w, err := SolveGaussian(rows, b.RawVector().Data)
	if err != nil {
		return nil, errors.Wrap(err, "FitRidge")
	}
	return w, nil
}

// PredictLinear は bias + Σ w[j]·x[j] を各行について計算する。
// weights は FitRidge の戻り値（最後がバイアス）
func PredictLinear(weights []float64, X [][]float64) []float64 {
	d := len(weights) - 1
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = dot(weights[:d], x) + weights[d]
	}
	return out
}

func dot(w, x []float64) float64 {
	return floats.Dot(w, x)
}

// Ridge はリッジ回帰モデル
type Ridge struct {
	state  *model.StateManager
	lambda float64

	coef_      []float64 // 重み（係数）
	intercept_ float64   // 切片

	logger log.Logger
}

// NewRidge は新しいリッジ回帰モデルを作成する
func NewRidge(opts ...RidgeOption) *Ridge {
	r := &Ridge{
		state:  model.NewStateManager(),
		lambda: DefaultLambda,
		logger: log.GetLoggerWithName("linear"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fit はモデルを訓練データで学習させる
func (r *Ridge) Fit(X, y mat.Matrix) error {
	if r.lambda < 0 {
		return errors.NewValidationError("lambda", "must be >= 0", r.lambda)
	}
	if err := model.CheckXY("Ridge.Fit", X, y); err != nil {
		return err
	}

	start := time.Now()
	w, err := FitRidge(model.Rows(X), model.Targets(y), r.lambda)
	if err != nil {
		if errors.Is(err, errors.ErrSingularMatrix) {
			r.logger.Error("ridge fit failed", err,
				log.ModelNameKey, "Ridge",
				log.LambdaKey, r.lambda,
				log.ErrorCodeKey, log.ErrorSingularMatrix,
			)
		}
		return err
	}

	n, d := X.Dims()
	r.coef_ = w[:d]
	r.intercept_ = w[d]
	r.state.SetDimensions(d, n)
	r.state.SetFitted()

	r.logger.Debug("fit complete",
		log.ModelNameKey, "Ridge",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, n,
		log.FeaturesKey, d,
		log.LambdaKey, r.lambda,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return nil
}

// Predict は入力データに対する予測を行う
func (r *Ridge) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := r.state.RequireFitted("Ridge", "Predict"); err != nil {
		return nil, err
	}
	if err := r.state.RequireFeatures("Ridge.Predict", X); err != nil {
		return nil, err
	}

	rows := model.Rows(X)
	out := make([]float64, len(rows))
	parallel.ParallelizeWithThreshold(len(rows), parallel.DefaultThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = dot(r.coef_, rows[i]) + r.intercept_
		}
	})
	return model.ColumnVector(out), nil
}

// Score はモデルの決定係数（R²）を計算する
func (r *Ridge) Score(X, y mat.Matrix) (float64, error) {
	yPred, err := r.Predict(X)
	if err != nil {
		return 0, err
	}
	t := model.Targets(y)
	p := model.Targets(yPred)
	if len(p) != len(t) {
		return 0, errors.NewDimensionError("Ridge.Score", len(p), len(t), 0)
	}
	return metrics.R2Score(mat.NewVecDense(len(t), t), mat.NewVecDense(len(p), p))
}

// IsFitted はモデルが学習済みかどうかを返す
func (r *Ridge) IsFitted() bool {
	return r.state.IsFitted()
}

// Weights は学習された重み（係数）を返す
func (r *Ridge) Weights() []float64 {
	return append([]float64(nil), r.coef_...)
}

// Intercept は学習された切片を返す
func (r *Ridge) Intercept() float64 {
	return r.intercept_
}

// GetParams はハイパーパラメータを返す
func (r *Ridge) GetParams() map[string]interface{} {
	return map[string]interface{}{"lambda": r.lambda}
}

// SetParams はハイパーパラメータを設定する
func (r *Ridge) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		switch key {
		case "lambda":
			v, ok := toFloat(value)
			if !ok || v < 0 {
				return errors.NewValidationError(key, "must be a non-negative number", value)
			}
			r.lambda = v
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
	}
	return nil
}

type ridgeSnapshot struct {
	State     model.ModelState
	Lambda    float64
	Coef      []float64
	Intercept float64
}

// MarshalBinary はモデルをgobでエンコードする
func (r *Ridge) MarshalBinary() ([]byte, error) {
	return model.EncodeSnapshot(ridgeSnapshot{
		State:     r.state.GetState(),
		Lambda:    r.lambda,
		Coef:      r.coef_,
		Intercept: r.intercept_,
	})
}

// UnmarshalBinary は MarshalBinary の出力からモデルを復元する
func (r *Ridge) UnmarshalBinary(data []byte) error {
	var s ridgeSnapshot
	if err := model.DecodeSnapshot(data, &s); err != nil {
		return err
	}
	if r.state == nil {
		r.state = model.NewStateManager()
	}
	if r.logger == nil {
		r.logger = log.GetLoggerWithName("linear")
	}
	r.state.SetState(s.State)
	r.lambda = s.Lambda
	r.coef_ = s.Coef
	r.intercept_ = s.Intercept
	return nil
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}
