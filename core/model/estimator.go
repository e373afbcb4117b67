// Package model は全ての推定器が共有するインターフェースと補助型を提供します。
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う。戻り値は n×1 の列ベクトル
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer はスコアを計算できるモデルのインターフェース
type Scorer interface {
	// Score は分類器では正解率、回帰器では決定係数R²を返す
	Score(X, y mat.Matrix) (float64, error)
}

// Estimator は教師あり学習モデルの基本インターフェース
type Estimator interface {
	Fitter
	Predictor
	Scorer

	// IsFitted はモデルが学習済みかどうかを返す
	IsFitted() bool
}

// Classifier は分類器のインターフェース
type Classifier interface {
	Estimator

	// Classes は学習時に観測したクラスラベルを昇順で返す
	Classes() []int
}

// ProbabilisticClassifier は確率を出力できる分類器のインターフェース
type ProbabilisticClassifier interface {
	Classifier

	// PredictProba は各クラスの確率を n×len(Classes()) の行列で返す
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Regressor は回帰器のインターフェース
type Regressor interface {
	Estimator
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Weights は学習された重み（係数）を返す
	Weights() []float64
	// Intercept は学習された切片を返す
	Intercept() float64
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter はハイパーパラメータを公開するモデルのインターフェース
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// ParameterSetter はハイパーパラメータを変更できるモデルのインターフェース
type ParameterSetter interface {
	SetParams(params map[string]interface{}) error
}
