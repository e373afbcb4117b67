package linear

// RidgeOption はRidgeを設定する関数
type RidgeOption func(*Ridge)

// WithLambda はL2正則化の強さを設定する。バイアスには適用されない
func WithLambda(lambda float64) RidgeOption {
	return func(r *Ridge) {
		r.lambda = lambda
	}
}
