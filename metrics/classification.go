package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/tabml/pkg/errors"
)

// Accuracy は正解率（予測が一致したサンプルの割合）を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVecs("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// AccuracyMatrix は n×1 行列形式の入力に対して正解率を計算する
func AccuracyMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	t, p, err := columnPair("AccuracyMatrix", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return Accuracy(t, p)
}

// ClassificationError は誤分類率（1 - 正解率）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1 - acc, nil
}

// BinaryLogLoss は二値分類の対数損失を計算する。
// yTrue は0または1、yPred は陽性クラスの確率でなければならない
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVecs("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// log(0) を避けるためにクリップする
	const eps = 1e-15
	var sum float64
	for i := 0; i < n; i++ {
		y := yTrue.AtVec(i)
		if y != 0 && y != 1 {
			return 0, errors.NewValueError("BinaryLogLoss", fmt.Sprintf("labels must be 0 or 1, got %v at index %d", y, i))
		}
		p := errors.ClipValue(yPred.AtVec(i), eps, 1-eps)
		sum += y*math.Log(p) + (1-y)*math.Log(1-p)
	}
	return -sum / float64(n), nil
}

// ClassReport はクラスごとの適合率・再現率・F1スコア
type ClassReport struct {
	Label     int     `csv:"label"`
	Precision float64 `csv:"precision"`
	Recall    float64 `csv:"recall"`
	F1        float64 `csv:"f1"`
	Support   int     `csv:"support"`
}

func checkLabels(op string, yTrue, yPred []int) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty label vector")
	}
	if len(yPred) != len(yTrue) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	return nil
}

// AccuracyScore は整数ラベル同士の正解率を計算する
func AccuracyScore(yTrue, yPred []int) (float64, error) {
	if err := checkLabels("AccuracyScore", yTrue, yPred); err != nil {
		return 0, err
	}
	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue)), nil
}

// PrecisionRecallF1 はyTrueに現れる各ラベルについて適合率・再現率・F1を昇順で返す。
// 分母が0になる指標は0とし、UndefinedMetricWarningを発行する
func PrecisionRecallF1(yTrue, yPred []int) ([]ClassReport, error) {
	if err := checkLabels("PrecisionRecallF1", yTrue, yPred); err != nil {
		return nil, err
	}

	labels := uniqueSorted(yTrue)
	reports := make([]ClassReport, len(labels))
	for k, label := range labels {
		var tp, fp, fn int
		for i := range yTrue {
			switch {
			case yPred[i] == label && yTrue[i] == label:
				tp++
			case yPred[i] == label:
				fp++
			case yTrue[i] == label:
				fn++
			}
		}

		r := ClassReport{Label: label, Support: tp + fn}
		if tp+fp > 0 {
			r.Precision = float64(tp) / float64(tp+fp)
		} else {
			errors.Warn(errors.NewUndefinedMetricWarning("precision",
				fmt.Sprintf("no predicted samples for label %d", label), 0))
		}
		// yTrueに現れるラベルなので tp+fn > 0
		r.Recall = float64(tp) / float64(tp+fn)
		if r.Precision+r.Recall > 0 {
			r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
		}
		reports[k] = r
	}
	return reports, nil
}

// MacroF1 はyTrueに現れるラベルについてF1スコアを単純平均する
func MacroF1(yTrue, yPred []int) (float64, error) {
	reports, err := PrecisionRecallF1(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return MacroF1FromReports(reports), nil
}

// MacroF1FromReports は計算済みのクラス別レポートからF1の単純平均を求める。
// 空のレポートには0を返す
func MacroF1FromReports(reports []ClassReport) float64 {
	if len(reports) == 0 {
		return 0
	}
	var sum float64
	for _, r := range reports {
		sum += r.F1
	}
	return sum / float64(len(reports))
}

// ConfusionMatrix は混同行列を返す。行が正解、列が予測で、
// ラベル順はyTrueとyPredの和集合の昇順
func ConfusionMatrix(yTrue, yPred []int) (*mat.Dense, []int, error) {
	if err := checkLabels("ConfusionMatrix", yTrue, yPred); err != nil {
		return nil, nil, err
	}
	labels := uniqueSorted(append(append([]int(nil), yTrue...), yPred...))
	index := make(map[int]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := range yTrue {
		r, c := index[yTrue[i]], index[yPred[i]]
		cm.Set(r, c, cm.At(r, c)+1)
	}
	return cm, labels, nil
}

func uniqueSorted(values []int) []int {
	seen := make(map[int]struct{}, len(values))
	out := make([]int, 0)
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}
