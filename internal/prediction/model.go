// Package prediction は健康リスク予測モデルと更新スイープを提供する。
package prediction

import (
	"errors"
	"math"
)

// RiskModel はバイタル特徴量から健康リスクスコアを推定するモデル。
// 実装は差し替え可能で、Fitで学習しPredictで推論する。
type RiskModel interface {
	// Fit は特徴量行列とラベルでモデルを学習する。
	Fit(features [][]float64, labels []float64) error
	// Predict は特徴量ベクトルからリスクスコア [0, 1] を返す。
	Predict(features []float64) (float64, error)
}

// 特徴量ベクトルの構成: [心拍数, 収縮期血圧, 拡張期血圧]
const featureCount = 3

// ErrNotFitted は未学習のモデルで推論した場合のエラー。
var ErrNotFitted = errors.New("モデルが学習されていません")

// ErrNoTrainingData は学習データが空の場合のエラー。
var ErrNoTrainingData = errors.New("学習データがありません")

// BaselineModel は母集団統計に基づく決定論的なベースラインモデル。
// 各特徴量の平均・標準偏差を学習し、推論時には母集団からの
// 正規化距離をロジスティック関数でリスクスコアに変換する。
// 同じ学習データと入力に対して常に同じスコアを返す。
type BaselineModel struct {
	means  []float64
	stddev []float64
	fitted bool
}

// NewBaselineModel はBaselineModelの新しいインスタンスを生成する。
func NewBaselineModel() *BaselineModel {
	return &BaselineModel{}
}

// Fit は特徴量行列から各列の平均と標準偏差を計算する。
// ラベルはベースラインモデルでは使用しない。
func (m *BaselineModel) Fit(features [][]float64, labels []float64) error {
	if len(features) == 0 {
		return ErrNoTrainingData
	}
	for _, row := range features {
		if len(row) != featureCount {
			return errors.New("特徴量ベクトルの次元が不正です")
		}
	}

	means := make([]float64, featureCount)
	for _, row := range features {
		for i, v := range row {
			means[i] += v
		}
	}
	n := float64(len(features))
	for i := range means {
		means[i] /= n
	}

	stddev := make([]float64, featureCount)
	for _, row := range features {
		for i, v := range row {
			d := v - means[i]
			stddev[i] += d * d
		}
	}
	for i := range stddev {
		stddev[i] = math.Sqrt(stddev[i] / n)
		// 分散ゼロの列は距離計算から実質除外する
		if stddev[i] == 0 {
			stddev[i] = 1
		}
	}

	m.means = means
	m.stddev = stddev
	m.fitted = true
	return nil
}

// Predict は母集団からの正規化距離をロジスティック関数で [0, 1] に写像する。
// 母集団の中心に近いほど低リスク、外れるほど高リスクとなる。
func (m *BaselineModel) Predict(features []float64) (float64, error) {
	if !m.fitted {
		return 0, ErrNotFitted
	}
	if len(features) != featureCount {
		return 0, errors.New("特徴量ベクトルの次元が不正です")
	}

	var sum float64
	for i, v := range features {
		z := (v - m.means[i]) / m.stddev[i]
		sum += z * z
	}
	distance := math.Sqrt(sum / featureCount)

	// distance 0 → スコア約0.05、distance 3（3σ相当）→ スコア約0.8
	score := 1 / (1 + math.Exp(-(1.5*distance - 3)))
	return score, nil
}

var _ RiskModel = (*BaselineModel)(nil)
