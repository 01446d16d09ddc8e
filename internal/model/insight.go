// Package model はドメインモデルを定義する。
package model

import "time"

// InsightKind はインサイトの種別を表す。
type InsightKind string

const (
	// InsightKindHealthRisk は健康リスクの指摘。
	InsightKindHealthRisk InsightKind = "health_risk"
	// InsightKindRecommendation は行動の推奨。
	InsightKindRecommendation InsightKind = "recommendation"
	// InsightKindGoal は目標の提案。
	InsightKindGoal InsightKind = "goal"
	// InsightKindAlert は即時の注意喚起。
	InsightKindAlert InsightKind = "alert"
)

// InsightCategory はインサイトのカテゴリを表す。
type InsightCategory string

const (
	// InsightCategoryDiet は食事カテゴリ。
	InsightCategoryDiet InsightCategory = "diet"
	// InsightCategoryExercise は運動カテゴリ。
	InsightCategoryExercise InsightCategory = "exercise"
	// InsightCategorySleep は睡眠カテゴリ。
	InsightCategorySleep InsightCategory = "sleep"
	// InsightCategoryMedication は服薬カテゴリ。
	InsightCategoryMedication InsightCategory = "medication"
	// InsightCategoryCheckup は受診カテゴリ。
	InsightCategoryCheckup InsightCategory = "checkup"
	// InsightCategoryOther はその他カテゴリ。
	InsightCategoryOther InsightCategory = "other"
)

// InsightPriority はインサイトの優先度を表す。
type InsightPriority string

const (
	// InsightPriorityLow は低優先度。
	InsightPriorityLow InsightPriority = "low"
	// InsightPriorityMedium は中優先度。
	InsightPriorityMedium InsightPriority = "medium"
	// InsightPriorityHigh は高優先度。
	InsightPriorityHigh InsightPriority = "high"
)

// Insight は永続化済みのインサイト行を表す。
// スイープによる生成後は更新されない（ユーザーによる直接編集は対象外）。
type Insight struct {
	ID             string
	OwnerID        string
	Kind           InsightKind
	Category       InsightCategory
	Content        string
	Priority       InsightPriority
	SourceRecordID string // 由来する記録・バイタルのID。由来がない場合は空
	DedupeKey      string // ルールIDと由来エンティティIDから導出される重複排除キー
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// InsightDraft は評価器が生成する保存前のインサイト候補。
// DedupeKeyは同一の由来行・同一ルールに対して常に同一の値になる。
type InsightDraft struct {
	OwnerID        string
	Kind           InsightKind
	Category       InsightCategory
	Priority       InsightPriority
	Content        string
	SourceRecordID string
	DedupeKey      string
}

// Prediction は永続化済みの健康リスク予測を表す。
type Prediction struct {
	ID         string
	OwnerID    string
	Kind       string
	RiskScore  float64
	Confidence float64
	CreatedAt  time.Time
}

// PredictionKindHealthRisk は健康リスク予測の種別。
const PredictionKindHealthRisk = "health_risk"
