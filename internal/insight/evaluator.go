// Package insight は健康シグナルの評価とインサイト生成スイープを提供する。
// 評価器は純粋関数であり、I/Oや副作用を持たない。
// バッチの境界（時間ウィンドウ）は呼び出し元が決める。
package insight

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/hitoshi/careloop/internal/model"
)

// ルールID。重複排除キーの導出に使用するため、変更すると
// 既存インサイトとの重複判定が無効になる。
const (
	ruleLabFollowUp       = "lab_followup"
	ruleElevatedHeartRate = "elevated_heart_rate"
)

// heartRateAlertThreshold はアラートを生成する心拍数の閾値（bpm、排他）。
const heartRateAlertThreshold = 100

// DedupeKey はルールIDと由来エンティティIDから重複排除キーを導出する。
// 同一ルール・同一由来に対して常に同一の値を返すため、
// 重複ウィンドウの再評価でインサイトが二重生成されない。
func DedupeKey(ruleID, sourceID string) string {
	sum := sha256.Sum256([]byte(ruleID + ":" + sourceID))
	return hex.EncodeToString(sum[:])
}

// EvaluateRecords は健康記録のバッチを評価し、インサイト候補を返す。
// record_typeがlab_resultの記録1件につき、フォローアップ推奨を1件生成する。
// その他の種別からは何も生成しない。
func EvaluateRecords(records []*model.HealthRecord) []model.InsightDraft {
	var drafts []model.InsightDraft

	for _, record := range records {
		if record.RecordType != model.RecordTypeLabResult {
			continue
		}
		drafts = append(drafts, model.InsightDraft{
			OwnerID:        record.OwnerID,
			Kind:           model.InsightKindRecommendation,
			Category:       model.InsightCategoryCheckup,
			Priority:       model.InsightPriorityMedium,
			Content:        "検査結果について相談するため、フォローアップの受診予約を検討してください。",
			SourceRecordID: record.ID,
			DedupeKey:      DedupeKey(ruleLabFollowUp, record.ID),
		})
	}

	return drafts
}

// EvaluateVitals はバイタルサインのバッチを評価し、インサイト候補を返す。
// 心拍数が閾値を超えるバイタル1件につき、アラートを1件生成する。
// 心拍数が未計測（nil）の場合はシグナルなしとしてスキップする。
func EvaluateVitals(vitals []*model.VitalSign) []model.InsightDraft {
	var drafts []model.InsightDraft

	for _, vital := range vitals {
		if vital.HeartRate == nil || *vital.HeartRate <= heartRateAlertThreshold {
			continue
		}
		drafts = append(drafts, model.InsightDraft{
			OwnerID:        vital.OwnerID,
			Kind:           model.InsightKindAlert,
			Category:       model.InsightCategoryExercise,
			Priority:       model.InsightPriorityHigh,
			Content:        "心拍数が上昇しています。休憩を取り、安静にすることを検討してください。",
			SourceRecordID: vital.ID,
			DedupeKey:      DedupeKey(ruleElevatedHeartRate, vital.ID),
		})
	}

	return drafts
}

// Evaluate は健康記録とバイタルサインのバッチをまとめて評価する。
func Evaluate(records []*model.HealthRecord, vitals []*model.VitalSign) []model.InsightDraft {
	drafts := EvaluateRecords(records)
	drafts = append(drafts, EvaluateVitals(vitals)...)
	return drafts
}
