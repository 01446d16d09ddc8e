// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/careloop/internal/model"
)

// HealthRecordRepository は健康記録の永続化インターフェース。
// スイープはウィンドウ指定の読み取りのみを行う（記録自体はイミュータブル）。
type HealthRecordRepository interface {
	// ListCreatedSince は指定時刻以降に作成された健康記録をcreated_at昇順で返す。
	ListCreatedSince(ctx context.Context, since time.Time) ([]*model.HealthRecord, error)
}

// VitalSignRepository はバイタルサインの永続化インターフェース。
type VitalSignRepository interface {
	// ListRecordedSince は指定時刻以降に計測されたバイタルをrecorded_at昇順で返す。
	ListRecordedSince(ctx context.Context, since time.Time) ([]*model.VitalSign, error)

	// ListAll は全バイタル履歴をrecorded_at昇順で返す。予測モデルの学習に使用する。
	ListAll(ctx context.Context) ([]*model.VitalSign, error)

	// ListLatestByOwner はバイタルを1件以上持つ各オーナーについて、
	// 最新の計測1件をオーナーごとに返す。
	ListLatestByOwner(ctx context.Context) ([]*model.VitalSign, error)
}

// MedicationWithOwner は服薬情報とオーナーの連絡先を結合した構造体。
type MedicationWithOwner struct {
	model.Medication
	OwnerEmail string
}

// MedicationRepository は服薬情報の永続化インターフェース。
type MedicationRepository interface {
	// ListActiveWithOwner はアクティブな服薬（end_date未設定かつstart_dateが指定時刻以前）を
	// オーナーのメールアドレス付きで返す。
	ListActiveWithOwner(ctx context.Context, now time.Time) ([]MedicationWithOwner, error)
}

// AppointmentWithOwner は診察予約とオーナーの連絡先を結合した構造体。
type AppointmentWithOwner struct {
	model.Appointment
	OwnerEmail string
}

// AppointmentRepository は診察予約の永続化インターフェース。
type AppointmentRepository interface {
	// ListUpcomingWithOwner は (from, until] の範囲に予定されている予約を
	// オーナーのメールアドレス付きでdate昇順に返す。
	ListUpcomingWithOwner(ctx context.Context, from, until time.Time) ([]AppointmentWithOwner, error)
}

// InsightRepository はインサイトの永続化インターフェース。
type InsightRepository interface {
	// CreateIfAbsent はインサイトを作成する。
	// 同一dedupe_keyの行が既に存在する場合は何もせずfalseを返す。
	CreateIfAbsent(ctx context.Context, insight *model.Insight) (bool, error)
}

// PredictionRepository は健康リスク予測の永続化インターフェース。
type PredictionRepository interface {
	// Create は予測を作成する。
	Create(ctx context.Context, prediction *model.Prediction) error
}
