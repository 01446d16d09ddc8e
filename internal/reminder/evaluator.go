// Package reminder は服薬・診察予約リマインダーの評価と送信スイープを提供する。
// 評価器は純粋ロジックであり、I/Oを持たない。評価時刻は引数で明示的に受け取る。
package reminder

import (
	"fmt"
	"time"

	"github.com/hitoshi/careloop/internal/model"
	"github.com/hitoshi/careloop/internal/repository"
	"github.com/hitoshi/careloop/internal/security"
)

// Evaluator はリマインダー条件の評価器。
// ユーザー入力（薬剤名、医師名など）は通知本文に埋め込む前にサニタイズする。
type Evaluator struct {
	sanitizer security.TextSanitizerService

	// AppointmentLookahead は予約リマインダーの対象範囲（デフォルト24時間）。
	AppointmentLookahead time.Duration
	// AppointmentLeadTime は予約前の通知開始時間（デフォルト1時間）。
	AppointmentLeadTime time.Duration
}

// NewEvaluator はEvaluatorの新しいインスタンスを生成する。
func NewEvaluator(sanitizer security.TextSanitizerService) *Evaluator {
	return &Evaluator{
		sanitizer:            sanitizer,
		AppointmentLookahead: 24 * time.Hour,
		AppointmentLeadTime:  time.Hour,
	}
}

// MedicationReminders はアクティブな服薬に対する通知要求を返す。
// アクティブ（end_date未設定かつstart_dateが評価時刻以前）な服薬1件につき
// 呼び出しごとに1件の通知を無条件に生成する。
// 服用スケジュール（時刻・頻度）との突き合わせは現時点のポリシーでは行わない。
func (e *Evaluator) MedicationReminders(meds []repository.MedicationWithOwner, now time.Time) []model.NotificationRequest {
	var requests []model.NotificationRequest

	for _, med := range meds {
		if !med.IsActiveAt(now) {
			continue
		}

		name := e.sanitizer.Sanitize(med.Name)
		dosage := e.sanitizer.Sanitize(med.Dosage)

		requests = append(requests, model.NotificationRequest{
			Recipient: med.OwnerEmail,
			Subject:   fmt.Sprintf("服薬リマインダー: %s", name),
			Body:      fmt.Sprintf("%s（%s）の服用時間です。", name, dosage),
			DueAt:     now,
		})
	}

	return requests
}

// AppointmentReminders は直近の診察予約に対する通知要求を返す。
// 対象: now < date <= now+lookahead の予約のうち、
// 予約時刻のleadTime前を過ぎたもの（now >= date - leadTime）。
// 通知順序は入力順に従い、特別な保証はない。
func (e *Evaluator) AppointmentReminders(appointments []repository.AppointmentWithOwner, now time.Time) []model.NotificationRequest {
	var requests []model.NotificationRequest

	for _, appt := range appointments {
		// 過ぎた予約・対象範囲外の予約は除外
		if !appt.Date.After(now) || appt.Date.After(now.Add(e.AppointmentLookahead)) {
			continue
		}
		// 通知開始時間より前はまだ通知しない
		reminderAt := appt.Date.Add(-e.AppointmentLeadTime)
		if now.Before(reminderAt) {
			continue
		}

		doctor := e.sanitizer.Sanitize(appt.Doctor)
		location := e.sanitizer.Sanitize(appt.Location)

		body := fmt.Sprintf("%s との診察予約が %s にあります。",
			doctor, appt.Date.Format("2006-01-02 15:04"))
		if location != "" {
			body += fmt.Sprintf(" 場所: %s", location)
		}

		requests = append(requests, model.NotificationRequest{
			Recipient: appt.OwnerEmail,
			Subject:   fmt.Sprintf("診察予約リマインダー: %s", doctor),
			Body:      body,
			DueAt:     reminderAt,
		})
	}

	return requests
}
