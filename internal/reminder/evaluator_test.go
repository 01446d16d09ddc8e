package reminder

import (
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/careloop/internal/model"
	"github.com/hitoshi/careloop/internal/repository"
	"github.com/hitoshi/careloop/internal/security"
)

func datePtr(t time.Time) *time.Time { return &t }

func newTestEvaluator() *Evaluator {
	return NewEvaluator(security.NewTextSanitizer())
}

// --- 服薬リマインダー ---

func TestMedicationReminders_ActiveMedication(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	meds := []repository.MedicationWithOwner{
		{
			Medication: model.Medication{
				ID:        "med-1",
				Name:      "アムロジピン",
				Dosage:    "5mg",
				StartDate: now.AddDate(0, -1, 0),
			},
			OwnerEmail: "taro@example.com",
		},
	}

	requests := newTestEvaluator().MedicationReminders(meds, now)

	if len(requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(requests))
	}
	req := requests[0]
	if req.Recipient != "taro@example.com" {
		t.Errorf("Recipient = %q, want %q", req.Recipient, "taro@example.com")
	}
	if req.Subject != "服薬リマインダー: アムロジピン" {
		t.Errorf("Subject = %q", req.Subject)
	}
	if !strings.Contains(req.Body, "アムロジピン") || !strings.Contains(req.Body, "5mg") {
		t.Errorf("本文に薬剤名と用量が含まれるべき: %q", req.Body)
	}
}

// end_dateが設定された服薬は通知対象外
func TestMedicationReminders_EndedMedicationSkipped(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	meds := []repository.MedicationWithOwner{
		{
			Medication: model.Medication{
				ID:        "med-1",
				Name:      "アムロジピン",
				StartDate: now.AddDate(0, -2, 0),
				EndDate:   datePtr(now.AddDate(0, -1, 0)),
			},
			OwnerEmail: "taro@example.com",
		},
	}

	if requests := newTestEvaluator().MedicationReminders(meds, now); len(requests) != 0 {
		t.Errorf("requests = %d, want 0", len(requests))
	}
}

// 開始日が未来の服薬は通知対象外
func TestMedicationReminders_FutureMedicationSkipped(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	meds := []repository.MedicationWithOwner{
		{
			Medication: model.Medication{
				ID:        "med-1",
				Name:      "アムロジピン",
				StartDate: now.AddDate(0, 0, 7),
			},
			OwnerEmail: "taro@example.com",
		},
	}

	if requests := newTestEvaluator().MedicationReminders(meds, now); len(requests) != 0 {
		t.Errorf("requests = %d, want 0", len(requests))
	}
}

// 薬剤名に含まれるHTMLタグが除去されること
func TestMedicationReminders_SanitizesUserInput(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	meds := []repository.MedicationWithOwner{
		{
			Medication: model.Medication{
				ID:        "med-1",
				Name:      `<script>alert("x")</script>アムロジピン`,
				Dosage:    "5mg",
				StartDate: now.AddDate(0, -1, 0),
			},
			OwnerEmail: "taro@example.com",
		},
	}

	requests := newTestEvaluator().MedicationReminders(meds, now)

	if len(requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(requests))
	}
	if strings.Contains(requests[0].Subject, "<script>") {
		t.Errorf("件名にscriptタグが残っている: %q", requests[0].Subject)
	}
}

// --- 診察予約リマインダー ---

func appointmentAt(date time.Time) []repository.AppointmentWithOwner {
	return []repository.AppointmentWithOwner{
		{
			Appointment: model.Appointment{
				ID:       "appt-1",
				Doctor:   "山田医師",
				Location: "中央クリニック",
				Date:     date,
			},
			OwnerEmail: "hanako@example.com",
		},
	}
}

// 30分後の予約（通知開始時間内）は通知対象
func TestAppointmentReminders_WithinLeadTime(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	appts := appointmentAt(now.Add(30 * time.Minute))

	requests := newTestEvaluator().AppointmentReminders(appts, now)

	if len(requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(requests))
	}
	req := requests[0]
	if req.Recipient != "hanako@example.com" {
		t.Errorf("Recipient = %q, want %q", req.Recipient, "hanako@example.com")
	}
	if req.Subject != "診察予約リマインダー: 山田医師" {
		t.Errorf("Subject = %q", req.Subject)
	}
	if !strings.Contains(req.Body, "中央クリニック") {
		t.Errorf("本文に場所が含まれるべき: %q", req.Body)
	}
	wantDue := now.Add(30 * time.Minute).Add(-time.Hour)
	if !req.DueAt.Equal(wantDue) {
		t.Errorf("DueAt = %v, want %v", req.DueAt, wantDue)
	}
}

// 2時間後の予約はまだ通知開始時間前（leadTime=1h）
func TestAppointmentReminders_BeforeLeadTime(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	appts := appointmentAt(now.Add(2 * time.Hour))

	if requests := newTestEvaluator().AppointmentReminders(appts, now); len(requests) != 0 {
		t.Errorf("通知開始時間前の予約は通知されないはず: requests = %d, want 0", len(requests))
	}
}

// 5分前に過ぎた予約は通知対象外
func TestAppointmentReminders_PastAppointmentSkipped(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	appts := appointmentAt(now.Add(-5 * time.Minute))

	if requests := newTestEvaluator().AppointmentReminders(appts, now); len(requests) != 0 {
		t.Errorf("過ぎた予約は通知されないはず: requests = %d, want 0", len(requests))
	}
}

// 対象範囲（24時間）を超える予約は通知対象外
func TestAppointmentReminders_BeyondLookaheadSkipped(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	appts := appointmentAt(now.Add(25 * time.Hour))

	if requests := newTestEvaluator().AppointmentReminders(appts, now); len(requests) != 0 {
		t.Errorf("対象範囲外の予約は通知されないはず: requests = %d, want 0", len(requests))
	}
}

// ちょうど1時間後の予約は通知対象（境界は包含）
func TestAppointmentReminders_ExactlyLeadTimeAway(t *testing.T) {
	now := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	appts := appointmentAt(now.Add(time.Hour))

	if requests := newTestEvaluator().AppointmentReminders(appts, now); len(requests) != 1 {
		t.Errorf("ちょうどleadTime先の予約は通知対象のはず: requests = %d, want 1", len(requests))
	}
}
