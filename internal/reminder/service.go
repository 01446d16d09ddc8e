package reminder

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hitoshi/careloop/internal/metrics"
	"github.com/hitoshi/careloop/internal/model"
	"github.com/hitoshi/careloop/internal/notifier"
	"github.com/hitoshi/careloop/internal/repository"
)

// ジョブ名。スケジュール定義とメトリクスのラベルに使用する。
const (
	MedicationJobName  = "check-medication-reminders"
	AppointmentJobName = "check-appointment-reminders"
)

// dispatch は通知要求を1件ずつNotifierへ送信する。
// 配信失敗はログに記録して継続する（fail-silentポリシー）。
// リトライはせず、次のスケジュール実行が同じ条件を自然に再評価する。
func dispatch(
	ctx context.Context,
	sender notifier.Notifier,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	requests []model.NotificationRequest,
) (sent, failed int) {
	for _, req := range requests {
		if err := sender.Send(ctx, req); err != nil {
			failed++
			collector.RecordNotificationFailed()

			var deliveryErr *notifier.DeliveryError
			if errors.As(err, &deliveryErr) {
				logger.Warn("通知の配信に失敗しました（スキップして継続します）",
					slog.String("recipient", deliveryErr.Recipient),
					slog.Int("http_status", deliveryErr.StatusCode),
					slog.String("error", err.Error()),
				)
			} else {
				logger.Warn("通知の配信に失敗しました（スキップして継続します）",
					slog.String("recipient", req.Recipient),
					slog.String("error", err.Error()),
				)
			}
			continue
		}
		sent++
		collector.RecordNotificationSent()
	}
	return sent, failed
}

// MedicationJob はアクティブな服薬に対するリマインダー送信ジョブ。
type MedicationJob struct {
	medRepo   repository.MedicationRepository
	evaluator *Evaluator
	sender    notifier.Notifier
	collector metrics.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
}

// NewMedicationJob はMedicationJobの新しいインスタンスを生成する。
func NewMedicationJob(
	medRepo repository.MedicationRepository,
	evaluator *Evaluator,
	sender notifier.Notifier,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *MedicationJob {
	return &MedicationJob{
		medRepo:   medRepo,
		evaluator: evaluator,
		sender:    sender,
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// Name はジョブ名を返す。
func (j *MedicationJob) Name() string { return MedicationJobName }

// RunOnce は服薬リマインダースイープを1回実行する。
func (j *MedicationJob) RunOnce(ctx context.Context) error {
	now := j.now()

	meds, err := j.medRepo.ListActiveWithOwner(ctx, now)
	if err != nil {
		return model.NewFatalStoreError("アクティブな服薬の取得", err)
	}

	requests := j.evaluator.MedicationReminders(meds, now)
	if len(requests) == 0 {
		j.logger.Info("送信対象の服薬リマインダーはありません")
		return nil
	}

	sent, failed := dispatch(ctx, j.sender, j.collector, j.logger, requests)

	j.logger.Info("服薬リマインダースイープが完了しました",
		slog.Int("active_medications", len(meds)),
		slog.Int("notifications_sent", sent),
		slog.Int("notifications_failed", failed),
	)

	return nil
}

// AppointmentJob は直近の診察予約に対するリマインダー送信ジョブ。
type AppointmentJob struct {
	apptRepo  repository.AppointmentRepository
	evaluator *Evaluator
	sender    notifier.Notifier
	collector metrics.MetricsCollector
	logger    *slog.Logger
	now       func() time.Time
}

// NewAppointmentJob はAppointmentJobの新しいインスタンスを生成する。
func NewAppointmentJob(
	apptRepo repository.AppointmentRepository,
	evaluator *Evaluator,
	sender notifier.Notifier,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *AppointmentJob {
	return &AppointmentJob{
		apptRepo:  apptRepo,
		evaluator: evaluator,
		sender:    sender,
		collector: collector,
		logger:    logger,
		now:       time.Now,
	}
}

// Name はジョブ名を返す。
func (j *AppointmentJob) Name() string { return AppointmentJobName }

// RunOnce は診察予約リマインダースイープを1回実行する。
func (j *AppointmentJob) RunOnce(ctx context.Context) error {
	now := j.now()

	appointments, err := j.apptRepo.ListUpcomingWithOwner(ctx, now, now.Add(j.evaluator.AppointmentLookahead))
	if err != nil {
		return model.NewFatalStoreError("直近の診察予約の取得", err)
	}

	requests := j.evaluator.AppointmentReminders(appointments, now)
	if len(requests) == 0 {
		j.logger.Info("送信対象の診察予約リマインダーはありません",
			slog.Int("upcoming_appointments", len(appointments)),
		)
		return nil
	}

	sent, failed := dispatch(ctx, j.sender, j.collector, j.logger, requests)

	j.logger.Info("診察予約リマインダースイープが完了しました",
		slog.Int("upcoming_appointments", len(appointments)),
		slog.Int("notifications_sent", sent),
		slog.Int("notifications_failed", failed),
	)

	return nil
}
