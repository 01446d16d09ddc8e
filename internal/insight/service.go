package insight

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/careloop/internal/metrics"
	"github.com/hitoshi/careloop/internal/model"
	"github.com/hitoshi/careloop/internal/repository"
)

// JobName はインサイト生成スイープのジョブ名。
const JobName = "generate-health-insights"

// Service はインサイト生成スイープのサービス層。
// 直近ウィンドウの健康記録・バイタルを評価器に渡し、
// 生成されたインサイト候補を冪等に永続化する。
type Service struct {
	recordRepo  repository.HealthRecordRepository
	vitalRepo   repository.VitalSignRepository
	insightRepo repository.InsightRepository
	collector   metrics.MetricsCollector
	logger      *slog.Logger
	window      time.Duration
	now         func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
// windowが0以下の場合はデフォルトの7日間を使用する。
func NewService(
	recordRepo repository.HealthRecordRepository,
	vitalRepo repository.VitalSignRepository,
	insightRepo repository.InsightRepository,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	window time.Duration,
) *Service {
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	return &Service{
		recordRepo:  recordRepo,
		vitalRepo:   vitalRepo,
		insightRepo: insightRepo,
		collector:   collector,
		logger:      logger,
		window:      window,
		now:         time.Now,
	}
}

// Name はジョブ名を返す。
func (s *Service) Name() string { return JobName }

// RunOnce はインサイト生成スイープを1回実行する。
// ストアからの読み取り失敗はスイープ全体を中断する（次のティックに委ねる）。
// 個々のインサイトの書き込み失敗はスキップして継続する。
func (s *Service) RunOnce(ctx context.Context) error {
	start := s.now()
	since := start.Add(-s.window)

	records, err := s.recordRepo.ListCreatedSince(ctx, since)
	if err != nil {
		return model.NewFatalStoreError("健康記録ウィンドウの取得", err)
	}

	vitals, err := s.vitalRepo.ListRecordedSince(ctx, since)
	if err != nil {
		return model.NewFatalStoreError("バイタルウィンドウの取得", err)
	}

	drafts := Evaluate(records, vitals)
	if len(drafts) == 0 {
		s.logger.Info("生成対象のインサイトはありません",
			slog.Int("records", len(records)),
			slog.Int("vitals", len(vitals)),
		)
		return nil
	}

	var created, deduped, failed int
	for _, draft := range drafts {
		now := s.now()
		inserted, err := s.insightRepo.CreateIfAbsent(ctx, &model.Insight{
			ID:             uuid.NewString(),
			OwnerID:        draft.OwnerID,
			Kind:           draft.Kind,
			Category:       draft.Category,
			Content:        draft.Content,
			Priority:       draft.Priority,
			SourceRecordID: draft.SourceRecordID,
			DedupeKey:      draft.DedupeKey,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		if err != nil {
			failed++
			s.logger.Error("インサイトの保存に失敗しました",
				slog.String("owner_id", draft.OwnerID),
				slog.String("source_record_id", draft.SourceRecordID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if inserted {
			created++
		} else {
			deduped++
		}
	}

	s.collector.RecordInsightsCreated(created)
	s.collector.RecordInsightsDeduped(deduped)

	s.logger.Info("インサイト生成スイープが完了しました",
		slog.Int("records", len(records)),
		slog.Int("vitals", len(vitals)),
		slog.Int("insights_created", created),
		slog.Int("insights_deduped", deduped),
		slog.Int("insights_failed", failed),
		slog.Float64("duration_ms", float64(s.now().Sub(start).Milliseconds())),
	)

	return nil
}
