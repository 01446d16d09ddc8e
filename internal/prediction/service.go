package prediction

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/careloop/internal/metrics"
	"github.com/hitoshi/careloop/internal/model"
	"github.com/hitoshi/careloop/internal/repository"
)

// JobName は健康リスク予測更新スイープのジョブ名。
const JobName = "update-health-predictions"

// defaultConfidence はベースラインモデルの予測に付与する信頼度。
const defaultConfidence = 0.85

// Service は健康リスク予測の更新スイープのサービス層。
// 全ユーザーのバイタル履歴でモデルを学習し、ユーザーごとの
// 最新バイタルからリスクスコアを算出して予測行を追記する。
type Service struct {
	vitalRepo      repository.VitalSignRepository
	predictionRepo repository.PredictionRepository
	riskModel      RiskModel
	collector      metrics.MetricsCollector
	logger         *slog.Logger
	now            func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	vitalRepo repository.VitalSignRepository,
	predictionRepo repository.PredictionRepository,
	riskModel RiskModel,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	return &Service{
		vitalRepo:      vitalRepo,
		predictionRepo: predictionRepo,
		riskModel:      riskModel,
		collector:      collector,
		logger:         logger,
		now:            time.Now,
	}
}

// Name はジョブ名を返す。
func (s *Service) Name() string { return JobName }

// featureVector はバイタルサインから特徴量ベクトルを抽出する。
// 心拍数・収縮期血圧・拡張期血圧がすべて揃っている場合のみ有効。
func featureVector(vital *model.VitalSign) ([]float64, bool) {
	if vital.HeartRate == nil || vital.Systolic == nil || vital.Diastolic == nil {
		return nil, false
	}
	return []float64{
		float64(*vital.HeartRate),
		float64(*vital.Systolic),
		float64(*vital.Diastolic),
	}, true
}

// RunOnce は健康リスク予測の更新スイープを1回実行する。
// 学習データが不足している場合はスキップして正常終了する。
// 個々のユーザーの予測失敗はログに記録して継続する。
func (s *Service) RunOnce(ctx context.Context) error {
	allVitals, err := s.vitalRepo.ListAll(ctx)
	if err != nil {
		return model.NewFatalStoreError("バイタル履歴の取得", err)
	}

	var features [][]float64
	for _, vital := range allVitals {
		if vec, ok := featureVector(vital); ok {
			features = append(features, vec)
		}
	}

	if err := s.riskModel.Fit(features, nil); err != nil {
		if errors.Is(err, ErrNoTrainingData) {
			s.logger.Info("学習データが不足しているため予測更新をスキップします",
				slog.Int("vitals", len(allVitals)),
			)
			return nil
		}
		return model.NewRecoverableError("リスクモデルの学習", err)
	}

	latest, err := s.vitalRepo.ListLatestByOwner(ctx)
	if err != nil {
		return model.NewFatalStoreError("最新バイタルの取得", err)
	}

	var updated, skipped, failed int
	for _, vital := range latest {
		vec, ok := featureVector(vital)
		if !ok {
			skipped++
			continue
		}

		score, err := s.riskModel.Predict(vec)
		if err != nil {
			failed++
			s.logger.Warn("リスクスコアの算出に失敗しました（スキップして継続します）",
				slog.String("owner_id", vital.OwnerID),
				slog.String("error", err.Error()),
			)
			continue
		}

		if err := s.predictionRepo.Create(ctx, &model.Prediction{
			ID:         uuid.NewString(),
			OwnerID:    vital.OwnerID,
			Kind:       model.PredictionKindHealthRisk,
			RiskScore:  score,
			Confidence: defaultConfidence,
			CreatedAt:  s.now(),
		}); err != nil {
			failed++
			s.logger.Error("予測の保存に失敗しました（スキップして継続します）",
				slog.String("owner_id", vital.OwnerID),
				slog.String("error", err.Error()),
			)
			continue
		}
		updated++
	}

	s.collector.RecordPredictionsUpdated(updated)

	s.logger.Info("健康リスク予測スイープが完了しました",
		slog.Int("training_samples", len(features)),
		slog.Int("owners", len(latest)),
		slog.Int("predictions_updated", updated),
		slog.Int("owners_skipped", skipped),
		slog.Int("predictions_failed", failed),
	)

	return nil
}
