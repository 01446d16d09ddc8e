package insight

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/hitoshi/careloop/internal/model"
)

// --- モック定義 ---

type mockHealthRecordRepo struct {
	listCreatedSinceFunc func(ctx context.Context, since time.Time) ([]*model.HealthRecord, error)
}

func (m *mockHealthRecordRepo) ListCreatedSince(ctx context.Context, since time.Time) ([]*model.HealthRecord, error) {
	if m.listCreatedSinceFunc != nil {
		return m.listCreatedSinceFunc(ctx, since)
	}
	return nil, nil
}

type mockVitalSignRepo struct {
	listRecordedSinceFunc func(ctx context.Context, since time.Time) ([]*model.VitalSign, error)
	listAllFunc           func(ctx context.Context) ([]*model.VitalSign, error)
	listLatestFunc        func(ctx context.Context) ([]*model.VitalSign, error)
}

func (m *mockVitalSignRepo) ListRecordedSince(ctx context.Context, since time.Time) ([]*model.VitalSign, error) {
	if m.listRecordedSinceFunc != nil {
		return m.listRecordedSinceFunc(ctx, since)
	}
	return nil, nil
}

func (m *mockVitalSignRepo) ListAll(ctx context.Context) ([]*model.VitalSign, error) {
	if m.listAllFunc != nil {
		return m.listAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockVitalSignRepo) ListLatestByOwner(ctx context.Context) ([]*model.VitalSign, error) {
	if m.listLatestFunc != nil {
		return m.listLatestFunc(ctx)
	}
	return nil, nil
}

type mockInsightRepo struct {
	createIfAbsentFunc func(ctx context.Context, insight *model.Insight) (bool, error)
	created            []*model.Insight
}

func (m *mockInsightRepo) CreateIfAbsent(ctx context.Context, insight *model.Insight) (bool, error) {
	m.created = append(m.created, insight)
	if m.createIfAbsentFunc != nil {
		return m.createIfAbsentFunc(ctx, insight)
	}
	return true, nil
}

type mockCollector struct {
	insightsCreated    int
	insightsDeduped    int
	notificationsSent  int
	notificationsFail  int
	predictionsUpdated int
}

func (m *mockCollector) RecordSweepSuccess(job string)                         {}
func (m *mockCollector) RecordSweepFailure(job string)                         {}
func (m *mockCollector) RecordSweepSkipped(job string)                         {}
func (m *mockCollector) RecordSweepDuration(job string, duration time.Duration) {}
func (m *mockCollector) RecordInsightsCreated(count int)                       { m.insightsCreated += count }
func (m *mockCollector) RecordInsightsDeduped(count int)                       { m.insightsDeduped += count }
func (m *mockCollector) RecordNotificationSent()                               { m.notificationsSent++ }
func (m *mockCollector) RecordNotificationFailed()                             { m.notificationsFail++ }
func (m *mockCollector) RecordPredictionsUpdated(count int)                    { m.predictionsUpdated += count }

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// --- スイープのテスト ---

func TestService_Name(t *testing.T) {
	var buf bytes.Buffer
	s := NewService(&mockHealthRecordRepo{}, &mockVitalSignRepo{}, &mockInsightRepo{}, &mockCollector{}, newTestLogger(&buf), 0)

	if s.Name() != "generate-health-insights" {
		t.Errorf("Name() = %q, want %q", s.Name(), "generate-health-insights")
	}
}

// lab_result 1件と心拍数110のバイタル1件から、
// それぞれの所有者にちょうど2件のインサイトが保存されること
func TestService_RunOnce_CreatesInsightsForSignals(t *testing.T) {
	var buf bytes.Buffer

	recordRepo := &mockHealthRecordRepo{
		listCreatedSinceFunc: func(ctx context.Context, since time.Time) ([]*model.HealthRecord, error) {
			return []*model.HealthRecord{
				{ID: "rec-1", OwnerID: "user-1", RecordType: model.RecordTypeLabResult},
			}, nil
		},
	}
	vitalRepo := &mockVitalSignRepo{
		listRecordedSinceFunc: func(ctx context.Context, since time.Time) ([]*model.VitalSign, error) {
			return []*model.VitalSign{
				{ID: "vital-1", OwnerID: "user-2", HeartRate: intPtr(110)},
			}, nil
		},
	}
	insightRepo := &mockInsightRepo{}
	collector := &mockCollector{}

	s := NewService(recordRepo, vitalRepo, insightRepo, collector, newTestLogger(&buf), 7*24*time.Hour)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if len(insightRepo.created) != 2 {
		t.Fatalf("保存されたインサイト = %d, want 2", len(insightRepo.created))
	}
	if insightRepo.created[0].OwnerID != "user-1" {
		t.Errorf("created[0].OwnerID = %q, want %q", insightRepo.created[0].OwnerID, "user-1")
	}
	if insightRepo.created[1].OwnerID != "user-2" {
		t.Errorf("created[1].OwnerID = %q, want %q", insightRepo.created[1].OwnerID, "user-2")
	}
	for _, ins := range insightRepo.created {
		if ins.ID == "" {
			t.Error("インサイトIDが採番されていない")
		}
		if ins.DedupeKey == "" {
			t.Error("重複排除キーが設定されていない")
		}
	}
	if collector.insightsCreated != 2 {
		t.Errorf("insightsCreated = %d, want 2", collector.insightsCreated)
	}
}

// 既存の重複排除キーと衝突した場合はdedupedとして数えられること
func TestService_RunOnce_CountsDeduped(t *testing.T) {
	var buf bytes.Buffer

	recordRepo := &mockHealthRecordRepo{
		listCreatedSinceFunc: func(ctx context.Context, since time.Time) ([]*model.HealthRecord, error) {
			return []*model.HealthRecord{
				{ID: "rec-1", OwnerID: "user-1", RecordType: model.RecordTypeLabResult},
				{ID: "rec-2", OwnerID: "user-1", RecordType: model.RecordTypeLabResult},
			}, nil
		},
	}
	insightRepo := &mockInsightRepo{
		createIfAbsentFunc: func(ctx context.Context, insight *model.Insight) (bool, error) {
			// rec-1由来は既存、rec-2由来は新規とする
			return insight.SourceRecordID == "rec-2", nil
		},
	}
	collector := &mockCollector{}

	s := NewService(recordRepo, &mockVitalSignRepo{}, insightRepo, collector, newTestLogger(&buf), 0)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}

	if collector.insightsCreated != 1 {
		t.Errorf("insightsCreated = %d, want 1", collector.insightsCreated)
	}
	if collector.insightsDeduped != 1 {
		t.Errorf("insightsDeduped = %d, want 1", collector.insightsDeduped)
	}
}

// ストアからの読み取り失敗はスイープ全体を中断すること
func TestService_RunOnce_ReadFailureAbortsSweep(t *testing.T) {
	var buf bytes.Buffer

	recordRepo := &mockHealthRecordRepo{
		listCreatedSinceFunc: func(ctx context.Context, since time.Time) ([]*model.HealthRecord, error) {
			return nil, errors.New("connection refused")
		},
	}

	s := NewService(recordRepo, &mockVitalSignRepo{}, &mockInsightRepo{}, &mockCollector{}, newTestLogger(&buf), 0)

	err := s.RunOnce(context.Background())
	if err == nil {
		t.Fatal("読み取り失敗はエラーを返すべき")
	}
	if !model.IsFatalStore(err) {
		t.Errorf("読み取り失敗はFatalStoreErrorであるべき: %v", err)
	}
}

// 個々のインサイトの書き込み失敗はスキップして継続すること
func TestService_RunOnce_WriteFailureContinues(t *testing.T) {
	var buf bytes.Buffer

	recordRepo := &mockHealthRecordRepo{
		listCreatedSinceFunc: func(ctx context.Context, since time.Time) ([]*model.HealthRecord, error) {
			return []*model.HealthRecord{
				{ID: "rec-1", OwnerID: "user-1", RecordType: model.RecordTypeLabResult},
				{ID: "rec-2", OwnerID: "user-1", RecordType: model.RecordTypeLabResult},
			}, nil
		},
	}
	insightRepo := &mockInsightRepo{
		createIfAbsentFunc: func(ctx context.Context, insight *model.Insight) (bool, error) {
			if insight.SourceRecordID == "rec-1" {
				return false, errors.New("insert failed")
			}
			return true, nil
		},
	}
	collector := &mockCollector{}

	s := NewService(recordRepo, &mockVitalSignRepo{}, insightRepo, collector, newTestLogger(&buf), 0)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("個々の書き込み失敗でスイープを中断してはならない: %v", err)
	}
	if collector.insightsCreated != 1 {
		t.Errorf("insightsCreated = %d, want 1", collector.insightsCreated)
	}
}

// シグナルがない場合は何も保存されないこと
func TestService_RunOnce_NoSignals(t *testing.T) {
	var buf bytes.Buffer

	insightRepo := &mockInsightRepo{}
	s := NewService(&mockHealthRecordRepo{}, &mockVitalSignRepo{}, insightRepo, &mockCollector{}, newTestLogger(&buf), 0)

	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if len(insightRepo.created) != 0 {
		t.Errorf("保存されたインサイト = %d, want 0", len(insightRepo.created))
	}
}
