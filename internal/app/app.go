// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/careloop/internal/config"
	"github.com/hitoshi/careloop/internal/database"
	"github.com/hitoshi/careloop/internal/handler"
	"github.com/hitoshi/careloop/internal/insight"
	"github.com/hitoshi/careloop/internal/logger"
	"github.com/hitoshi/careloop/internal/metrics"
	"github.com/hitoshi/careloop/internal/notifier"
	"github.com/hitoshi/careloop/internal/prediction"
	"github.com/hitoshi/careloop/internal/reminder"
	"github.com/hitoshi/careloop/internal/repository"
	"github.com/hitoshi/careloop/internal/security"
	"github.com/hitoshi/careloop/internal/worker/cleanup"
	"github.com/hitoshi/careloop/internal/worker/sweep"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runWorker(cfg)
	}
}

// sweepSchedule は1つのスイープジョブと実行間隔の組。
type sweepSchedule struct {
	job      sweep.Job
	interval time.Duration
}

// runWorker はスイープワーカーモードで起動する。
// DB接続を開き、全スイープジョブと運用HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	recordRepo := repository.NewPostgresHealthRecordRepo(db)
	vitalRepo := repository.NewPostgresVitalSignRepo(db)
	medRepo := repository.NewPostgresMedicationRepo(db)
	apptRepo := repository.NewPostgresAppointmentRepo(db)
	insightRepo := repository.NewPostgresInsightRepo(db)
	predictionRepo := repository.NewPostgresPredictionRepo(db)

	// 3. セキュリティサービスの初期化
	gatewayGuard := security.NewGatewayGuard()
	sanitizer := security.NewTextSanitizer()

	// ゲートウェイURLは起動時に検証する（内部ネットワーク宛の設定ミスを早期検出）
	if err := gatewayGuard.ValidateURL(cfg.NotifyEndpoint); err != nil {
		return fmt.Errorf("notify endpoint validation failed: %w", err)
	}

	// 4. メトリクスとロックの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	locker := database.NewAdvisoryLocker(db)

	// 5. 通知サービスの初期化
	sender := notifier.NewGatewayNotifier(
		gatewayGuard.NewSafeClient(cfg.NotifyTimeout),
		slog.Default(),
		cfg.NotifyEndpoint,
		cfg.NotifyFrom,
		cfg.NotifyRate,
		cfg.NotifyBurst,
		cfg.NotifyMaxBody,
	)

	// 6. スイープジョブの初期化
	reminderEvaluator := reminder.NewEvaluator(sanitizer)
	reminderEvaluator.AppointmentLookahead = cfg.AppointmentLookahead
	reminderEvaluator.AppointmentLeadTime = cfg.AppointmentLeadTime

	medicationJob := reminder.NewMedicationJob(medRepo, reminderEvaluator, sender, collector, slog.Default())
	appointmentJob := reminder.NewAppointmentJob(apptRepo, reminderEvaluator, sender, collector, slog.Default())
	insightJob := insight.NewService(recordRepo, vitalRepo, insightRepo, collector, slog.Default(), cfg.InsightWindow)
	predictionJob := prediction.NewService(vitalRepo, predictionRepo, prediction.NewBaselineModel(), collector, slog.Default())
	cleanupJob := cleanup.NewJob(db, slog.Default(), cfg.RetentionDays)

	schedules := []sweepSchedule{
		{job: medicationJob, interval: cfg.MedicationInterval},
		{job: appointmentJob, interval: cfg.AppointmentInterval},
		{job: insightJob, interval: cfg.InsightInterval},
		{job: predictionJob, interval: cfg.PredictionInterval},
		{job: cleanupJob, interval: cfg.CleanupInterval},
	}

	// 7. 運用HTTPサーバーの構築
	router := handler.NewRouter(&handler.RouterDeps{
		Logger:        slog.Default(),
		HealthChecker: db,
		Gatherer:      registry,
	})
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	go func() {
		slog.Info("ops server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	slog.Info("worker starting", slog.Int("sweep_jobs", len(schedules)))

	// 8. 全スイープジョブを起動し、キャンセルまで待機
	var wg sync.WaitGroup
	for _, schedule := range schedules {
		runner := sweep.NewRunner(schedule.job, locker, collector, slog.Default(), cfg.SweepTimeout)
		wg.Add(1)
		go func(r *sweep.Runner, interval time.Duration) {
			defer wg.Done()
			r.Start(ctx, interval)
		}(runner, schedule.interval)
	}
	wg.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
