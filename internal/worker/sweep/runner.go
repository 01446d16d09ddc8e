// Package sweep は定期スイープジョブの実行基盤を提供する。
// 各ジョブはアドバイザリロックで多重実行から保護され、
// 実行ごとにタイムアウトとメトリクス記録が適用される。
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/careloop/internal/metrics"
)

// Job は定期実行されるスイープジョブのインターフェース。
type Job interface {
	// Name はジョブ名を返す。ロックキーとメトリクスラベルに使用する。
	Name() string
	// RunOnce はスイープを1回実行する。
	RunOnce(ctx context.Context) error
}

// Locker はジョブ単位の排他制御のインターフェース。
// 取得できた場合はロック解放関数とtrueを返す。
type Locker interface {
	Acquire(ctx context.Context, jobName string) (release func(context.Context) error, acquired bool, err error)
}

// Runner は単一ジョブの定期実行を管理する。
type Runner struct {
	job       Job
	locker    Locker
	collector metrics.MetricsCollector
	logger    *slog.Logger
	timeout   time.Duration
}

// NewRunner はRunnerの新しいインスタンスを生成する。
// timeoutが0以下の場合はデフォルトの2分を使用する。
func NewRunner(job Job, locker Locker, collector metrics.MetricsCollector, logger *slog.Logger, timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Runner{
		job:       job,
		locker:    locker,
		collector: collector,
		logger:    logger,
		timeout:   timeout,
	}
}

// Start は指定間隔でジョブを定期実行する。
// 起動直後に1回実行し、以降はティックごとに実行する。
// コンテキストがキャンセルされるまでブロックする。
func (r *Runner) Start(ctx context.Context, interval time.Duration) {
	r.logger.Info("スイープワーカーを開始します",
		slog.String("job", r.job.Name()),
		slog.Duration("interval", interval),
	)

	r.RunOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("スイープワーカーを停止します",
				slog.String("job", r.job.Name()),
			)
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce はロック取得・タイムアウト・メトリクス記録を適用して
// ジョブを1回実行する。ロックを取得できない場合（他プロセスが
// 実行中）はスキップする。ジョブの失敗はログとメトリクスに記録し、
// 次のティックに委ねる。
func (r *Runner) RunOnce(ctx context.Context) {
	name := r.job.Name()

	release, acquired, err := r.locker.Acquire(ctx, name)
	if err != nil {
		r.collector.RecordSweepFailure(name)
		r.logger.Error("スイープのロック取得に失敗しました",
			slog.String("job", name),
			slog.String("error", err.Error()),
		)
		return
	}
	if !acquired {
		r.collector.RecordSweepSkipped(name)
		r.logger.Info("他プロセスが実行中のためスイープをスキップします",
			slog.String("job", name),
		)
		return
	}
	defer func() {
		// 解放は親コンテキストで行う（スイープのタイムアウト後でも解放できるように）
		if err := release(ctx); err != nil {
			r.logger.Error("スイープのロック解放に失敗しました",
				slog.String("job", name),
				slog.String("error", err.Error()),
			)
		}
	}()

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	err = r.job.RunOnce(runCtx)
	duration := time.Since(start)
	r.collector.RecordSweepDuration(name, duration)

	if err != nil {
		r.collector.RecordSweepFailure(name)
		r.logger.Error("スイープの実行に失敗しました",
			slog.String("job", name),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
			slog.String("error", err.Error()),
		)
		return
	}

	r.collector.RecordSweepSuccess(name)
}
