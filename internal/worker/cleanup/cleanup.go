// Package cleanup は導出データ（インサイト・予測）の定期削除を提供する。
// ユーザーが入力した健康記録やバイタルは削除対象にしない。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// JobName は導出データ削除スイープのジョブ名。
const JobName = "cleanup-derived-rows"

// defaultRetentionDays は導出データの保持期間のデフォルト値。
const defaultRetentionDays = 180

// Executor はクリーンアップが必要とするクエリ実行の抽象。
// *sql.DB と *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Job は保持期間を過ぎたインサイトと予測を削除するスイープジョブ。
type Job struct {
	db            Executor
	logger        *slog.Logger
	retentionDays int
}

// NewJob はJobの新しいインスタンスを生成する。
// retentionDaysが0以下の場合はデフォルトの180日を使用する。
func NewJob(db Executor, logger *slog.Logger, retentionDays int) *Job {
	if retentionDays <= 0 {
		retentionDays = defaultRetentionDays
	}
	return &Job{
		db:            db,
		logger:        logger,
		retentionDays: retentionDays,
	}
}

// Name はジョブ名を返す。
func (j *Job) Name() string { return JobName }

// RunOnce は保持期間を過ぎた導出データを削除する。
func (j *Job) RunOnce(ctx context.Context) error {
	interval := fmt.Sprintf("%d days", j.retentionDays)

	insightsDeleted, err := j.deleteOld(ctx,
		`DELETE FROM insights WHERE created_at < now() - $1::interval`, interval)
	if err != nil {
		return fmt.Errorf("古いインサイトの削除に失敗しました: %w", err)
	}

	predictionsDeleted, err := j.deleteOld(ctx,
		`DELETE FROM predictions WHERE created_at < now() - $1::interval`, interval)
	if err != nil {
		return fmt.Errorf("古い予測の削除に失敗しました: %w", err)
	}

	j.logger.Info("導出データのクリーンアップが完了しました",
		slog.Int("retention_days", j.retentionDays),
		slog.Int64("insights_deleted", insightsDeleted),
		slog.Int64("predictions_deleted", predictionsDeleted),
	)

	return nil
}

func (j *Job) deleteOld(ctx context.Context, query, interval string) (int64, error) {
	result, err := j.db.ExecContext(ctx, query, interval)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
