package database

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
)

// AdvisoryLocker はPostgreSQLのセッションアドバイザリロックで
// 同一ジョブの多重実行を排他する。
// 複数プロセスが同じジョブを同時に起動しても、ロックを取得できた
// 1プロセスだけがスイープを実行する。
type AdvisoryLocker struct {
	db *sql.DB
}

// NewAdvisoryLocker はAdvisoryLockerを生成する。
func NewAdvisoryLocker(db *sql.DB) *AdvisoryLocker {
	return &AdvisoryLocker{db: db}
}

// lockKey はジョブ名を64bitのロックキーに変換する。
// 同一ジョブ名は常に同一キーになる。
func lockKey(jobName string) int64 {
	h := fnv.New64a()
	h.Write([]byte(jobName))
	return int64(h.Sum64())
}

// Acquire は指定ジョブのアドバイザリロック取得を試みる。ブロックはしない。
// アドバイザリロックはセッション単位のため、取得に使った接続を
// 解放まで専有し続ける。取得できた場合はreleaseとtrueを返す。
// releaseはロックを解放して接続をプールへ返す。取得できなかった
// 場合はreleaseはnil。
func (l *AdvisoryLocker) Acquire(ctx context.Context, jobName string) (release func(context.Context) error, acquired bool, err error) {
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("ロック用接続の取得に失敗しました: %w", err)
	}

	key := lockKey(jobName)

	var locked bool
	if err := conn.QueryRowContext(ctx,
		`SELECT pg_try_advisory_lock($1)`, key,
	).Scan(&locked); err != nil {
		conn.Close()
		return nil, false, fmt.Errorf("アドバイザリロックの取得に失敗しました: %w", err)
	}
	if !locked {
		conn.Close()
		return nil, false, nil
	}

	release = func(ctx context.Context) error {
		defer conn.Close()

		var released bool
		if err := conn.QueryRowContext(ctx,
			`SELECT pg_advisory_unlock($1)`, key,
		).Scan(&released); err != nil {
			return fmt.Errorf("アドバイザリロックの解放に失敗しました: %w", err)
		}
		if !released {
			return fmt.Errorf("アドバイザリロックを保持していません: %s", jobName)
		}
		return nil
	}
	return release, true, nil
}
