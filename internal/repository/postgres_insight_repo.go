package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/careloop/internal/model"
)

// PostgresInsightRepo はPostgreSQLを使用したインサイトリポジトリ。
type PostgresInsightRepo struct {
	db *sql.DB
}

// NewPostgresInsightRepo はPostgresInsightRepoを生成する。
func NewPostgresInsightRepo(db *sql.DB) *PostgresInsightRepo {
	return &PostgresInsightRepo{db: db}
}

// CreateIfAbsent はインサイトを作成する。
// dedupe_keyの一意制約により、同一由来・同一ルールのインサイトが既に存在する場合は
// 何もせずfalseを返す（重複ウィンドウの再評価を冪等にする）。
func (r *PostgresInsightRepo) CreateIfAbsent(ctx context.Context, insight *model.Insight) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO insights (id, owner_id, kind, category, content, priority,
		                       source_record_id, dedupe_key, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (dedupe_key) DO NOTHING`,
		insight.ID, insight.OwnerID, insight.Kind, insight.Category,
		insight.Content, nullString(string(insight.Priority)),
		nullString(insight.SourceRecordID), insight.DedupeKey,
		insight.CreatedAt, insight.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("インサイトの作成に失敗しました: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("インサイト作成件数の取得に失敗しました: %w", err)
	}

	return inserted > 0, nil
}

// nullString は空文字列をsql.NullStringに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// compile-time interface check
var _ InsightRepository = (*PostgresInsightRepo)(nil)
