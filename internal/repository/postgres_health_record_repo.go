package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/careloop/internal/model"
)

// PostgresHealthRecordRepo はPostgreSQLを使用した健康記録リポジトリ。
type PostgresHealthRecordRepo struct {
	db *sql.DB
}

// NewPostgresHealthRecordRepo はPostgresHealthRecordRepoを生成する。
func NewPostgresHealthRecordRepo(db *sql.DB) *PostgresHealthRecordRepo {
	return &PostgresHealthRecordRepo{db: db}
}

// ListCreatedSince は指定時刻以降に作成された健康記録をcreated_at昇順で返す。
func (r *PostgresHealthRecordRepo) ListCreatedSince(ctx context.Context, since time.Time) ([]*model.HealthRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, owner_id, title, record_type, doctor, date, description, created_at, updated_at
		 FROM health_records
		 WHERE created_at >= $1
		 ORDER BY created_at ASC`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("健康記録の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var records []*model.HealthRecord
	for rows.Next() {
		record := &model.HealthRecord{}
		if err := rows.Scan(
			&record.ID, &record.OwnerID, &record.Title, &record.RecordType,
			&record.Doctor, &record.Date, &record.Description,
			&record.CreatedAt, &record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("健康記録の読み取りに失敗しました: %w", err)
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("健康記録の走査に失敗しました: %w", err)
	}

	return records, nil
}

// compile-time interface check
var _ HealthRecordRepository = (*PostgresHealthRecordRepo)(nil)
