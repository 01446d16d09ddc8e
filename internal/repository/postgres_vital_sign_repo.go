package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/careloop/internal/model"
)

// PostgresVitalSignRepo はPostgreSQLを使用したバイタルサインリポジトリ。
type PostgresVitalSignRepo struct {
	db *sql.DB
}

// NewPostgresVitalSignRepo はPostgresVitalSignRepoを生成する。
func NewPostgresVitalSignRepo(db *sql.DB) *PostgresVitalSignRepo {
	return &PostgresVitalSignRepo{db: db}
}

const vitalSignColumns = `id, owner_id, heart_rate, systolic, diastolic, temperature, recorded_at`

// scanVitalSign は1行分のバイタルサインを読み取る。
// nullableな計測値はnilのまま保持する。
func scanVitalSign(rows *sql.Rows) (*model.VitalSign, error) {
	vital := &model.VitalSign{}
	var heartRate, systolic, diastolic sql.NullInt64
	var temperature sql.NullFloat64

	if err := rows.Scan(
		&vital.ID, &vital.OwnerID,
		&heartRate, &systolic, &diastolic, &temperature,
		&vital.RecordedAt,
	); err != nil {
		return nil, err
	}

	if heartRate.Valid {
		v := int(heartRate.Int64)
		vital.HeartRate = &v
	}
	if systolic.Valid {
		v := int(systolic.Int64)
		vital.Systolic = &v
	}
	if diastolic.Valid {
		v := int(diastolic.Int64)
		vital.Diastolic = &v
	}
	if temperature.Valid {
		v := temperature.Float64
		vital.Temperature = &v
	}

	return vital, nil
}

// listVitals はクエリを実行してバイタルの一覧を返す。
func (r *PostgresVitalSignRepo) listVitals(ctx context.Context, query string, args ...interface{}) ([]*model.VitalSign, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("バイタルサインの取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var vitals []*model.VitalSign
	for rows.Next() {
		vital, err := scanVitalSign(rows)
		if err != nil {
			return nil, fmt.Errorf("バイタルサインの読み取りに失敗しました: %w", err)
		}
		vitals = append(vitals, vital)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("バイタルサインの走査に失敗しました: %w", err)
	}

	return vitals, nil
}

// ListRecordedSince は指定時刻以降に計測されたバイタルをrecorded_at昇順で返す。
func (r *PostgresVitalSignRepo) ListRecordedSince(ctx context.Context, since time.Time) ([]*model.VitalSign, error) {
	return r.listVitals(ctx,
		`SELECT `+vitalSignColumns+`
		 FROM vital_signs
		 WHERE recorded_at >= $1
		 ORDER BY recorded_at ASC`,
		since,
	)
}

// ListAll は全バイタル履歴をrecorded_at昇順で返す。
func (r *PostgresVitalSignRepo) ListAll(ctx context.Context) ([]*model.VitalSign, error) {
	return r.listVitals(ctx,
		`SELECT `+vitalSignColumns+`
		 FROM vital_signs
		 ORDER BY recorded_at ASC`,
	)
}

// ListLatestByOwner は各オーナーの最新バイタル1件をオーナーごとに返す。
func (r *PostgresVitalSignRepo) ListLatestByOwner(ctx context.Context) ([]*model.VitalSign, error) {
	return r.listVitals(ctx,
		`SELECT DISTINCT ON (owner_id) `+vitalSignColumns+`
		 FROM vital_signs
		 ORDER BY owner_id, recorded_at DESC`,
	)
}

// compile-time interface check
var _ VitalSignRepository = (*PostgresVitalSignRepo)(nil)
