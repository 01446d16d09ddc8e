package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresMedicationRepo はPostgreSQLを使用した服薬情報リポジトリ。
type PostgresMedicationRepo struct {
	db *sql.DB
}

// NewPostgresMedicationRepo はPostgresMedicationRepoを生成する。
func NewPostgresMedicationRepo(db *sql.DB) *PostgresMedicationRepo {
	return &PostgresMedicationRepo{db: db}
}

// ListActiveWithOwner はアクティブな服薬をオーナーのメールアドレス付きで返す。
// アクティブ ⇔ end_dateがNULL かつ start_dateが指定時刻の日付以前。
func (r *PostgresMedicationRepo) ListActiveWithOwner(ctx context.Context, now time.Time) ([]MedicationWithOwner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT m.id, m.owner_id, m.name, m.dosage, m.frequency,
		        m.start_date, m.end_date, m.notes, m.created_at, m.updated_at,
		        u.email
		 FROM medications m
		 INNER JOIN users u ON m.owner_id = u.id
		 WHERE m.end_date IS NULL
		   AND m.start_date <= $1::date
		 ORDER BY m.created_at ASC`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("アクティブな服薬の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var meds []MedicationWithOwner
	for rows.Next() {
		var med MedicationWithOwner
		var endDate sql.NullTime

		if err := rows.Scan(
			&med.ID, &med.OwnerID, &med.Name, &med.Dosage, &med.Frequency,
			&med.StartDate, &endDate, &med.Notes, &med.CreatedAt, &med.UpdatedAt,
			&med.OwnerEmail,
		); err != nil {
			return nil, fmt.Errorf("服薬情報の読み取りに失敗しました: %w", err)
		}

		if endDate.Valid {
			t := endDate.Time
			med.EndDate = &t
		}

		meds = append(meds, med)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("服薬情報の走査に失敗しました: %w", err)
	}

	return meds, nil
}

// compile-time interface check
var _ MedicationRepository = (*PostgresMedicationRepo)(nil)
