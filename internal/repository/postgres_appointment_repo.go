package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresAppointmentRepo はPostgreSQLを使用した診察予約リポジトリ。
type PostgresAppointmentRepo struct {
	db *sql.DB
}

// NewPostgresAppointmentRepo はPostgresAppointmentRepoを生成する。
func NewPostgresAppointmentRepo(db *sql.DB) *PostgresAppointmentRepo {
	return &PostgresAppointmentRepo{db: db}
}

// ListUpcomingWithOwner は (from, until] の範囲に予定されている予約を
// オーナーのメールアドレス付きでdate昇順に返す。
func (r *PostgresAppointmentRepo) ListUpcomingWithOwner(ctx context.Context, from, until time.Time) ([]AppointmentWithOwner, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.owner_id, a.doctor, a.date, a.purpose, a.location, a.notes,
		        a.created_at, a.updated_at, u.email
		 FROM appointments a
		 INNER JOIN users u ON a.owner_id = u.id
		 WHERE a.date > $1
		   AND a.date <= $2
		 ORDER BY a.date ASC`,
		from, until,
	)
	if err != nil {
		return nil, fmt.Errorf("診察予約の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var appointments []AppointmentWithOwner
	for rows.Next() {
		var appt AppointmentWithOwner
		if err := rows.Scan(
			&appt.ID, &appt.OwnerID, &appt.Doctor, &appt.Date,
			&appt.Purpose, &appt.Location, &appt.Notes,
			&appt.CreatedAt, &appt.UpdatedAt, &appt.OwnerEmail,
		); err != nil {
			return nil, fmt.Errorf("診察予約の読み取りに失敗しました: %w", err)
		}
		appointments = append(appointments, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("診察予約の走査に失敗しました: %w", err)
	}

	return appointments, nil
}

// compile-time interface check
var _ AppointmentRepository = (*PostgresAppointmentRepo)(nil)
