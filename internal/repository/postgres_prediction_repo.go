package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/careloop/internal/model"
)

// PostgresPredictionRepo はPostgreSQLを使用した健康リスク予測リポジトリ。
type PostgresPredictionRepo struct {
	db *sql.DB
}

// NewPostgresPredictionRepo はPostgresPredictionRepoを生成する。
func NewPostgresPredictionRepo(db *sql.DB) *PostgresPredictionRepo {
	return &PostgresPredictionRepo{db: db}
}

// Create は予測を作成する。
func (r *PostgresPredictionRepo) Create(ctx context.Context, prediction *model.Prediction) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO predictions (id, owner_id, kind, risk_score, confidence, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		prediction.ID, prediction.OwnerID, prediction.Kind,
		prediction.RiskScore, prediction.Confidence, prediction.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("予測の作成に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PredictionRepository = (*PostgresPredictionRepo)(nil)
