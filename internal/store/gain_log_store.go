package store

import (
	"context"

	"investing/internal/models"
)

// GainLogStore records the per-tick accrual applied to each investment.
type GainLogStore struct {
	db DB
}

func NewGainLogStore(db DB) *GainLogStore {
	return &GainLogStore{db: db}
}

func (s *GainLogStore) Insert(ctx context.Context, tx Execer, id, userID, investmentID string, amount int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO gain_logs (id, user_id, investment_id, amount)
		VALUES ($1, $2, $3, $4)
	`, id, userID, investmentID, amount)
	return err
}

func (s *GainLogStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.GainLog, error) {
	var rows []models.GainLog
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, investment_id, amount, created_at
		FROM gain_logs
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
