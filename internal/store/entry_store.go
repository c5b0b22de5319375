package store

import (
	"context"

	"investing/internal/models"
)

// EntryStore persists the append-only transaction history of an investment.
type EntryStore struct {
	db DB
}

func NewEntryStore(db DB) *EntryStore {
	return &EntryStore{db: db}
}

type EntryInput struct {
	ID           string
	InvestmentID string
	Type         string
	Amount       int64
	Description  string
}

func (s *EntryStore) InsertEntries(ctx context.Context, tx Execer, entries []EntryInput) error {
	query := `
		INSERT INTO investment_transactions (id, investment_id, type, amount, description)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, entry := range entries {
		if _, err := tx.ExecContext(ctx, query, entry.ID, entry.InvestmentID, entry.Type, entry.Amount, entry.Description); err != nil {
			return err
		}
	}
	return nil
}

func (s *EntryStore) ListByInvestment(ctx context.Context, investmentID string, limit, offset int) ([]models.InvestmentTransaction, error) {
	var rows []models.InvestmentTransaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, investment_id, type, amount, description, created_at
		FROM investment_transactions
		WHERE investment_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, investmentID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
