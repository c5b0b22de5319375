package store

import (
	"context"

	"investing/internal/models"
)

type WithdrawalStore struct {
	db DB
}

func NewWithdrawalStore(db DB) *WithdrawalStore {
	return &WithdrawalStore{db: db}
}

type WithdrawalInput struct {
	ID            string
	UserID        string
	InvestmentID  *string
	Amount        int64
	Type          string
	WalletAddress string
	Network       string
	Currency      string
}

const withdrawalColumns = `
	id, user_id, investment_id, amount, type, status,
	wallet_address, network, currency, fee_amount, amount_paid,
	created_at, updated_at
`

func (s *WithdrawalStore) Create(ctx context.Context, tx Execer, input WithdrawalInput) error {
	query := `
		INSERT INTO withdrawals (id, user_id, investment_id, amount, type, status, wallet_address, network, currency)
		VALUES ($1, $2, $3, $4, $5, 'pending', $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.InvestmentID, input.Amount, input.Type,
		input.WalletAddress, input.Network, input.Currency,
	)
	return err
}

func (s *WithdrawalStore) GetByID(ctx context.Context, withdrawalID string) (models.Withdrawal, error) {
	var row models.Withdrawal
	err := s.db.GetContext(ctx, &row, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE id = $1
	`, withdrawalID)
	return row, err
}

func (s *WithdrawalStore) GetForUpdate(ctx context.Context, tx Getter, withdrawalID string) (models.Withdrawal, error) {
	var row models.Withdrawal
	err := tx.GetContext(ctx, &row, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE id = $1
		FOR UPDATE
	`, withdrawalID)
	return row, err
}

// Resolve moves a pending withdrawal to its terminal status, records the fee
// withheld and the net amount paid, and reports how many rows changed. Zero
// rows means the record was already resolved, which is how racing duplicate
// admin actions are rejected.
func (s *WithdrawalStore) Resolve(ctx context.Context, tx Execer, withdrawalID, status string, fee, paid int64) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE withdrawals
		SET status = $1, fee_amount = $2, amount_paid = $3, updated_at = NOW()
		WHERE id = $4 AND status = 'pending'
	`, status, fee, paid, withdrawalID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *WithdrawalStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Withdrawal, error) {
	var rows []models.Withdrawal
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+withdrawalColumns+`
		FROM withdrawals
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByType returns withdrawals of one type, optionally filtered by status,
// newest first. Used by the admin approval queues.
func (s *WithdrawalStore) ListByType(ctx context.Context, withdrawalType, status string, limit, offset int) ([]models.Withdrawal, error) {
	var rows []models.Withdrawal
	query := `
		SELECT ` + withdrawalColumns + `
		FROM withdrawals
		WHERE type = $1
	`
	args := []any{withdrawalType}
	if status != "" {
		query += ` AND status = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4`
		args = append(args, status, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, limit, offset)
	}
	err := s.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
