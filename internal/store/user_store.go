package store

import (
	"context"

	"investing/internal/models"
)

type UserStore struct {
	db DB
}

func NewUserStore(db DB) *UserStore {
	return &UserStore{db: db}
}

// Balances is the post-mutation snapshot returned by AdjustBalances so
// callers can respond and broadcast without a second read.
type Balances struct {
	Deposit   int64 `db:"deposit_balance"`
	Available int64 `db:"available_balance"`
	Locked    int64 `db:"locked_balance"`
}

func (s *UserStore) Create(ctx context.Context, tx Execer, id, username, email, passwordHash string, openingDeposit int64) error {
	query := `
		INSERT INTO users (id, username, email, password_hash, deposit_balance, available_balance, locked_balance)
		VALUES ($1, $2, $3, $4, $5, 0, 0)
	`
	_, err := tx.ExecContext(ctx, query, id, username, email, passwordHash, openingDeposit)
	return err
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, deposit_balance, available_balance, locked_balance, created_at
		FROM users
		WHERE email = $1
	`, email)
	return row, err
}

func (s *UserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	var row models.User
	err := s.db.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, deposit_balance, available_balance, locked_balance, created_at
		FROM users
		WHERE id = $1
	`, userID)
	return row, err
}

// GetForUpdate locks the user row for the duration of the surrounding
// transaction. Every balance mutation goes through this lock.
func (s *UserStore) GetForUpdate(ctx context.Context, tx Getter, userID string) (models.User, error) {
	var row models.User
	err := tx.GetContext(ctx, &row, `
		SELECT id, username, email, password_hash, deposit_balance, available_balance, locked_balance, created_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`, userID)
	return row, err
}

// AdjustBalances applies signed deltas to the three balance columns in a
// single atomic statement and returns the resulting balances.
func (s *UserStore) AdjustBalances(ctx context.Context, tx Tx, userID string, deltaDeposit, deltaAvailable, deltaLocked int64) (Balances, error) {
	var balances Balances
	err := tx.GetContext(ctx, &balances, `
		UPDATE users
		SET deposit_balance = deposit_balance + $1,
		    available_balance = available_balance + $2,
		    locked_balance = locked_balance + $3,
		    updated_at = NOW()
		WHERE id = $4
		RETURNING deposit_balance, available_balance, locked_balance
	`, deltaDeposit, deltaAvailable, deltaLocked, userID)
	return balances, err
}

func (s *UserStore) ListAll(ctx context.Context, limit, offset int) ([]models.User, error) {
	var rows []models.User
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, username, email, password_hash, deposit_balance, available_balance, locked_balance, created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
