package store

import (
	"context"
	"database/sql"
)

type AdminStore struct {
	db DB
}

func NewAdminStore(db DB) *AdminStore {
	return &AdminStore{db: db}
}

func (s *AdminStore) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(1)
		FROM admins
		WHERE user_id = $1
	`, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return count > 0, nil
}

func (s *AdminStore) CreateAdmin(ctx context.Context, tx Execer, userID string, createdBy *string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO admins (user_id, created_by)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, userID, createdBy)
	return err
}

// HasAnyAdmin reports whether any admin exists yet. It reads through the
// caller's transaction so that the first-admin bootstrap in registration is
// decided under the same serializable transaction that promotes the user.
func (s *AdminStore) HasAnyAdmin(ctx context.Context, tx Getter) (bool, error) {
	var count int
	err := tx.GetContext(ctx, &count, `SELECT COUNT(1) FROM admins`)
	return count > 0, err
}
