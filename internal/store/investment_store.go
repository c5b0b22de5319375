package store

import (
	"context"
	"time"

	"investing/internal/models"
)

type InvestmentStore struct {
	db DB
}

func NewInvestmentStore(db DB) *InvestmentStore {
	return &InvestmentStore{db: db}
}

type InvestmentInput struct {
	ID           string
	UserID       string
	PlanName     string
	Amount       int64
	CurrentValue int64
	TargetROI    string
	StartDate    time.Time
	EndDate      time.Time
}

const investmentColumns = `
	id, user_id, plan_name, amount, current_value, target_roi,
	start_date, end_date, status, roi_withdrawn, created_at
`

func (s *InvestmentStore) Create(ctx context.Context, tx Execer, input InvestmentInput) error {
	query := `
		INSERT INTO investments (id, user_id, plan_name, amount, current_value, target_roi, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active')
	`
	_, err := tx.ExecContext(ctx, query,
		input.ID, input.UserID, input.PlanName, input.Amount, input.CurrentValue,
		input.TargetROI, input.StartDate, input.EndDate,
	)
	return err
}

func (s *InvestmentStore) GetByID(ctx context.Context, investmentID string) (models.Investment, error) {
	var row models.Investment
	err := s.db.GetContext(ctx, &row, `
		SELECT `+investmentColumns+`
		FROM investments
		WHERE id = $1
	`, investmentID)
	return row, err
}

func (s *InvestmentStore) GetForUpdate(ctx context.Context, tx Getter, investmentID string) (models.Investment, error) {
	var row models.Investment
	err := tx.GetContext(ctx, &row, `
		SELECT `+investmentColumns+`
		FROM investments
		WHERE id = $1
		FOR UPDATE
	`, investmentID)
	return row, err
}

// ListActiveIDs returns the ids of all active investments. The accrual engine
// processes each id in its own transaction, so only ids are read here.
func (s *InvestmentStore) ListActiveIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT id
		FROM investments
		WHERE status = 'active'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *InvestmentStore) ListByUser(ctx context.Context, userID string) ([]models.Investment, error) {
	var rows []models.Investment
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+investmentColumns+`
		FROM investments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// HasActive reports whether the user already holds an active investment.
// One active investment per user, enforced at creation.
func (s *InvestmentStore) HasActive(ctx context.Context, userID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count, `
		SELECT COUNT(1)
		FROM investments
		WHERE user_id = $1 AND status = 'active'
	`, userID)
	return count > 0, err
}

func (s *InvestmentStore) UpdateValue(ctx context.Context, tx Execer, investmentID string, currentValue int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE investments
		SET current_value = $1, updated_at = NOW()
		WHERE id = $2
	`, currentValue, investmentID)
	return err
}

func (s *InvestmentStore) MarkCompleted(ctx context.Context, tx Execer, investmentID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE investments
		SET status = 'completed', updated_at = NOW()
		WHERE id = $1
	`, investmentID)
	return err
}

// MarkROIWithdrawn flips roi_withdrawn and reports how many rows changed.
// Zero rows means another request already claimed the ROI.
func (s *InvestmentStore) MarkROIWithdrawn(ctx context.Context, tx Execer, investmentID string) (int64, error) {
	res, err := tx.ExecContext(ctx, `
		UPDATE investments
		SET roi_withdrawn = TRUE, updated_at = NOW()
		WHERE id = $1 AND roi_withdrawn = FALSE
	`, investmentID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *InvestmentStore) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Investment, error) {
	var rows []models.Investment
	query := `
		SELECT ` + investmentColumns + `
		FROM investments
	`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
		args = append(args, status, limit, offset)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`
		args = append(args, limit, offset)
	}
	err := s.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
