package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"time"

	"investing/internal/db"
	"investing/internal/models"
	"investing/internal/money"
	"investing/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrInvestmentNotFound     = errors.New("investment not found")
	ErrNotInvestmentOwner     = errors.New("investment does not belong to user")
	ErrActiveInvestmentExists = errors.New("user already has an active investment")
	ErrInsufficientDeposit    = errors.New("insufficient deposit balance")
	ErrInvestmentNotActive    = errors.New("investment is not active")
	ErrValueWouldGoNegative   = errors.New("adjustment would make value negative")
)

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

// InvestmentService creates investments from deposit balance and carries the
// admin manual-adjustment path.
type InvestmentService struct {
	txRunner    db.TxRunner
	users       UserStore
	investments InvestmentStore
	entries     EntryStore
	plans       PlanResolver
	audit       AuditStore
	rng         *rand.Rand
}

func NewInvestmentService(txRunner db.TxRunner, users UserStore, investments InvestmentStore, entries EntryStore, planResolver PlanResolver, audit AuditStore) *InvestmentService {
	return &InvestmentService{
		txRunner:    txRunner,
		users:       users,
		investments: investments,
		entries:     entries,
		plans:       planResolver,
		audit:       audit,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type CreateInvestmentRequest struct {
	UserID      string
	PlanName    string
	AmountMinor int64
}

type CreatedInvestment struct {
	ID        string
	PlanName  string
	Amount    int64
	TargetROI string
	EndDate   time.Time
	Balances  store.Balances
}

func (s *InvestmentService) Create(ctx context.Context, req CreateInvestmentRequest) (CreatedInvestment, error) {
	if req.AmountMinor <= 0 {
		return CreatedInvestment{}, ErrInvalidAmount
	}
	params, err := s.plans.Resolve(ctx, req.PlanName)
	if err != nil {
		return CreatedInvestment{}, err
	}
	// Target ROI is drawn once here, uniform in [roi, roi+maxVariation],
	// and never re-picked: the accrual drift stays aimed at a fixed value.
	variation := params.MaxVariationPercent.Mul(decimal.NewFromFloat(s.rng.Float64()))
	target := params.ROIPercent.Add(variation).Round(6)

	var result CreatedInvestment
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		active, err := s.investments.HasActive(ctx, req.UserID)
		if err != nil {
			return err
		}
		if active {
			return ErrActiveInvestmentExists
		}
		if user.DepositBalance < req.AmountMinor {
			return ErrInsufficientDeposit
		}
		now := time.Now().UTC()
		investmentID := uuid.NewString()
		input := store.InvestmentInput{
			ID:           investmentID,
			UserID:       req.UserID,
			PlanName:     params.Name,
			Amount:       req.AmountMinor,
			CurrentValue: req.AmountMinor,
			TargetROI:    target.StringFixed(6),
			StartDate:    now,
			EndDate:      now.AddDate(0, 0, params.DurationDays),
		}
		if err := s.investments.Create(ctx, tx, input); err != nil {
			return err
		}
		if err := s.entries.InsertEntries(ctx, tx, []store.EntryInput{{
			ID:           uuid.NewString(),
			InvestmentID: investmentID,
			Type:         models.EntryDeposit,
			Amount:       req.AmountMinor,
			Description:  "Principal deposit",
		}}); err != nil {
			return err
		}
		balances, err := s.users.AdjustBalances(ctx, tx, req.UserID, -req.AmountMinor, 0, 0)
		if err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"plan":   params.Name,
			"amount": money.FormatMinor(req.AmountMinor),
		})
		if err := s.audit.Log(ctx, tx, req.UserID, "create_investment", "investment", investmentID, string(data)); err != nil {
			return err
		}
		result = CreatedInvestment{
			ID:        investmentID,
			PlanName:  params.Name,
			Amount:    req.AmountMinor,
			TargetROI: input.TargetROI,
			EndDate:   now.AddDate(0, 0, params.DurationDays),
			Balances:  balances,
		}
		return nil
	})
	if err != nil {
		return CreatedInvestment{}, err
	}
	return result, nil
}

type AdjustValueRequest struct {
	AdminID      string
	InvestmentID string
	AmountMinor  int64
	Description  string
}

// AdjustValue applies an admin gain/loss straight to an active investment's
// current value. No approval workflow; effective immediately. Adjustments
// that would push the value negative are refused.
func (s *InvestmentService) AdjustValue(ctx context.Context, req AdjustValueRequest) (int64, error) {
	if req.AmountMinor == 0 {
		return 0, ErrInvalidAmount
	}
	var newValue int64
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		inv, err := s.investments.GetForUpdate(ctx, tx, req.InvestmentID)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrInvestmentNotFound
			}
			return err
		}
		if inv.Status != models.InvestmentActive {
			return ErrInvestmentNotActive
		}
		newValue = inv.CurrentValue + req.AmountMinor
		if newValue < 0 {
			return ErrValueWouldGoNegative
		}
		if err := s.investments.UpdateValue(ctx, tx, inv.ID, newValue); err != nil {
			return err
		}
		entryType := models.EntryGain
		description := req.Description
		if req.AmountMinor < 0 {
			entryType = models.EntryLoss
			if description == "" {
				description = "Manual loss adjustment"
			}
		} else if description == "" {
			description = "Manual gain adjustment"
		}
		if err := s.entries.InsertEntries(ctx, tx, []store.EntryInput{{
			ID:           uuid.NewString(),
			InvestmentID: inv.ID,
			Type:         entryType,
			Amount:       req.AmountMinor,
			Description:  description,
		}}); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"amount": money.FormatMinor(req.AmountMinor),
		})
		return s.audit.Log(ctx, tx, req.AdminID, "set_gain_loss", "investment", inv.ID, string(data))
	})
	if err != nil {
		return 0, err
	}
	return newValue, nil
}
