package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"investing/internal/db"
	"investing/internal/metrics"
	"investing/internal/models"
	"investing/internal/money"
	"investing/internal/store"
	"investing/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

var (
	ErrInvestmentNotCompleted = errors.New("investment has not matured")
	ErrNoROIAvailable         = errors.New("no roi available to withdraw")
	ErrROIAlreadyWithdrawn    = errors.New("roi already withdrawn")
	ErrWithdrawalNotFound     = errors.New("withdrawal not found")
	ErrWithdrawalNotPending   = errors.New("withdrawal is not pending")
	ErrWrongWithdrawalType    = errors.New("wrong withdrawal type")
	ErrInsufficientAvailable  = errors.New("insufficient available balance")
)

type WithdrawalStore interface {
	Create(ctx context.Context, tx store.Execer, input store.WithdrawalInput) error
	GetForUpdate(ctx context.Context, tx store.Getter, withdrawalID string) (models.Withdrawal, error)
	Resolve(ctx context.Context, tx store.Execer, withdrawalID, status string, fee, paid int64) (int64, error)
}

// WithdrawalService owns the pending -> {confirmed, rejected} state machine
// for both ROI and standard withdrawals. Every balance move happens inside
// one serialized transaction keyed on the user row lock, and resolutions are
// guarded by a conditional status update so a racing duplicate admin action
// cannot double-apply.
type WithdrawalService struct {
	txRunner    db.TxRunner
	users       UserStore
	investments InvestmentStore
	withdrawals WithdrawalStore
	audit       AuditStore
	hub         BalanceHub
	feePercent  decimal.Decimal
}

func NewWithdrawalService(txRunner db.TxRunner, users UserStore, investments InvestmentStore, withdrawals WithdrawalStore, audit AuditStore, hub BalanceHub, feePercent decimal.Decimal) *WithdrawalService {
	return &WithdrawalService{
		txRunner:    txRunner,
		users:       users,
		investments: investments,
		withdrawals: withdrawals,
		audit:       audit,
		hub:         hub,
		feePercent:  feePercent,
	}
}

type ROIWithdrawalRequest struct {
	UserID        string
	InvestmentID  string
	WalletAddress string
	Network       string
	Currency      string
}

type WithdrawalResult struct {
	WithdrawalID string
	Amount       int64
	Balances     store.Balances
}

// RequestROI creates a pending ROI withdrawal for a matured investment and
// moves the ROI into the user's locked balance. An investment whose end date
// has passed but which the engine has not yet visited is flipped to
// completed here.
func (s *WithdrawalService) RequestROI(ctx context.Context, req ROIWithdrawalRequest) (WithdrawalResult, error) {
	var result WithdrawalResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		inv, err := s.investments.GetForUpdate(ctx, tx, req.InvestmentID)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrInvestmentNotFound
			}
			return err
		}
		if inv.UserID != req.UserID {
			return ErrNotInvestmentOwner
		}
		if inv.Status == models.InvestmentActive {
			if time.Now().Before(inv.EndDate) {
				return ErrInvestmentNotCompleted
			}
			if err := s.investments.MarkCompleted(ctx, tx, inv.ID); err != nil {
				return err
			}
		}
		if inv.ROIWithdrawn {
			return ErrROIAlreadyWithdrawn
		}
		roi := inv.CurrentValue - inv.Amount
		if roi <= 0 {
			return ErrNoROIAvailable
		}
		claimed, err := s.investments.MarkROIWithdrawn(ctx, tx, inv.ID)
		if err != nil {
			return err
		}
		if claimed == 0 {
			return ErrROIAlreadyWithdrawn
		}
		withdrawalID := uuid.NewString()
		if err := s.withdrawals.Create(ctx, tx, store.WithdrawalInput{
			ID:            withdrawalID,
			UserID:        req.UserID,
			InvestmentID:  &inv.ID,
			Amount:        roi,
			Type:          models.WithdrawalROI,
			WalletAddress: req.WalletAddress,
			Network:       req.Network,
			Currency:      req.Currency,
		}); err != nil {
			return err
		}
		balances, err := s.users.AdjustBalances(ctx, tx, req.UserID, 0, 0, roi)
		if err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"investment_id": inv.ID,
			"amount":        money.FormatMinor(roi),
		})
		if err := s.audit.Log(ctx, tx, req.UserID, "request_roi_withdrawal", "withdrawal", withdrawalID, string(data)); err != nil {
			return err
		}
		result = WithdrawalResult{WithdrawalID: withdrawalID, Amount: roi, Balances: balances}
		return nil
	})
	if err != nil {
		return WithdrawalResult{}, err
	}
	s.broadcast(req.UserID, result.Balances)
	return result, nil
}

type StandardWithdrawalRequest struct {
	UserID        string
	AmountMinor   int64
	WalletAddress string
	Network       string
	Currency      string
}

// RequestStandard creates a pending cash-out from available balance,
// parking the amount in locked balance until an admin resolves it.
func (s *WithdrawalService) RequestStandard(ctx context.Context, req StandardWithdrawalRequest) (WithdrawalResult, error) {
	if req.AmountMinor <= 0 {
		return WithdrawalResult{}, ErrInvalidAmount
	}
	var result WithdrawalResult
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		user, err := s.users.GetForUpdate(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if user.AvailableBalance < req.AmountMinor {
			return ErrInsufficientAvailable
		}
		withdrawalID := uuid.NewString()
		if err := s.withdrawals.Create(ctx, tx, store.WithdrawalInput{
			ID:            withdrawalID,
			UserID:        req.UserID,
			Amount:        req.AmountMinor,
			Type:          models.WithdrawalStandard,
			WalletAddress: req.WalletAddress,
			Network:       req.Network,
			Currency:      req.Currency,
		}); err != nil {
			return err
		}
		balances, err := s.users.AdjustBalances(ctx, tx, req.UserID, 0, -req.AmountMinor, req.AmountMinor)
		if err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"amount": money.FormatMinor(req.AmountMinor),
		})
		if err := s.audit.Log(ctx, tx, req.UserID, "request_withdrawal", "withdrawal", withdrawalID, string(data)); err != nil {
			return err
		}
		result = WithdrawalResult{WithdrawalID: withdrawalID, Amount: req.AmountMinor, Balances: balances}
		return nil
	})
	if err != nil {
		return WithdrawalResult{}, err
	}
	s.broadcast(req.UserID, result.Balances)
	return result, nil
}

type ResolveRequest struct {
	AdminID      string
	WithdrawalID string
	Accept       bool

	// WantType guards the admin queue endpoints: resolving a standard
	// withdrawal through the ROI approval route is refused.
	WantType string
}

type ResolveResult struct {
	Status       string
	Amount       int64
	FeeAmount    int64
	AmountPaid   int64
	UserID       string
	BalancesSeen store.Balances
}

// Resolve moves a pending withdrawal to confirmed or rejected and applies
// the balance effects for its type. Accepting an ROI withdrawal releases the
// full requested amount from locked balance and credits the fee-reduced
// remainder to available; the fee itself is not paid out anywhere. Rejecting
// an ROI withdrawal leaves the funds in locked balance on purpose: the
// investment's roi_withdrawn flag stays set, so the user cannot re-request
// and the record waits for manual follow-up.
func (s *WithdrawalService) Resolve(ctx context.Context, req ResolveRequest) (ResolveResult, error) {
	var result ResolveResult
	var broadcastTo string
	err := s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		wd, err := s.withdrawals.GetForUpdate(ctx, tx, req.WithdrawalID)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrWithdrawalNotFound
			}
			return err
		}
		if req.WantType != "" && wd.Type != req.WantType {
			return ErrWrongWithdrawalType
		}
		if wd.Status != models.WithdrawalPending {
			return ErrWithdrawalNotPending
		}
		status := models.WithdrawalRejected
		fee := int64(0)
		paid := int64(0)
		if req.Accept {
			status = models.WithdrawalConfirmed
			fee = money.PercentOf(wd.Amount, s.feePercent)
			paid = wd.Amount - fee
		}
		// The fee and net payout are persisted on the withdrawal row in the
		// same conditional update that flips its status.
		resolvedRows, err := s.withdrawals.Resolve(ctx, tx, wd.ID, status, fee, paid)
		if err != nil {
			return err
		}
		if resolvedRows == 0 {
			return ErrWithdrawalNotPending
		}

		var balances store.Balances
		switch {
		case req.Accept && wd.Type == models.WithdrawalROI:
			balances, err = s.users.AdjustBalances(ctx, tx, wd.UserID, 0, paid, -wd.Amount)
			if err != nil {
				return err
			}
			// roi_withdrawn is already set; reasserting it is a no-op.
			if wd.InvestmentID != nil {
				if _, err := s.investments.MarkROIWithdrawn(ctx, tx, *wd.InvestmentID); err != nil {
					return err
				}
			}
			broadcastTo = wd.UserID
		case req.Accept && wd.Type == models.WithdrawalStandard:
			balances, err = s.users.AdjustBalances(ctx, tx, wd.UserID, 0, 0, -wd.Amount)
			if err != nil {
				return err
			}
			broadcastTo = wd.UserID
		case !req.Accept && wd.Type == models.WithdrawalStandard:
			// Rejected cash-outs are refunded to available balance.
			balances, err = s.users.AdjustBalances(ctx, tx, wd.UserID, 0, wd.Amount, -wd.Amount)
			if err != nil {
				return err
			}
			broadcastTo = wd.UserID
		default:
			// Rejected ROI withdrawal: balances deliberately untouched.
		}

		data, _ := json.Marshal(map[string]string{
			"status": status,
			"amount": money.FormatMinor(wd.Amount),
			"fee":    money.FormatMinor(fee),
		})
		if err := s.audit.Log(ctx, tx, req.AdminID, "resolve_withdrawal", "withdrawal", wd.ID, string(data)); err != nil {
			return err
		}
		metrics.WithdrawalsResolved.WithLabelValues(wd.Type, status).Inc()
		result = ResolveResult{
			Status:       status,
			Amount:       wd.Amount,
			FeeAmount:    fee,
			AmountPaid:   paid,
			UserID:       wd.UserID,
			BalancesSeen: balances,
		}
		return nil
	})
	if err != nil {
		return ResolveResult{}, err
	}
	if broadcastTo != "" {
		s.broadcast(broadcastTo, result.BalancesSeen)
	}
	return result, nil
}

func (s *WithdrawalService) broadcast(userID string, balances store.Balances) {
	s.hub.BroadcastBalances(userID, websocket.BalanceUpdate{
		Deposit:   money.FormatMinor(balances.Deposit),
		Available: money.FormatMinor(balances.Available),
		Locked:    money.FormatMinor(balances.Locked),
	})
}
