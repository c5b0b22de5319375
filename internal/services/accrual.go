package services

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"investing/internal/db"
	"investing/internal/metrics"
	"investing/internal/models"
	"investing/internal/money"
	"investing/internal/plans"
	"investing/internal/store"
	"investing/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type InvestmentStore interface {
	Create(ctx context.Context, tx store.Execer, input store.InvestmentInput) error
	GetForUpdate(ctx context.Context, tx store.Getter, investmentID string) (models.Investment, error)
	ListActiveIDs(ctx context.Context) ([]string, error)
	HasActive(ctx context.Context, userID string) (bool, error)
	UpdateValue(ctx context.Context, tx store.Execer, investmentID string, currentValue int64) error
	MarkCompleted(ctx context.Context, tx store.Execer, investmentID string) error
	MarkROIWithdrawn(ctx context.Context, tx store.Execer, investmentID string) (int64, error)
}

type EntryStore interface {
	InsertEntries(ctx context.Context, tx store.Execer, entries []store.EntryInput) error
}

type GainLogStore interface {
	Insert(ctx context.Context, tx store.Execer, id, userID, investmentID string, amount int64) error
}

type UserStore interface {
	GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.User, error)
	AdjustBalances(ctx context.Context, tx store.Tx, userID string, deltaDeposit, deltaAvailable, deltaLocked int64) (store.Balances, error)
}

type PlanResolver interface {
	Resolve(ctx context.Context, planName string) (plans.Params, error)
}

type BalanceHub interface {
	BroadcastBalances(userID string, update websocket.BalanceUpdate)
}

type AccrualConfig struct {
	Interval               time.Duration
	MaxStepPercent         decimal.Decimal
	SettleThresholdPercent decimal.Decimal
	SettleNudgeCapPercent  decimal.Decimal

	// When set, positive accrual is credited straight to available_balance
	// in addition to growing the investment. Matches the live platform;
	// disable to make ROI liquid only through the withdrawal flow.
	CreditAccrualToAvailable bool
}

// AccrualEngine walks all active investments on a fixed interval and nudges
// each current value toward its per-investment target: a deterministic drift
// share plus bounded random noise, floor-clamped and step-clamped. At
// maturity it applies at most one bounded corrective nudge and marks the
// investment completed.
type AccrualEngine struct {
	txRunner    db.TxRunner
	investments InvestmentStore
	entries     EntryStore
	gains       GainLogStore
	users       UserStore
	plans       PlanResolver
	hub         BalanceHub
	cfg         AccrualConfig
	logger      *zap.Logger
	rng         *rand.Rand
}

func NewAccrualEngine(txRunner db.TxRunner, investments InvestmentStore, entries EntryStore, gains GainLogStore, users UserStore, planResolver PlanResolver, hub BalanceHub, cfg AccrualConfig, logger *zap.Logger) *AccrualEngine {
	return &AccrualEngine{
		txRunner:    txRunner,
		investments: investments,
		entries:     entries,
		gains:       gains,
		users:       users,
		plans:       planResolver,
		hub:         hub,
		cfg:         cfg,
		logger:      logger,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run drives the engine until ctx is cancelled.
func (e *AccrualEngine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()
	e.logger.Info("accrual engine started", zap.Duration("interval", e.cfg.Interval))
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("accrual engine stopped")
			return
		case now := <-ticker.C:
			e.Tick(ctx, now)
		}
	}
}

// Tick processes every active investment once. Each investment runs in its
// own transaction; a failure is logged and counted, and the loop moves on.
// State is persisted incrementally, so a failed investment simply catches up
// on the next tick.
func (e *AccrualEngine) Tick(ctx context.Context, now time.Time) {
	metrics.AccrualTicksTotal.Inc()
	ids, err := e.investments.ListActiveIDs(ctx)
	if err != nil {
		e.logger.Error("unable to list active investments", zap.Error(err))
		return
	}
	// Plan parameters (including runtime overrides) are resolved once per
	// tick per plan, not per field inside the loop.
	resolved := map[string]plans.Params{}
	for _, id := range ids {
		if err := e.processInvestment(ctx, id, now, resolved); err != nil {
			metrics.AccrualErrors.Inc()
			e.logger.Error("accrual failed", zap.String("investment_id", id), zap.Error(err))
			continue
		}
		metrics.AccrualInvestmentsProcessed.Inc()
	}
}

func (e *AccrualEngine) processInvestment(ctx context.Context, investmentID string, now time.Time, resolved map[string]plans.Params) error {
	var credited *store.Balances
	var userID string
	err := e.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		inv, err := e.investments.GetForUpdate(ctx, tx, investmentID)
		if err != nil {
			return err
		}
		if inv.Status != models.InvestmentActive {
			return nil
		}
		userID = inv.UserID
		params, ok := resolved[inv.PlanName]
		if !ok {
			params, err = e.plans.Resolve(ctx, inv.PlanName)
			if err != nil {
				return err
			}
			resolved[inv.PlanName] = params
		}
		target, err := decimal.NewFromString(inv.TargetROI)
		if err != nil {
			return fmt.Errorf("bad target roi %q: %w", inv.TargetROI, err)
		}
		expectedFinal := money.ApplyGrowth(inv.Amount, target)
		matured := !now.Before(inv.EndDate)

		var fluctuation int64
		if matured {
			fluctuation = e.settleNudge(inv, expectedFinal)
		} else {
			fluctuation = e.driftStep(inv, expectedFinal, params.Volatility, now)
		}

		if fluctuation != 0 {
			newValue := inv.CurrentValue + fluctuation
			if err := e.investments.UpdateValue(ctx, tx, inv.ID, newValue); err != nil {
				return err
			}
			if err := e.entries.InsertEntries(ctx, tx, []store.EntryInput{{
				ID:           uuid.NewString(),
				InvestmentID: inv.ID,
				Type:         models.EntryROI,
				Amount:       fluctuation,
				Description:  "ROI accrual",
			}}); err != nil {
				return err
			}
			if err := e.gains.Insert(ctx, tx, uuid.NewString(), inv.UserID, inv.ID, fluctuation); err != nil {
				return err
			}
			if fluctuation > 0 && e.cfg.CreditAccrualToAvailable {
				balances, err := e.users.AdjustBalances(ctx, tx, inv.UserID, 0, fluctuation, 0)
				if err != nil {
					return err
				}
				credited = &balances
			}
		}
		if matured {
			if err := e.investments.MarkCompleted(ctx, tx, inv.ID); err != nil {
				return err
			}
			metrics.InvestmentsCompleted.Inc()
		}
		return nil
	})
	if err != nil {
		return err
	}
	if credited != nil {
		e.hub.BroadcastBalances(userID, websocket.BalanceUpdate{
			Deposit:   money.FormatMinor(credited.Deposit),
			Available: money.FormatMinor(credited.Available),
			Locked:    money.FormatMinor(credited.Locked),
		})
	}
	return nil
}

// driftStep computes one pre-maturity fluctuation: the remaining gain spread
// over the ticks left, plus volatility noise, floored so the value never
// drops below one cent and clamped to the per-tick step cap.
func (e *AccrualEngine) driftStep(inv models.Investment, expectedFinal int64, volatility decimal.Decimal, now time.Time) int64 {
	remaining := inv.EndDate.Sub(now)
	ticksLeft := int64(remaining / e.cfg.Interval)
	if remaining%e.cfg.Interval > 0 {
		ticksLeft++
	}
	if ticksLeft < 1 {
		ticksLeft = 1
	}
	baseChange := (expectedFinal - inv.CurrentValue) / ticksLeft
	fluctuation := baseChange + e.noise(inv.Amount, volatility)

	if inv.CurrentValue+fluctuation < 1 {
		fluctuation = 1 - inv.CurrentValue
	}
	maxStep := money.PercentOf(inv.Amount, e.cfg.MaxStepPercent)
	if fluctuation > maxStep {
		fluctuation = maxStep
	}
	if fluctuation < -maxStep {
		fluctuation = -maxStep
	}
	return fluctuation
}

// settleNudge is the at-maturity correction: nothing if the value already
// sits within the settle threshold of the target, otherwise one bounded
// nudge toward it. No forced exact settle, so the final tick never jumps.
func (e *AccrualEngine) settleNudge(inv models.Investment, expectedFinal int64) int64 {
	gap := expectedFinal - inv.CurrentValue
	threshold := money.PercentOf(inv.Amount, e.cfg.SettleThresholdPercent)
	if gap <= threshold && gap >= -threshold {
		return 0
	}
	nudgeCap := money.PercentOf(inv.Amount, e.cfg.SettleNudgeCapPercent)
	if gap > nudgeCap {
		gap = nudgeCap
	}
	if gap < -nudgeCap {
		gap = -nudgeCap
	}
	if inv.CurrentValue+gap < 1 {
		gap = 1 - inv.CurrentValue
	}
	return gap
}

func (e *AccrualEngine) noise(amount int64, volatility decimal.Decimal) int64 {
	if volatility.IsZero() {
		return 0
	}
	draw := e.rng.Float64()*2 - 1
	return decimal.NewFromInt(amount).
		Mul(volatility).
		Mul(decimal.NewFromFloat(draw)).
		RoundBank(0).
		IntPart()
}
