package services

import (
	"context"

	"investing/internal/models"
	"investing/internal/plans"
	"investing/internal/store"
	"investing/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	err error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(nil)
}

type stubInvestmentStore struct {
	createFn           func(ctx context.Context, tx store.Execer, input store.InvestmentInput) error
	getForUpdateFn     func(ctx context.Context, tx store.Getter, investmentID string) (models.Investment, error)
	listActiveIDsFn    func(ctx context.Context) ([]string, error)
	hasActiveFn        func(ctx context.Context, userID string) (bool, error)
	updateValueFn      func(ctx context.Context, tx store.Execer, investmentID string, currentValue int64) error
	markCompletedFn    func(ctx context.Context, tx store.Execer, investmentID string) error
	markROIWithdrawnFn func(ctx context.Context, tx store.Execer, investmentID string) (int64, error)
}

func (s stubInvestmentStore) Create(ctx context.Context, tx store.Execer, input store.InvestmentInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubInvestmentStore) GetForUpdate(ctx context.Context, tx store.Getter, investmentID string) (models.Investment, error) {
	return s.getForUpdateFn(ctx, tx, investmentID)
}

func (s stubInvestmentStore) ListActiveIDs(ctx context.Context) ([]string, error) {
	if s.listActiveIDsFn == nil {
		return nil, nil
	}
	return s.listActiveIDsFn(ctx)
}

func (s stubInvestmentStore) HasActive(ctx context.Context, userID string) (bool, error) {
	if s.hasActiveFn == nil {
		return false, nil
	}
	return s.hasActiveFn(ctx, userID)
}

func (s stubInvestmentStore) UpdateValue(ctx context.Context, tx store.Execer, investmentID string, currentValue int64) error {
	if s.updateValueFn == nil {
		return nil
	}
	return s.updateValueFn(ctx, tx, investmentID, currentValue)
}

func (s stubInvestmentStore) MarkCompleted(ctx context.Context, tx store.Execer, investmentID string) error {
	if s.markCompletedFn == nil {
		return nil
	}
	return s.markCompletedFn(ctx, tx, investmentID)
}

func (s stubInvestmentStore) MarkROIWithdrawn(ctx context.Context, tx store.Execer, investmentID string) (int64, error) {
	if s.markROIWithdrawnFn == nil {
		return 1, nil
	}
	return s.markROIWithdrawnFn(ctx, tx, investmentID)
}

type stubEntryStore struct {
	insertFn func(ctx context.Context, tx store.Execer, entries []store.EntryInput) error
}

func (s stubEntryStore) InsertEntries(ctx context.Context, tx store.Execer, entries []store.EntryInput) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, entries)
}

type stubGainLogStore struct {
	insertFn func(ctx context.Context, tx store.Execer, id, userID, investmentID string, amount int64) error
}

func (s stubGainLogStore) Insert(ctx context.Context, tx store.Execer, id, userID, investmentID string, amount int64) error {
	if s.insertFn == nil {
		return nil
	}
	return s.insertFn(ctx, tx, id, userID, investmentID, amount)
}

type stubUserStore struct {
	getForUpdateFn   func(ctx context.Context, tx store.Getter, userID string) (models.User, error)
	adjustBalancesFn func(ctx context.Context, tx store.Tx, userID string, deltaDeposit, deltaAvailable, deltaLocked int64) (store.Balances, error)
}

func (s stubUserStore) GetForUpdate(ctx context.Context, tx store.Getter, userID string) (models.User, error) {
	if s.getForUpdateFn == nil {
		return models.User{}, nil
	}
	return s.getForUpdateFn(ctx, tx, userID)
}

func (s stubUserStore) AdjustBalances(ctx context.Context, tx store.Tx, userID string, deltaDeposit, deltaAvailable, deltaLocked int64) (store.Balances, error) {
	if s.adjustBalancesFn == nil {
		return store.Balances{}, nil
	}
	return s.adjustBalancesFn(ctx, tx, userID, deltaDeposit, deltaAvailable, deltaLocked)
}

type stubPlanResolver struct {
	resolveFn func(ctx context.Context, planName string) (plans.Params, error)
}

func (s stubPlanResolver) Resolve(ctx context.Context, planName string) (plans.Params, error) {
	return s.resolveFn(ctx, planName)
}

type stubWithdrawalStore struct {
	createFn       func(ctx context.Context, tx store.Execer, input store.WithdrawalInput) error
	getForUpdateFn func(ctx context.Context, tx store.Getter, withdrawalID string) (models.Withdrawal, error)
	resolveFn      func(ctx context.Context, tx store.Execer, withdrawalID, status string, fee, paid int64) (int64, error)
}

func (s stubWithdrawalStore) Create(ctx context.Context, tx store.Execer, input store.WithdrawalInput) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, input)
}

func (s stubWithdrawalStore) GetForUpdate(ctx context.Context, tx store.Getter, withdrawalID string) (models.Withdrawal, error) {
	return s.getForUpdateFn(ctx, tx, withdrawalID)
}

func (s stubWithdrawalStore) Resolve(ctx context.Context, tx store.Execer, withdrawalID, status string, fee, paid int64) (int64, error) {
	if s.resolveFn == nil {
		return 1, nil
	}
	return s.resolveFn(ctx, tx, withdrawalID, status, fee, paid)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubHub struct {
	calls []websocket.BalanceUpdate
}

func (s *stubHub) BroadcastBalances(_ string, update websocket.BalanceUpdate) {
	s.calls = append(s.calls, update)
}
