package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
)

func TestWithdrawalStoreCreatePending(t *testing.T) {
	ctx := context.Background()
	investmentID := "inv-1"
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO withdrawals") || !strings.Contains(query, "'pending'") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 8 || args[3] != int64(250000) || args[4] != "roi" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	store := NewWithdrawalStore(stubDB{})
	err := store.Create(ctx, execer, WithdrawalInput{
		ID: "wd-1", UserID: "user-1", InvestmentID: &investmentID,
		Amount: 250000, Type: "roi",
		WalletAddress: "0x0123456789abcdef0123456789abcdef01234567",
		Network:       "ethereum", Currency: "USDT",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWithdrawalStoreResolveGuardsPending(t *testing.T) {
	ctx := context.Background()
	store := NewWithdrawalStore(stubDB{})
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "status = 'pending'") {
				t.Fatalf("expected pending guard, got: %s", query)
			}
			if !strings.Contains(query, "fee_amount") || !strings.Contains(query, "amount_paid") {
				t.Fatalf("expected fee and payout columns written, got: %s", query)
			}
			if args[0] != "confirmed" || args[1] != int64(12500) || args[2] != int64(237500) {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	}
	rows, err := store.Resolve(ctx, execer, "wd-1", "confirmed", 12500, 237500)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 1 {
		t.Fatalf("expected one row resolved, got %d", rows)
	}
}

func TestWithdrawalStoreResolveAlreadyTerminal(t *testing.T) {
	ctx := context.Background()
	store := NewWithdrawalStore(stubDB{})
	execer := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	}
	rows, err := store.Resolve(ctx, execer, "wd-1", "rejected", 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows != 0 {
		t.Fatalf("expected zero rows for resolved withdrawal, got %d", rows)
	}
}
