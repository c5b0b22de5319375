package services

import (
	"context"
	"testing"
	"time"

	"investing/internal/models"
	"investing/internal/plans"
	"investing/internal/store"

	"github.com/shopspring/decimal"
)

func starterResolver() stubPlanResolver {
	return stubPlanResolver{
		resolveFn: func(context.Context, string) (plans.Params, error) {
			return plans.Params{
				Name:                "starter",
				ROIPercent:          decimal.RequireFromString("8"),
				DurationDays:        30,
				MaxVariationPercent: decimal.RequireFromString("4"),
				Volatility:          decimal.RequireFromString("0.01"),
			}, nil
		},
	}
}

func TestCreateInvestmentSuccess(t *testing.T) {
	var created store.InvestmentInput
	var entry store.EntryInput
	var deltas [3]int64
	service := NewInvestmentService(fakeTxRunner{}, stubUserStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.User, error) {
			return models.User{ID: "user-1", DepositBalance: 2000000}, nil
		},
		adjustBalancesFn: func(_ context.Context, _ store.Tx, _ string, deltaDeposit, deltaAvailable, deltaLocked int64) (store.Balances, error) {
			deltas = [3]int64{deltaDeposit, deltaAvailable, deltaLocked}
			return store.Balances{Deposit: 1000000}, nil
		},
	}, stubInvestmentStore{
		createFn: func(_ context.Context, _ store.Execer, input store.InvestmentInput) error {
			created = input
			return nil
		},
	}, stubEntryStore{
		insertFn: func(_ context.Context, _ store.Execer, entries []store.EntryInput) error {
			entry = entries[0]
			return nil
		},
	}, starterResolver(), stubAuditStore{})

	result, err := service.Create(context.Background(), CreateInvestmentRequest{
		UserID: "user-1", PlanName: "starter", AmountMinor: 1000000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.CurrentValue != created.Amount || created.Amount != 1000000 {
		t.Fatalf("unexpected investment: %#v", created)
	}
	target, err := decimal.NewFromString(created.TargetROI)
	if err != nil {
		t.Fatalf("target roi not parseable: %v", err)
	}
	low := decimal.RequireFromString("8")
	high := decimal.RequireFromString("12")
	if target.LessThan(low) || target.GreaterThan(high) {
		t.Fatalf("target roi %s outside plan band", created.TargetROI)
	}
	wantEnd := created.StartDate.AddDate(0, 0, 30)
	if !created.EndDate.Equal(wantEnd) {
		t.Fatalf("unexpected end date: %v", created.EndDate)
	}
	if entry.Type != models.EntryDeposit || entry.Amount != 1000000 {
		t.Fatalf("unexpected entry: %#v", entry)
	}
	if deltas != [3]int64{-1000000, 0, 0} {
		t.Fatalf("unexpected balance deltas: %#v", deltas)
	}
	if result.TargetROI != created.TargetROI {
		t.Fatalf("result target mismatch")
	}
}

func TestCreateInvestmentTargetVaries(t *testing.T) {
	targets := map[string]struct{}{}
	service := NewInvestmentService(fakeTxRunner{}, stubUserStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.User, error) {
			return models.User{ID: "user-1", DepositBalance: 1 << 40}, nil
		},
	}, stubInvestmentStore{
		createFn: func(_ context.Context, _ store.Execer, input store.InvestmentInput) error {
			targets[input.TargetROI] = struct{}{}
			return nil
		},
	}, stubEntryStore{}, starterResolver(), stubAuditStore{})

	for i := 0; i < 20; i++ {
		if _, err := service.Create(context.Background(), CreateInvestmentRequest{
			UserID: "user-1", PlanName: "starter", AmountMinor: 1000,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(targets) < 2 {
		t.Fatalf("expected varying targets, got %d distinct", len(targets))
	}
}

func TestCreateInvestmentActiveExists(t *testing.T) {
	service := NewInvestmentService(fakeTxRunner{}, stubUserStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.User, error) {
			return models.User{ID: "user-1", DepositBalance: 2000000}, nil
		},
	}, stubInvestmentStore{
		hasActiveFn: func(context.Context, string) (bool, error) { return true, nil },
	}, stubEntryStore{}, starterResolver(), stubAuditStore{})

	_, err := service.Create(context.Background(), CreateInvestmentRequest{
		UserID: "user-1", PlanName: "starter", AmountMinor: 1000,
	})
	if err != ErrActiveInvestmentExists {
		t.Fatalf("expected ErrActiveInvestmentExists, got %v", err)
	}
}

func TestCreateInvestmentInsufficientDeposit(t *testing.T) {
	service := NewInvestmentService(fakeTxRunner{}, stubUserStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.User, error) {
			return models.User{ID: "user-1", DepositBalance: 500}, nil
		},
	}, stubInvestmentStore{}, stubEntryStore{}, starterResolver(), stubAuditStore{})

	_, err := service.Create(context.Background(), CreateInvestmentRequest{
		UserID: "user-1", PlanName: "starter", AmountMinor: 1000,
	})
	if err != ErrInsufficientDeposit {
		t.Fatalf("expected ErrInsufficientDeposit, got %v", err)
	}
}

func TestCreateInvestmentInvalidAmount(t *testing.T) {
	service := NewInvestmentService(fakeTxRunner{}, stubUserStore{}, stubInvestmentStore{}, stubEntryStore{}, starterResolver(), stubAuditStore{})
	_, err := service.Create(context.Background(), CreateInvestmentRequest{UserID: "user-1", PlanName: "starter"})
	if err != ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestAdjustValueGain(t *testing.T) {
	var updated int64
	var entry store.EntryInput
	service := NewInvestmentService(fakeTxRunner{}, stubUserStore{}, stubInvestmentStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Investment, error) {
			return models.Investment{
				ID: "inv-1", UserID: "user-1", Amount: 1000, CurrentValue: 1200,
				Status: models.InvestmentActive, EndDate: time.Now().Add(time.Hour),
			}, nil
		},
		updateValueFn: func(_ context.Context, _ store.Execer, _ string, value int64) error {
			updated = value
			return nil
		},
	}, stubEntryStore{
		insertFn: func(_ context.Context, _ store.Execer, entries []store.EntryInput) error {
			entry = entries[0]
			return nil
		},
	}, starterResolver(), stubAuditStore{})

	newValue, err := service.AdjustValue(context.Background(), AdjustValueRequest{
		AdminID: "admin-1", InvestmentID: "inv-1", AmountMinor: 300,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newValue != 1500 || updated != 1500 {
		t.Fatalf("unexpected value: %d / %d", newValue, updated)
	}
	if entry.Type != models.EntryGain || entry.Amount != 300 {
		t.Fatalf("unexpected entry: %#v", entry)
	}
}

func TestAdjustValueLossBelowZero(t *testing.T) {
	service := NewInvestmentService(fakeTxRunner{}, stubUserStore{}, stubInvestmentStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Investment, error) {
			return models.Investment{
				ID: "inv-1", Amount: 1000, CurrentValue: 200, Status: models.InvestmentActive,
			}, nil
		},
	}, stubEntryStore{}, starterResolver(), stubAuditStore{})

	_, err := service.AdjustValue(context.Background(), AdjustValueRequest{
		AdminID: "admin-1", InvestmentID: "inv-1", AmountMinor: -500,
	})
	if err != ErrValueWouldGoNegative {
		t.Fatalf("expected ErrValueWouldGoNegative, got %v", err)
	}
}

func TestAdjustValueCompletedInvestment(t *testing.T) {
	service := NewInvestmentService(fakeTxRunner{}, stubUserStore{}, stubInvestmentStore{
		getForUpdateFn: func(context.Context, store.Getter, string) (models.Investment, error) {
			return models.Investment{ID: "inv-1", Status: models.InvestmentCompleted}, nil
		},
	}, stubEntryStore{}, starterResolver(), stubAuditStore{})

	_, err := service.AdjustValue(context.Background(), AdjustValueRequest{
		AdminID: "admin-1", InvestmentID: "inv-1", AmountMinor: 100,
	})
	if err != ErrInvestmentNotActive {
		t.Fatalf("expected ErrInvestmentNotActive, got %v", err)
	}
}
