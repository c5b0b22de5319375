package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"investing/internal/auth"
	"investing/internal/models"
	"investing/internal/store"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

func TestRegisterSuccess(t *testing.T) {
	var createdDeposit int64
	var promotedFirstAdmin bool
	var bootstrapCheckTx store.Getter
	handler := newTestHandler(stubUserStore{
		createFn: func(_ context.Context, _ store.Execer, _, _, _, _ string, openingDeposit int64) error {
			createdDeposit = openingDeposit
			return nil
		},
	}, stubInvestmentStore{}, stubEntryStore{}, stubGainLogStore{}, stubWithdrawalStore{}, stubAdminStore{
		hasAnyAdminFn: func(_ context.Context, tx store.Getter) (bool, error) {
			bootstrapCheckTx = tx
			return false, nil
		},
		createAdminFn: func(context.Context, store.Execer, string, *string) error {
			promotedFirstAdmin = true
			return nil
		},
	}, stubAuditStore{}, stubInvestmentService{}, stubWithdrawalService{})

	body := strings.NewReader(`{"username":"alice","email":"alice@example.com","password":"longenough"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if createdDeposit != 1000000 {
		t.Fatalf("expected opening deposit seeded, got %d", createdDeposit)
	}
	if !promotedFirstAdmin {
		t.Fatalf("expected first registered user promoted to admin")
	}
	// The existing-admin check must read through the registration transaction,
	// not the bare DB handle, or two concurrent first registrations can both
	// see zero admins and both be promoted.
	if _, ok := bootstrapCheckTx.(*sqlx.Tx); !ok {
		t.Fatalf("expected admin bootstrap check to use the transaction, got %T", bootstrapCheckTx)
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["token"] == "" {
		t.Fatalf("expected a token in the response")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	handler := newTestHandler(stubUserStore{
		createFn: func(context.Context, store.Execer, string, string, string, string, int64) error {
			return &pq.Error{Code: "23505"}
		},
	}, stubInvestmentStore{}, stubEntryStore{}, stubGainLogStore{}, stubWithdrawalStore{}, stubAdminStore{}, stubAuditStore{}, stubInvestmentService{}, stubWithdrawalService{})

	body := strings.NewReader(`{"username":"alice","email":"alice@example.com","password":"longenough"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestRegisterInvalidEmail(t *testing.T) {
	handler := newTestHandler(stubUserStore{}, stubInvestmentStore{}, stubEntryStore{}, stubGainLogStore{}, stubWithdrawalStore{}, stubAdminStore{}, stubAuditStore{}, stubInvestmentService{}, stubWithdrawalService{})
	body := strings.NewReader(`{"username":"alice","email":"not-an-email","password":"longenough"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/register", body)
	rr := httptest.NewRecorder()
	handler.Register(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestLoginInvalidPassword(t *testing.T) {
	hash, err := auth.HashPassword("correct-password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	handler := newTestHandler(stubUserStore{
		getByEmailFn: func(context.Context, string) (models.User, error) {
			return models.User{ID: "user-1", PasswordHash: hash}, nil
		},
	}, stubInvestmentStore{}, stubEntryStore{}, stubGainLogStore{}, stubWithdrawalStore{}, stubAdminStore{}, stubAuditStore{}, stubInvestmentService{}, stubWithdrawalService{})

	body := strings.NewReader(`{"email":"alice@example.com","password":"wrong-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestLoginSuccess(t *testing.T) {
	hash, err := auth.HashPassword("correct-password")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	handler := newTestHandler(stubUserStore{
		getByEmailFn: func(context.Context, string) (models.User, error) {
			return models.User{ID: "user-1", PasswordHash: hash}, nil
		},
	}, stubInvestmentStore{}, stubEntryStore{}, stubGainLogStore{}, stubWithdrawalStore{}, stubAdminStore{}, stubAuditStore{}, stubInvestmentService{}, stubWithdrawalService{})

	body := strings.NewReader(`{"email":"alice@example.com","password":"correct-password"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rr := httptest.NewRecorder()
	handler.Login(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	claims, err := auth.ParseToken("secret", payload["token"])
	if err != nil {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("unexpected token subject: %s", claims.UserID)
	}
}

func TestMeIncludesBalances(t *testing.T) {
	handler := newTestHandler(stubUserStore{
		getByIDFn: func(context.Context, string) (models.User, error) {
			return models.User{
				ID: "user-1", Username: "alice", Email: "alice@example.com",
				DepositBalance: 1000000, AvailableBalance: 250000, LockedBalance: 50000,
			}, nil
		},
	}, stubInvestmentStore{}, stubEntryStore{}, stubGainLogStore{}, stubWithdrawalStore{}, stubAdminStore{}, stubAuditStore{}, stubInvestmentService{}, stubWithdrawalService{})

	req := authedRequest(t, http.MethodGet, "/auth/me", nil, "user-1")
	rr := serveAuthed(t, handler.Me, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["deposit_balance"] != "10000.00" || payload["available_balance"] != "2500.00" || payload["locked_balance"] != "500.00" {
		t.Fatalf("unexpected balances: %#v", payload)
	}
}

func TestGetBalances(t *testing.T) {
	handler := newTestHandler(stubUserStore{
		getByIDFn: func(context.Context, string) (models.User, error) {
			return models.User{ID: "user-1", DepositBalance: 100, AvailableBalance: 200, LockedBalance: 300}, nil
		},
	}, stubInvestmentStore{}, stubEntryStore{}, stubGainLogStore{}, stubWithdrawalStore{}, stubAdminStore{}, stubAuditStore{}, stubInvestmentService{}, stubWithdrawalService{})

	req := authedRequest(t, http.MethodGet, "/balances", nil, "user-1")
	rr := serveAuthed(t, handler.GetBalances, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload["locked_balance"] != "3.00" {
		t.Fatalf("unexpected payload: %#v", payload)
	}
}
