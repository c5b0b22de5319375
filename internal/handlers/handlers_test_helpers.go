package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"investing/internal/auth"
	"investing/internal/config"
	"investing/internal/middleware"
	"investing/internal/models"
	"investing/internal/plans"
	"investing/internal/services"
	"investing/internal/store"
	"investing/internal/websocket"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubReconcileDB struct {
	selectFn func(ctx context.Context, dest any, query string, args ...any) error
}

func (s stubReconcileDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	if s.selectFn == nil {
		return nil
	}
	return s.selectFn(ctx, dest, query, args...)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string, openingDeposit int64) error
	getByEmailFn func(ctx context.Context, email string) (models.User, error)
	getByIDFn    func(ctx context.Context, userID string) (models.User, error)
	listAllFn    func(ctx context.Context, limit, offset int) ([]models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string, openingDeposit int64) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash, openingDeposit)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{}, nil
	}
	return s.getByIDFn(ctx, userID)
}

func (s stubUserStore) ListAll(ctx context.Context, limit, offset int) ([]models.User, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, limit, offset)
}

type stubInvestmentStore struct {
	getByIDFn    func(ctx context.Context, investmentID string) (models.Investment, error)
	listByUserFn func(ctx context.Context, userID string) ([]models.Investment, error)
	listAllFn    func(ctx context.Context, status string, limit, offset int) ([]models.Investment, error)
}

func (s stubInvestmentStore) GetByID(ctx context.Context, investmentID string) (models.Investment, error) {
	if s.getByIDFn == nil {
		return models.Investment{}, nil
	}
	return s.getByIDFn(ctx, investmentID)
}

func (s stubInvestmentStore) ListByUser(ctx context.Context, userID string) ([]models.Investment, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID)
}

func (s stubInvestmentStore) ListAll(ctx context.Context, status string, limit, offset int) ([]models.Investment, error) {
	if s.listAllFn == nil {
		return nil, nil
	}
	return s.listAllFn(ctx, status, limit, offset)
}

type stubEntryStore struct {
	listFn func(ctx context.Context, investmentID string, limit, offset int) ([]models.InvestmentTransaction, error)
}

func (s stubEntryStore) ListByInvestment(ctx context.Context, investmentID string, limit, offset int) ([]models.InvestmentTransaction, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, investmentID, limit, offset)
}

type stubGainLogStore struct {
	listByUserFn func(ctx context.Context, userID string, limit, offset int) ([]models.GainLog, error)
}

func (s stubGainLogStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.GainLog, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

type stubWithdrawalStore struct {
	listByUserFn func(ctx context.Context, userID string, limit, offset int) ([]models.Withdrawal, error)
	listByTypeFn func(ctx context.Context, withdrawalType, status string, limit, offset int) ([]models.Withdrawal, error)
}

func (s stubWithdrawalStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Withdrawal, error) {
	if s.listByUserFn == nil {
		return nil, nil
	}
	return s.listByUserFn(ctx, userID, limit, offset)
}

func (s stubWithdrawalStore) ListByType(ctx context.Context, withdrawalType, status string, limit, offset int) ([]models.Withdrawal, error) {
	if s.listByTypeFn == nil {
		return nil, nil
	}
	return s.listByTypeFn(ctx, withdrawalType, status, limit, offset)
}

type stubAdminStore struct {
	isAdminFn     func(ctx context.Context, userID string) (bool, error)
	createAdminFn func(ctx context.Context, tx store.Execer, userID string, createdBy *string) error
	hasAnyAdminFn func(ctx context.Context, tx store.Getter) (bool, error)
}

func (s stubAdminStore) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if s.isAdminFn == nil {
		return false, nil
	}
	return s.isAdminFn(ctx, userID)
}

func (s stubAdminStore) CreateAdmin(ctx context.Context, tx store.Execer, userID string, createdBy *string) error {
	if s.createAdminFn == nil {
		return nil
	}
	return s.createAdminFn(ctx, tx, userID, createdBy)
}

func (s stubAdminStore) HasAnyAdmin(ctx context.Context, tx store.Getter) (bool, error) {
	if s.hasAnyAdminFn == nil {
		return false, nil
	}
	return s.hasAnyAdminFn(ctx, tx)
}

type stubAuditStore struct {
	logFn          func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	listFn         func(ctx context.Context, limit, offset int) ([]map[string]any, error)
	listByEntityFn func(ctx context.Context, entityType, entityID string, limit, offset int) ([]map[string]any, error)
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

func (s stubAuditStore) List(ctx context.Context, limit, offset int) ([]map[string]any, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, limit, offset)
}

func (s stubAuditStore) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]map[string]any, error) {
	if s.listByEntityFn == nil {
		return nil, nil
	}
	return s.listByEntityFn(ctx, entityType, entityID, limit, offset)
}

type stubPlanResolver struct {
	resolveFn func(ctx context.Context, planName string) (plans.Params, error)
}

func (s stubPlanResolver) Resolve(ctx context.Context, planName string) (plans.Params, error) {
	if s.resolveFn == nil {
		return plans.Params{
			Name:                planName,
			ROIPercent:          decimal.RequireFromString("8"),
			DurationDays:        30,
			MaxVariationPercent: decimal.RequireFromString("4"),
			Volatility:          decimal.RequireFromString("0.01"),
		}, nil
	}
	return s.resolveFn(ctx, planName)
}

type stubInvestmentService struct {
	createFn func(ctx context.Context, req services.CreateInvestmentRequest) (services.CreatedInvestment, error)
	adjustFn func(ctx context.Context, req services.AdjustValueRequest) (int64, error)
}

func (s stubInvestmentService) Create(ctx context.Context, req services.CreateInvestmentRequest) (services.CreatedInvestment, error) {
	if s.createFn == nil {
		return services.CreatedInvestment{}, nil
	}
	return s.createFn(ctx, req)
}

func (s stubInvestmentService) AdjustValue(ctx context.Context, req services.AdjustValueRequest) (int64, error) {
	if s.adjustFn == nil {
		return 0, nil
	}
	return s.adjustFn(ctx, req)
}

type stubWithdrawalService struct {
	requestROIFn      func(ctx context.Context, req services.ROIWithdrawalRequest) (services.WithdrawalResult, error)
	requestStandardFn func(ctx context.Context, req services.StandardWithdrawalRequest) (services.WithdrawalResult, error)
	resolveFn         func(ctx context.Context, req services.ResolveRequest) (services.ResolveResult, error)
}

func (s stubWithdrawalService) RequestROI(ctx context.Context, req services.ROIWithdrawalRequest) (services.WithdrawalResult, error) {
	if s.requestROIFn == nil {
		return services.WithdrawalResult{}, nil
	}
	return s.requestROIFn(ctx, req)
}

func (s stubWithdrawalService) RequestStandard(ctx context.Context, req services.StandardWithdrawalRequest) (services.WithdrawalResult, error) {
	if s.requestStandardFn == nil {
		return services.WithdrawalResult{}, nil
	}
	return s.requestStandardFn(ctx, req)
}

func (s stubWithdrawalService) Resolve(ctx context.Context, req services.ResolveRequest) (services.ResolveResult, error) {
	if s.resolveFn == nil {
		return services.ResolveResult{}, nil
	}
	return s.resolveFn(ctx, req)
}

func testConfig() config.Config {
	return config.Config{
		AppEnv:              "test",
		Port:                "0",
		JWTSecret:           "secret",
		TokenTTL:            time.Minute,
		AllowedOrigins:      "*",
		OpeningDepositMinor: 1000000,
	}
}

func newTestHandler(users UserStore, investments InvestmentStore, entries EntryStore, gains GainLogStore, withdrawals WithdrawalStore, admin AdminStore, audit AuditStore, investmentSvc InvestmentService, withdrawalSvc WithdrawalService) *Handler {
	return New(stubReconcileDB{}, fakeTxRunner{}, testConfig(), users, investments, entries, gains, withdrawals, admin, audit, stubPlanResolver{}, investmentSvc, withdrawalSvc, websocket.NewHub())
}

func authedRequest(t *testing.T, method, target string, body io.Reader, userID string) *http.Request {
	t.Helper()
	token, err := auth.GenerateToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serveAuthed(t *testing.T, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	middleware.Auth("secret")(handler).ServeHTTP(rr, req)
	return rr
}
