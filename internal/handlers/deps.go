package handlers

import (
	"context"

	"investing/internal/models"
	"investing/internal/plans"
	"investing/internal/services"
	"investing/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string, openingDeposit int64) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
	ListAll(ctx context.Context, limit, offset int) ([]models.User, error)
}

type InvestmentStore interface {
	GetByID(ctx context.Context, investmentID string) (models.Investment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Investment, error)
	ListAll(ctx context.Context, status string, limit, offset int) ([]models.Investment, error)
}

type EntryStore interface {
	ListByInvestment(ctx context.Context, investmentID string, limit, offset int) ([]models.InvestmentTransaction, error)
}

type GainLogStore interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.GainLog, error)
}

type WithdrawalStore interface {
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Withdrawal, error)
	ListByType(ctx context.Context, withdrawalType, status string, limit, offset int) ([]models.Withdrawal, error)
}

type AdminStore interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
	CreateAdmin(ctx context.Context, tx store.Execer, userID string, createdBy *string) error
	HasAnyAdmin(ctx context.Context, tx store.Getter) (bool, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
	List(ctx context.Context, limit, offset int) ([]map[string]any, error)
	ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]map[string]any, error)
}

type PlanResolver interface {
	Resolve(ctx context.Context, planName string) (plans.Params, error)
}

type InvestmentService interface {
	Create(ctx context.Context, req services.CreateInvestmentRequest) (services.CreatedInvestment, error)
	AdjustValue(ctx context.Context, req services.AdjustValueRequest) (int64, error)
}

type WithdrawalService interface {
	RequestROI(ctx context.Context, req services.ROIWithdrawalRequest) (services.WithdrawalResult, error)
	RequestStandard(ctx context.Context, req services.StandardWithdrawalRequest) (services.WithdrawalResult, error)
	Resolve(ctx context.Context, req services.ResolveRequest) (services.ResolveResult, error)
}
