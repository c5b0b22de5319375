package handlers

import (
	"net/http"

	"investing/internal/config"
	"investing/internal/db"
	"investing/internal/middleware"
	"investing/internal/store"
	"investing/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handler struct {
	reconcileDB   store.Selecter
	txRunner      db.TxRunner
	cfg           config.Config
	users         UserStore
	investments   InvestmentStore
	entries       EntryStore
	gains         GainLogStore
	withdrawals   WithdrawalStore
	admin         AdminStore
	audit         AuditStore
	plans         PlanResolver
	investmentSvc InvestmentService
	withdrawalSvc WithdrawalService
	hub           *websocket.Hub
}

func New(reconcileDB store.Selecter, txRunner db.TxRunner, cfg config.Config, users UserStore, investments InvestmentStore, entries EntryStore, gains GainLogStore, withdrawals WithdrawalStore, admin AdminStore, audit AuditStore, planResolver PlanResolver, investmentSvc InvestmentService, withdrawalSvc WithdrawalService, hub *websocket.Hub) *Handler {
	return &Handler{
		reconcileDB:   reconcileDB,
		txRunner:      txRunner,
		cfg:           cfg,
		users:         users,
		investments:   investments,
		entries:       entries,
		gains:         gains,
		withdrawals:   withdrawals,
		admin:         admin,
		audit:         audit,
		plans:         planResolver,
		investmentSvc: investmentSvc,
		withdrawalSvc: withdrawalSvc,
		hub:           hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})

	router.Get("/plans", h.ListPlans)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/balances", h.GetBalances)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/gains", h.ListGains)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/investments", h.CreateInvestment)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/investments", h.ListInvestments)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/investments/{id}", h.GetInvestment)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/investments/{id}/transactions", h.ListInvestmentEntries)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/investments/{id}/withdraw-roi", h.WithdrawROI)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/withdrawals", h.RequestWithdrawal)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/withdrawals", h.ListWithdrawals)
	router.Get("/ws/balances", h.WSBalances)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Use(middleware.RequireAdmin(h.admin))
		r.Get("/users", h.AdminListUsers)
		r.Get("/investments", h.AdminListInvestments)
		r.Post("/investments/{id}/set-gain-loss", h.SetGainLoss)
		r.Get("/roi-approvals", h.AdminListROIApprovals)
		r.Post("/roi-approvals/{id}/resolve", h.ResolveROIApproval)
		r.Get("/withdrawals", h.AdminListWithdrawals)
		r.Post("/withdrawals/{id}/resolve", h.ResolveWithdrawal)
		r.Post("/promote", h.PromoteAdmin)
		r.Get("/audit", h.ListAuditLogs)
		r.Get("/reconcile", h.Reconcile)
	})

	router.Handle("/metrics", promhttp.Handler())
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
