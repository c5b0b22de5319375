package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"sort"

	"investing/internal/middleware"
	"investing/internal/money"
	"investing/internal/plans"
	"investing/internal/services"
	"investing/internal/validator"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListPlans(w http.ResponseWriter, r *http.Request) {
	names := plans.Names()
	sort.Strings(names)
	normalized := make([]map[string]any, 0, len(names))
	for _, name := range names {
		params, err := h.plans.Resolve(r.Context(), name)
		if err != nil {
			continue
		}
		normalized = append(normalized, map[string]any{
			"name":                  params.Name,
			"roi_percent":           params.ROIPercent.String(),
			"duration_days":         params.DurationDays,
			"max_variation_percent": params.MaxVariationPercent.String(),
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

type createInvestmentRequest struct {
	PlanName string `json:"plan_name"`
	Amount   string `json:"amount"`
}

func (h *Handler) CreateInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createInvestmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	created, err := h.investmentSvc.Create(r.Context(), services.CreateInvestmentRequest{
		UserID:      userID,
		PlanName:    req.PlanName,
		AmountMinor: amountMinor,
	})
	if err != nil {
		switch err {
		case plans.ErrUnknownPlan:
			respondError(w, http.StatusBadRequest, "unknown_plan")
		case services.ErrActiveInvestmentExists:
			respondError(w, http.StatusConflict, "active_investment_exists")
		case services.ErrInsufficientDeposit:
			respondError(w, http.StatusBadRequest, "insufficient_deposit")
		case services.ErrInvalidAmount:
			respondError(w, http.StatusBadRequest, "invalid_amount")
		default:
			respondError(w, http.StatusInternalServerError, "investment_failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"investment_id": created.ID,
		"plan_name":     created.PlanName,
		"amount":        money.FormatMinor(created.Amount),
		"target_roi":    created.TargetROI,
		"end_date":      created.EndDate,
		"balances":      balancesJSON(created.Balances),
	})
}

func (h *Handler) ListInvestments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	rows, err := h.investments.ListByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load investments")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, investmentJSON(row))
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) GetInvestment(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	inv, err := h.investments.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "investment not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load investment")
		return
	}
	if inv.UserID != userID {
		respondError(w, http.StatusForbidden, "investment_access_denied")
		return
	}
	respondJSON(w, http.StatusOK, investmentJSON(inv))
}

func (h *Handler) ListInvestmentEntries(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	inv, err := h.investments.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "investment not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load investment")
		return
	}
	if inv.UserID != userID {
		respondError(w, http.StatusForbidden, "investment_access_denied")
		return
	}
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	entries, err := h.entries.ListByInvestment(r.Context(), inv.ID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	normalized := make([]map[string]any, 0, len(entries))
	for _, entry := range entries {
		normalized = append(normalized, entryJSON(entry))
	}
	respondJSON(w, http.StatusOK, normalized)
}

type withdrawROIRequest struct {
	WalletAddress string `json:"wallet_address"`
	Network       string `json:"network"`
	Currency      string `json:"currency"`
}

func (h *Handler) WithdrawROI(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req withdrawROIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := validator.ValidateWalletAddress(req.WalletAddress); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.withdrawalSvc.RequestROI(r.Context(), services.ROIWithdrawalRequest{
		UserID:        userID,
		InvestmentID:  chi.URLParam(r, "id"),
		WalletAddress: req.WalletAddress,
		Network:       req.Network,
		Currency:      req.Currency,
	})
	if err != nil {
		switch err {
		case services.ErrInvestmentNotFound:
			respondError(w, http.StatusNotFound, "investment not found")
		case services.ErrNotInvestmentOwner:
			respondError(w, http.StatusForbidden, "investment_access_denied")
		case services.ErrInvestmentNotCompleted:
			respondError(w, http.StatusBadRequest, "investment_not_matured")
		case services.ErrNoROIAvailable:
			respondError(w, http.StatusBadRequest, "no_roi_available")
		case services.ErrROIAlreadyWithdrawn:
			respondError(w, http.StatusConflict, "roi_already_withdrawn")
		default:
			respondError(w, http.StatusInternalServerError, "withdrawal_failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"withdrawal_id": result.WithdrawalID,
		"amount":        money.FormatMinor(result.Amount),
		"status":        "pending",
		"balances":      balancesJSON(result.Balances),
	})
}
