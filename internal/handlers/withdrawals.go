package handlers

import (
	"encoding/json"
	"net/http"

	"investing/internal/middleware"
	"investing/internal/money"
	"investing/internal/services"
	"investing/internal/validator"
)

type withdrawalRequest struct {
	Amount        string `json:"amount"`
	WalletAddress string `json:"wallet_address"`
	Network       string `json:"network"`
	Currency      string `json:"currency"`
}

func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := parseAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	if err := validator.ValidateWalletAddress(req.WalletAddress); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	result, err := h.withdrawalSvc.RequestStandard(r.Context(), services.StandardWithdrawalRequest{
		UserID:        userID,
		AmountMinor:   amountMinor,
		WalletAddress: req.WalletAddress,
		Network:       req.Network,
		Currency:      req.Currency,
	})
	if err != nil {
		switch err {
		case services.ErrInsufficientAvailable:
			respondError(w, http.StatusBadRequest, "insufficient_available_balance")
		case services.ErrInvalidAmount:
			respondError(w, http.StatusBadRequest, "invalid_amount")
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

func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	rows, err := h.withdrawals.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load withdrawals")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, withdrawalJSON(row))
	}
	respondJSON(w, http.StatusOK, normalized)
}
