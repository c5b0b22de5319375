package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strings"

	"investing/internal/auth"
	"investing/internal/middleware"
	"investing/internal/models"
	"investing/internal/money"
	"investing/internal/services"
	"investing/internal/websocket"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
)

type promoteRequest struct {
	Email string `json:"email"`
}

func (h *Handler) PromoteAdmin(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req promoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	target, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "user not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to resolve user")
		return
	}
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		if err := h.admin.CreateAdmin(r.Context(), tx, target.ID, &userID); err != nil {
			return err
		}
		data, _ := json.Marshal(map[string]string{
			"target_user_id": target.ID,
		})
		return h.audit.Log(r.Context(), tx, userID, "promote_admin", "admin", target.ID, string(data))
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to promote admin")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"status": "promoted"})
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	rows, err := h.users.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load users")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, map[string]any{
			"id":                row.ID,
			"username":          row.Username,
			"email":             row.Email,
			"deposit_balance":   money.FormatMinor(row.DepositBalance),
			"available_balance": money.FormatMinor(row.AvailableBalance),
			"locked_balance":    money.FormatMinor(row.LockedBalance),
			"created_at":        row.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) AdminListInvestments(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	status := query.Get("status")
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	rows, err := h.investments.ListAll(r.Context(), status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load investments")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		payload := investmentJSON(row)
		payload["user_id"] = row.UserID
		normalized = append(normalized, payload)
	}
	respondJSON(w, http.StatusOK, normalized)
}

type setGainLossRequest struct {
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

func (h *Handler) SetGainLoss(w http.ResponseWriter, r *http.Request) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req setGainLossRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := parseSignedAmountMinor(req.Amount)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	newValue, err := h.investmentSvc.AdjustValue(r.Context(), services.AdjustValueRequest{
		AdminID:      adminID,
		InvestmentID: chi.URLParam(r, "id"),
		AmountMinor:  amountMinor,
		Description:  req.Description,
	})
	if err != nil {
		switch err {
		case services.ErrInvestmentNotFound:
			respondError(w, http.StatusNotFound, "investment not found")
		case services.ErrInvestmentNotActive:
			respondError(w, http.StatusBadRequest, "investment_not_active")
		case services.ErrValueWouldGoNegative:
			respondError(w, http.StatusBadRequest, "value_would_go_negative")
		case services.ErrInvalidAmount:
			respondError(w, http.StatusBadRequest, "invalid_amount")
		default:
			respondError(w, http.StatusInternalServerError, "adjustment_failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"current_value": money.FormatMinor(newValue),
	})
}

func (h *Handler) AdminListROIApprovals(w http.ResponseWriter, r *http.Request) {
	h.listWithdrawalsByType(w, r, models.WithdrawalROI)
}

func (h *Handler) AdminListWithdrawals(w http.ResponseWriter, r *http.Request) {
	h.listWithdrawalsByType(w, r, models.WithdrawalStandard)
}

func (h *Handler) listWithdrawalsByType(w http.ResponseWriter, r *http.Request, withdrawalType string) {
	query := r.URL.Query()
	status := query.Get("status")
	if status == "" {
		status = models.WithdrawalPending
	}
	if status == "all" {
		status = ""
	}
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	rows, err := h.withdrawals.ListByType(r.Context(), withdrawalType, status, limit, offset)
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

type resolveRequest struct {
	Action string `json:"action"`
}

func (h *Handler) ResolveROIApproval(w http.ResponseWriter, r *http.Request) {
	h.resolveWithdrawal(w, r, models.WithdrawalROI)
}

func (h *Handler) ResolveWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.resolveWithdrawal(w, r, models.WithdrawalStandard)
}

func (h *Handler) resolveWithdrawal(w http.ResponseWriter, r *http.Request, wantType string) {
	adminID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	action := strings.ToLower(req.Action)
	if action != "accept" && action != "reject" {
		respondError(w, http.StatusBadRequest, "action must be accept or reject")
		return
	}
	result, err := h.withdrawalSvc.Resolve(r.Context(), services.ResolveRequest{
		AdminID:      adminID,
		WithdrawalID: chi.URLParam(r, "id"),
		Accept:       action == "accept",
		WantType:     wantType,
	})
	if err != nil {
		switch err {
		case services.ErrWithdrawalNotFound:
			respondError(w, http.StatusNotFound, "withdrawal not found")
		case services.ErrWithdrawalNotPending:
			respondError(w, http.StatusConflict, "withdrawal_already_resolved")
		case services.ErrWrongWithdrawalType:
			respondError(w, http.StatusBadRequest, "wrong_withdrawal_type")
		default:
			respondError(w, http.StatusInternalServerError, "resolution_failed")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      result.Status,
		"amount":      money.FormatMinor(result.Amount),
		"fee":         money.FormatMinor(result.FeeAmount),
		"amount_paid": money.FormatMinor(result.AmountPaid),
	})
}

func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parseInt(query.Get("limit"), 50)
	page := parseInt(query.Get("page"), 1)
	offset := (page - 1) * limit
	entityType := query.Get("entity_type")
	entityID := query.Get("entity_id")
	var rows []map[string]any
	var err error
	if entityType != "" && entityID != "" {
		rows, err = h.audit.ListByEntity(r.Context(), entityType, entityID, limit, offset)
	} else {
		rows, err = h.audit.List(r.Context(), limit, offset)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load audit logs")
		return
	}
	respondJSON(w, http.StatusOK, rows)
}

// Reconcile compares each investment's current value against its principal
// plus the sum of its history entries. A nonzero difference means a write
// skipped the entry log.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	type reconRow struct {
		InvestmentID string `db:"investment_id"`
		EntrySum     int64  `db:"entry_sum"`
		CurrentValue int64  `db:"current_value"`
		Difference   int64  `db:"difference"`
	}
	var rows []reconRow
	query := `
		SELECT i.id AS investment_id,
		       COALESCE(SUM(t.amount), 0) AS entry_sum,
		       i.current_value AS current_value,
		       (i.current_value - COALESCE(SUM(t.amount), 0)) AS difference
		FROM investments i
		LEFT JOIN investment_transactions t ON t.investment_id = i.id
		GROUP BY i.id, i.current_value
		ORDER BY i.id
	`
	if err := h.reconcileDB.SelectContext(r.Context(), &rows, query); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to reconcile investments")
		return
	}
	normalized := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		normalized = append(normalized, map[string]any{
			"investment_id": row.InvestmentID,
			"entry_sum":     money.FormatMinor(row.EntrySum),
			"current_value": money.FormatMinor(row.CurrentValue),
			"difference":    money.FormatMinor(row.Difference),
		})
	}
	respondJSON(w, http.StatusOK, normalized)
}

func (h *Handler) WSBalances(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}
	if token == "" {
		respondError(w, http.StatusUnauthorized, "missing token")
		return
	}
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}
