package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"investing/internal/models"
	"investing/internal/money"
	"investing/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func parseInt(raw string, fallback int) int {
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func balancesJSON(balances store.Balances) map[string]string {
	return map[string]string{
		"deposit_balance":   money.FormatMinor(balances.Deposit),
		"available_balance": money.FormatMinor(balances.Available),
		"locked_balance":    money.FormatMinor(balances.Locked),
	}
}

func investmentJSON(inv models.Investment) map[string]any {
	return map[string]any{
		"id":            inv.ID,
		"plan_name":     inv.PlanName,
		"amount":        money.FormatMinor(inv.Amount),
		"current_value": money.FormatMinor(inv.CurrentValue),
		"target_roi":    inv.TargetROI,
		"start_date":    inv.StartDate,
		"end_date":      inv.EndDate,
		"status":        inv.Status,
		"roi_withdrawn": inv.ROIWithdrawn,
		"created_at":    inv.CreatedAt,
	}
}

func entryJSON(entry models.InvestmentTransaction) map[string]any {
	return map[string]any{
		"id":          entry.ID,
		"type":        entry.Type,
		"amount":      money.FormatMinor(entry.Amount),
		"description": entry.Description,
		"created_at":  entry.CreatedAt,
	}
}

func withdrawalJSON(wd models.Withdrawal) map[string]any {
	payload := map[string]any{
		"id":             wd.ID,
		"user_id":        wd.UserID,
		"amount":         money.FormatMinor(wd.Amount),
		"type":           wd.Type,
		"status":         wd.Status,
		"wallet_address": wd.WalletAddress,
		"network":        wd.Network,
		"currency":       wd.Currency,
		"fee_amount":     money.FormatMinor(wd.FeeAmount),
		"amount_paid":    money.FormatMinor(wd.AmountPaid),
		"created_at":     wd.CreatedAt,
		"updated_at":     wd.UpdatedAt,
	}
	if wd.InvestmentID != nil {
		payload["investment_id"] = *wd.InvestmentID
	}
	return payload
}
