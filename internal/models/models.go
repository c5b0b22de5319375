package models

import "time"

type User struct {
	ID               string    `db:"id" json:"id"`
	Username         string    `db:"username" json:"username"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	DepositBalance   int64     `db:"deposit_balance" json:"deposit_balance"`
	AvailableBalance int64     `db:"available_balance" json:"available_balance"`
	LockedBalance    int64     `db:"locked_balance" json:"locked_balance"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Investment statuses. There is no suspended state: an investment accrues
// until maturity and then stays completed forever.
const (
	InvestmentActive    = "active"
	InvestmentCompleted = "completed"
)

type Investment struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	PlanName     string    `db:"plan_name" json:"plan_name"`
	Amount       int64     `db:"amount" json:"amount"`
	CurrentValue int64     `db:"current_value" json:"current_value"`
	TargetROI    string    `db:"target_roi" json:"target_roi"`
	StartDate    time.Time `db:"start_date" json:"start_date"`
	EndDate      time.Time `db:"end_date" json:"end_date"`
	Status       string    `db:"status" json:"status"`
	ROIWithdrawn bool      `db:"roi_withdrawn" json:"roi_withdrawn"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Entry types appended to an investment's transaction history: the principal
// deposit at creation, per-tick accrual, and signed admin adjustments.
const (
	EntryDeposit = "deposit"
	EntryROI     = "roi"
	EntryGain    = "gain"
	EntryLoss    = "loss"
)

type InvestmentTransaction struct {
	ID           string    `db:"id" json:"id"`
	InvestmentID string    `db:"investment_id" json:"investment_id"`
	Type         string    `db:"type" json:"type"`
	Amount       int64     `db:"amount" json:"amount"`
	Description  string    `db:"description" json:"description"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	WithdrawalROI      = "roi"
	WithdrawalStandard = "standard"
)

const (
	WithdrawalPending   = "pending"
	WithdrawalConfirmed = "confirmed"
	WithdrawalRejected  = "rejected"
)

type Withdrawal struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	InvestmentID  *string   `db:"investment_id" json:"investment_id,omitempty"`
	Amount        int64     `db:"amount" json:"amount"`
	Type          string    `db:"type" json:"type"`
	Status        string    `db:"status" json:"status"`
	WalletAddress string    `db:"wallet_address" json:"wallet_address"`
	Network       string    `db:"network" json:"network"`
	Currency      string    `db:"currency" json:"currency"`
	FeeAmount     int64     `db:"fee_amount" json:"fee_amount"`
	AmountPaid    int64     `db:"amount_paid" json:"amount_paid"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

type GainLog struct {
	ID           string    `db:"id" json:"id"`
	UserID       string    `db:"user_id" json:"user_id"`
	InvestmentID string    `db:"investment_id" json:"investment_id"`
	Amount       int64     `db:"amount" json:"amount"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
