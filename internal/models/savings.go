package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SavingsStatus is the lifecycle state of a savings account
type SavingsStatus string

const (
	SavingsActive    SavingsStatus = "active"
	SavingsMatured   SavingsStatus = "matured" // derived, never stored
	SavingsWithdrawn SavingsStatus = "withdrawn"
)

// SavingsAccount represents a time-locked interest-bearing savings account
type SavingsAccount struct {
	ID                 string          `json:"id"`
	OwnerID            string          `json:"owner_id"`
	Principal          decimal.Decimal `json:"principal"`
	AnnualInterestRate decimal.Decimal `json:"annual_interest_rate"`
	LockPeriodMonths   int             `json:"lock_period_months"`
	StartDate          time.Time       `json:"start_date"`
	MaturityDate       time.Time       `json:"maturity_date"`
	Status             SavingsStatus   `json:"status"`
	WithdrawnAt        *time.Time      `json:"withdrawn_at,omitempty"`
	PayoutAmount       decimal.Decimal `json:"payout_amount"`
	EarlyWithdrawal    bool            `json:"early_withdrawal"`
}

// StatusAt projects the stored status onto the given time.
// An active account whose maturity date has passed reads as matured.
func (a SavingsAccount) StatusAt(now time.Time) SavingsStatus {
	if a.Status == SavingsWithdrawn {
		return SavingsWithdrawn
	}
	if !now.Before(a.MaturityDate) {
		return SavingsMatured
	}
	return SavingsActive
}

// SavingsView is a savings account together with its read-time derived values
type SavingsView struct {
	SavingsAccount
	DerivedStatus  SavingsStatus   `json:"derived_status"`
	CurrentValue   decimal.Decimal `json:"current_value"`
	EarnedInterest decimal.Decimal `json:"earned_interest"`
	MaturityValue  decimal.Decimal `json:"maturity_value"`
	DaysToMaturity int             `json:"days_to_maturity"`
}
