package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RevenueCategoryLoanInterest tags interest earned on disbursed loans
const RevenueCategoryLoanInterest = "loan_interest"

// RevenueEvent is emitted to the operator's revenue ledger
type RevenueEvent struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	SourceID    string          `json:"source_id"`
	UserID      string          `json:"user_id"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
