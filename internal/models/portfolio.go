package models

import "github.com/shopspring/decimal"

// Eligibility is the outcome of a loan eligibility check
type Eligibility struct {
	Eligible                     bool            `json:"eligible"`
	Reason                       string          `json:"reason,omitempty"`
	MaxAmount                    decimal.Decimal `json:"max_amount"`
	TotalPooledPrincipal         decimal.Decimal `json:"total_pooled_principal"`
	TotalPooledProjectedInterest decimal.Decimal `json:"total_pooled_projected_interest"`
	TotalPooledValue             decimal.Decimal `json:"total_pooled_value"`
}

// Portfolio summarizes a user's savings, loans and balance
type Portfolio struct {
	Balance               decimal.Decimal `json:"balance"`
	Tier                  PremiumTier     `json:"premium_tier"`
	ActiveSavings         int             `json:"active_savings"`
	TotalSavingsPrincipal decimal.Decimal `json:"total_savings_principal"`
	TotalSavingsValue     decimal.Decimal `json:"total_savings_value"`
	TotalEarnedInterest   decimal.Decimal `json:"total_earned_interest"`
	OutstandingLoan       decimal.Decimal `json:"outstanding_loan"`
	OpenLoan              *LoanView       `json:"open_loan,omitempty"`
	Eligibility           Eligibility     `json:"eligibility"`
}
