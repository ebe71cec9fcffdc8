package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LoanStatus is the lifecycle state of a loan
type LoanStatus string

const (
	LoanActive  LoanStatus = "active"
	LoanOverdue LoanStatus = "overdue" // derived, never stored
	LoanRepaid  LoanStatus = "repaid"
)

// Loan represents a loan collateralized by the owner's savings
type Loan struct {
	ID                    string          `json:"id"`
	OwnerID               string          `json:"owner_id"`
	Amount                decimal.Decimal `json:"amount"`
	InterestRate          decimal.Decimal `json:"interest_rate"`
	TotalInterest         decimal.Decimal `json:"total_interest"`
	TotalRepayment        decimal.Decimal `json:"total_repayment"`
	DisbursementDate      time.Time       `json:"disbursement_date"`
	DueDate               time.Time       `json:"due_date"`
	Status                LoanStatus      `json:"status"`
	RepaidAmount          decimal.Decimal `json:"repaid_amount"`
	RemainingAmount       decimal.Decimal `json:"remaining_amount"`
	RepaidAt              *time.Time      `json:"repaid_at,omitempty"`
	AutoDeductFromSavings bool            `json:"auto_deduct_from_savings"`
	HMAC                  string          `json:"hmac"`
}

// StatusAt projects the stored status onto the given time
func (l Loan) StatusAt(now time.Time) LoanStatus {
	if l.Status == LoanRepaid {
		return LoanRepaid
	}
	if now.After(l.DueDate) && l.RemainingAmount.IsPositive() {
		return LoanOverdue
	}
	return LoanActive
}

// IsOpen reports whether the loan still counts against the one-open-loan rule
func (l Loan) IsOpen() bool {
	return l.Status != LoanRepaid
}

// LoanView is a loan with its read-time status
type LoanView struct {
	Loan
	DerivedStatus LoanStatus `json:"derived_status"`
}
