package finance

import (
	"time"

	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// LoanTermMonths is the fixed term of every loan
const LoanTermMonths = 6

// termFraction is the share of a year covered by the loan term
var termFraction = decimal.NewFromInt(LoanTermMonths).Div(monthsPerYear)

// LoanQuote holds the figures quoted to a borrower and persisted at disbursement
type LoanQuote struct {
	Principal      decimal.Decimal    `json:"principal"`
	Tier           models.PremiumTier `json:"premium_tier"`
	InterestRate   decimal.Decimal    `json:"interest_rate"`
	TotalInterest  decimal.Decimal    `json:"total_interest"`
	TotalRepayment decimal.Decimal    `json:"total_repayment"`
}

// QuoteAt computes simple interest over the loan term at annualRate (percent).
// Interest is rounded to whole units and repayment is always principal plus interest.
func QuoteAt(principal, annualRate decimal.Decimal) LoanQuote {
	interest := principal.Mul(annualRate).Div(hundred).Mul(termFraction).Round(0)
	return LoanQuote{
		Principal:      principal,
		InterestRate:   annualRate,
		TotalInterest:  interest,
		TotalRepayment: principal.Add(interest),
	}
}

// Quote prices a loan of principal for the given tier
func (t RateTable) Quote(principal decimal.Decimal, tier models.PremiumTier) (LoanQuote, error) {
	rate, err := t.LoanRate(tier)
	if err != nil {
		return LoanQuote{}, err
	}
	q := QuoteAt(principal, rate)
	q.Tier = tier
	return q, nil
}

// NewLoan materializes a quote into an active loan disbursed at now
func NewLoan(id, ownerID string, q LoanQuote, now time.Time) models.Loan {
	return models.Loan{
		ID:                    id,
		OwnerID:               ownerID,
		Amount:                q.Principal,
		InterestRate:          q.InterestRate,
		TotalInterest:         q.TotalInterest,
		TotalRepayment:        q.TotalRepayment,
		DisbursementDate:      now,
		DueDate:               now.AddDate(0, LoanTermMonths, 0),
		Status:                models.LoanActive,
		RepaidAmount:          decimal.Zero,
		RemainingAmount:       q.TotalRepayment,
		AutoDeductFromSavings: true,
	}
}

// ApplyRepayment returns loan with amount applied. It does not validate amount.
func ApplyRepayment(loan models.Loan, amount decimal.Decimal, now time.Time) models.Loan {
	loan.RepaidAmount = loan.RepaidAmount.Add(amount)
	loan.RemainingAmount = decimal.Max(decimal.Zero, loan.TotalRepayment.Sub(loan.RepaidAmount))
	if loan.RemainingAmount.IsZero() {
		loan.Status = models.LoanRepaid
		repaidAt := now
		loan.RepaidAt = &repaidAt
	}
	return loan
}
