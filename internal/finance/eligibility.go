package finance

import (
	"time"

	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// Ineligibility reasons, in the order they are checked
const (
	ReasonNoActiveSavings = "no active savings account"
	ReasonExistingLoan    = "existing active loan must be repaid first"
	ReasonSavingsTooLow   = "combined savings too low"
)

var (
	// MinLoanAmount is the smallest loan that can be granted
	MinLoanAmount = decimal.NewFromInt(1000)
	// collateralMargin keeps the total repayment strictly below the pooled value
	collateralMargin = decimal.NewFromInt(1)
)

// Collateral is the pooled projection of a user's active savings
type Collateral struct {
	Accounts          int
	Principal         decimal.Decimal
	ProjectedInterest decimal.Decimal
}

// Value returns the pooled maturity value
func (c Collateral) Value() decimal.Decimal {
	return c.Principal.Add(c.ProjectedInterest)
}

// PoolCollateral sums the full-term projections of every account still active at now.
// Matured and withdrawn accounts do not back loans.
func PoolCollateral(accounts []models.SavingsAccount, now time.Time) Collateral {
	c := Collateral{Principal: decimal.Zero, ProjectedInterest: decimal.Zero}
	for _, acc := range accounts {
		if acc.StatusAt(now) != models.SavingsActive {
			continue
		}
		v := Value(acc, now)
		c.Accounts++
		c.Principal = c.Principal.Add(acc.Principal)
		c.ProjectedInterest = c.ProjectedInterest.Add(v.ProjectedInterest)
	}
	return c
}

// MaxLoanAmount solves P + P*rate*term = pooled - 1 for P at sizingRate (percent),
// floored to a whole unit and never negative.
func MaxLoanAmount(c Collateral, sizingRate decimal.Decimal) decimal.Decimal {
	budget := c.Value().Sub(collateralMargin)
	divisor := one.Add(sizingRate.Div(hundred).Mul(termFraction))
	p := budget.Div(divisor).Floor()
	if p.IsNegative() {
		return decimal.Zero
	}
	return p
}

// OpenLoan returns the user's loan that is still active or overdue, if any
func OpenLoan(loans []models.Loan) (models.Loan, bool) {
	for _, l := range loans {
		if l.IsOpen() {
			return l, true
		}
	}
	return models.Loan{}, false
}

// CheckEligibility decides whether a new loan may be granted. The first failing rule wins.
func (t RateTable) CheckEligibility(accounts []models.SavingsAccount, loans []models.Loan, now time.Time) (models.Eligibility, error) {
	c := PoolCollateral(accounts, now)
	res := models.Eligibility{
		MaxAmount:                    decimal.Zero,
		TotalPooledPrincipal:         c.Principal,
		TotalPooledProjectedInterest: c.ProjectedInterest,
		TotalPooledValue:             c.Value(),
	}

	if c.Accounts == 0 {
		res.Reason = ReasonNoActiveSavings
		return res, nil
	}
	if _, ok := OpenLoan(loans); ok {
		res.Reason = ReasonExistingLoan
		return res, nil
	}

	rate, err := t.SizingRate()
	if err != nil {
		return res, err
	}
	maxAmount := MaxLoanAmount(c, rate)
	if maxAmount.LessThan(MinLoanAmount) {
		res.Reason = ReasonSavingsTooLow
		return res, nil
	}

	res.Eligible = true
	res.MaxAmount = maxAmount
	return res, nil
}
