package finance

import (
	"math"
	"time"

	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/shopspring/decimal"
)

var (
	one           = decimal.NewFromInt(1)
	monthsPerYear = decimal.NewFromInt(12)
	hundred       = decimal.NewFromInt(100)
)

// Valuation is the projected state of a savings account at a point in time
type Valuation struct {
	MonthsElapsed     int
	CurrentValue      decimal.Decimal
	EarnedInterest    decimal.Decimal
	MaturityValue     decimal.Decimal
	ProjectedInterest decimal.Decimal
	DaysToMaturity    int
}

// MaturityDate returns start shifted by lockMonths calendar months
func MaturityDate(start time.Time, lockMonths int) time.Time {
	return start.AddDate(0, lockMonths, 0)
}

// MonthsElapsed counts whole calendar months from start to now, never negative.
func MonthsElapsed(start, now time.Time) int {
	months := (now.Year()-start.Year())*12 + int(now.Month()) - int(start.Month())
	if months > 0 && start.AddDate(0, months, 0).After(now) {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}

// Compound returns principal grown by monthly compounding of annualRate (percent) over months.
func Compound(principal, annualRate decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 || principal.IsZero() {
		return principal
	}
	monthlyRate := annualRate.Div(monthsPerYear).Div(hundred)
	factor := one.Add(monthlyRate).Pow(decimal.NewFromInt(int64(months)))
	return principal.Mul(factor)
}

// Project values a deposit of principal at annualRate locked for lockMonths from start, as seen at now.
// Growth stops once the lock period has elapsed.
func Project(principal, annualRate decimal.Decimal, lockMonths int, start, now time.Time) Valuation {
	elapsed := MonthsElapsed(start, now)
	if elapsed > lockMonths {
		elapsed = lockMonths
	}
	if elapsed < 0 {
		elapsed = 0
	}

	current := Compound(principal, annualRate, elapsed)
	maturity := Compound(principal, annualRate, lockMonths)

	return Valuation{
		MonthsElapsed:     elapsed,
		CurrentValue:      current,
		EarnedInterest:    current.Sub(principal),
		MaturityValue:     maturity,
		ProjectedInterest: maturity.Sub(principal),
		DaysToMaturity:    daysUntil(now, MaturityDate(start, lockMonths)),
	}
}

// Value projects a stored savings account
func Value(acc models.SavingsAccount, now time.Time) Valuation {
	return Project(acc.Principal, acc.AnnualInterestRate, acc.LockPeriodMonths, acc.StartDate, now)
}

// View builds the read model for acc, rounding monetary figures for display.
func View(acc models.SavingsAccount, now time.Time) models.SavingsView {
	v := Value(acc, now)
	return models.SavingsView{
		SavingsAccount: acc,
		DerivedStatus:  acc.StatusAt(now),
		CurrentValue:   v.CurrentValue.Round(2),
		EarnedInterest: v.EarnedInterest.Round(2),
		MaturityValue:  v.MaturityValue.Round(2),
		DaysToMaturity: v.DaysToMaturity,
	}
}

func daysUntil(now, t time.Time) int {
	if !now.Before(t) {
		return 0
	}
	return int(math.Ceil(t.Sub(now).Hours() / 24))
}
