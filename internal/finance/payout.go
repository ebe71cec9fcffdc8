package finance

import (
	"time"

	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// EarlyWithdrawalPenalty is the share of principal forfeited when withdrawing before maturity
var EarlyWithdrawalPenalty = decimal.NewFromFloat(0.05)

// ValidLockPeriod reports whether months is an offered lock period
func ValidLockPeriod(months int) bool {
	switch months {
	case 1, 3, 6, 12:
		return true
	}
	return false
}

// WithdrawalPayout returns what withdrawing acc at now pays out and whether the
// withdrawal is early. Early withdrawals return penalized principal only.
func WithdrawalPayout(acc models.SavingsAccount, now time.Time) (decimal.Decimal, bool) {
	if now.Before(acc.MaturityDate) {
		return acc.Principal.Mul(one.Sub(EarlyWithdrawalPenalty)).Round(2), true
	}
	return Value(acc, now).MaturityValue.Round(2), false
}

// Withdraw returns acc closed at now with the given payout recorded
func Withdraw(acc models.SavingsAccount, payout decimal.Decimal, early bool, now time.Time) models.SavingsAccount {
	at := now
	acc.Status = models.SavingsWithdrawn
	acc.WithdrawnAt = &at
	acc.PayoutAmount = payout
	acc.EarlyWithdrawal = early
	return acc
}
