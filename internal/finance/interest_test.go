package finance

import (
	"testing"
	"time"

	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuote(t *testing.T) {
	rates := DefaultRates()
	tests := []struct {
		name      string
		principal string
		tier      models.PremiumTier
		rate      string
		interest  string
		repayment string
	}{
		{"basic", "100000", models.TierBasic, "20", "10000", "110000"},
		{"plus", "100000", models.TierPlus, "18", "9000", "109000"},
		{"vip", "100000", models.TierVIP, "15", "7500", "107500"},
		{"rounds half up", "12345", models.TierBasic, "20", "1235", "13580"},
		{"rounds down", "1001", models.TierVIP, "15", "75", "1076"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := rates.Quote(dec(tt.principal), tt.tier)
			require.NoError(t, err)
			assert.Equal(t, tt.tier, q.Tier)
			assertDecimal(t, tt.rate, q.InterestRate)
			assertDecimal(t, tt.interest, q.TotalInterest)
			assertDecimal(t, tt.repayment, q.TotalRepayment)
		})
	}
}

func TestQuote_RepaymentIsPrincipalPlusInterest(t *testing.T) {
	q, err := DefaultRates().Quote(dec("1000.5"), models.TierBasic)
	require.NoError(t, err)
	assertDecimal(t, "100", q.TotalInterest)
	assertDecimal(t, "1100.5", q.TotalRepayment)
	assert.True(t, q.TotalRepayment.Equal(q.Principal.Add(q.TotalInterest)))
}

func TestQuote_UnknownTier(t *testing.T) {
	_, err := DefaultRates().Quote(dec("1000"), models.PremiumTier("gold"))
	assert.Error(t, err)
}

func TestNewLoan_PersistsQuotedFigures(t *testing.T) {
	q, err := DefaultRates().Quote(dec("12345"), models.TierBasic)
	require.NoError(t, err)

	loan := NewLoan("loan-1", "user-1", q, start)
	assert.True(t, loan.TotalInterest.Equal(q.TotalInterest))
	assert.True(t, loan.TotalRepayment.Equal(q.TotalRepayment))
	assert.True(t, loan.RemainingAmount.Equal(q.TotalRepayment))
	assert.True(t, loan.RepaidAmount.IsZero())
	assert.Equal(t, models.LoanActive, loan.Status)
	assert.True(t, loan.AutoDeductFromSavings)
	assert.Equal(t, time.Date(2025, time.July, 15, 10, 0, 0, 0, time.UTC), loan.DueDate)
}

func TestApplyRepayment(t *testing.T) {
	q, _ := DefaultRates().Quote(dec("100000"), models.TierBasic)
	loan := NewLoan("loan-1", "user-1", q, start)

	loan = ApplyRepayment(loan, dec("40000"), start.AddDate(0, 1, 0))
	assertDecimal(t, "40000", loan.RepaidAmount)
	assertDecimal(t, "70000", loan.RemainingAmount)
	assert.Equal(t, models.LoanActive, loan.Status)
	assert.Nil(t, loan.RepaidAt)

	paidAt := start.AddDate(0, 2, 0)
	loan = ApplyRepayment(loan, dec("70000"), paidAt)
	assert.True(t, loan.RemainingAmount.IsZero())
	assert.Equal(t, models.LoanRepaid, loan.Status)
	require.NotNil(t, loan.RepaidAt)
	assert.Equal(t, paidAt, *loan.RepaidAt)
}
