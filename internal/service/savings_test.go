package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSavingsService_Create(t *testing.T) {
	env := newTestEnv(t)
	env.setTier(models.TierPlus)
	env.setBalance("15000")

	res, err := env.savings.Create(context.Background(), testUser, d("10000"), 3)
	require.NoError(t, err)

	acc := res.Account
	assert.Equal(t, testUser, acc.OwnerID)
	assertDecimal(t, "10000", acc.Principal)
	assertDecimal(t, "12", acc.AnnualInterestRate)
	assert.Equal(t, 3, acc.LockPeriodMonths)
	assert.Equal(t, t0, acc.StartDate)
	assert.Equal(t, t0.AddDate(0, 3, 0), acc.MaturityDate)
	assert.Equal(t, models.SavingsActive, acc.Status)
	assertDecimal(t, "10000", acc.CurrentValue)
	assertDecimal(t, "10303.01", acc.MaturityValue)
	assert.Equal(t, 92, acc.DaysToMaturity)
	assertDecimal(t, "10000", res.Debited)
	assertDecimal(t, "5000", env.balance())

	// rate stays locked even if the tier changes later
	env.setTier(models.TierBasic)
	view, err := env.savings.Get(context.Background(), testUser, acc.ID)
	require.NoError(t, err)
	assertDecimal(t, "12", view.AnnualInterestRate)
}

func TestSavingsService_Create_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		amount  string
		lock    int
		user    string
		wantErr error
		message string
	}{
		{"unsupported lock", "5000", 2, testUser, ErrInvalidInput, "unsupported lock period"},
		{"non positive", "0", 3, testUser, ErrInvalidInput, "amount must be positive"},
		{"below minimum", "999.99", 3, testUser, ErrInvalidInput, "amount is below the minimum deposit"},
		{"sub-cent", "1000.004", 3, testUser, ErrInvalidInput, "amount must not have more than two decimal places"},
		{"exceeds balance", "5000.01", 3, testUser, ErrAmountExceedsLimit, "amount exceeds available funds"},
		{"unauthenticated", "5000", 3, "", ErrUnauthenticated, "not authenticated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.setBalance("5000")

			_, err := env.savings.Create(context.Background(), tt.user, d(tt.amount), tt.lock)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.EqualError(t, err, tt.message)

			accounts, _ := env.store.Savings(context.Background(), testUser)
			assert.Empty(t, accounts)
			assertDecimal(t, "5000", env.balance())
		})
	}
}

func TestSavingsService_Create_BalanceFailureRestoresSavings(t *testing.T) {
	env := newTestEnv(t)
	env.setBalance("5000")
	env.ledger.setErr = errors.New("ledger down")

	_, err := env.savings.Create(context.Background(), testUser, d("2000"), 1)
	require.Error(t, err)

	accounts, _ := env.store.Savings(context.Background(), testUser)
	assert.Empty(t, accounts)
}

func TestSavingsService_Withdraw_Early(t *testing.T) {
	env := newTestEnv(t)
	env.seedSavings("sav-a", "10000", "18", 12, t0)

	env.clock = t0.AddDate(0, 11, 0)
	res, err := env.savings.Withdraw(context.Background(), testUser, "sav-a")
	require.NoError(t, err)
	assert.True(t, res.Early)
	assertDecimal(t, "9500", res.Credited)
	assert.Equal(t, models.SavingsWithdrawn, res.Account.Status)
	assert.Equal(t, models.SavingsWithdrawn, res.Account.DerivedStatus)
	assertDecimal(t, "9500", res.Account.PayoutAmount)
	assertDecimal(t, "9500", env.balance())

	_, err = env.savings.Withdraw(context.Background(), testUser, "sav-a")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assertDecimal(t, "9500", env.balance())
}

func TestSavingsService_Withdraw_AtMaturity(t *testing.T) {
	env := newTestEnv(t)
	env.seedSavings("sav-a", "10000", "12", 3, t0)
	env.setBalance("100")

	env.clock = t0.AddDate(0, 5, 0)
	view, err := env.savings.Get(context.Background(), testUser, "sav-a")
	require.NoError(t, err)
	assert.Equal(t, models.SavingsMatured, view.DerivedStatus)
	assert.Equal(t, models.SavingsActive, view.Status)

	res, err := env.savings.Withdraw(context.Background(), testUser, "sav-a")
	require.NoError(t, err)
	assert.False(t, res.Early)
	assertDecimal(t, "10303.01", res.Credited)
	assertDecimal(t, "10403.01", env.balance())
}

func TestSavingsService_Withdraw_NotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.savings.Withdraw(context.Background(), testUser, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.EqualError(t, err, "savings account not found")
}

func TestSavingsService_Withdraw_CollateralGuard(t *testing.T) {
	env := newTestEnv(t)
	env.seedSavings("sav-a", "50000", "6", 6, t0)
	env.seedSavings("sav-b", "5000", "6", 6, t0)
	env.revenue.On("RecordRevenue", mock.Anything, mock.Anything).Return(nil)

	loan, err := env.loans.Apply(context.Background(), testUser, d("40000"))
	require.NoError(t, err)

	// sav-a alone still covers the 44000 owed
	_, err = env.savings.Withdraw(context.Background(), testUser, "sav-b")
	require.NoError(t, err)

	_, err = env.savings.Withdraw(context.Background(), testUser, "sav-a")
	assert.ErrorIs(t, err, ErrCollateralInUse)
	view, _ := env.savings.Get(context.Background(), testUser, "sav-a")
	assert.Equal(t, models.SavingsActive, view.Status)

	env.setBalance("44000")
	_, err = env.loans.Repay(context.Background(), testUser, loan.Loan.ID, d("44000"))
	require.NoError(t, err)

	_, err = env.savings.Withdraw(context.Background(), testUser, "sav-a")
	assert.NoError(t, err)
}

func TestSavingsService_List(t *testing.T) {
	env := newTestEnv(t)
	env.seedSavings("sav-a", "10000", "12", 3, t0)
	env.seedSavings("sav-b", "20000", "6", 12, t0)

	env.clock = t0.AddDate(0, 1, 0)
	views, err := env.savings.List(context.Background(), testUser)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assertDecimal(t, "10100", views[0].CurrentValue)
	assertDecimal(t, "100", views[0].EarnedInterest)
	assertDecimal(t, "20100", views[1].CurrentValue)

	_, err = env.savings.List(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
