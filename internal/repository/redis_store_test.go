package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Dan9191/savings-wallet/internal/models"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), s
}

func TestRedisStore_Records(t *testing.T) {
	store, srv := newTestRedisStore(t)
	ctx := context.Background()

	loans, err := store.Loans(ctx, "u-1")
	require.NoError(t, err)
	assert.Empty(t, loans)

	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	accounts := []models.SavingsAccount{{
		ID:                 "sav-1",
		OwnerID:            "u-1",
		Principal:          decimal.NewFromInt(5000),
		AnnualInterestRate: decimal.NewFromInt(6),
		LockPeriodMonths:   3,
		StartDate:          start,
		MaturityDate:       start.AddDate(0, 3, 0),
		Status:             models.SavingsActive,
		PayoutAmount:       decimal.Zero,
	}}
	require.NoError(t, store.SaveSavings(ctx, "u-1", accounts))
	require.NoError(t, store.SaveLoans(ctx, "u-2", []models.Loan{{ID: "loan-1", OwnerID: "u-2", Status: models.LoanActive}}))

	got, err := store.Savings(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sav-1", got[0].ID)
	assert.True(t, got[0].Principal.Equal(decimal.NewFromInt(5000)))
	assert.True(t, got[0].MaturityDate.Equal(start.AddDate(0, 3, 0)))
	assert.True(t, srv.Exists("wallet:savings:u-1"))

	ids, err := store.UserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"u-1", "u-2"}, ids)
}

func TestRedisStore_Balance(t *testing.T) {
	store, srv := newTestRedisStore(t)
	ctx := context.Background()

	amount, err := store.Balance(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	require.NoError(t, store.SetBalance(ctx, "u-1", decimal.RequireFromString("1234.56")))
	amount, err = store.Balance(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "1234.56", amount.String())

	srv.Set("wallet:balance:u-2", "not-a-number")
	_, err = store.Balance(ctx, "u-2")
	assert.Error(t, err)
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	store, srv := newTestRedisStore(t)
	srv.Set("wallet:loans:u-1", "{")

	_, err := store.Loans(context.Background(), "u-1")
	assert.Error(t, err)
}
