package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Dan9191/savings-wallet/internal/finance"
	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/Dan9191/savings-wallet/internal/repository"
	"github.com/Dan9191/savings-wallet/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu           sync.Mutex
	loans        map[string][]models.Loan
	savings      map[string][]models.SavingsAccount
	saveLoansErr error
}

func newMemStore() *memStore {
	return &memStore{loans: map[string][]models.Loan{}, savings: map[string][]models.SavingsAccount{}}
}

func (m *memStore) Loans(_ context.Context, userID string) ([]models.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Loan(nil), m.loans[userID]...), nil
}

func (m *memStore) SaveLoans(_ context.Context, userID string, loans []models.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveLoansErr != nil {
		return m.saveLoansErr
	}
	m.loans[userID] = append([]models.Loan(nil), loans...)
	return nil
}

func (m *memStore) Savings(_ context.Context, userID string) ([]models.SavingsAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SavingsAccount(nil), m.savings[userID]...), nil
}

func (m *memStore) SaveSavings(_ context.Context, userID string, accounts []models.SavingsAccount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.savings[userID] = append([]models.SavingsAccount(nil), accounts...)
	return nil
}

func (m *memStore) UserIDs(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	for id := range m.loans {
		seen[id] = true
	}
	for id := range m.savings {
		seen[id] = true
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

type memLedger struct {
	mu       sync.Mutex
	balances map[string]decimal.Decimal
	setErr   error
}

func newMemLedger() *memLedger {
	return &memLedger{balances: map[string]decimal.Decimal{}}
}

func (m *memLedger) Balance(_ context.Context, userID string) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID], nil
}

func (m *memLedger) SetBalance(_ context.Context, userID string, amount decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.balances[userID] = amount
	return nil
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: map[string]*models.User{}}
}

func (m *memUsers) PremiumTier(_ context.Context, userID string) (models.PremiumTier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		return models.TierBasic, nil
	}
	return u.Tier, nil
}

func (m *memUsers) CreateUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	if user.ID == "" {
		user.ID = "user-" + user.Username
	}
	m.users[user.ID] = user
	return nil
}

func (m *memUsers) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errors.New("user not found")
}

func (m *memUsers) FindUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, errors.New("user not found")
	}
	return u, nil
}

type MockRevenueRecorder struct {
	mock.Mock
}

func (m *MockRevenueRecorder) RecordRevenue(ctx context.Context, event models.RevenueEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendLoanOverdue(user *models.User, loan models.Loan) error {
	args := m.Called(user, loan)
	return args.Error(0)
}

func (m *MockNotifier) SendSavingsMatured(user *models.User, view models.SavingsView) error {
	args := m.Called(user, view)
	return args.Error(0)
}

const (
	testUser   = "user-1"
	testSecret = "a1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6"
)

var t0 = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	store   *memStore
	ledger  *memLedger
	users   *memUsers
	revenue *MockRevenueRecorder
	locker  *Locker
	signer  *utils.Signer
	loans   *LoanService
	savings *SavingsService
	clock   time.Time
	ids     int
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithRates(t, finance.DefaultRates())
}

func newTestEnvWithRates(t *testing.T, rates finance.RateTable) *testEnv {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	signer, err := utils.NewSigner(testSecret)
	require.NoError(t, err)

	env := &testEnv{
		store:   newMemStore(),
		ledger:  newMemLedger(),
		users:   newMemUsers(),
		revenue: &MockRevenueRecorder{},
		locker:  NewLocker(),
		signer:  signer,
		clock:   t0,
	}
	env.users.users[testUser] = &models.User{ID: testUser, Email: "user1@example.com", Username: "user1", Tier: models.TierBasic}

	env.loans = NewLoanService(env.store, env.ledger, env.users, env.revenue, rates, env.locker, signer, log)
	env.loans.now = func() time.Time { return env.clock }
	env.savings = NewSavingsService(env.store, env.ledger, env.users, rates, env.locker, decimal.NewFromInt(1000), log)
	env.savings.now = func() time.Time { return env.clock }

	var mu sync.Mutex
	nextID := func(prefix string) func() string {
		return func() string {
			mu.Lock()
			defer mu.Unlock()
			env.ids++
			return prefix + "-" + decimal.NewFromInt(int64(env.ids)).String()
		}
	}
	env.loans.newID = nextID("loan")
	env.savings.newID = nextID("sav")
	return env
}

func (e *testEnv) setTier(tier models.PremiumTier) {
	e.users.users[testUser].Tier = tier
}

func (e *testEnv) setBalance(amount string) {
	e.ledger.balances[testUser] = d(amount)
}

func (e *testEnv) balance() decimal.Decimal {
	return e.ledger.balances[testUser]
}

// seedSavings stores an account opened at start without touching the balance
func (e *testEnv) seedSavings(id, principal, rate string, lock int, start time.Time) {
	e.store.savings[testUser] = append(e.store.savings[testUser], models.SavingsAccount{
		ID:                 id,
		OwnerID:            testUser,
		Principal:          d(principal),
		AnnualInterestRate: d(rate),
		LockPeriodMonths:   lock,
		StartDate:          start,
		MaturityDate:       finance.MaturityDate(start, lock),
		Status:             models.SavingsActive,
		PayoutAmount:       decimal.Zero,
	})
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}
