package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/savings-wallet/internal/finance"
	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Deposit is the outcome of opening a savings account
type Deposit struct {
	Account models.SavingsView `json:"account"`
	Debited decimal.Decimal    `json:"debited"`
}

// Withdrawal is the outcome of closing a savings account
type Withdrawal struct {
	Account  models.SavingsView `json:"account"`
	Credited decimal.Decimal    `json:"credited"`
	Early    bool               `json:"early"`
}

// SavingsService manages the savings account lifecycle
type SavingsService struct {
	store      RecordStore
	ledger     BalanceLedger
	tiers      TierSource
	rates      finance.RateTable
	locker     *Locker
	minDeposit decimal.Decimal
	log        *logrus.Logger
	now        func() time.Time
	newID      func() string
}

// NewSavingsService initializes a new savings service
func NewSavingsService(store RecordStore, ledger BalanceLedger, tiers TierSource, rates finance.RateTable, locker *Locker, minDeposit decimal.Decimal, log *logrus.Logger) *SavingsService {
	return &SavingsService{
		store:      store,
		ledger:     ledger,
		tiers:      tiers,
		rates:      rates,
		locker:     locker,
		minDeposit: minDeposit,
		log:        log,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Create moves amount from the user's balance into a new account locked for lockMonths
func (s *SavingsService) Create(ctx context.Context, userID string, amount decimal.Decimal, lockMonths int) (*Deposit, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if !finance.ValidLockPeriod(lockMonths) {
		return nil, errLockPeriod
	}
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if amount.LessThan(s.minDeposit) {
		return nil, errBelowMinDeposit
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	if amount.GreaterThan(balance) {
		return nil, errExceedsFunds
	}

	tier, err := s.tiers.PremiumTier(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read premium tier: %w", err)
	}
	rate, err := s.rates.SavingsRate(tier)
	if err != nil {
		return nil, err
	}

	accounts, err := s.store.Savings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load savings: %w", err)
	}

	now := s.now()
	acc := models.SavingsAccount{
		ID:                 s.newID(),
		OwnerID:            userID,
		Principal:          amount,
		AnnualInterestRate: rate,
		LockPeriodMonths:   lockMonths,
		StartDate:          now,
		MaturityDate:       finance.MaturityDate(now, lockMonths),
		Status:             models.SavingsActive,
		PayoutAmount:       decimal.Zero,
	}

	updated := append(append(make([]models.SavingsAccount, 0, len(accounts)+1), accounts...), acc)
	if err := s.store.SaveSavings(ctx, userID, updated); err != nil {
		return nil, fmt.Errorf("failed to save savings: %w", err)
	}
	if err := s.ledger.SetBalance(ctx, userID, balance.Sub(amount)); err != nil {
		if rerr := s.store.SaveSavings(ctx, userID, accounts); rerr != nil {
			s.log.WithField("user_id", userID).Errorf("Failed to restore savings after aborted deposit: %v", rerr)
		}
		return nil, fmt.Errorf("failed to debit balance: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "savings_id": acc.ID, "tier": tier}).
		Infof("Savings account opened: %s for %d months at %s%%", amount, lockMonths, rate)

	return &Deposit{Account: finance.View(acc, now), Debited: amount}, nil
}

// Withdraw closes accountID and pays it out to the user's balance. Before maturity
// only the penalized principal is paid out.
func (s *SavingsService) Withdraw(ctx context.Context, userID, accountID string) (*Withdrawal, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	accounts, err := s.store.Savings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load savings: %w", err)
	}
	idx := indexOfSavings(accounts, accountID)
	if idx < 0 {
		return nil, errSavingsNotFound
	}
	acc := accounts[idx]
	if acc.Status == models.SavingsWithdrawn {
		return nil, errAlreadyWithdrawn
	}

	now := s.now()
	payout, early := finance.WithdrawalPayout(acc, now)
	if early {
		if err := s.checkCollateral(ctx, userID, accounts, idx, now); err != nil {
			return nil, err
		}
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	updated := make([]models.SavingsAccount, len(accounts))
	copy(updated, accounts)
	updated[idx] = finance.Withdraw(acc, payout, early, now)

	if err := s.store.SaveSavings(ctx, userID, updated); err != nil {
		return nil, fmt.Errorf("failed to save savings: %w", err)
	}
	if err := s.ledger.SetBalance(ctx, userID, balance.Add(payout)); err != nil {
		if rerr := s.store.SaveSavings(ctx, userID, accounts); rerr != nil {
			s.log.WithField("user_id", userID).Errorf("Failed to restore savings after aborted withdrawal: %v", rerr)
		}
		return nil, fmt.Errorf("failed to credit balance: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "savings_id": accountID, "early": early}).
		Infof("Savings account withdrawn, paid out %s", payout)

	return &Withdrawal{Account: finance.View(updated[idx], now), Credited: payout, Early: early}, nil
}

// List returns the user's savings accounts with derived values
func (s *SavingsService) List(ctx context.Context, userID string) ([]models.SavingsView, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	accounts, err := s.store.Savings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load savings: %w", err)
	}
	now := s.now()
	views := make([]models.SavingsView, 0, len(accounts))
	for _, acc := range accounts {
		views = append(views, finance.View(acc, now))
	}
	return views, nil
}

// Get returns a single savings account
func (s *SavingsService) Get(ctx context.Context, userID, accountID string) (models.SavingsView, error) {
	if userID == "" {
		return models.SavingsView{}, ErrUnauthenticated
	}
	accounts, err := s.store.Savings(ctx, userID)
	if err != nil {
		return models.SavingsView{}, fmt.Errorf("failed to load savings: %w", err)
	}
	idx := indexOfSavings(accounts, accountID)
	if idx < 0 {
		return models.SavingsView{}, errSavingsNotFound
	}
	return finance.View(accounts[idx], s.now()), nil
}

// checkCollateral rejects an early withdrawal that would leave the open loan
// without remaining collateral worth more than what is still owed.
func (s *SavingsService) checkCollateral(ctx context.Context, userID string, accounts []models.SavingsAccount, idx int, now time.Time) error {
	loans, err := s.store.Loans(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load loans: %w", err)
	}
	loan, ok := finance.OpenLoan(loans)
	if !ok {
		return nil
	}

	rest := make([]models.SavingsAccount, 0, len(accounts)-1)
	rest = append(rest, accounts[:idx]...)
	rest = append(rest, accounts[idx+1:]...)
	if finance.PoolCollateral(rest, now).Value().GreaterThan(loan.RemainingAmount) {
		return nil
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "savings_id": accounts[idx].ID, "loan_id": loan.ID}).
		Warn("Early withdrawal blocked by open loan")
	return errBacksLoan
}

func indexOfSavings(accounts []models.SavingsAccount, id string) int {
	for i, acc := range accounts {
		if acc.ID == id {
			return i
		}
	}
	return -1
}
