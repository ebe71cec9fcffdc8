package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Dan9191/savings-wallet/internal/finance"
	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/Dan9191/savings-wallet/internal/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Disbursement is the outcome of a successful loan application
type Disbursement struct {
	Loan     models.LoanView `json:"loan"`
	Credited decimal.Decimal `json:"credited"`
}

// Repayment is the outcome of a successful repayment
type Repayment struct {
	Loan    models.LoanView `json:"loan"`
	Debited decimal.Decimal `json:"debited"`
}

// Recovery is the outcome of recovering an overdue loan from the borrower's savings
type Recovery struct {
	Loan      models.LoanView         `json:"loan"`
	Withdrawn []models.SavingsAccount `json:"withdrawn"`
	Recovered decimal.Decimal         `json:"recovered"`
	Surplus   decimal.Decimal         `json:"surplus"`
}

// LoanService manages the loan lifecycle
type LoanService struct {
	store   RecordStore
	ledger  BalanceLedger
	tiers   TierSource
	revenue RevenueRecorder
	rates   finance.RateTable
	locker  *Locker
	signer  *utils.Signer
	log     *logrus.Logger
	now     func() time.Time
	newID   func() string
}

// NewLoanService initializes a new loan service
func NewLoanService(store RecordStore, ledger BalanceLedger, tiers TierSource, revenue RevenueRecorder, rates finance.RateTable, locker *Locker, signer *utils.Signer, log *logrus.Logger) *LoanService {
	return &LoanService{
		store:   store,
		ledger:  ledger,
		tiers:   tiers,
		revenue: revenue,
		rates:   rates,
		locker:  locker,
		signer:  signer,
		log:     log,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Eligibility reports whether userID may borrow now and how much
func (s *LoanService) Eligibility(ctx context.Context, userID string) (models.Eligibility, error) {
	if userID == "" {
		return models.Eligibility{}, ErrUnauthenticated
	}
	loans, accounts, err := s.load(ctx, userID)
	if err != nil {
		return models.Eligibility{}, err
	}
	return s.rates.CheckEligibility(accounts, loans, s.now())
}

// Quote prices a loan of amount at the user's current tier without applying for it
func (s *LoanService) Quote(ctx context.Context, userID string, amount decimal.Decimal) (finance.LoanQuote, error) {
	if userID == "" {
		return finance.LoanQuote{}, ErrUnauthenticated
	}
	if err := checkLoanAmount(amount); err != nil {
		return finance.LoanQuote{}, err
	}
	tier, err := s.tiers.PremiumTier(ctx, userID)
	if err != nil {
		return finance.LoanQuote{}, fmt.Errorf("failed to read premium tier: %w", err)
	}
	return s.rates.Quote(amount, tier)
}

// Apply disburses a loan of amount to userID if their pooled savings allow it
func (s *LoanService) Apply(ctx context.Context, userID string, amount decimal.Decimal) (*Disbursement, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if err := checkLoanAmount(amount); err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	loans, accounts, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	eligibility, err := s.rates.CheckEligibility(accounts, loans, now)
	if err != nil {
		return nil, err
	}
	if !eligibility.Eligible {
		return nil, &IneligibleError{Reason: eligibility.Reason}
	}
	if amount.LessThan(finance.MinLoanAmount) {
		return nil, errBelowMinLoan
	}
	if amount.GreaterThan(eligibility.MaxAmount) {
		return nil, errExceedsMaxLoan
	}

	tier, err := s.tiers.PremiumTier(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read premium tier: %w", err)
	}
	quote, err := s.rates.Quote(amount, tier)
	if err != nil {
		return nil, err
	}
	if !quote.TotalRepayment.LessThan(eligibility.TotalPooledValue) {
		return nil, errExceedsCollateral
	}

	loan := finance.NewLoan(s.newID(), userID, quote, now)
	if s.signer != nil {
		loan.HMAC = s.signer.SignLoan(loan)
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}

	updated := append(append(make([]models.Loan, 0, len(loans)+1), loans...), loan)
	if err := s.store.SaveLoans(ctx, userID, updated); err != nil {
		return nil, fmt.Errorf("failed to save loans: %w", err)
	}
	if err := s.ledger.SetBalance(ctx, userID, balance.Add(amount)); err != nil {
		s.restoreLoans(ctx, userID, loans)
		return nil, fmt.Errorf("failed to credit balance: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "loan_id": loan.ID, "tier": tier}).
		Infof("Loan disbursed: %s at %s%%, repay %s by %s", loan.Amount, loan.InterestRate, loan.TotalRepayment, loan.DueDate.Format("2006-01-02"))

	s.recordInterest(ctx, loan)

	return &Disbursement{Loan: loanView(loan, now), Credited: amount}, nil
}

// Repay applies amount from the user's balance to loanID
func (s *LoanService) Repay(ctx context.Context, userID, loanID string, amount decimal.Decimal) (*Repayment, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	loans, err := s.loans(ctx, userID)
	if err != nil {
		return nil, err
	}
	idx := indexOfLoan(loans, loanID)
	if idx < 0 {
		return nil, errLoanNotFound
	}
	loan := loans[idx]
	if err := checkAmount(amount); err != nil {
		return nil, err
	}
	if amount.GreaterThan(loan.RemainingAmount) {
		return nil, errExceedsRemaining
	}

	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	if amount.GreaterThan(balance) {
		return nil, errExceedsFunds
	}

	now := s.now()
	updated := make([]models.Loan, len(loans))
	copy(updated, loans)
	updated[idx] = finance.ApplyRepayment(loan, amount, now)

	if err := s.store.SaveLoans(ctx, userID, updated); err != nil {
		return nil, fmt.Errorf("failed to save loans: %w", err)
	}
	if err := s.ledger.SetBalance(ctx, userID, balance.Sub(amount)); err != nil {
		s.restoreLoans(ctx, userID, loans)
		return nil, fmt.Errorf("failed to debit balance: %w", err)
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "loan_id": loanID}).
		Infof("Loan repayment of %s applied, remaining %s", amount, updated[idx].RemainingAmount)

	return &Repayment{Loan: loanView(updated[idx], now), Debited: amount}, nil
}

// List returns the user's loans with their read-time status
func (s *LoanService) List(ctx context.Context, userID string) ([]models.LoanView, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	loans, err := s.loans(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	views := make([]models.LoanView, 0, len(loans))
	for _, l := range loans {
		views = append(views, loanView(l, now))
	}
	return views, nil
}

// Get returns a single loan
func (s *LoanService) Get(ctx context.Context, userID, loanID string) (models.LoanView, error) {
	if userID == "" {
		return models.LoanView{}, ErrUnauthenticated
	}
	loans, err := s.loans(ctx, userID)
	if err != nil {
		return models.LoanView{}, err
	}
	idx := indexOfLoan(loans, loanID)
	if idx < 0 {
		return models.LoanView{}, errLoanNotFound
	}
	return loanView(loans[idx], s.now()), nil
}

// Schedule returns the monthly repayment schedule of a loan
func (s *LoanService) Schedule(ctx context.Context, userID, loanID string) ([]models.Installment, error) {
	view, err := s.Get(ctx, userID, loanID)
	if err != nil {
		return nil, err
	}
	return finance.RepaymentSchedule(view.Loan), nil
}

// RecoverFromCollateral settles an overdue loan flagged for auto-deduction by
// withdrawing the borrower's savings, matured accounts first. Any payout left
// after the loan is settled is credited to the balance. Returns nil when there
// is nothing to recover.
func (s *LoanService) RecoverFromCollateral(ctx context.Context, userID string) (*Recovery, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.now()
	loans, accounts, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, l := range loans {
		if l.AutoDeductFromSavings && l.StatusAt(now) == models.LoanOverdue {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	candidates := make([]int, 0, len(accounts))
	for i, acc := range accounts {
		if acc.Status != models.SavingsWithdrawn {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		s.log.WithFields(logrus.Fields{"user_id": userID, "loan_id": loans[idx].ID}).Warn("Overdue loan has no savings to recover from")
		return nil, nil
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return accounts[candidates[a]].MaturityDate.Before(accounts[candidates[b]].MaturityDate)
	})

	updatedAccounts := make([]models.SavingsAccount, len(accounts))
	copy(updatedAccounts, accounts)
	loan := loans[idx]
	recovered, surplus := decimal.Zero, decimal.Zero
	var withdrawn []models.SavingsAccount
	for _, i := range candidates {
		if !loan.RemainingAmount.IsPositive() {
			break
		}
		payout, early := finance.WithdrawalPayout(accounts[i], now)
		updatedAccounts[i] = finance.Withdraw(accounts[i], payout, early, now)
		withdrawn = append(withdrawn, updatedAccounts[i])

		applied := decimal.Min(payout, loan.RemainingAmount)
		loan = finance.ApplyRepayment(loan, applied, now)
		recovered = recovered.Add(applied)
		surplus = surplus.Add(payout.Sub(applied))
	}

	updatedLoans := make([]models.Loan, len(loans))
	copy(updatedLoans, loans)
	updatedLoans[idx] = loan

	if err := s.store.SaveSavings(ctx, userID, updatedAccounts); err != nil {
		return nil, fmt.Errorf("failed to save savings: %w", err)
	}
	if err := s.store.SaveLoans(ctx, userID, updatedLoans); err != nil {
		s.restoreSavings(ctx, userID, accounts)
		return nil, fmt.Errorf("failed to save loans: %w", err)
	}
	if surplus.IsPositive() {
		if err := s.credit(ctx, userID, surplus); err != nil {
			s.restoreLoans(ctx, userID, loans)
			s.restoreSavings(ctx, userID, accounts)
			return nil, fmt.Errorf("failed to credit surplus: %w", err)
		}
	}

	s.log.WithFields(logrus.Fields{"user_id": userID, "loan_id": loan.ID}).
		Infof("Recovered %s from %d savings accounts, surplus %s, remaining %s", recovered, len(withdrawn), surplus, loan.RemainingAmount)

	return &Recovery{Loan: loanView(loan, now), Withdrawn: withdrawn, Recovered: recovered, Surplus: surplus}, nil
}

func (s *LoanService) recordInterest(ctx context.Context, loan models.Loan) {
	if s.revenue == nil {
		return
	}
	event := models.RevenueEvent{
		Amount:      loan.TotalInterest,
		Category:    models.RevenueCategoryLoanInterest,
		SourceID:    loan.ID,
		UserID:      loan.OwnerID,
		Description: "loan interest",
		CreatedAt:   loan.DisbursementDate,
	}
	if err := s.revenue.RecordRevenue(ctx, event); err != nil {
		s.log.WithFields(logrus.Fields{"user_id": loan.OwnerID, "loan_id": loan.ID}).
			Warnf("Failed to record loan interest revenue: %v", err)
	}
}

func (s *LoanService) credit(ctx context.Context, userID string, amount decimal.Decimal) error {
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return err
	}
	return s.ledger.SetBalance(ctx, userID, balance.Add(amount))
}

func (s *LoanService) load(ctx context.Context, userID string) ([]models.Loan, []models.SavingsAccount, error) {
	loans, err := s.loans(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	accounts, err := s.store.Savings(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load savings: %w", err)
	}
	return loans, accounts, nil
}

func (s *LoanService) loans(ctx context.Context, userID string) ([]models.Loan, error) {
	loans, err := s.store.Loans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans: %w", err)
	}
	if s.signer != nil {
		for _, l := range loans {
			if err := s.signer.VerifyLoan(l); err != nil {
				return nil, fmt.Errorf("loan record rejected: %w", err)
			}
		}
	}
	return loans, nil
}

func (s *LoanService) restoreLoans(ctx context.Context, userID string, loans []models.Loan) {
	if err := s.store.SaveLoans(ctx, userID, loans); err != nil {
		s.log.WithField("user_id", userID).Errorf("Failed to restore loans after aborted operation: %v", err)
	}
}

func (s *LoanService) restoreSavings(ctx context.Context, userID string, accounts []models.SavingsAccount) {
	if err := s.store.SaveSavings(ctx, userID, accounts); err != nil {
		s.log.WithField("user_id", userID).Errorf("Failed to restore savings after aborted operation: %v", err)
	}
}

func indexOfLoan(loans []models.Loan, id string) int {
	for i, l := range loans {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func loanView(l models.Loan, now time.Time) models.LoanView {
	return models.LoanView{Loan: l, DerivedStatus: l.StatusAt(now)}
}
