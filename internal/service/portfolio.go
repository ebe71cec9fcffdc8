package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/savings-wallet/internal/finance"
	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// PortfolioService builds the per-user summary read model
type PortfolioService struct {
	store  RecordStore
	ledger BalanceLedger
	tiers  TierSource
	rates  finance.RateTable
	now    func() time.Time
}

// NewPortfolioService initializes a new portfolio service
func NewPortfolioService(store RecordStore, ledger BalanceLedger, tiers TierSource, rates finance.RateTable) *PortfolioService {
	return &PortfolioService{store: store, ledger: ledger, tiers: tiers, rates: rates, now: time.Now}
}

// Summary aggregates the user's balance, savings, open loan and eligibility
func (s *PortfolioService) Summary(ctx context.Context, userID string) (*models.Portfolio, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	balance, err := s.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	tier, err := s.tiers.PremiumTier(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read premium tier: %w", err)
	}
	accounts, err := s.store.Savings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load savings: %w", err)
	}
	loans, err := s.store.Loans(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loans: %w", err)
	}

	now := s.now()
	p := &models.Portfolio{
		Balance:               balance,
		Tier:                  tier,
		TotalSavingsPrincipal: decimal.Zero,
		TotalSavingsValue:     decimal.Zero,
		TotalEarnedInterest:   decimal.Zero,
		OutstandingLoan:       decimal.Zero,
	}
	for _, acc := range accounts {
		if acc.Status == models.SavingsWithdrawn {
			continue
		}
		v := finance.Value(acc, now)
		if acc.StatusAt(now) == models.SavingsActive {
			p.ActiveSavings++
		}
		p.TotalSavingsPrincipal = p.TotalSavingsPrincipal.Add(acc.Principal)
		p.TotalSavingsValue = p.TotalSavingsValue.Add(v.CurrentValue)
		p.TotalEarnedInterest = p.TotalEarnedInterest.Add(v.EarnedInterest)
	}
	p.TotalSavingsValue = p.TotalSavingsValue.Round(2)
	p.TotalEarnedInterest = p.TotalEarnedInterest.Round(2)

	if loan, ok := finance.OpenLoan(loans); ok {
		view := loanView(loan, now)
		p.OpenLoan = &view
		p.OutstandingLoan = loan.RemainingAmount
	}

	p.Eligibility, err = s.rates.CheckEligibility(accounts, loans, now)
	if err != nil {
		return nil, err
	}
	return p, nil
}
