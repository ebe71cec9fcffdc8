package service

import (
	"context"

	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/shopspring/decimal"
)

// RecordStore persists each user's loans and savings accounts as whole collections
type RecordStore interface {
	Loans(ctx context.Context, userID string) ([]models.Loan, error)
	SaveLoans(ctx context.Context, userID string, loans []models.Loan) error
	Savings(ctx context.Context, userID string) ([]models.SavingsAccount, error)
	SaveSavings(ctx context.Context, userID string, accounts []models.SavingsAccount) error
	UserIDs(ctx context.Context) ([]string, error)
}

// BalanceLedger owns users' spendable balances
type BalanceLedger interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	SetBalance(ctx context.Context, userID string, amount decimal.Decimal) error
}

// RevenueRecorder records operator revenue. Failures never undo a loan.
type RevenueRecorder interface {
	RecordRevenue(ctx context.Context, event models.RevenueEvent) error
}

// TierSource reads a user's premium tier from their profile
type TierSource interface {
	PremiumTier(ctx context.Context, userID string) (models.PremiumTier, error)
}

// UserStore persists user profiles
type UserStore interface {
	TierSource
	CreateUser(ctx context.Context, user *models.User) error
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
}

// Notifier delivers lifecycle notices to users
type Notifier interface {
	SendLoanOverdue(user *models.User, loan models.Loan) error
	SendSavingsMatured(user *models.User, view models.SavingsView) error
}
