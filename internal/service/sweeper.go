package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/savings-wallet/internal/finance"
	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/sirupsen/logrus"
)

// overdueReminderEvery is how often an overdue loan is re-notified
const overdueReminderEvery = 24 * time.Hour

// SweepReport counts what a sweep found and did
type SweepReport struct {
	Users     int
	Overdue   int
	Matured   int
	Recovered int
	Failed    int
}

// Sweeper periodically walks every user's records to send overdue and
// maturity notices and, when enabled, recover overdue loans from savings.
type Sweeper struct {
	store       RecordStore
	users       UserStore
	notifier    Notifier
	loans       *LoanService
	autoRecover bool
	window      time.Duration
	log         *logrus.Logger
	now         func() time.Time
}

// NewSweeper initializes a sweeper. Accounts that matured within window before
// a sweep get a maturity notice, and overdue loans are notified in the window
// after falling due and once a day after that. window should match the sweep
// interval.
func NewSweeper(store RecordStore, users UserStore, notifier Notifier, loans *LoanService, autoRecover bool, window time.Duration, log *logrus.Logger) *Sweeper {
	return &Sweeper{
		store:       store,
		users:       users,
		notifier:    notifier,
		loans:       loans,
		autoRecover: autoRecover,
		window:      window,
		log:         log,
		now:         time.Now,
	}
}

// Run performs one sweep. Per-user failures are logged and counted, not returned.
func (s *Sweeper) Run(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	ids, err := s.store.UserIDs(ctx)
	if err != nil {
		return report, fmt.Errorf("failed to list users: %w", err)
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Users++
		if err := s.sweepUser(ctx, id, &report); err != nil {
			report.Failed++
			s.log.WithField("user_id", id).Errorf("Sweep failed: %v", err)
		}
	}

	s.log.Infof("Sweep finished: %d users, %d overdue, %d matured, %d recovered, %d failed",
		report.Users, report.Overdue, report.Matured, report.Recovered, report.Failed)
	return report, nil
}

func (s *Sweeper) sweepUser(ctx context.Context, userID string, report *SweepReport) error {
	now := s.now()
	loans, err := s.store.Loans(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load loans: %w", err)
	}
	accounts, err := s.store.Savings(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load savings: %w", err)
	}

	var overdue, remind []models.Loan
	for _, l := range loans {
		if l.StatusAt(now) == models.LoanOverdue {
			overdue = append(overdue, l)
			if now.Sub(l.DueDate)%overdueReminderEvery < s.window {
				remind = append(remind, l)
			}
		}
	}
	var matured []models.SavingsAccount
	for _, acc := range accounts {
		if acc.StatusAt(now) == models.SavingsMatured && now.Sub(acc.MaturityDate) < s.window {
			matured = append(matured, acc)
		}
	}
	if len(overdue) == 0 && len(matured) == 0 {
		return nil
	}
	report.Overdue += len(overdue)
	report.Matured += len(matured)

	user, err := s.users.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if s.notifier != nil {
		for _, l := range remind {
			if err := s.notifier.SendLoanOverdue(user, l); err != nil {
				s.log.WithFields(logrus.Fields{"user_id": userID, "loan_id": l.ID}).Warnf("Overdue notice not sent: %v", err)
			}
		}
		for _, acc := range matured {
			if err := s.notifier.SendSavingsMatured(user, finance.View(acc, now)); err != nil {
				s.log.WithFields(logrus.Fields{"user_id": userID, "savings_id": acc.ID}).Warnf("Maturity notice not sent: %v", err)
			}
		}
	}

	if s.autoRecover && len(overdue) > 0 {
		recovery, err := s.loans.RecoverFromCollateral(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to recover overdue loan: %w", err)
		}
		if recovery != nil {
			report.Recovered++
		}
	}
	return nil
}
