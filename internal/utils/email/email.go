package email

import (
	"fmt"
	"net/smtp"

	"github.com/Dan9191/savings-wallet/internal/config"
	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	s := &Sender{
		cfg:    cfg,
		logger: logger,
	}
	s.send = s.smtpSend
	return s
}

// SendLoanOverdue tells the borrower their loan is past due
func (s *Sender) SendLoanOverdue(user *models.User, loan models.Loan) error {
	body := fmt.Sprintf("Dear %s,\n\n", user.Username)
	body += fmt.Sprintf(
		"Your loan %s was due on %s and is now overdue.\n"+
			"Outstanding amount: %s\n",
		loan.ID, loan.DueDate.Format("2006-01-02"), loan.RemainingAmount.StringFixed(2),
	)
	if loan.AutoDeductFromSavings {
		body += "If it stays unpaid, the outstanding amount may be recovered from your savings.\n"
	} else {
		body += "Please repay as soon as possible.\n"
	}
	return s.deliver(user.Email, "Overdue Loan Notification", body)
}

// SendSavingsMatured tells the owner a savings account reached maturity
func (s *Sender) SendSavingsMatured(user *models.User, view models.SavingsView) error {
	body := fmt.Sprintf("Dear %s,\n\n", user.Username)
	body += fmt.Sprintf(
		"Your savings account %s matured on %s.\n"+
			"Principal: %s\n"+
			"Interest earned: %s\n"+
			"Available to withdraw: %s\n",
		view.ID, view.MaturityDate.Format("2006-01-02"),
		view.Principal.StringFixed(2), view.EarnedInterest.StringFixed(2), view.MaturityValue.StringFixed(2),
	)
	return s.deliver(user.Email, "Savings Matured", body)
}

func (s *Sender) deliver(to, subject, body string) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = subject
	e.Text = []byte(body + "\nBest regards,\nSavings Wallet")

	if err := s.send(e); err != nil {
		s.logger.Errorf("Failed to send email to %s: %v", to, err)
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, subject)
	return nil
}

func (s *Sender) smtpSend(e *email.Email) error {
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	return e.Send(addr, auth)
}
