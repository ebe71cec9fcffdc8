package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/savings-wallet/internal/models"
)

// Signer computes HMACs over the immutable terms of persisted records
type Signer struct {
	secret []byte
}

// NewSigner creates a signer for the given secret
func NewSigner(secret string) (*Signer, error) {
	if len(secret) < 32 {
		return nil, fmt.Errorf("hmac secret must be at least 32 characters, got %d", len(secret))
	}
	return &Signer{secret: []byte(secret)}, nil
}

// SignLoan generates an HMAC for the loan's disbursement terms.
// Repayment progress is not covered since it changes over the loan's life.
func (s *Signer) SignLoan(loan models.Loan) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(loanTerms(loan)))
	return hex.EncodeToString(h.Sum(nil))
}

// VerifyLoan checks the loan's stored HMAC
func (s *Signer) VerifyLoan(loan models.Loan) error {
	want, err := hex.DecodeString(loan.HMAC)
	if err != nil {
		return fmt.Errorf("loan %s: malformed hmac: %w", loan.ID, err)
	}
	got, _ := hex.DecodeString(s.SignLoan(loan))
	if !hmac.Equal(want, got) {
		return fmt.Errorf("loan %s: hmac mismatch", loan.ID)
	}
	return nil
}

func loanTerms(loan models.Loan) string {
	return strings.Join([]string{
		loan.ID,
		loan.OwnerID,
		loan.Amount.String(),
		loan.InterestRate.String(),
		loan.TotalInterest.String(),
		loan.TotalRepayment.String(),
		loan.DisbursementDate.UTC().Format(time.RFC3339Nano),
		loan.DueDate.UTC().Format(time.RFC3339Nano),
	}, "|")
}
