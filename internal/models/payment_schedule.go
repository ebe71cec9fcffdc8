package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Installment represents one scheduled repayment of a loan
type Installment struct {
	Number      int             `json:"number"`
	PaymentDate time.Time       `json:"payment_date"`
	Amount      decimal.Decimal `json:"amount"`
	Paid        bool            `json:"paid"`
}
