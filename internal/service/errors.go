package service

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Error kinds. Every error returned for a rejected operation wraps one of these.
var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrNotFound           = errors.New("not found")
	ErrIneligible         = errors.New("not eligible")
	ErrAmountExceedsLimit = errors.New("amount exceeds limit")
	ErrInvalidInput       = errors.New("invalid input")
	ErrCollateralInUse    = errors.New("collateral in use")
)

// Error is a rejected operation with a user-facing message
type Error struct {
	kind error
	msg  string
}

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

var (
	errLoanNotFound      = newError(ErrNotFound, "loan not found")
	errSavingsNotFound   = newError(ErrNotFound, "savings account not found")
	errExceedsMaxLoan    = newError(ErrAmountExceedsLimit, "amount exceeds maximum eligible loan")
	errExceedsCollateral = newError(ErrAmountExceedsLimit, "total repayment exceeds combined savings value")
	errExceedsRemaining  = newError(ErrAmountExceedsLimit, "amount exceeds remaining balance")
	errExceedsFunds      = newError(ErrAmountExceedsLimit, "amount exceeds available funds")
	errNonPositive       = newError(ErrInvalidInput, "amount must be positive")
	errFractionalLoan    = newError(ErrInvalidInput, "loan amount must be a whole number")
	errSubCent           = newError(ErrInvalidInput, "amount must not have more than two decimal places")
	errBelowMinLoan      = newError(ErrInvalidInput, "amount is below the minimum loan")
	errBelowMinDeposit   = newError(ErrInvalidInput, "amount is below the minimum deposit")
	errLockPeriod        = newError(ErrInvalidInput, "unsupported lock period")
	errAlreadyWithdrawn  = newError(ErrInvalidInput, "savings account already withdrawn")
	errBacksLoan         = newError(ErrCollateralInUse, "savings account backs an active loan")
)

// IneligibleError is returned when a loan application fails the eligibility rules
type IneligibleError struct {
	Reason string
}

func (e *IneligibleError) Error() string { return "not eligible: " + e.Reason }

func (e *IneligibleError) Unwrap() error { return ErrIneligible }

// checkAmount rejects amounts that are not positive or are finer than the
// ledger's cent granularity.
func checkAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errNonPositive
	}
	if !amount.Equal(amount.Round(2)) {
		return errSubCent
	}
	return nil
}

// checkLoanAmount rejects loan principals that are not positive whole units
func checkLoanAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errNonPositive
	}
	if !amount.Equal(amount.Truncate(0)) {
		return errFractionalLoan
	}
	return nil
}
