package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Dan9191/savings-wallet/internal/finance"
	"github.com/Dan9191/savings-wallet/internal/integrations/cbr"
	"github.com/Dan9191/savings-wallet/internal/middleware"
	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/Dan9191/savings-wallet/internal/service"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Auth registers users and issues tokens
type Auth interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// Loans is the loan lifecycle as seen by the API
type Loans interface {
	Eligibility(ctx context.Context, userID string) (models.Eligibility, error)
	Quote(ctx context.Context, userID string, amount decimal.Decimal) (finance.LoanQuote, error)
	Apply(ctx context.Context, userID string, amount decimal.Decimal) (*service.Disbursement, error)
	Repay(ctx context.Context, userID, loanID string, amount decimal.Decimal) (*service.Repayment, error)
	List(ctx context.Context, userID string) ([]models.LoanView, error)
	Get(ctx context.Context, userID, loanID string) (models.LoanView, error)
	Schedule(ctx context.Context, userID, loanID string) ([]models.Installment, error)
}

// Savings is the savings lifecycle as seen by the API
type Savings interface {
	Create(ctx context.Context, userID string, amount decimal.Decimal, lockMonths int) (*service.Deposit, error)
	Withdraw(ctx context.Context, userID, accountID string) (*service.Withdrawal, error)
	List(ctx context.Context, userID string) ([]models.SavingsView, error)
	Get(ctx context.Context, userID, accountID string) (models.SavingsView, error)
}

// Portfolio builds the per-user summary
type Portfolio interface {
	Summary(ctx context.Context, userID string) (*models.Portfolio, error)
}

// Balances reads spendable balances
type Balances interface {
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
}

// KeyRates fetches the market reference rate
type KeyRates interface {
	GetKeyRate(ctx context.Context) (cbr.KeyRate, error)
}

type Handler struct {
	auth      Auth
	loans     Loans
	savings   Savings
	portfolio Portfolio
	balances  Balances
	rates     finance.RateTable
	keyRates  KeyRates
	log       *logrus.Logger
}

func NewHandler(auth Auth, loans Loans, savings Savings, portfolio Portfolio, balances Balances, rates finance.RateTable, keyRates KeyRates, log *logrus.Logger) *Handler {
	return &Handler{
		auth:      auth,
		loans:     loans,
		savings:   savings,
		portfolio: portfolio,
		balances:  balances,
		rates:     rates,
		keyRates:  keyRates,
		log:       log,
	}
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type amountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type savingsRequest struct {
	Amount           decimal.Decimal `json:"amount"`
	LockPeriodMonths int             `json:"lock_period_months"`
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !h.decode(w, r, &req) {
		return
	}
	user, err := h.auth.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// Login handles user authentication
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !h.decode(w, r, &req) {
		return
	}
	token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// ListSavings returns the caller's savings accounts with current valuations
func (h *Handler) ListSavings(w http.ResponseWriter, r *http.Request) {
	views, err := h.savings.List(r.Context(), middleware.UserID(r.Context()))
	h.respond(w, http.StatusOK, views, err)
}

// CreateSavings opens a savings account funded from the balance
func (h *Handler) CreateSavings(w http.ResponseWriter, r *http.Request) {
	var req savingsRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.savings.Create(r.Context(), middleware.UserID(r.Context()), req.Amount, req.LockPeriodMonths)
	h.respond(w, http.StatusCreated, res, err)
}

// GetSavings returns one savings account
func (h *Handler) GetSavings(w http.ResponseWriter, r *http.Request) {
	view, err := h.savings.Get(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"])
	h.respond(w, http.StatusOK, view, err)
}

// WithdrawSavings closes a savings account and credits the payout
func (h *Handler) WithdrawSavings(w http.ResponseWriter, r *http.Request) {
	res, err := h.savings.Withdraw(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"])
	h.respond(w, http.StatusOK, res, err)
}

// LoanEligibility reports whether the caller may borrow and how much
func (h *Handler) LoanEligibility(w http.ResponseWriter, r *http.Request) {
	res, err := h.loans.Eligibility(r.Context(), middleware.UserID(r.Context()))
	h.respond(w, http.StatusOK, res, err)
}

// LoanQuote prices a prospective loan at the caller's tier rate
func (h *Handler) LoanQuote(w http.ResponseWriter, r *http.Request) {
	amount, err := decimal.NewFromString(r.URL.Query().Get("amount"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "amount query parameter must be a number"})
		return
	}
	res, err := h.loans.Quote(r.Context(), middleware.UserID(r.Context()), amount)
	h.respond(w, http.StatusOK, res, err)
}

// ApplyLoan disburses a new loan to the balance
func (h *Handler) ApplyLoan(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.loans.Apply(r.Context(), middleware.UserID(r.Context()), req.Amount)
	h.respond(w, http.StatusCreated, res, err)
}

// ListLoans returns the caller's loans
func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	res, err := h.loans.List(r.Context(), middleware.UserID(r.Context()))
	h.respond(w, http.StatusOK, res, err)
}

// GetLoan returns one loan
func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	res, err := h.loans.Get(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"])
	h.respond(w, http.StatusOK, res, err)
}

// RepayLoan applies a repayment from the balance
func (h *Handler) RepayLoan(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if !h.decode(w, r, &req) {
		return
	}
	res, err := h.loans.Repay(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"], req.Amount)
	h.respond(w, http.StatusOK, res, err)
}

// LoanSchedule returns the loan's monthly installments
func (h *Handler) LoanSchedule(w http.ResponseWriter, r *http.Request) {
	res, err := h.loans.Schedule(r.Context(), middleware.UserID(r.Context()), mux.Vars(r)["id"])
	h.respond(w, http.StatusOK, res, err)
}

// Portfolio returns the caller's summary
func (h *Handler) Portfolio(w http.ResponseWriter, r *http.Request) {
	res, err := h.portfolio.Summary(r.Context(), middleware.UserID(r.Context()))
	h.respond(w, http.StatusOK, res, err)
}

// Balance returns the caller's spendable balance
func (h *Handler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserID(r.Context())
	if userID == "" {
		h.writeError(w, service.ErrUnauthenticated)
		return
	}
	balance, err := h.balances.Balance(r.Context(), userID)
	h.respond(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance}, err)
}

type ratesResponse struct {
	Savings      map[models.PremiumTier]decimal.Decimal `json:"savings"`
	Loan         map[models.PremiumTier]decimal.Decimal `json:"loan"`
	KeyRate      *cbr.KeyRate                           `json:"key_rate,omitempty"`
	KeyRateError string                                 `json:"key_rate_error,omitempty"`
}

// Rates publishes tier rates next to the central bank key rate. The key rate is
// informational, so an outage there does not fail the request.
func (h *Handler) Rates(w http.ResponseWriter, r *http.Request) {
	res := ratesResponse{Savings: h.rates.Savings, Loan: h.rates.Loan}
	if h.keyRates != nil {
		kr, err := h.keyRates.GetKeyRate(r.Context())
		if err != nil {
			h.log.Warnf("Key rate unavailable: %v", err)
			res.KeyRateError = "key rate unavailable"
		} else {
			res.KeyRate = &kr
		}
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, status int, body interface{}, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, status, body)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	body := map[string]string{"error": err.Error()}
	var status int
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrIneligible):
		status = http.StatusUnprocessableEntity
		var ie *service.IneligibleError
		if errors.As(err, &ie) {
			body["reason"] = ie.Reason
		}
	case errors.Is(err, service.ErrAmountExceedsLimit):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrCollateralInUse):
		status = http.StatusConflict
	default:
		h.log.Errorf("Request failed: %v", err)
		status = http.StatusInternalServerError
		body["error"] = "internal error"
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
