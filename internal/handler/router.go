package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers every route. Routes other than register, login and
// rates go through auth.
func NewRouter(h *Handler, auth mux.MiddlewareFunc) *mux.Router {
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	r.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	r.HandleFunc("/rates", h.Rates).Methods(http.MethodGet)

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(auth)
	authRouter.HandleFunc("/balance", h.Balance).Methods(http.MethodGet)
	authRouter.HandleFunc("/portfolio", h.Portfolio).Methods(http.MethodGet)

	authRouter.HandleFunc("/savings", h.ListSavings).Methods(http.MethodGet)
	authRouter.HandleFunc("/savings", h.CreateSavings).Methods(http.MethodPost)
	authRouter.HandleFunc("/savings/{id}", h.GetSavings).Methods(http.MethodGet)
	authRouter.HandleFunc("/savings/{id}/withdraw", h.WithdrawSavings).Methods(http.MethodPost)

	authRouter.HandleFunc("/loans/eligibility", h.LoanEligibility).Methods(http.MethodGet)
	authRouter.HandleFunc("/loans/quote", h.LoanQuote).Methods(http.MethodGet)
	authRouter.HandleFunc("/loans", h.ListLoans).Methods(http.MethodGet)
	authRouter.HandleFunc("/loans", h.ApplyLoan).Methods(http.MethodPost)
	authRouter.HandleFunc("/loans/{id}", h.GetLoan).Methods(http.MethodGet)
	authRouter.HandleFunc("/loans/{id}/repay", h.RepayLoan).Methods(http.MethodPost)
	authRouter.HandleFunc("/loans/{id}/schedule", h.LoanSchedule).Methods(http.MethodGet)
	return r
}
