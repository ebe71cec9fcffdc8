package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	kindLoans   = "loans"
	kindSavings = "savings"
)

// Schema creates the wallet tables when they are missing
const Schema = `
CREATE SCHEMA IF NOT EXISTS wallet;
CREATE TABLE IF NOT EXISTS wallet.users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	premium_tier  TEXT NOT NULL DEFAULT 'basic',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS wallet.records (
	user_id    TEXT NOT NULL,
	kind       TEXT NOT NULL,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (user_id, kind)
);
CREATE TABLE IF NOT EXISTS wallet.balances (
	user_id    TEXT PRIMARY KEY,
	amount     NUMERIC(20, 2) NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS wallet.revenue_events (
	id          BIGSERIAL PRIMARY KEY,
	amount      NUMERIC(20, 2) NOT NULL,
	category    TEXT NOT NULL,
	source_id   TEXT NOT NULL,
	user_id     TEXT NOT NULL,
	description TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL
);`

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Migrate applies Schema
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Tier == "" {
		user.Tier = models.TierBasic
	}
	query := `
		INSERT INTO wallet.users (id, username, email, password_hash, premium_tier, created_at)
		VALUES ($1, $2, $3, $4, $5, CURRENT_TIMESTAMP)
		RETURNING created_at`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, string(user.Tier)).
		Scan(&user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by email
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findUser(ctx, "email", email)
}

// FindUserByID retrieves a user by id
func (r *Repository) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.findUser(ctx, "id", id)
}

func (r *Repository) findUser(ctx context.Context, column, value string) (*models.User, error) {
	user := &models.User{}
	var tier string
	query := `
		SELECT id, username, email, password_hash, premium_tier, created_at
		FROM wallet.users
		WHERE ` + column + ` = $1`
	err := r.db.QueryRowContext(ctx, query, value).
		Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &tier, &user.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user.Tier, err = models.ParsePremiumTier(tier); err != nil {
		return nil, err
	}
	return user, nil
}

// PremiumTier reads the user's tier from their profile
func (r *Repository) PremiumTier(ctx context.Context, userID string) (models.PremiumTier, error) {
	var tier string
	err := r.db.QueryRowContext(ctx, `SELECT premium_tier FROM wallet.users WHERE id = $1`, userID).Scan(&tier)
	if err == sql.ErrNoRows {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read premium tier: %w", err)
	}
	return models.ParsePremiumTier(tier)
}

// Loans returns the user's loan collection
func (r *Repository) Loans(ctx context.Context, userID string) ([]models.Loan, error) {
	var loans []models.Loan
	if err := r.loadRecords(ctx, userID, kindLoans, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

// SaveLoans replaces the user's loan collection
func (r *Repository) SaveLoans(ctx context.Context, userID string, loans []models.Loan) error {
	return r.saveRecords(ctx, userID, kindLoans, loans)
}

// Savings returns the user's savings collection
func (r *Repository) Savings(ctx context.Context, userID string) ([]models.SavingsAccount, error) {
	var accounts []models.SavingsAccount
	if err := r.loadRecords(ctx, userID, kindSavings, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SaveSavings replaces the user's savings collection
func (r *Repository) SaveSavings(ctx context.Context, userID string, accounts []models.SavingsAccount) error {
	return r.saveRecords(ctx, userID, kindSavings, accounts)
}

// UserIDs lists every user that has stored records
func (r *Repository) UserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM wallet.records ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) loadRecords(ctx context.Context, userID, kind string, dst interface{}) error {
	var payload []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM wallet.records WHERE user_id = $1 AND kind = $2`, userID, kind).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", kind, err)
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", kind, err)
	}
	return nil
}

func (r *Repository) saveRecords(ctx context.Context, userID, kind string, records interface{}) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", kind, err)
	}
	query := `
		INSERT INTO wallet.records (user_id, kind, payload, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id, kind) DO UPDATE SET payload = EXCLUDED.payload, updated_at = CURRENT_TIMESTAMP`
	if _, err := r.db.ExecContext(ctx, query, userID, kind, payload); err != nil {
		return fmt.Errorf("failed to save %s: %w", kind, err)
	}
	return nil
}

// Balance returns the user's spendable balance; users without a row have zero
func (r *Repository) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var amount decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT amount FROM wallet.balances WHERE user_id = $1`, userID).Scan(&amount)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}
	return amount, nil
}

// SetBalance overwrites the user's spendable balance
func (r *Repository) SetBalance(ctx context.Context, userID string, amount decimal.Decimal) error {
	query := `
		INSERT INTO wallet.balances (user_id, amount, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (user_id) DO UPDATE SET amount = EXCLUDED.amount, updated_at = CURRENT_TIMESTAMP`
	if _, err := r.db.ExecContext(ctx, query, userID, amount); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

// RecordRevenue appends a revenue event to the operator ledger
func (r *Repository) RecordRevenue(ctx context.Context, event models.RevenueEvent) error {
	query := `
		INSERT INTO wallet.revenue_events (amount, category, source_id, user_id, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query,
		event.Amount, event.Category, event.SourceID, event.UserID, event.Description, event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record revenue: %w", err)
	}
	return nil
}
