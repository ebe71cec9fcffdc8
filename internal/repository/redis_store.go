package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const keyPrefix = "wallet:"

// RedisStore keeps record collections and balances in Redis, one key per user and kind
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an already connected client
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func recordKey(kind, userID string) string {
	return keyPrefix + kind + ":" + userID
}

func balanceKey(userID string) string {
	return keyPrefix + "balance:" + userID
}

// Loans returns the user's loan collection
func (s *RedisStore) Loans(ctx context.Context, userID string) ([]models.Loan, error) {
	var loans []models.Loan
	if err := s.load(ctx, recordKey(kindLoans, userID), &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

// SaveLoans replaces the user's loan collection
func (s *RedisStore) SaveLoans(ctx context.Context, userID string, loans []models.Loan) error {
	return s.save(ctx, recordKey(kindLoans, userID), loans)
}

// Savings returns the user's savings collection
func (s *RedisStore) Savings(ctx context.Context, userID string) ([]models.SavingsAccount, error) {
	var accounts []models.SavingsAccount
	if err := s.load(ctx, recordKey(kindSavings, userID), &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// SaveSavings replaces the user's savings collection
func (s *RedisStore) SaveSavings(ctx context.Context, userID string, accounts []models.SavingsAccount) error {
	return s.save(ctx, recordKey(kindSavings, userID), accounts)
}

// UserIDs scans loan and savings keys and returns their owners, sorted
func (s *RedisStore) UserIDs(ctx context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	for _, kind := range []string{kindLoans, kindSavings} {
		prefix := recordKey(kind, "")
		iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			seen[strings.TrimPrefix(iter.Val(), prefix)] = struct{}{}
		}
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("failed to scan %s keys: %w", kind, err)
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Balance returns the user's spendable balance; missing keys read as zero
func (s *RedisStore) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	raw, err := s.client.Get(ctx, balanceKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return decimal.Zero, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to read balance: %w", err)
	}
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("corrupt balance for %s: %w", userID, err)
	}
	return amount, nil
}

// SetBalance overwrites the user's spendable balance
func (s *RedisStore) SetBalance(ctx context.Context, userID string, amount decimal.Decimal) error {
	if err := s.client.Set(ctx, balanceKey(userID), amount.String(), 0).Err(); err != nil {
		return fmt.Errorf("failed to update balance: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, key string, dst interface{}) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) save(ctx context.Context, key string, records interface{}) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}
