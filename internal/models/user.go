package models

import "time"

// User represents a wallet user profile
type User struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	Username     string      `json:"username"`
	PasswordHash string      `json:"-"` // Not serialized
	Tier         PremiumTier `json:"premium_tier"`
	CreatedAt    time.Time   `json:"created_at"`
}
