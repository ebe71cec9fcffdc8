package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dan9191/savings-wallet/internal/models"
	"github.com/Dan9191/savings-wallet/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthService registers users and issues bearer tokens
type AuthService struct {
	users     UserStore
	log       *logrus.Logger
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewAuthService initializes a new auth service
func NewAuthService(users UserStore, log *logrus.Logger, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{users: users, log: log, jwtSecret: []byte(jwtSecret), tokenTTL: tokenTTL}
}

// Register creates a new basic-tier user with hashed password
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if username == "" || email == "" || len(password) < 8 {
		return nil, newError(ErrInvalidInput, "username, email and a password of at least 8 characters are required")
	}

	// Hash password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Tier:         models.TierBasic,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, newError(ErrInvalidInput, "email already registered")
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if err != nil {
		s.log.Debugf("Login lookup failed for %s: %v", email, err)
		return "", newError(ErrUnauthenticated, "invalid credentials")
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", newError(ErrUnauthenticated, "invalid credentials")
	}

	// Generate JWT
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenTTL)),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}
