// Package services – AccountService
//
// This file implements AccountService, which owns account registration and
// authentication. Passwords are stored as bcrypt hashes and never leave the
// service; successful signup and signin both return a signed session token
// from the configured issuer. New accounts receive a one-time credit bonus
// so that users can try generation before paying.
package services

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TokenIssuer mints session tokens for authenticated accounts.
type TokenIssuer interface {
	// Issue returns a signed token embedding the account identity.
	Issue(accountID, name, email string) (string, error)
}

// AccountService provides signup, signin, and profile lookups.
type AccountService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Tokens signs session tokens on successful authentication.
	Tokens TokenIssuer
	// BonusCredits is granted once at signup.
	BonusCredits int64
	// BcryptCost overrides the bcrypt work factor; zero means the
	// library default.
	BcryptCost int
}

// NewAccountService constructs an AccountService with the standard signup
// bonus.
func NewAccountService(db *gorm.DB, tokens TokenIssuer) *AccountService {
	return &AccountService{
		DB:           db,
		Tokens:       tokens,
		BonusCredits: domain.SignupBonusCredits,
	}
}

// Signup registers a new account, grants the signup bonus, and returns the
// account together with a session token. The email is normalized to lower
// case before the uniqueness check.
func (s *AccountService) Signup(ctx context.Context, name, email, password string) (*domain.Account, string, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Signup")
	defer span.End()

	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	cost := s.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, "", err
	}

	acc, err := repo.CreateAccount(ctx, s.DB, name, email, string(hash), s.BonusCredits)
	if err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", err
	}
	span.SetAttributes(attribute.String("account.id", acc.ID))

	token, err := s.Tokens.Issue(acc.ID, acc.Name, acc.Email)
	if err != nil {
		return nil, "", err
	}
	return acc, token, nil
}

// Signin authenticates an email/password pair and returns the account with
// a fresh session token. Unknown emails and wrong passwords both map to
// ErrInvalidCredentials.
func (s *AccountService) Signin(ctx context.Context, email, password string) (*domain.Account, string, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Signin")
	defer span.End()

	acc, err := repo.GetAccountByEmail(ctx, s.DB, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	span.SetAttributes(attribute.String("account.id", acc.ID))

	token, err := s.Tokens.Issue(acc.ID, acc.Name, acc.Email)
	if err != nil {
		return nil, "", err
	}
	return acc, token, nil
}

// Profile returns the account for an authenticated ID.
func (s *AccountService) Profile(ctx context.Context, accountID string) (*domain.Account, error) {
	tr := otel.Tracer("services/AccountService")
	ctx, span := tr.Start(ctx, "Profile",
		trace.WithAttributes(attribute.String("account.id", accountID)),
	)
	defer span.End()

	acc, err := repo.GetAccount(ctx, s.DB, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

// normalizeEmail lowercases and trims an email address for storage and
// lookup.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
