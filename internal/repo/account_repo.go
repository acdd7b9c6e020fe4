// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Account
// model, including the atomic credit mutations the settlement engine relies
// on.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an account is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// Concurrency:
//   - DebitCredits and GrantCredits are single conditional UPDATE statements.
//     Two concurrent debits can never both read a stale balance and deduct
//     past zero; the losing statement simply matches no row. This is the
//     core non-negative-balance guarantee of the whole system.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrDuplicate indicates a unique-constraint violation (duplicate email,
// duplicate external order id, duplicate idempotency key).
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation detects unique-constraint failures across the error
// shapes the pure-Go SQLite driver produces.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// CreateAccount inserts a new Account row with a UUID primary key and the
// given starting balance. Returns ErrDuplicate when the email is taken.
func CreateAccount(ctx context.Context, db *gorm.DB, name, email, passwordHash string, credits int64) (*domain.Account, error) {
	a := &domain.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Credits:      credits,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return a, nil
}

// GetAccount fetches an account by ID, or ErrNotFound if missing.
func GetAccount(ctx context.Context, db *gorm.DB, id string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// GetAccountByEmail fetches an account by email, or ErrNotFound if missing.
func GetAccountByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Account, error) {
	var a domain.Account
	if err := db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CreditBalance returns the current balance for an account.
func CreditBalance(ctx context.Context, db *gorm.DB, id string) (int64, error) {
	var a domain.Account
	err := db.WithContext(ctx).Select("credits").Where("id = ?", id).First(&a).Error
	return a.Credits, err
}

// DebitCredits atomically deducts cost from the account balance iff the
// balance covers it:
//
//	UPDATE accounts SET credits = credits - cost
//	WHERE id = ? AND credits >= cost
//
// The boolean result reports whether the debit was applied. A false result
// with a nil error means the balance was insufficient (or the account is
// missing; callers distinguish via GetAccount).
func DebitCredits(ctx context.Context, db *gorm.DB, id string, cost int64) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ? AND credits >= ?", id, cost).
		Updates(map[string]any{
			"credits":    gorm.Expr("credits - ?", cost),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// GrantCredits atomically increments the account balance by n (payment
// settlement and compensating refunds). Returns ErrNotFound when the
// account does not exist.
func GrantCredits(ctx context.Context, db *gorm.DB, id string, n int64) error {
	res := db.WithContext(ctx).
		Model(&domain.Account{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"credits":    gorm.Expr("credits + ?", n),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
