// Package services – CreditService
//
// This file implements CreditService, the single authority over credit
// movement. Debits are performed as one conditional UPDATE in the repo layer
// so that concurrent spends can never take a balance below zero; grants and
// refunds are unconditional atomic increments. Every other service that
// touches credits goes through this one.
package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CreditService mediates all credit debits, grants, and balance reads.
type CreditService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewCreditService constructs a CreditService.
func NewCreditService(db *gorm.DB) *CreditService {
	return &CreditService{DB: db}
}

// Debit atomically subtracts cost from the account balance and returns the
// post-debit balance. It returns ErrInsufficientCredits when the balance is
// too low and ErrAccountNotFound when the account does not exist; the two
// are distinguished only after the conditional update refuses, so the happy
// path stays a single statement.
func (s *CreditService) Debit(ctx context.Context, accountID string, cost int64) (int64, error) {
	tr := otel.Tracer("services/CreditService")
	ctx, span := tr.Start(ctx, "Debit",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.Int64("credits.cost", cost),
		),
	)
	defer span.End()

	ok, err := repo.DebitCredits(ctx, s.DB, accountID, cost)
	if err != nil {
		return 0, err
	}
	if !ok {
		if _, gerr := repo.GetAccount(ctx, s.DB, accountID); gerr != nil {
			if errors.Is(gerr, repo.ErrNotFound) {
				return 0, ErrAccountNotFound
			}
			return 0, gerr
		}
		return 0, ErrInsufficientCredits
	}
	return repo.CreditBalance(ctx, s.DB, accountID)
}

// Refund returns previously debited credits after a failed generation. It is
// a plain grant; the caller decides when a failure warrants compensation.
func (s *CreditService) Refund(ctx context.Context, accountID string, n int64) error {
	tr := otel.Tracer("services/CreditService")
	ctx, span := tr.Start(ctx, "Refund",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.Int64("credits.amount", n),
		),
	)
	defer span.End()

	return s.grant(ctx, accountID, n)
}

// Grant adds purchased or bonus credits to the account balance.
func (s *CreditService) Grant(ctx context.Context, accountID string, n int64) error {
	tr := otel.Tracer("services/CreditService")
	ctx, span := tr.Start(ctx, "Grant",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.Int64("credits.amount", n),
		),
	)
	defer span.End()

	return s.grant(ctx, accountID, n)
}

func (s *CreditService) grant(ctx context.Context, accountID string, n int64) error {
	if err := repo.GrantCredits(ctx, s.DB, accountID, n); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAccountNotFound
		}
		return err
	}
	return nil
}

// Balance returns the current credit balance for the account.
func (s *CreditService) Balance(ctx context.Context, accountID string) (int64, error) {
	tr := otel.Tracer("services/CreditService")
	ctx, span := tr.Start(ctx, "Balance",
		trace.WithAttributes(attribute.String("account.id", accountID)),
	)
	defer span.End()

	n, err := repo.CreditBalance(ctx, s.DB, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, ErrAccountNotFound
		}
		return 0, err
	}
	return n, nil
}
