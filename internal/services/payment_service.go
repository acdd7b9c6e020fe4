// Package services – PaymentService
//
// This file implements PaymentService, the settlement engine for credit
// purchases. Order creation registers a pending PaymentOrder against an
// external gateway order; settlement verifies the gateway's HMAC signature
// and moves the order to exactly one terminal state. The pending→terminal
// transition and the credit grant run in one database transaction, so a
// replayed or concurrent callback can never grant credits twice.
package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// idemScopeCreateOrder keys idempotency rows written by CreateOrder.
const idemScopeCreateOrder = "payments:create-order"

// OrderGateway creates orders at the external payment provider.
type OrderGateway interface {
	// CreateOrder registers an order for amount (minor currency units) and
	// returns the provider's order ID.
	CreateOrder(ctx context.Context, amount int64, currency, receipt string) (string, error)
}

// PaymentService owns the purchase flow: package listing, order creation,
// and signature-verified settlement.
type PaymentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Gateway talks to the external payment provider.
	Gateway OrderGateway
	// Secret is the provider key secret used to verify settlement
	// signatures.
	Secret string
	// Currency is the ISO code orders are created in.
	Currency string
	// IdempotencyTTL bounds how long a create-order idempotency key is
	// honored.
	IdempotencyTTL time.Duration
}

// NewPaymentService constructs a PaymentService.
func NewPaymentService(db *gorm.DB, gw OrderGateway, secret, currency string, idemTTL time.Duration) *PaymentService {
	if currency == "" {
		currency = "INR"
	}
	if idemTTL <= 0 {
		idemTTL = 24 * time.Hour
	}
	return &PaymentService{DB: db, Gateway: gw, Secret: secret, Currency: currency, IdempotencyTTL: idemTTL}
}

// Packages returns the purchasable credit packages.
func (s *PaymentService) Packages() []domain.CreditPackage {
	return domain.CreditPackages()
}

// CreateOrder creates a gateway order for the named package and records it
// as pending. When idemKey is non-empty, a retry with the same key within
// the TTL returns the original order instead of creating a second one.
func (s *PaymentService) CreateOrder(ctx context.Context, accountID, packageID, idemKey string) (*domain.PaymentOrder, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "CreateOrder",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.String("package.id", packageID),
		),
	)
	defer span.End()

	pkg, ok := domain.PackageByID(packageID)
	if !ok {
		return nil, ErrInvalidPackage
	}

	if idemKey != "" {
		if rec, err := repo.GetIdempotency(ctx, s.DB, accountID, idemScopeCreateOrder, idemKey, time.Now()); err == nil {
			return repo.GetOrder(ctx, s.DB, rec.RefID)
		}
	}

	receipt := fmt.Sprintf("%s_%d", accountID, time.Now().UnixMilli())
	extID, err := s.Gateway.CreateOrder(ctx, pkg.Price*100, s.Currency, receipt)
	if err != nil {
		return nil, err
	}

	order, err := repo.CreateOrder(ctx, s.DB, accountID, extID, pkg.Price*100, pkg.Credits)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("order.external_id", extID))

	if idemKey != "" {
		// Best effort: a lost idempotency row only costs a duplicate
		// gateway order on retry, never a duplicate grant.
		_, _ = repo.CreateIdempotency(ctx, s.DB, accountID, idemScopeCreateOrder, idemKey, order.ID, 201, s.IdempotencyTTL)
	}
	return order, nil
}

// Verify settles a payment callback. The signature must be the hex HMAC-SHA256
// of "externalOrderID|paymentID" under the provider secret. A valid signature
// completes the order and grants its credits atomically; an invalid one marks
// the order failed. Either way the order reaches a terminal state at most
// once, and later calls return ErrAlreadyProcessed.
//
// On success it returns the post-grant credit balance.
func (s *PaymentService) Verify(ctx context.Context, accountID, externalOrderID, paymentID, signature string) (int64, error) {
	tr := otel.Tracer("services/PaymentService")
	ctx, span := tr.Start(ctx, "Verify",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.String("order.external_id", externalOrderID),
		),
	)
	defer span.End()

	order, err := repo.GetOrderByExternalID(ctx, s.DB, externalOrderID, accountID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return 0, ErrOrderNotFound
		}
		return 0, err
	}
	if order.Terminal() {
		return 0, ErrAlreadyProcessed
	}

	if !s.signatureValid(externalOrderID, paymentID, signature) {
		won, ferr := repo.FailOrder(ctx, s.DB, order.ID)
		if ferr != nil {
			return 0, ferr
		}
		if !won {
			return 0, ErrAlreadyProcessed
		}
		return 0, ErrInvalidSignature
	}

	var granted bool
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		won, terr := repo.CompleteOrder(ctx, tx, order.ID, paymentID, signature)
		if terr != nil {
			return terr
		}
		if !won {
			return nil
		}
		granted = true
		return repo.GrantCredits(ctx, tx, accountID, order.Credits)
	})
	if err != nil {
		return 0, err
	}
	if !granted {
		return 0, ErrAlreadyProcessed
	}
	return repo.CreditBalance(ctx, s.DB, accountID)
}

// signatureValid checks the settlement HMAC in constant time.
func (s *PaymentService) signatureValid(externalOrderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(s.Secret))
	mac.Write([]byte(externalOrderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
