// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PaymentOrder model.
//
// The order lifecycle is pending → completed|failed, transitioning at most
// once. Both terminal transitions are guarded conditional UPDATEs scoped to
// status = 'pending', so two concurrent verification attempts for the same
// order settle exactly once: the loser matches no row and observes
// "already processed".
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
)

// CreateOrder inserts a pending PaymentOrder correlating an external gateway
// order to an account and a credit amount. Returns ErrDuplicate when the
// external order id was already recorded.
func CreateOrder(ctx context.Context, db *gorm.DB, accountID, externalOrderID string, amount, credits int64) (*domain.PaymentOrder, error) {
	o := &domain.PaymentOrder{
		ID:              uuid.NewString(),
		AccountID:       accountID,
		ExternalOrderID: externalOrderID,
		Amount:          amount,
		Credits:         credits,
		Status:          domain.OrderStatusPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(o).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return o, nil
}

// GetOrderByExternalID fetches the order recorded for an external gateway
// order id, enforcing account ownership. Returns ErrNotFound if missing.
func GetOrderByExternalID(ctx context.Context, db *gorm.DB, externalOrderID, accountID string) (*domain.PaymentOrder, error) {
	var o domain.PaymentOrder
	err := db.WithContext(ctx).
		Where("external_order_id = ? AND account_id = ?", externalOrderID, accountID).
		First(&o).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrder fetches an order by primary key, or ErrNotFound.
func GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.PaymentOrder, error) {
	var o domain.PaymentOrder
	if err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// CompleteOrder transitions a pending order to completed, attaching the
// external payment id and signature. The boolean result reports whether this
// call won the transition; false means the order was no longer pending.
func CompleteOrder(ctx context.Context, db *gorm.DB, id, paymentID, signature string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.PaymentOrder{}).
		Where("id = ? AND status = ?", id, domain.OrderStatusPending).
		Updates(map[string]any{
			"status":              domain.OrderStatusCompleted,
			"external_payment_id": paymentID,
			"external_signature":  signature,
			"updated_at":          time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// FailOrder transitions a pending order to failed. The boolean result
// reports whether this call won the transition.
func FailOrder(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.PaymentOrder{}).
		Where("id = ? AND status = ?", id, domain.OrderStatusPending).
		Updates(map[string]any{
			"status":     domain.OrderStatusFailed,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
