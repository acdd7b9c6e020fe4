// Package domain defines the persistence models for accounts, generation
// records, and payment orders. These types are mapped with GORM and form
// the core data layer of the CanvasAI backend.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// PaymentOrder status values. A pending order transitions exactly once to
// completed or failed; terminal orders never transition again.
const (
	OrderStatusPending   = "pending"
	OrderStatusCompleted = "completed"
	OrderStatusFailed    = "failed"
)

// Account represents a registered user and their credit balance.
//
// Identity fields (Name, Email, PasswordHash) are owned by the auth
// subsystem; Credits is mutated only through the credit settlement
// service, which enforces the credits >= 0 invariant at the storage
// layer with conditional updates.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email: unique login identifier.
//   - PasswordHash: bcrypt hash, never serialized.
//   - Credits: non-negative integer balance.
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
//   - DeletedAt: soft deletion marker (retains row for audit).
type Account struct {
	ID           string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Name         string         `json:"name"       gorm:"type:varchar(128);not null"`
	Email        string         `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex:ux_accounts_email"`
	PasswordHash string         `json:"-"          gorm:"type:varchar(128);not null"`
	Credits      int64          `json:"credits"    gorm:"not null;default:0;check:credits >= 0"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Account.
func (Account) TableName() string { return "accounts" }

// GenerationRecord is the append-only history of past generations. Text
// generations store the produced text in Output; image generations store
// the published asset URL. Rows are never mutated or deleted in-scope.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - AccountID: owner of the generation; indexed with CreatedAt for
//     newest-first history queries.
//   - Prompt: the user-supplied input.
//   - Output: generated text or asset URL, depending on Kind.
//   - Kind: enumerated action name ("summarize", …) or "image".
type GenerationRecord struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	AccountID string         `json:"account_id" gorm:"type:char(36);not null;index:idx_account_generations,priority:1"`
	Prompt    string         `json:"prompt"     gorm:"type:text;not null"`
	Output    string         `json:"output"     gorm:"type:text;not null"`
	Kind      string         `json:"kind"       gorm:"type:varchar(32);not null"`
	CreatedAt time.Time      `json:"created_at" gorm:"index:idx_account_generations,priority:2"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for GenerationRecord.
func (GenerationRecord) TableName() string { return "generations" }

// PaymentOrder tracks one payment-gateway transaction from creation to
// settlement. It is the audit trail correlating external payment IDs to
// credit grants.
//
// Invariants:
//   - ExternalOrderID is unique.
//   - A completed order has granted its Credits to its account exactly
//     once (enforced by the conditional pending→terminal transition in
//     the repo layer).
type PaymentOrder struct {
	ID                string         `json:"id"                  gorm:"type:char(36);primaryKey"`
	AccountID         string         `json:"account_id"          gorm:"type:char(36);not null;index:idx_account_orders,priority:1"`
	ExternalOrderID   string         `json:"external_order_id"   gorm:"type:varchar(64);not null;uniqueIndex:ux_orders_external_id"`
	ExternalPaymentID *string        `json:"external_payment_id" gorm:"type:varchar(64)"`
	ExternalSignature *string        `json:"-"                   gorm:"type:varchar(128)"`
	Amount            int64          `json:"amount"              gorm:"not null"` // minor units (paise)
	Credits           int64          `json:"credits"             gorm:"not null"`
	Status            string         `json:"status"              gorm:"type:varchar(16);not null;default:'pending';check:status IN ('pending','completed','failed')"`
	CreatedAt         time.Time      `json:"created_at"          gorm:"index:idx_account_orders,priority:2"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-"                   gorm:"index"`
}

// TableName returns the database table name for PaymentOrder.
func (PaymentOrder) TableName() string { return "payment_orders" }

// Terminal reports whether the order has reached a final state.
func (o *PaymentOrder) Terminal() bool {
	return o.Status == OrderStatusCompleted || o.Status == OrderStatusFailed
}
