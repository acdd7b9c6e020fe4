// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// GenerationRecord model: append-only inserts plus the newest-first history
// and search projections.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/search"
)

// CreateGeneration inserts an immutable generation record.
func CreateGeneration(ctx context.Context, db *gorm.DB, accountID, prompt, output, kind string) (*domain.GenerationRecord, error) {
	g := &domain.GenerationRecord{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Prompt:    prompt,
		Output:    output,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(g).Error; err != nil {
		return nil, err
	}
	return g, nil
}

// GetGeneration fetches a record by ID, or ErrNotFound if missing. Ownership
// is checked in the service layer so it can report forbidden separately.
func GetGeneration(ctx context.Context, db *gorm.DB, id string) (*domain.GenerationRecord, error) {
	var g domain.GenerationRecord
	if err := db.WithContext(ctx).Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// contentScope selects text generations (every kind except image) when
// imageOnly is false, or image generations when true.
func contentScope(q *gorm.DB, imageOnly bool) *gorm.DB {
	if imageOnly {
		return q.Where("kind = ?", domain.KindImage)
	}
	return q.Where("kind <> ?", domain.KindImage)
}

// CountGenerations returns the total history rows for the account, split by
// record family (text vs image) for pagination.
func CountGenerations(ctx context.Context, db *gorm.DB, accountID string, imageOnly bool) (int64, error) {
	var total int64
	q := db.WithContext(ctx).Model(&domain.GenerationRecord{}).Where("account_id = ?", accountID)
	err := contentScope(q, imageOnly).Count(&total).Error
	return total, err
}

// ListGenerationsPage returns a page of the account's history, newest first.
// The caller computes offset and limit (e.g., (page-1)*pageSize).
func ListGenerationsPage(ctx context.Context, db *gorm.DB, accountID string, imageOnly bool, offset, limit int) ([]domain.GenerationRecord, error) {
	var out []domain.GenerationRecord
	q := db.WithContext(ctx).Where("account_id = ?", accountID)
	err := contentScope(q, imageOnly).
		Order("created_at desc, id desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// SearchGenerations performs a case-insensitive substring match over prompt
// and output, scoped to the account, newest first. The query is LIKE-escaped
// so user input cannot smuggle wildcards.
func SearchGenerations(ctx context.Context, db *gorm.DB, accountID, query string) ([]domain.GenerationRecord, error) {
	pattern := "%" + search.EscapeLike(query) + "%"
	var out []domain.GenerationRecord
	err := db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Where(`(prompt LIKE ? ESCAPE '\' OR output LIKE ? ESCAPE '\')`, pattern, pattern).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}
