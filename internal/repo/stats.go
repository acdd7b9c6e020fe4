// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
)

// GenerationsStats returns aggregate metadata for an account's generation
// history: the total number of rows (text or image, per imageOnly) and the
// maximum CreatedAt timestamp among those rows.
//
// When the account has no matching history, the returned count is 0 and
// maxCreatedAt is nil. Generation records are immutable, so CreatedAt is the
// freshness signal.
func GenerationsStats(ctx context.Context, db *gorm.DB, accountID string, imageOnly bool) (count int64, maxCreatedAt *time.Time, err error) {
	q := contentScope(
		db.WithContext(ctx).Model(&domain.GenerationRecord{}).Where("account_id = ?", accountID),
		imageOnly,
	)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest created_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		CreatedAt time.Time
	}
	if err = q.Select("created_at").Order("created_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.CreatedAt, nil
}
