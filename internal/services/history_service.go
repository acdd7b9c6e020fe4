// Package services – HistoryService
//
// This file implements HistoryService, read-only access to an account's past
// generations: paginated listing split by kind, substring search, and single
// record lookup with ownership enforcement.
package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/repo"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/search"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HistoryService provides queries over the generation history.
type HistoryService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewHistoryService constructs a HistoryService.
func NewHistoryService(db *gorm.DB) *HistoryService {
	return &HistoryService{DB: db}
}

// ListPage returns one newest-first page of the account's generations.
// imageOnly selects image records; otherwise text records are returned.
// Invalid page/pageSize fall back to defaults.
func (s *HistoryService) ListPage(ctx context.Context, accountID string, imageOnly bool, page, pageSize int) ([]domain.GenerationRecord, int64, error) {
	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.Bool("image_only", imageOnly),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountGenerations(ctx, s.DB, accountID, imageOnly)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.GenerationRecord{}, 0, nil
	}

	items, err := repo.ListGenerationsPage(ctx, s.DB, accountID, imageOnly, offset, pageSize)
	return items, total, err
}

// Get returns a single generation, enforcing that it belongs to accountID.
func (s *HistoryService) Get(ctx context.Context, accountID, id string) (*domain.GenerationRecord, error) {
	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "Get",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.String("generation.id", id),
		),
	)
	defer span.End()

	rec, err := repo.GetGeneration(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrGenerationNotFound
		}
		return nil, err
	}
	// Ownership failures look identical to missing rows on purpose.
	if rec.AccountID != accountID {
		return nil, ErrGenerationNotFound
	}
	return rec, nil
}

// Search returns the account's generations whose prompt or output contains
// the query, case-insensitively. A blank query yields an empty result.
func (s *HistoryService) Search(ctx context.Context, accountID, query string) ([]domain.GenerationRecord, error) {
	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "Search",
		trace.WithAttributes(attribute.String("account.id", accountID)),
	)
	defer span.End()

	query = search.NormalizeQuery(query)
	if query == "" {
		return []domain.GenerationRecord{}, nil
	}
	return repo.SearchGenerations(ctx, s.DB, accountID, query)
}

// Stats returns the record count and latest creation time for the account's
// history, used by handlers to derive ETags.
func (s *HistoryService) Stats(ctx context.Context, accountID string, imageOnly bool) (int64, *time.Time, error) {
	tr := otel.Tracer("services/HistoryService")
	ctx, span := tr.Start(ctx, "Stats",
		trace.WithAttributes(attribute.String("account.id", accountID)),
	)
	defer span.End()

	return repo.GenerationsStats(ctx, s.DB, accountID, imageOnly)
}
