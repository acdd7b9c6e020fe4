// Package services – ImageService
//
// This file implements ImageService, the image-generation pipeline: debit
// credits, consult the (resolution, prompt) cache, run the diffusion model
// on a miss, publish the bytes to object storage, and record the public URL.
// The cache is purely an availability optimization; a hit still costs the
// normal image price and still produces a history record.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/cache"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ImageGenerator defines the diffusion-model contract required by
// ImageService.
type ImageGenerator interface {
	// Generate returns the raw image bytes and their content type.
	Generate(ctx context.Context, prompt string, width, height int) ([]byte, string, error)
}

// AssetStore publishes generated images and returns their public URL.
type AssetStore interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// ImageResult is the outcome of a successful image generation.
type ImageResult struct {
	// Record is the persisted generation; Output holds the asset URL.
	Record *domain.GenerationRecord
	// Balance is the credit balance after the debit.
	Balance int64
	// Cached reports whether the URL came from the prompt cache.
	Cached bool
}

// ImageService coordinates credit-metered image generation.
type ImageService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Credits performs the debit and any compensating refund.
	Credits *CreditService
	// Generator produces image bytes.
	Generator ImageGenerator
	// Assets publishes image bytes to object storage.
	Assets AssetStore
	// Cache maps (resolution, prompt) to previously published URLs.
	Cache cache.Store

	// MaxPromptRunes caps prompts by rune length. Zero disables the guard.
	MaxPromptRunes int
}

// NewImageService constructs an ImageService with the default prompt length
// guard.
func NewImageService(db *gorm.DB, credits *CreditService, gen ImageGenerator, assets AssetStore, c cache.Store) *ImageService {
	return &ImageService{
		DB:             db,
		Credits:        credits,
		Generator:      gen,
		Assets:         assets,
		Cache:          c,
		MaxPromptRunes: 2000,
	}
}

// Generate produces an image for prompt at the named resolution. Unknown
// resolutions fall back to the default rather than failing. Any failure after
// the debit (generation, publish, or persist) refunds the credits and leaves
// no history row.
func (s *ImageService) Generate(ctx context.Context, accountID, prompt, resolution string) (*ImageResult, error) {
	tr := otel.Tracer("services/ImageService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.String("image.resolution", resolution),
		),
	)
	defer span.End()

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(prompt) > s.MaxPromptRunes {
		return nil, ErrTooLong
	}
	resName, dims := domain.ResolveResolution(resolution)
	span.SetAttributes(attribute.String("image.resolution.resolved", resName))

	balance, err := s.Credits.Debit(ctx, accountID, domain.ImageGenerationCost)
	if err != nil {
		return nil, err
	}

	key := cache.Key(resName, prompt)
	if url, cerr := s.Cache.Get(ctx, key); cerr == nil {
		span.SetAttributes(attribute.Bool("image.cache_hit", true))
		rec, rerr := repo.CreateGeneration(ctx, s.DB, accountID, prompt, url, domain.KindImage)
		if rerr != nil {
			s.refund(ctx, accountID)
			return nil, rerr
		}
		return &ImageResult{Record: rec, Balance: balance, Cached: true}, nil
	}

	data, contentType, err := s.Generator.Generate(ctx, prompt, dims.Width, dims.Height)
	if err != nil {
		s.refund(ctx, accountID)
		return nil, err
	}

	url, err := s.Assets.Upload(ctx, data, contentType)
	if err != nil {
		s.refund(ctx, accountID)
		return nil, err
	}

	if err := s.Cache.Set(ctx, key, url); err != nil {
		// Cache writes are best effort; the URL is already durable in S3.
		log.Warn().Err(err).Str("key", key).Msg("image cache set failed")
	}

	rec, err := repo.CreateGeneration(ctx, s.DB, accountID, prompt, url, domain.KindImage)
	if err != nil {
		s.refund(ctx, accountID)
		return nil, err
	}
	return &ImageResult{Record: rec, Balance: balance}, nil
}

func (s *ImageService) refund(ctx context.Context, accountID string) {
	_ = s.Credits.Refund(ctx, accountID, domain.ImageGenerationCost)
}
