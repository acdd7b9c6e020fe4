// Package services – ContentService
//
// This file implements ContentService, which orchestrates text generation:
// validate the request, debit credits, run the model, persist the result,
// and hand back the remaining balance. Every failure past the debit (model,
// stream, or persist) refunds the credits, so no outage silently charges
// users.
//
// Streaming requests forward chunks to a caller-supplied sink while the full
// output accumulates in memory; an interrupted stream is refunded and never
// persisted, so history only ever contains complete outputs.
package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/repo"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TextGenerator defines the model contract required by ContentService.
type TextGenerator interface {
	// Generate returns the complete output for a prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// Stream invokes emit for each output chunk in order and returns the
	// concatenated output. A non-nil error from emit aborts the stream.
	Stream(ctx context.Context, prompt string, emit func(chunk string) error) (string, error)
}

// ContentResult is the outcome of a successful text generation.
type ContentResult struct {
	// Record is the persisted generation.
	Record *domain.GenerationRecord
	// Balance is the credit balance after the debit.
	Balance int64
}

// ContentService coordinates credit-metered text generation.
type ContentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Credits performs the debit and any compensating refund.
	Credits *CreditService
	// Generator produces the model output.
	Generator TextGenerator

	// MaxPromptRunes caps user content by rune length. Zero disables the
	// guard.
	MaxPromptRunes int
}

// NewContentService constructs a ContentService with the default prompt
// length guard.
func NewContentService(db *gorm.DB, credits *CreditService, gen TextGenerator) *ContentService {
	return &ContentService{
		DB:             db,
		Credits:        credits,
		Generator:      gen,
		MaxPromptRunes: 20000,
	}
}

// Generate runs the named action over content and persists the result.
func (s *ContentService) Generate(ctx context.Context, accountID, actionName, content string) (*ContentResult, error) {
	tr := otel.Tracer("services/ContentService")
	ctx, span := tr.Start(ctx, "Generate",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.String("action", actionName),
		),
	)
	defer span.End()

	action, content, err := s.validate(actionName, content)
	if err != nil {
		return nil, err
	}

	balance, err := s.Credits.Debit(ctx, accountID, domain.ContentGenerationCost)
	if err != nil {
		return nil, err
	}

	output, err := s.Generator.Generate(ctx, buildPrompt(action, content))
	if err != nil {
		s.refund(ctx, accountID, domain.ContentGenerationCost)
		return nil, err
	}

	rec, err := repo.CreateGeneration(ctx, s.DB, accountID, content, output, action.Name)
	if err != nil {
		// Output exists but never reached the caller; the charge comes back.
		s.refund(ctx, accountID, domain.ContentGenerationCost)
		return nil, err
	}
	return &ContentResult{Record: rec, Balance: balance}, nil
}

// GenerateStream runs the named action over content, forwarding chunks to
// emit as they arrive. The record is persisted only after the stream ends
// cleanly; any interruption refunds the debit and leaves no history row.
func (s *ContentService) GenerateStream(ctx context.Context, accountID, actionName, content string, emit func(chunk string) error) (*ContentResult, error) {
	tr := otel.Tracer("services/ContentService")
	ctx, span := tr.Start(ctx, "GenerateStream",
		trace.WithAttributes(
			attribute.String("account.id", accountID),
			attribute.String("action", actionName),
		),
	)
	defer span.End()

	action, content, err := s.validate(actionName, content)
	if err != nil {
		return nil, err
	}

	balance, err := s.Credits.Debit(ctx, accountID, domain.ContentGenerationCost)
	if err != nil {
		return nil, err
	}

	output, err := s.Generator.Stream(ctx, buildPrompt(action, content), emit)
	if err != nil {
		s.refund(ctx, accountID, domain.ContentGenerationCost)
		return nil, err
	}

	rec, err := repo.CreateGeneration(ctx, s.DB, accountID, content, output, action.Name)
	if err != nil {
		s.refund(ctx, accountID, domain.ContentGenerationCost)
		return nil, err
	}
	return &ContentResult{Record: rec, Balance: balance}, nil
}

// validate normalizes the request and resolves the action.
func (s *ContentService) validate(actionName, content string) (domain.Action, string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.Action{}, "", ErrEmptyPrompt
	}
	if s.MaxPromptRunes > 0 && utf8.RuneCountInString(content) > s.MaxPromptRunes {
		return domain.Action{}, "", ErrTooLong
	}
	action, ok := domain.ActionByName(actionName)
	if !ok {
		return domain.Action{}, "", ErrInvalidAction
	}
	return action, content, nil
}

// refund compensates a debit after a failed generation. Refund failures are
// swallowed: the original error is what the caller needs to see.
func (s *ContentService) refund(ctx context.Context, accountID string, n int64) {
	_ = s.Credits.Refund(ctx, accountID, n)
}

// buildPrompt combines the action template with the user content.
func buildPrompt(action domain.Action, content string) string {
	return action.Template + "\n\n" + content
}
