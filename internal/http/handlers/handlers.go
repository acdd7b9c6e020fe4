// Handler wiring and shared helpers.
//
// This file declares the service contracts the HTTP layer consumes, the
// Handlers aggregate bound to them, and helpers shared by all endpoints
// (identity extraction, pagination clamping, service-error translation).
// Handlers are transport-thin: they validate input, call application
// services, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/http/middleware"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/services"
	"github.com/mdeepaktiwari/canvas-ai-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AccountService defines account registration and authentication operations.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AccountService interface {
	// Signup registers an account and returns it with a session token.
	Signup(ctx context.Context, name, email, password string) (*domain.Account, string, error)
	// Signin authenticates and returns the account with a session token.
	Signin(ctx context.Context, email, password string) (*domain.Account, string, error)
	// Profile returns the account for an authenticated ID.
	Profile(ctx context.Context, accountID string) (*domain.Account, error)
}

// ContentService defines credit-metered text generation.
type ContentService interface {
	// Generate runs an action over content and persists the result.
	Generate(ctx context.Context, accountID, action, content string) (*services.ContentResult, error)
	// GenerateStream forwards chunks to emit and persists on clean completion.
	GenerateStream(ctx context.Context, accountID, action, content string, emit func(chunk string) error) (*services.ContentResult, error)
}

// ImageService defines credit-metered image generation.
type ImageService interface {
	// Generate produces an image and returns its published URL.
	Generate(ctx context.Context, accountID, prompt, resolution string) (*services.ImageResult, error)
}

// PaymentService defines the purchase flow.
type PaymentService interface {
	// Packages lists the purchasable credit bundles.
	Packages() []domain.CreditPackage
	// CreateOrder registers a pending gateway order for a package.
	CreateOrder(ctx context.Context, accountID, packageID, idemKey string) (*domain.PaymentOrder, error)
	// Verify settles a payment callback and returns the new balance.
	Verify(ctx context.Context, accountID, externalOrderID, paymentID, signature string) (int64, error)
}

// HistoryService defines read access to past generations.
type HistoryService interface {
	// ListPage returns one newest-first page of generations and the total.
	ListPage(ctx context.Context, accountID string, imageOnly bool, page, pageSize int) ([]domain.GenerationRecord, int64, error)
	// Get returns one generation, enforcing ownership.
	Get(ctx context.Context, accountID, id string) (*domain.GenerationRecord, error)
	// Search returns generations matching the query.
	Search(ctx context.Context, accountID, query string) ([]domain.GenerationRecord, error)
	// Stats returns count and latest creation time for ETag derivation.
	Stats(ctx context.Context, accountID string, imageOnly bool) (int64, *time.Time, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for accounts, generation, history, and
// payments. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	accountSvc AccountService
	contentSvc ContentService
	imageSvc   ImageService
	paymentSvc PaymentService
	historySvc HistoryService

	// devMode exposes raw error detail in 500 responses. Must stay false in
	// production: unknown errors can carry DSNs and provider response bodies.
	devMode bool
}

// New constructs a Handlers instance bound to the given services. devMode
// controls whether internal error detail is surfaced to clients.
func New(accounts AccountService, content ContentService, images ImageService, pay PaymentService, history HistoryService, devMode bool) *Handlers {
	return &Handlers{
		accountSvc: accounts,
		contentSvc: content,
		imageSvc:   images,
		paymentSvc: pay,
		historySvc: history,
		devMode:    devMode,
	}
}

// accountID extracts the authenticated account id set by the auth middleware.
func accountID(c *gin.Context) string {
	return middleware.AccountID(c)
}

//
// Shared DTOs and helpers
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// paginationFor derives the metadata block from a total and the clamped
// page parameters.
func paginationFor(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// failService translates service-layer sentinel errors into HTTP responses.
// Unknown errors become 500s with the given fallback code; their detail is
// logged server-side and replaced with a generic message unless the server
// runs in development mode.
func (h *Handlers) failService(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrEmptyPrompt),
		errors.Is(err, services.ErrTooLong),
		errors.Is(err, services.ErrInvalidAction),
		errors.Is(err, services.ErrInvalidPackage):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrInsufficientCredits):
		fail(c, http.StatusBadRequest, ErrCodeInsufficientCredits, "not enough credits for this generation")
	case errors.Is(err, services.ErrEmailTaken):
		fail(c, http.StatusConflict, ErrCodeEmailTaken, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, err.Error())
	case errors.Is(err, services.ErrAccountNotFound),
		errors.Is(err, services.ErrGenerationNotFound),
		errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidSignature):
		fail(c, http.StatusBadRequest, ErrCodeSignatureInvalid, err.Error())
	case errors.Is(err, services.ErrAlreadyProcessed):
		fail(c, http.StatusBadRequest, ErrCodeAlreadyProcessed, err.Error())
	default:
		middleware.LoggerFrom(c).Error().
			Err(err).
			Str("code", fallbackCode).
			Msg("service error")
		msg := "internal server error"
		if h.devMode {
			msg = err.Error()
		}
		fail(c, http.StatusInternalServerError, fallbackCode, msg)
	}
}
