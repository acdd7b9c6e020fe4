// Payment HTTP handlers.
//
// This file exposes the purchase flow:
//   - GET  /payments/packages  (public price list)
//   - POST /payments/orders    (create a gateway order; supports Idempotency-Key)
//   - POST /payments/verify    (settle a checkout callback)
//
// Verification is strict: the signature must match the HMAC the gateway
// computes over "order_id|payment_id". Replays and races settle the order
// exactly once; later attempts get a 400 with a stable replay code.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/http/middleware"
)

//
// DTOs
//

// CreateOrderRequest is the JSON payload for starting a purchase.
type CreateOrderRequest struct {
	// PackageID names one of the published credit packages.
	PackageID string `json:"package_id" binding:"required" example:"standard"`
}

// VerifyRequest is the JSON payload of the checkout completion callback.
type VerifyRequest struct {
	OrderID   string `json:"order_id" binding:"required" example:"order_N0P4YtQzW1"`
	PaymentID string `json:"payment_id" binding:"required" example:"pay_N0P5aBcDeF"`
	Signature string `json:"signature" binding:"required"`
}

// VerifyResponse reports the settled balance.
type VerifyResponse struct {
	Credits int64 `json:"credits"`
}

//
// Handlers
//

// ListPackages returns the purchasable credit packages. Public: pricing is
// shown before signup.
func (h *Handlers) ListPackages(c *gin.Context) {
	ok(c, http.StatusOK, "packages", h.paymentSvc.Packages())
}

// CreateOrder registers a gateway order for a credit package. Clients may
// send an Idempotency-Key header to make retries safe.
func (h *Handlers) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "package_id is required")
		return
	}

	idemKey, _ := middleware.GetIdempotencyKey(c)
	order, err := h.paymentSvc.CreateOrder(c.Request.Context(), accountID(c), req.PackageID, idemKey)
	if err != nil {
		h.failService(c, err, ErrCodeOrderFailed)
		return
	}
	ok(c, http.StatusCreated, "order created", order)
}

// VerifyPayment settles a completed checkout. On success the package credits
// are granted exactly once and the new balance is returned.
func (h *Handlers) VerifyPayment(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "order_id, payment_id, and signature are required")
		return
	}

	balance, err := h.paymentSvc.Verify(c.Request.Context(), accountID(c), req.OrderID, req.PaymentID, req.Signature)
	if err != nil {
		h.failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, "payment verified", VerifyResponse{Credits: balance})
}
