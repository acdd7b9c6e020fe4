// Account HTTP handlers.
//
// This file exposes REST endpoints for registration and sessions:
//   - POST /auth/signup   (register, returns token)
//   - POST /auth/signin   (authenticate, returns token)
//   - GET  /auth/profile  (current account, requires bearer token)
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/domain"
)

//
// DTOs
//

// SignupRequest is the JSON payload for creating an account.
type SignupRequest struct {
	// Name is the display name (1–128 chars).
	Name string `json:"name" binding:"required,min=1,max=128" example:"Deepak Tiwari"`
	// Email must be unique across accounts.
	Email string `json:"email" binding:"required,email,max=255" example:"deepak@example.com"`
	// Password is stored only as a bcrypt hash.
	Password string `json:"password" binding:"required,min=6,max=72" example:"hunter2hunter2"`
}

// SigninRequest is the JSON payload for authenticating.
type SigninRequest struct {
	Email    string `json:"email" binding:"required,email" example:"deepak@example.com"`
	Password string `json:"password" binding:"required" example:"hunter2hunter2"`
}

// SessionResponse is returned by signup and signin.
type SessionResponse struct {
	Token   string          `json:"token"`
	Account *domain.Account `json:"account"`
}

//
// Handlers
//

// Signup registers a new account and returns a session token. New accounts
// receive the signup credit bonus.
func (h *Handlers) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name, email, and password (6+ chars) are required")
		return
	}

	acc, token, err := h.accountSvc.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		h.failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusCreated, "account created", SessionResponse{Token: token, Account: acc})
}

// Signin authenticates an email/password pair and returns a session token.
func (h *Handlers) Signin(c *gin.Context) {
	var req SigninRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and password are required")
		return
	}

	acc, token, err := h.accountSvc.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, "signed in", SessionResponse{Token: token, Account: acc})
}

// Profile returns the authenticated account, including its current credit
// balance.
func (h *Handlers) Profile(c *gin.Context) {
	acc, err := h.accountSvc.Profile(c.Request.Context(), accountID(c))
	if err != nil {
		h.failService(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, "profile", acc)
}
