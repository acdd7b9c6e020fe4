// Package middleware – bearer-token authentication.
//
// This file guards authenticated routes: it extracts the Authorization
// bearer token, verifies it against the shared token manager, and stashes
// the account identity in the Gin context for handlers to read.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mdeepaktiwari/canvas-ai-backend/internal/auth"
)

// Context keys for the authenticated identity.
const (
	ctxKeyAccountID    = "auth.account_id"
	ctxKeyAccountName  = "auth.account_name"
	ctxKeyAccountEmail = "auth.account_email"
)

// Auth returns middleware that rejects requests without a valid bearer
// token and records the token's identity in the request context.
func Auth(tokens *auth.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "missing authorization header")
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			unauthorized(c, "malformed authorization header")
			return
		}

		claims, err := tokens.Verify(parts[1])
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}

		c.Set(ctxKeyAccountID, claims.Subject)
		c.Set(ctxKeyAccountName, claims.Name)
		c.Set(ctxKeyAccountEmail, claims.Email)
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"code":    "unauthorized",
		"message": msg,
	})
}

// AccountID returns the authenticated account ID, or "" when the request is
// unauthenticated.
func AccountID(c *gin.Context) string {
	return c.GetString(ctxKeyAccountID)
}

// AccountName returns the authenticated account's display name.
func AccountName(c *gin.Context) string {
	return c.GetString(ctxKeyAccountName)
}

// AccountEmail returns the authenticated account's email.
func AccountEmail(c *gin.Context) string {
	return c.GetString(ctxKeyAccountEmail)
}
