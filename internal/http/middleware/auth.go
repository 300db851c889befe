// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements bearer-token authentication for owner routes. The
// verified identity is stored in the Gin context under CtxUserID and
// CtxUsername; downstream middleware (rate limiting, idempotency, logging)
// and handlers read it from there.
package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/formflow-backend/internal/auth"
)

// Gin context keys for the authenticated caller.
const (
	CtxUserID   = "userID"
	CtxUsername = "username"
)

// TokenVerifier resolves an Authorization header value to an identity.
type TokenVerifier interface {
	Verify(ctx context.Context, authorization string) (auth.Identity, error)
}

// AuthFailure writes the rejection for a failed verification. It must abort
// the request.
type AuthFailure func(c *gin.Context, err error)

// RequireAuth rejects requests without a valid bearer token. On success the
// caller's id and username are stored in the context.
func RequireAuth(v TokenVerifier, onFail AuthFailure) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := v.Verify(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			onFail(c, err)
			if !c.IsAborted() {
				c.Abort()
			}
			return
		}
		c.Set(CtxUserID, id.UserID)
		c.Set(CtxUsername, id.Username)
		c.Next()
	}
}

// UserID returns the authenticated user id, or "" for anonymous requests.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(CtxUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Username returns the authenticated username, or "".
func Username(c *gin.Context) string {
	if v, ok := c.Get(CtxUsername); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
