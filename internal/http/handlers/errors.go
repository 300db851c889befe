// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are stable, lowercase snake_case strings. Clients branch on them;
// the message is for humans. Service errors are translated in one place,
// failErr, so every endpoint maps the same sentinel to the same status.
//
// Example response:
//
//	{
//	  "requestId": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "not_found",
//	  "message": "form not found"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/formflow-backend/internal/services"
)

const (
	ErrCodeBadRequest         = "bad_request"
	ErrCodeDuplicateEmail     = "duplicate_email"
	ErrCodeInvalidCredentials = "invalid_credentials"
	ErrCodeUnauthenticated    = "unauthenticated"
	ErrCodeInvalidToken       = "invalid_token"
	ErrCodeNotFound           = "not_found"
	ErrCodeRateLimited        = "too_many_requests"
	ErrCodeInternal           = "internal_error"
	ErrCodeMethodNotAllowed   = "method_not_allowed"
)

// internalMessage is the only text a client ever sees for a 500.
const internalMessage = "internal server error"

// failErr maps a service error to its status and code. Validation errors
// carry their detail to the client; anything unrecognised becomes a generic
// 500 whose cause is only logged.
func failErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrDuplicateEmail):
		fail(c, http.StatusBadRequest, ErrCodeDuplicateEmail, "an account with this email already exists")
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid email or password")
	case errors.Is(err, services.ErrUnauthenticated):
		c.Header("WWW-Authenticate", `Bearer realm="formflow"`)
		fail(c, http.StatusUnauthorized, ErrCodeUnauthenticated, "authentication required")
	case errors.Is(err, services.ErrInvalidToken):
		c.Header("WWW-Authenticate", `Bearer realm="formflow", error="invalid_token"`)
		fail(c, http.StatusUnauthorized, ErrCodeInvalidToken, "invalid or expired token")
	case errors.Is(err, services.ErrFormNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "form not found")
	default:
		_ = c.Error(err)
		fail(c, http.StatusInternalServerError, ErrCodeInternal, internalMessage)
	}
}

// AuthFailure adapts failErr for middleware.RequireAuth.
func AuthFailure(c *gin.Context, err error) { failErr(c, err) }
