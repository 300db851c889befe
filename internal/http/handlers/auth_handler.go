// Auth HTTP handlers.
//
//   - POST /auth/register  (create an account)
//   - POST /auth/login     (exchange credentials for a bearer token)
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// RegisterRequest is the JSON payload for creating an account.
type RegisterRequest struct {
	Username string `json:"username" example:"alice"`
	Email    string `json:"email"    example:"a@x.com"`
	Password string `json:"password" example:"pw123456"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message" example:"Registration successful. Please log in."`
}

// LoginRequest is the JSON payload for logging in.
type LoginRequest struct {
	Email    string `json:"email"    example:"a@x.com"`
	Password string `json:"password" example:"pw123456"`
}

// LoginResponse carries the bearer token and its expiry.
type LoginResponse struct {
	Message   string    `json:"message"   example:"Login successful"`
	Username  string    `json:"username"  example:"alice"`
	Token     string    `json:"token"     example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt time.Time `json:"expiresAt" example:"2025-08-01T11:00:00Z"`
}

// Register godoc
// @ID          register
// @Summary     Register an account
// @Description Creates a user. Emails are unique and compared case-insensitively. Passwords must be at least 8 characters and at most 72 bytes.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.RegisterRequest  true  "Account details"
// @Success     201   {object}  handlers.MessageResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid input or duplicate email"
// @Failure     429   {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/register [post]
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if _, err := h.authSvc.Register(c.Request.Context(), req.Username, req.Email, req.Password); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, MessageResponse{Message: "Registration successful. Please log in."})
}

// Login godoc
// @ID          login
// @Summary     Log in
// @Description Verifies credentials and returns a signed bearer token.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       body  body      handlers.LoginRequest  true  "Credentials"
// @Success     200   {object}  handlers.LoginResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Invalid input"
// @Failure     401   {object}  handlers.ErrorResponse  "Invalid credentials"
// @Failure     429   {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	s, err := h.authSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, LoginResponse{
		Message:   "Login successful",
		Username:  s.Username,
		Token:     s.Token,
		ExpiresAt: s.ExpiresAt,
	})
}
