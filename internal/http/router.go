// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// compression, CORS, security headers, authentication, idempotency, and
// rate limiting.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	_ "github.com/tbourn/formflow-backend/docs" // registers the OpenAPI document with swag
	"github.com/tbourn/formflow-backend/internal/config"
	"github.com/tbourn/formflow-backend/internal/domain"
	"github.com/tbourn/formflow-backend/internal/http/handlers"
	"github.com/tbourn/formflow-backend/internal/http/middleware"
	"github.com/tbourn/formflow-backend/internal/repo"
	"github.com/tbourn/formflow-backend/internal/services"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// userRepoShim adapts the repository free functions to services.UserRepo.
type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, username, email, hash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, username, email, hash)
}

func (userRepoShim) GetUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return repo.GetUserByEmail(ctx, db, email)
}

// formRepoShim adapts the repository free functions to services.FormRepo.
type formRepoShim struct{}

func (formRepoShim) CreateForm(ctx context.Context, db *gorm.DB, f *domain.Form) error {
	return repo.CreateForm(ctx, db, f)
}

func (formRepoShim) GetFormByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*domain.Form, error) {
	return repo.GetFormByPublicID(ctx, db, publicID)
}

func (formRepoShim) PublishForm(ctx context.Context, db *gorm.DB, publicID, ownerID string, at time.Time) (bool, error) {
	return repo.PublishForm(ctx, db, publicID, ownerID, at)
}

func (formRepoShim) ListFormsByOwner(ctx context.Context, db *gorm.DB, ownerID string) ([]domain.Form, error) {
	return repo.ListFormsByOwner(ctx, db, ownerID)
}

func (formRepoShim) CountResponses(ctx context.Context, db *gorm.DB, formPublicID string) (int64, error) {
	return repo.CountResponses(ctx, db, formPublicID)
}

func (formRepoShim) GetIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key string, now time.Time) (*domain.Idempotency, error) {
	return repo.GetIdempotency(ctx, db, userID, scope, key, now)
}

func (formRepoShim) CreateIdempotency(ctx context.Context, db *gorm.DB, userID, scope, key, resourceID string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, db, userID, scope, key, resourceID, status, ttl)
}

// responseRepoShim adapts the repository free functions to services.ResponseRepo.
type responseRepoShim struct{}

func (responseRepoShim) GetFormByPublicID(ctx context.Context, db *gorm.DB, publicID string) (*domain.Form, error) {
	return repo.GetFormByPublicID(ctx, db, publicID)
}

func (responseRepoShim) GetOwnedForm(ctx context.Context, db *gorm.DB, publicID, ownerID string) (*domain.Form, error) {
	return repo.GetOwnedForm(ctx, db, publicID, ownerID)
}

func (responseRepoShim) CreateResponse(ctx context.Context, db *gorm.DB, formPublicID string, payload map[string]any, addr string) (*domain.Response, error) {
	return repo.CreateResponse(ctx, db, formPublicID, payload, addr)
}

func (responseRepoShim) CountResponses(ctx context.Context, db *gorm.DB, formPublicID string) (int64, error) {
	return repo.CountResponses(ctx, db, formPublicID)
}

func (responseRepoShim) ListResponsesPage(ctx context.Context, db *gorm.DB, formPublicID string, offset, limit int) ([]domain.Response, error) {
	return repo.ListResponsesPage(ctx, db, formPublicID, offset, limit)
}

// dashboardRepoShim adapts the repository free functions to services.DashboardRepo.
type dashboardRepoShim struct{}

func (dashboardRepoShim) CountFormsByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	return repo.CountFormsByOwner(ctx, db, ownerID)
}

func (dashboardRepoShim) CountResponsesByOwner(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	return repo.CountResponsesByOwner(ctx, db, ownerID)
}

func (dashboardRepoShim) FormsStats(ctx context.Context, db *gorm.DB, ownerID string) (int64, *time.Time, int64, error) {
	return repo.FormsStats(ctx, db, ownerID)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the versioned API under cfg.APIBasePath.
//
// Global middleware order:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: access log with PII scrubbing
//  4. ContextLogger: request-scoped logger for handlers
//  5. Recovery: capture panics after logger
//  6. Body size limiter
//  7. Metrics
//  8. Gzip (skips /metrics)
//  9. CORS and security headers
//
// Per route: RequireAuth on owner routes, then IdempotencyValidator on
// create (before limiting so replays bypass it), then the rate limiters.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, tokens services.TokenIssuer) {
	r.HandleMethodNotAllowed = true

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
	}))
	r.Use(middleware.ContextLogger())
	r.Use(middleware.Recovery())
	r.Use(limitBody(maxBodyBytes))

	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	r.GET("/health", healthHandler(db))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db
	authSvc := services.NewAuthService(db, userRepoShim{}, tokens)
	formSvc := services.NewFormService(db, formRepoShim{}, cfg.PublicBaseURL)
	if cfg.IdempotencyTTL > 0 {
		formSvc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	respSvc := services.NewResponseService(db, responseRepoShim{})
	dashSvc := services.NewDashboardService(db, dashboardRepoShim{})
	h := handlers.New(authSvc, formSvc, respSvc, dashSvc)

	limit := middleware.NewRateLimiter("global", cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP()).Handler()
	submitLimit := middleware.NewRateLimiter("submit", cfg.SubmitRateRPS, cfg.SubmitRateBurst, middleware.KeyByIP()).Handler()
	requireAuth := middleware.RequireAuth(authSvc, handlers.AuthFailure)
	createIdem := middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{Scope: domain.IdempotencyScopeCreateForm},
		idempotencyLookup(db),
	)

	api := groupWithPrefix(r, cfg.APIBasePath)

	authGroup := api.Group("/auth", middleware.NoStore(), limit)
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	dash := api.Group("/dashboard", requireAuth, limit)
	{
		dash.GET("/stats", h.DashboardStats)
		dash.GET("/forms", h.DashboardForms)
	}

	forms := api.Group("/forms")
	{
		forms.POST("/create", requireAuth, createIdem, limit, h.CreateForm)
		forms.PUT("/:formId/publish", requireAuth, limit, h.PublishForm)
		forms.GET("/:formId/responses", requireAuth, limit, h.ListResponses)

		forms.GET("/:formId", limit, h.GetPublicForm)
		forms.POST("/:formId/submit", limit, submitLimit, h.SubmitForm)
	}
}

// idempotencyLookup reports whether a live create record exists.
func idempotencyLookup(db *gorm.DB) middleware.IdempotencyLookup {
	return func(ctx context.Context, userID, scope, key string, now time.Time) (bool, error) {
		_, err := repo.GetIdempotency(ctx, db, userID, scope, key, now)
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, repo.ErrNotFound):
			return false, nil
		default:
			return false, err
		}
	}
}

// healthHandler reports liveness plus a bounded database ping.
func healthHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("health: database unreachable")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// corsMiddleware allows every origin when none are configured, otherwise
// only the allowlist. Credentials are never allowed; auth is a bearer header.
func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey},
		ExposeHeaders: []string{
			"X-Request-ID", "Content-Length", "ETag", "Retry-After", middleware.HeaderIdempotencyReplayed,
		},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}

	if len(origins) == 0 {
		base.AllowAllOrigins = true
		// Set ACAO even without an Origin header so plain clients see it too.
		return []gin.HandlerFunc{
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}

	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(base),
	}
}

// limitBody caps the request body size to maxBytes using
// http.MaxBytesReader. Reads past the cap fail, which binding reports as 400.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
