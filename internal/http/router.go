// Package httpapi wires the Gin engine: middleware order, CORS posture,
// per-route body limits, upload idempotency, rate limiting, the public API
// under cfg.APIBasePath, and the operational endpoints (/health, /metrics,
// /swagger).
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

	"github.com/tbourn/rag-chat-backend/internal/config"
	"github.com/tbourn/rag-chat-backend/internal/domain"
	"github.com/tbourn/rag-chat-backend/internal/http/handlers"
	"github.com/tbourn/rag-chat-backend/internal/http/middleware"
	"github.com/tbourn/rag-chat-backend/internal/repo"
	"github.com/tbourn/rag-chat-backend/internal/services"
)

// defaultBodyLimit applies to every route without its own cap.
const defaultBodyLimit = 1 << 20

// ReceiptFinder is the part of the store the idempotency middleware needs.
// A missing or expired receipt is reported as repo.ErrNotFound.
type ReceiptFinder interface {
	FindUploadReceipt(ctx context.Context, scope, key string, now time.Time) (*domain.UploadReceipt, error)
}

// Deps are the collaborators the routes are bound to.
type Deps struct {
	Docs     handlers.DocumentService
	Chat     handlers.ChatService
	Prompts  handlers.PromptService
	Store    handlers.Pinger
	Receipts ReceiptFinder
}

// RegisterRoutes installs middleware and routes on r.
//
// Global middleware order:
//  1. OpenTelemetry
//  2. RequestID
//  3. RedactingLogger (attaches the request logger)
//  4. Recovery
//  5. BodyLimit (1 MiB, uploads get cfg.Upload.MaxBytes)
//  6. Metrics
//  7. gzip (chat and metrics excluded)
//  8. CORS and security headers
//
// Rate limiting is applied per group rather than globally so that the
// upload routes can run IdempotencyValidator first and let replays through.
func RegisterRoutes(r *gin.Engine, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	base := normalizedBase(cfg.APIBasePath)

	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))
	r.Use(middleware.RequestID())
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{"X-API-Key"},
		SkipPaths:   []string{"/health", "/metrics"},
	}))
	r.Use(middleware.Recovery())
	r.Use(middleware.BodyLimit(defaultBodyLimit, map[string]int64{
		base + "/upload":       cfg.Upload.MaxBytes,
		base + "/admin/upload": cfg.Upload.MaxBytes,
	}))
	r.Use(middleware.Metrics())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{base + "/chat", "/metrics"})))
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))

	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	h := handlers.New(deps.Docs, deps.Chat, deps.Prompts, deps.Store, handlers.Options{
		StreamByDefault: cfg.ChatMode == config.ChatModeStreaming,
	})

	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	rateKey := middleware.KeyByIP()
	if cfg.RatePerRoute {
		rateKey = middleware.KeyByIPAndRoute()
	}
	limiter := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, rateKey)
	limited := limiter.Handler()
	uploadGuard := func(scope string) gin.HandlerFunc {
		return middleware.IdempotencyValidator(middleware.IdempotencyOptions{Scope: scope, MaxLen: 200}, receiptLookup(deps.Receipts))
	}

	api := groupWithPrefix(r, base)
	{
		api.POST("/upload", uploadGuard(services.ScopeUpload), limited, h.UploadDocument)
		api.POST("/admin/upload", uploadGuard(services.ScopeAdminUpload), limited, h.UploadSystemDocument)

		lim := api.Group("", limited)
		lim.GET("/system-prompt", h.GetSystemPrompt)
		lim.POST("/system-prompt", h.SaveSystemPrompt)
		lim.GET("/documents", h.ListDocuments)
		lim.DELETE("/documents/:id", h.DeleteDocument)
		lim.POST("/chat", h.Chat)

		admin := lim.Group("/admin")
		admin.GET("/documents", h.ListSystemDocuments)
		admin.DELETE("/documents/:id", h.DeleteSystemDocument)
	}
}

// receiptLookup adapts the store to middleware.ReceiptLookup.
func receiptLookup(rf ReceiptFinder) middleware.ReceiptLookup {
	if rf == nil {
		return nil
	}
	return func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
		rec, err := rf.FindUploadReceipt(ctx, scope, key, now)
		if errors.Is(err, repo.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return rec != nil, nil
	}
}

func corsMiddleware(origins []string) []gin.HandlerFunc {
	base := cors.Config{
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "ETag", handlers.HeaderTotalCount, "Idempotency-Replayed"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		base.AllowAllOrigins = true
		return []gin.HandlerFunc{
			// ACAO on every response, Origin header or not.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(base),
		}
	}
	base.AllowOrigins = origins
	return []gin.HandlerFunc{cors.New(base)}
}

// normalizedBase maps "/" to "" so routes never start with "//".
func normalizedBase(p string) string {
	if p == "/" {
		return ""
	}
	return p
}

func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
