package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/parleyhq/parley/internal/dbpool"
	"github.com/parleyhq/parley/internal/middleware"
	"github.com/parleyhq/parley/internal/ws"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log             *logrus.Logger
	Pool            *dbpool.Pool
	Hub             *ws.Hub
	Sessions        SessionRepository
	Rounds          RoundRepository
	Changes         ChangeRepository
	Audit           AuditRepository
	Stats           StatsRepository
	WorkspaceLookup middleware.WorkspaceLookup
	CORSOrigins     []string
	Version         string
	ComparatorURL   string
}

// Router-level limits.
const (
	maxBodySize = 12 << 20 // 12 MB, fits a 5 MB HTML snapshot plus text and JSON overhead
	rateLimit   = 100      // requests per second per IP
	rateBurst   = 200      // token bucket burst size
)

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(ctx context.Context, r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.NewRateLimiter(ctx, rateLimit, rateBurst).Handler())
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(ctx context.Context, api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, deps.Hub, log, deps.Version, deps.ComparatorURL)
	sessions := NewSessionHandler(deps.Sessions, log)
	rounds := NewRoundHandler(deps.Rounds, log)
	changes := NewChangeHandler(deps.Changes, log)
	audit := NewAuditHandler(deps.Audit, log)
	stats := NewStatsHandler(deps.Stats, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication.
	api.Use(middleware.AuthMiddleware(deps.WorkspaceLookup, log))

	// Sessions.
	api.GET("/sessions", sessions.List)
	api.POST("/sessions", sessions.Create)
	api.GET("/sessions/:id", sessions.Get)
	api.POST("/sessions/:id/settle", sessions.Settle)
	api.POST("/sessions/:id/abandon", sessions.Abandon)

	// Rounds.
	api.POST("/sessions/:id/rounds", rounds.Import)
	api.GET("/sessions/:id/rounds", rounds.List)
	api.GET("/sessions/:id/rounds/:round_id", rounds.Get)

	// Changes.
	api.GET("/sessions/:id/changes", changes.List)
	api.POST("/sessions/:id/changes/accept-all", changes.AcceptAll)
	api.POST("/sessions/:id/changes/reject-all", changes.RejectAll)
	api.GET("/changes/:id", changes.Get)
	api.PATCH("/changes/:id/status", changes.UpdateStatus)

	// Audit.
	api.GET("/audit", audit.Query)
	api.DELETE("/audit", audit.Purge)

	// Stats.
	api.GET("/stats", stats.GetStats)

	// WebSocket endpoint.
	api.GET("/ws", wsHandler(ctx, log, deps.Hub, deps.CORSOrigins, deps.WorkspaceLookup))
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(ctx context.Context, deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(ctx, r, deps)
	registerRoutes(ctx, r.Group("/api/v1"), deps)

	return r
}
