// Package api wires together all HTTP routes for the assessment platform.
//
// Route grouping philosophy:
//   - Audit intake and result routes (/api/v1/audit/) are intentionally
//     unauthenticated. Customers reach them from the public website form and
//     from links in completion emails, without any account. They are rate
//     limited per client instead.
//   - Admin dashboard routes (/api/v1/admin/) always require a Bearer session
//     token, except for /login which carries its own stricter rate limit.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/xteam-pro/audit-platform/internal/analysis"
	"github.com/xteam-pro/audit-platform/internal/api/admin"
	"github.com/xteam-pro/audit-platform/internal/api/audits"
	"github.com/xteam-pro/audit-platform/internal/auth"
	"github.com/xteam-pro/audit-platform/internal/config"
	"github.com/xteam-pro/audit-platform/internal/db/repositories"
	"github.com/xteam-pro/audit-platform/internal/jobs"
	"github.com/xteam-pro/audit-platform/internal/mailer"
	"github.com/xteam-pro/audit-platform/internal/middleware"
	"github.com/xteam-pro/audit-platform/internal/pipeline"
	"github.com/xteam-pro/audit-platform/internal/report"
	"github.com/xteam-pro/audit-platform/internal/safego"
	"github.com/xteam-pro/audit-platform/internal/storage"

	// Import storage backends to register them
	_ "github.com/xteam-pro/audit-platform/internal/storage/local"
	_ "github.com/xteam-pro/audit-platform/internal/storage/s3"
)

// BackgroundServices holds references to background jobs and resources that must
// be stopped during graceful shutdown. The caller (cmd/server) is responsible for
// calling Shutdown() when the process receives a termination signal.
type BackgroundServices struct {
	queue        *pipeline.Queue
	reaper       *jobs.StaleAuditReaper
	rateLimiters []*middleware.RateLimiter
}

// Shutdown stops all background goroutines. It should be called after the HTTP
// server has been shut down so that in-flight requests are drained first. The
// queue is stopped first and drains any audits already accepted.
func (bg *BackgroundServices) Shutdown() {
	slog.Info("stopping background services")
	if bg.queue != nil {
		bg.queue.Stop()
	}
	if bg.reaper != nil {
		bg.reaper.Stop()
	}
	for _, rl := range bg.rateLimiters {
		rl.Stop()
	}
	slog.Info("all background services stopped")
}

// NewRouter creates and configures the Gin router
func NewRouter(cfg *config.Config, db *sql.DB) (*gin.Engine, *BackgroundServices) {
	router := gin.New()

	// Initialize storage backend
	storageBackend, err := storage.NewStorage(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage backend: %v", err)
	}
	log.Printf("Initialized storage backend: %s", cfg.Storage.DefaultBackend)

	// Initialize repositories
	auditRepo := repositories.NewAuditRepository(db)

	// Wrap *sql.DB with sqlx for the report and admin user repositories
	sqlxDB := sqlx.NewDb(db, "postgres")
	reportRepo := repositories.NewReportRepository(sqlxDB)
	adminUserRepo := repositories.NewAdminUserRepository(sqlxDB)

	tokens, err := auth.NewTokenManager(&cfg.Security.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize token manager: %v", err)
	}

	// Completion mailer. When notifications are disabled the handlers and the
	// dispatcher receive nil and skip email entirely.
	var mail *mailer.Mailer
	if m := mailer.NewMailer(&cfg.Notifications, cfg.Server.BaseURL); m.Enabled() {
		mail = m
		log.Println("Email notifications enabled")
	} else {
		log.Println("Email notifications disabled")
	}

	// Analysis pipeline: engine -> processor -> worker queue.
	engine := analysis.NewEngine(&cfg.Analysis)
	renderer := report.NewRenderer(&cfg.Storage)
	var dispatcher *pipeline.Dispatcher
	if mail != nil {
		dispatcher = pipeline.NewDispatcher(renderer, storageBackend, reportRepo, mail)
	} else {
		dispatcher = pipeline.NewDispatcher(renderer, storageBackend, reportRepo, nil)
	}
	processor := pipeline.NewProcessor(engine, auditRepo, dispatcher)
	queue := pipeline.NewQueue(&cfg.Pipeline, processor)
	queue.Start(context.Background())
	log.Println("Audit pipeline started")

	// Stale audit reaper: flips audits stuck in processing to failed
	reaper := jobs.NewStaleAuditReaper(auditRepo, &cfg.Pipeline)
	safego.Go("stale audit reaper", func() {
		reaper.Start(context.Background())
	})
	log.Println("Stale audit reaper started")

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.MetricsMiddleware())
	router.Use(LoggerMiddleware(cfg))
	router.Use(middleware.SecurityHeadersMiddleware(middleware.APISecurityHeadersConfig()))
	router.Use(middleware.CORSMiddleware(&cfg.Security.CORS))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Readiness check endpoint (includes storage backend probe)
	router.GET("/ready", readinessHandler(db, storageBackend))

	// API version
	router.GET("/version", versionHandler())

	bg := &BackgroundServices{queue: queue, reaper: reaper}

	// Public audit endpoints
	auditHandler := audits.NewHandler(auditRepo, reportRepo, queue, storageBackend, mail)
	public := router.Group("/api/v1/audit")
	if cfg.Security.RateLimiting.Enabled {
		publicLimiter := middleware.NewRateLimiter(middleware.PublicRateLimitConfig(&cfg.Security.RateLimiting))
		bg.rateLimiters = append(bg.rateLimiters, publicLimiter)
		public.Use(middleware.RateLimitMiddleware(publicLimiter))
	}
	{
		public.POST("/submit", auditHandler.Submit)
		public.GET("/status/:id", auditHandler.Status)
		public.GET("/results/:id", auditHandler.Results)
		public.GET("/download/:id", auditHandler.Download)
	}

	// Admin endpoints. Login gets its own, stricter limiter keyed by client IP
	// so credential stuffing is throttled independently of normal traffic.
	authHandlers := admin.NewAuthHandlers(adminUserRepo, tokens)
	loginLimiter := middleware.NewRateLimiter(middleware.AuthRateLimitConfig())
	bg.rateLimiters = append(bg.rateLimiters, loginLimiter)

	adminGroup := router.Group("/api/v1/admin")
	adminGroup.POST("/login", middleware.RateLimitMiddleware(loginLimiter), authHandlers.Login)

	protected := adminGroup.Group("")
	protected.Use(middleware.AdminAuthMiddleware(tokens))
	{
		auditAdmin := admin.NewAuditHandlers(auditRepo)
		protected.GET("/audits", auditAdmin.ListAudits)
		protected.GET("/audits/:id", auditAdmin.GetAudit)

		statsHandler := admin.NewStatsHandler(sqlxDB)
		protected.GET("/stats", statsHandler.GetDashboardStats)
	}

	return router, bg
}

// healthCheckHandler returns the health status of the service
func healthCheckHandler(db *sql.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check database connection
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// readinessHandler returns the readiness status of the service.
// Unlike the liveness probe (/health), this also checks the storage backend so
// that a Kubernetes readiness gate fails when report downloads would error.
func readinessHandler(db *sql.DB, storageBackend storage.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := gin.H{}

		// Check database connection
		if err := db.Ping(); err != nil {
			checks["database"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "database not ready",
			})
			return
		}
		checks["database"] = "healthy"

		// Check storage backend with a known-absent sentinel path. Exists()
		// exercises authentication and connectivity without creating state.
		if _, err := storageBackend.Exists(c.Request.Context(), ".readiness-probe"); err != nil {
			checks["storage"] = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"ready":  false,
				"checks": checks,
				"error":  "storage backend not ready",
			})
			return
		}
		checks["storage"] = "healthy"

		c.JSON(http.StatusOK, gin.H{
			"ready":  true,
			"checks": checks,
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// versionHandler returns the API version
func versionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"version":     "0.1.0",
			"api_version": "v1",
		})
	}
}

// LoggerMiddleware logs every request through the global slog logger. The
// output format (json or text) follows the logging configuration because the
// handler installed by telemetry.SetupLogger does the formatting.
func LoggerMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		requestID, _ := c.Get(middleware.RequestIDKey)
		slog.LogAttrs(
			c.Request.Context(),
			slog.LevelInfo,
			"http request",
			slog.String("method", c.Request.Method),
			slog.String("path", path),
			slog.String("query", query),
			slog.Int("status", c.Writer.Status()),
			slog.Int("size", c.Writer.Size()),
			slog.Duration("latency", latency),
			slog.String("ip", c.ClientIP()),
			slog.String("request_id", fmt.Sprintf("%v", requestID)),
			slog.String("user_agent", c.Request.UserAgent()),
		)
	}
}
