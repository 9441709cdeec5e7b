package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/multilingual-news-api/internal/auth"
	"github.com/multilingual-news-api/internal/cache"
	"github.com/multilingual-news-api/internal/config"
	"github.com/multilingual-news-api/internal/service"
	"github.com/multilingual-news-api/pkg/logger"
	"github.com/rs/zerolog"
)

// HealthChecker reports on the backing database. It may be nil in tests.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
	Stats() sql.DBStats
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, authn *auth.Authenticator, responses cache.Cache, db HealthChecker, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if responses == nil {
		responses = cache.Noop{}
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())
	router.Use(principalMiddleware(authn))

	// Handlers
	articleHandler := NewArticleHandler(services, log)
	imageHandler := NewImageHandler(services, cfg, log)
	importHandler := NewImportHandler(services, cfg, log)
	exportHandler := NewExportHandler(services, log)

	// Health check
	router.GET("/health", healthCheck(db))
	router.GET("/metrics", metricsHandler(services, db, log))

	// API v1
	v1 := router.Group("/v1")
	{
		publicCache := publicCacheMiddleware(responses, cfg.Cache.TTL, log)

		articles := v1.Group("/articles")
		{
			articles.GET("", publicCache, articleHandler.List)
			articles.GET("/:id", publicCache, articleHandler.Get)
			articles.POST("", articleHandler.Create)
			articles.PUT("/:id", articleHandler.Update)
			articles.DELETE("/:id", articleHandler.Delete)
		}

		images := v1.Group("/images")
		{
			images.POST("", imageHandler.Upload)
			images.GET("/:key", imageHandler.Serve)
			images.DELETE("/:key", imageHandler.Delete)
		}

		v1.POST("/imports/articles", importHandler.ImportArticles)
		v1.GET("/exports/articles", exportHandler.StreamArticles)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(db HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if db != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := db.HealthCheck(ctx); err != nil {
				status, code = "unhealthy", http.StatusServiceUnavailable
			}
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"service":   logger.ServiceName,
		})
	}
}

// metricsHandler returns article counts per status and pool statistics
func metricsHandler(services *service.Services, db HealthChecker, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := services.Article.CountByStatus(c.Request.Context())
		if err != nil {
			respondError(c, log, err)
			return
		}

		byStatus := gin.H{}
		total := 0
		for status, n := range counts {
			byStatus[string(status)] = n
			total += n
		}

		body := gin.H{
			"articles": gin.H{
				"total":     total,
				"by_status": byStatus,
			},
			"timestamp": time.Now().Format(time.RFC3339),
		}
		if db != nil {
			stats := db.Stats()
			body["database"] = gin.H{
				"open_connections": stats.OpenConnections,
				"in_use":           stats.InUse,
				"idle":             stats.Idle,
				"wait_count":       stats.WaitCount,
			}
		}
		c.JSON(http.StatusOK, body)
	}
}

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "internal server error",
					"code":  codeInternal,
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("actor", principal(c).Actor).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-Match, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "ETag")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
