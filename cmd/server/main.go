package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/multilingual-news-api/internal/api"
	"github.com/multilingual-news-api/internal/auth"
	"github.com/multilingual-news-api/internal/cache"
	"github.com/multilingual-news-api/internal/config"
	"github.com/multilingual-news-api/internal/database"
	"github.com/multilingual-news-api/internal/repository"
	"github.com/multilingual-news-api/internal/service"
	"github.com/multilingual-news-api/internal/storage"
	"github.com/multilingual-news-api/pkg/logger"
)

func main() {
	// A missing .env file is normal outside local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log := logger.New("info", "json")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Msg("Starting Multilingual News API server...")
	if cfg.Auth.DevMode {
		log.Warn().Msg("DEV_MODE is on: every request is treated as administrator")
	}

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Server.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories
	repos := repository.New(db)

	// Image storage
	images, err := storage.NewLocalStore(cfg.Storage.ImageDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize image storage")
	}

	// Public response cache
	var responses cache.Cache = cache.Noop{}
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedis(context.Background(), cfg.Cache, logger.ServiceName)
		if err != nil {
			log.Warn().Err(err).Msg("Response cache unavailable, continuing without it")
		} else {
			responses = redisCache
			log.Info().Str("addr", cfg.Cache.Addr).Dur("ttl", cfg.Cache.TTL).Msg("Response cache enabled")
		}
	}
	defer responses.Close()

	// Initialize services
	services := service.NewServices(repos, images, responses, cfg, log)

	// Initialize router
	gin.SetMode(gin.ReleaseMode)
	router := api.NewRouter(services, auth.New(cfg.Auth), responses, db, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
