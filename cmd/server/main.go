package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/edtriage/backend/internal/api/handlers"
	"github.com/edtriage/backend/internal/app"
	"github.com/edtriage/backend/internal/config"
	"github.com/edtriage/backend/internal/database"
	"github.com/edtriage/backend/internal/health"
	"github.com/edtriage/backend/internal/middleware"
	"github.com/edtriage/backend/internal/migration"
	"github.com/edtriage/backend/internal/repository"
	"github.com/edtriage/backend/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	logger.Info("Starting triage gateway...")

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("Invalid configuration")
	}

	dbManager, err := database.NewManager(&database.Config{
		DatabaseURL: cfg.Database.URL,
		RedisURL:    cfg.Redis.URL,
		LogLevel:    os.Getenv("LOG_LEVEL"),
	}, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database manager")
	}
	defer dbManager.Close()

	if err := migration.NewRunner(dbManager, logger).RunMigrations("migrations"); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}

	pipeline, err := app.NewPipeline(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build triage pipeline")
	}

	repoManager := repository.NewRepositoryManager(dbManager.DB)

	healthChecker := health.NewHealthChecker(dbManager, health.Targets{
		OpenAIBaseURL: cfg.OpenAI.BaseURL,
		OpenAIAPIKey:  cfg.OpenAI.APIKey,
		OllamaURL:     cfg.Ollama.URL,
		PubMedBaseURL: cfg.PubMed.BaseURL,
	}, logger)

	var limiter middleware.Limiter
	if dbManager.HasRedis() {
		limiter = middleware.NewRedisRateLimiter(dbManager.Redis, cfg.RateLimit.PerMinute)
	} else {
		limiter = middleware.NewRateLimiter(cfg.RateLimit.PerMinute)
	}

	triageHandler := handlers.NewTriageHandler(pipeline.Triage, pipeline.Literature, repoManager, handlers.HandlerConfig{
		RequestTimeout: cfg.OpenAI.Timeout + cfg.Ollama.StreamTimeout + time.Minute,
		MaxResults:     cfg.PubMed.MaxResults,
	}, logger)
	runsHandler := handlers.NewRunsHandler(repoManager, logger)
	healthHandler := handlers.NewHealthHandler(healthChecker)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.SecurityHeaders())
	router.Use(requestLogger(logger))

	router.GET("/health", healthHandler.HandleHealth)

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimit(limiter, logger))
	{
		api.POST("/triage", triageHandler.HandleTriage)
		api.POST("/classify", triageHandler.HandleClassify)
		api.GET("/specialties", triageHandler.HandleSpecialties)
		api.GET("/literature", triageHandler.HandleLiterature)
		api.GET("/runs", runsHandler.HandleRecentRuns)
		api.GET("/runs/:request_id", runsHandler.HandleGetRun)
		api.GET("/stats/tiers", runsHandler.HandleTierStats)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go healthChecker.PeriodicHealthCheck(ctx, time.Minute)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Graceful shutdown failed")
	}
}

func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"request_id":    c.GetString("request_id"),
			"method":        c.Request.Method,
			"path":          c.FullPath(),
			"status":        c.Writer.Status(),
			"response_time": time.Since(start).Milliseconds(),
		}).Info("HTTP request")
	}
}
