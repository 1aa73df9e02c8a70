package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wellmirror/backend/config"
	"github.com/wellmirror/backend/internal/api"
	"github.com/wellmirror/backend/internal/database"
	"github.com/wellmirror/backend/internal/middleware"
	"github.com/wellmirror/backend/internal/router"
	"github.com/wellmirror/backend/internal/server"
	"github.com/wellmirror/backend/internal/service"
)

func main() {
	ctx := context.Background()

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Storage
	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Latest-result cache is optional; the pipeline runs without it
	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Redis unavailable, latest-result cache disabled: %v", err)
		redisClient = nil
	}

	// Image sink: S3 when configured, inline data URLs otherwise
	s3cfg, err := config.NewS3Config(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize S3: %v", err)
	}

	// Services, constructed once and shared across concurrent runs
	historyService := service.NewHistoryService(db)
	evaluationService, err := service.NewEvaluationService(cfg)
	if err != nil {
		log.Fatalf("Failed to create evaluation service: %v", err)
	}
	projectionService, err := service.NewProjectionService(cfg)
	if err != nil {
		log.Fatalf("Failed to create projection service: %v", err)
	}
	coachService := service.NewCoachService(
		historyService,
		evaluationService,
		projectionService,
		service.NewImageSink(s3cfg),
		redisClient,
		cfg.ScoreThreshold,
	)

	// HTTP surface
	engine := router.SetupRouter(
		api.NewProfileHandler(historyService),
		api.NewCoachHandler(coachService),
		middleware.NewGenerationRateLimiter(redisClient),
	)
	srv := server.New(engine, cfg.ServerHost, cfg.ServerPort)

	// Channel to listen for errors coming from the server
	errChan := make(chan error, 1)

	go func() {
		log.Printf("Starting server on %s:%s...", cfg.ServerHost, cfg.ServerPort)
		errChan <- srv.Start()
	}()

	// Channel to listen for an interrupt or terminate signal from the OS
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	// Gracefully shutdown the server
	log.Println("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
