package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Vazimax/BuyMin/config"
	"github.com/Vazimax/BuyMin/database"
	"github.com/Vazimax/BuyMin/export"
	"github.com/Vazimax/BuyMin/ingest"
	"github.com/Vazimax/BuyMin/jobs"
	"github.com/Vazimax/BuyMin/llm"
	"github.com/Vazimax/BuyMin/logger"
	"github.com/Vazimax/BuyMin/repository"
	"github.com/Vazimax/BuyMin/routes"
)

func main() {
	// Load .env
	envErr := godotenv.Load()

	// Initialize Structured Logger
	logger.Init()
	defer logger.Sync()
	if envErr != nil {
		logger.Warn("No .env file found, using system env vars")
	}

	cfg, err := config.Load(config.GetEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize DB
	db, err := database.InitDB(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close(db)

	repo := repository.NewPriceRepository(db)
	deps := routes.Dependencies{
		Server:   cfg.Server,
		Store:    repo,
		Exporter: export.NewService(repo, nil),
	}

	// Brochure ingestion needs a model; without a key the API is read-only.
	if cfg.LLM.APIKey != "" {
		client, err := llm.NewOpenAI(cfg.LLM, nil)
		if err != nil {
			logger.Error("Failed to create LLM client", "error", err)
			os.Exit(1)
		}
		pipeline := ingest.NewPipeline(ingest.NewLoader(cfg.Storage.MediaRoot), client, repo, cfg.LLM.MaxChunkSize, nil)

		// Start background ingestion worker
		worker := jobs.NewIngestionWorker(pipeline, cfg.Worker.QueueSize, nil)
		worker.Start(ctx)
		defer worker.Stop()

		deps.Ingester = pipeline
		deps.Worker = worker
	} else {
		logger.Warn("LLM API key not set, brochure ingestion disabled")
	}

	// Setup Router
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           routes.SetupRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
	}()

	logger.Info("Server starting", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server failed to start", "error", err)
		return
	}
	logger.Info("Server stopped")
}
