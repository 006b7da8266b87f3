package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/dharnesh67/neurohub/internal/adapter/ai"
	"github.com/dharnesh67/neurohub/internal/adapter/scm"
	"github.com/dharnesh67/neurohub/internal/adapter/store"
	"github.com/dharnesh67/neurohub/internal/batch"
	"github.com/dharnesh67/neurohub/internal/embedder"
	"github.com/dharnesh67/neurohub/internal/handler"
	"github.com/dharnesh67/neurohub/internal/service"
	"github.com/dharnesh67/neurohub/internal/summarizer"
	"github.com/dharnesh67/neurohub/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting NeuroHub",
		"port", cfg.Port,
		"chat_model", cfg.GeminiChatModel,
		"embed_model", cfg.GeminiEmbedModel,
		"embedding_dimension", cfg.EmbeddingDimension,
	)

	ctx := context.Background()

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	if err := pgStore.Migrate(ctx, cfg.EmbeddingDimension); err != nil {
		slog.Error("failed to migrate schema", "error", err)
		os.Exit(1)
	}

	vectorStore := store.NewVectorStore(pgStore, cfg.EmbeddingDimension)

	// ── Adapters ─────────────────────────────────────────────────────────
	geminiAI, err := ai.NewGeminiProvider(ctx, cfg.GeminiAPIKey, cfg.GeminiChatModel, cfg.GeminiEmbedModel)
	if err != nil {
		slog.Error("failed to create AI provider", "error", err)
		os.Exit(1)
	}
	githubSCM := scm.NewGitHubClient(cfg.GitHubBaseURL, cfg.GitHubToken)

	// ── Pipeline ─────────────────────────────────────────────────────────
	retryCfg := batch.RetryConfig{MaxAttempts: cfg.MaxRetries, BaseDelay: cfg.RetryBaseDelay, MaxDelay: 30 * time.Second}
	batchOpts := batch.Options{GroupSize: cfg.BatchSize, GroupDelay: cfg.BatchDelay}

	summarizerSvc := summarizer.New(geminiAI, retryCfg, cfg.SummaryCacheSize)
	embedderSvc := embedder.New(geminiAI, cfg.EmbeddingDimension, cfg.EmbedMaxChars, retryCfg)

	commitService := service.NewCommitService(
		pgStore, pgStore, githubSCM, summarizerSvc,
		scm.ParseRepoURL, cfg.MaxCommits, retryCfg, batchOpts,
	)
	indexService := service.NewIndexService(
		pgStore, vectorStore, githubSCM, summarizerSvc, embedderSvc,
		scm.ParseRepoURL, cfg.ChunkSize, cfg.ChunkOverlap, cfg.ExcludePatterns,
		retryCfg, batchOpts,
	)
	qaService := service.NewQAService(geminiAI, vectorStore, embedderSvc, cfg.TopK)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // SSE answer streams outlive normal writes
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	api := app.Group("/api/v1")

	jobTracker := handler.NewJobTracker()

	projectHandler := handler.NewProjectHandler(pgStore, pgStore, vectorStore, commitService, indexService, jobTracker)
	projectHandler.Register(api)

	qaHandler := handler.NewQAHandler(qaService)
	qaHandler.Register(api)

	jobsHandler := handler.NewJobsHandler(jobTracker)
	jobsHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
