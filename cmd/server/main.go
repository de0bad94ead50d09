package main

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/golang-migrate/migrate/v4"
	"github.com/joho/godotenv"

	"github.com/resourceiq/devmatch/internal/adapter/ai"
	"github.com/resourceiq/devmatch/internal/adapter/github"
	"github.com/resourceiq/devmatch/internal/adapter/jira"
	"github.com/resourceiq/devmatch/internal/adapter/store"
	"github.com/resourceiq/devmatch/internal/handler"
	"github.com/resourceiq/devmatch/internal/middleware"
	"github.com/resourceiq/devmatch/internal/port"
	"github.com/resourceiq/devmatch/internal/service"
	"github.com/resourceiq/devmatch/pkg/config"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting DevMatch",
		"port", cfg.Port,
		"embedding_backend", cfg.EmbeddingBackend,
		"embedding_dimension", cfg.EmbeddingDimension,
	)

	// ── Migrations ───────────────────────────────────────────────────────
	if err := runMigrations(cfg.MigrationsPath, cfg.DatabaseURL); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	vectorStore := store.NewVectorStore(pgStore, cfg.EmbeddingDimension)

	// ── Adapters ─────────────────────────────────────────────────────────
	embedder, err := newEmbedder(cfg)
	if err != nil {
		slog.Error("failed to configure embedding backend", "backend", cfg.EmbeddingBackend, "error", err)
		os.Exit(1)
	}

	githubClient, err := github.NewClient(cfg.GitHubToken, cfg.GitHubOrg)
	if err != nil {
		slog.Error("failed to configure GitHub client", "error", err)
		os.Exit(1)
	}

	jiraClient, err := jira.NewClient(cfg.JiraURL, cfg.JiraEmail, cfg.JiraAPIToken)
	if err != nil {
		slog.Error("failed to configure Jira client", "error", err)
		os.Exit(1)
	}

	// ── Services ─────────────────────────────────────────────────────────
	embeddingService := service.NewEmbeddingService(embedder, cfg.EmbeddingDimension)
	githubService := service.NewGitHubService(githubClient, embeddingService, vectorStore)
	jiraService := service.NewJiraService(jiraClient, embeddingService, pgStore, vectorStore)
	identityService := service.NewIdentityService(githubClient, jiraClient)
	scoreService := service.NewScoreService(pgStore, vectorStore, embeddingService, cfg.ScorePRWindow)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // sync endpoints fan out to external APIs
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))
	app.Use(middleware.RequestLog())

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

	syncHandler := handler.NewSyncHandler(jiraService, githubService, cfg.ScorePRWindow)
	syncHandler.Register(api)

	searchHandler := handler.NewSearchHandler(githubService, jiraService)
	searchHandler.Register(api)

	scoreHandler := handler.NewScoreHandler(scoreService)
	scoreHandler.Register(api)

	profileHandler := handler.NewProfileHandler(identityService, jiraService, pgStore, cfg.MatchThreshold)
	profileHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// newEmbedder selects the embedding backend once at startup.
func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	switch strings.ToLower(cfg.EmbeddingBackend) {
	case config.BackendLocal:
		return ai.NewOllamaEmbedder(cfg.OllamaURL, cfg.OllamaEmbedModel, cfg.OllamaToken), nil
	case config.BackendAPI:
		return ai.NewOpenAIEmbedder(cfg.EmbedAPIURL, cfg.EmbedAPIKey, cfg.EmbedAPIModel)
	default:
		return nil, port.ErrEmbedderNotConfigured
	}
}

// runMigrations applies pending schema migrations. A database already at the
// latest version is not an error.
func runMigrations(path, databaseURL string) error {
	m, err := migrate.New("file://"+path, databaseURL)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
