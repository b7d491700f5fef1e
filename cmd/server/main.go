package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"episodic/internal/auth"
	"episodic/internal/config"
	"episodic/internal/domain/repositories"
	writingRepo "episodic/internal/domain/repositories/writing"
	"episodic/internal/handler"
	"episodic/internal/middleware"
	"episodic/internal/repository/memory"
	"episodic/internal/repository/postgres"
	postgresWriting "episodic/internal/repository/postgres/writing"
	redisRepo "episodic/internal/repository/redis"
	serviceLLM "episodic/internal/service/llm"
	"episodic/internal/service/llm/prompts"
	"episodic/internal/service/sources"
	serviceWriting "episodic/internal/service/writing"
)

type repositorySet struct {
	episodes   writingRepo.EpisodeRepository
	paragraphs writingRepo.ParagraphRepository
	cards      writingRepo.CardRepository
	documents  writingRepo.DocumentRepository
	tx         repositories.TransactionManager
	close      func()
}

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, logCloser, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, err := setupRepositories(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up storage: %v", err)
	}
	defer repos.close()

	snapshots, closeSnapshots, err := setupSnapshots(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to set up autosave snapshots: %v", err)
	}
	defer closeSnapshots()

	generator, model, err := serviceLLM.NewProviderFactory(cfg).NewDefaultGenerator(logger)
	if err != nil {
		log.Fatalf("Failed to set up LLM provider: %v", err)
	}
	logger.Info("generation provider ready", "provider", model.Provider, "model", model.Model)

	registry, err := prompts.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load prompt templates: %v", err)
	}

	// Services
	docService := serviceWriting.NewDocumentService(repos.documents, cfg.DocumentSearchLimit, logger)
	assembler := sources.NewAssembler(docService, setupWebSearch(cfg, logger), repos.episodes, cfg.WebSearchLimit, logger)
	revisionService := serviceWriting.NewRevisionService(repos.paragraphs, repos.cards, generator, registry, logger)
	cardService := serviceWriting.NewCardService(repos.cards, repos.paragraphs, repos.episodes, assembler, generator, registry, logger)
	triageService := serviceWriting.NewTriageService(revisionService, cardService, repos.cards, generator, registry, logger)
	episodeService := serviceWriting.NewEpisodeService(repos.episodes, repos.paragraphs, snapshots, repos.tx, generator, registry, cfg.AutosaveDelay, logger)
	commandService := serviceWriting.NewCommandService(cardService, revisionService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, &handler.Handlers{
		Episodes:   handler.NewEpisodeHandler(episodeService, logger),
		Paragraphs: handler.NewParagraphHandler(revisionService, cardService, commandService, logger),
		Cards:      handler.NewCardHandler(cardService, logger),
		Triage:     handler.NewTriageHandler(triageService, logger),
		Documents:  handler.NewDocumentHandler(docService, logger),
		Session:    handler.NewSessionHandler(cardService, episodeService, triageService, logger),
	})

	authMiddleware, closeAuth, err := setupAuth(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer closeAuth()

	// Order: CORS → Recovery → RequestLog → Auth → Routes
	var h http.Handler = mux
	h = authMiddleware(h)
	h = middleware.RequestLog(logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     h,
		ReadTimeout: 15 * time.Second,
		// Generation calls hold the response open for tens of seconds
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

// setupRepositories connects to Postgres, or falls back to in-process
// storage when no database is configured outside prod.
func setupRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*repositorySet, error) {
	if cfg.DatabaseURL == "" {
		if cfg.Environment == "prod" {
			return nil, errors.New("DATABASE_URL is required in prod")
		}
		logger.Warn("DATABASE_URL not set, using in-process storage (data is lost on restart)")
		store := memory.NewStore()
		return &repositorySet{
			episodes:   memory.NewEpisodeRepository(store),
			paragraphs: memory.NewParagraphRepository(store),
			cards:      memory.NewCardRepository(store),
			documents:  memory.NewDocumentRepository(store),
			tx:         memory.NewTransactionManager(),
			close:      func() {},
		}, nil
	}

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected")

	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: postgres.NewTableNames(cfg.TablePrefix),
		Logger: logger,
	}
	paragraphs := postgresWriting.NewParagraphRepository(repoConfig)
	return &repositorySet{
		episodes:   postgresWriting.NewEpisodeRepository(repoConfig, paragraphs),
		paragraphs: paragraphs,
		cards:      postgresWriting.NewCardRepository(repoConfig),
		documents:  postgresWriting.NewDocumentRepository(repoConfig),
		tx:         postgres.NewTransactionManager(pool, logger),
		close:      pool.Close,
	}, nil
}

// setupSnapshots picks the autosave fallback store: Redis when REDIS_ADDR
// is set, otherwise an in-process map.
func setupSnapshots(ctx context.Context, cfg *config.Config, logger *slog.Logger) (writingRepo.SnapshotStore, func(), error) {
	if cfg.RedisAddr == "" {
		logger.Info("REDIS_ADDR not set, autosave snapshots kept in process")
		return memory.NewSnapshotStore(), func() {}, nil
	}

	rdb, err := redisRepo.NewClient(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("redis connected", "addr", cfg.RedisAddr)
	return redisRepo.NewSnapshotStore(rdb, cfg.SnapshotTTL, logger), closeRedis(rdb, logger), nil
}

func closeRedis(rdb *goredis.Client, logger *slog.Logger) func() {
	return func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("redis close failed", "error", err)
		}
	}
}

// setupWebSearch prefers Tavily when a key is configured
func setupWebSearch(cfg *config.Config, logger *slog.Logger) sources.WebSearcher {
	if cfg.TavilyAPIKey != "" {
		logger.Info("web search: tavily")
		return sources.NewTavilyClient(cfg.TavilyAPIKey)
	}
	logger.Info("web search: duckduckgo instant answers")
	return sources.NewDuckDuckGoClient("", 10*time.Second)
}

func setupAuth(ctx context.Context, cfg *config.Config, logger *slog.Logger) (func(http.Handler) http.Handler, func(), error) {
	if cfg.AuthDisabled {
		logger.Warn("AUTH DISABLED: every request runs as the dev user", "user_id", cfg.DevUserID)
		return middleware.DevAuth(cfg.DevUserID), func() {}, nil
	}

	verifier, err := auth.NewJWTVerifier(ctx, cfg.SupabaseJWKSURL, logger)
	if err != nil {
		return nil, nil, err
	}
	return middleware.Auth(verifier, logger), func() { _ = verifier.Close() }, nil
}
