package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"episodic/internal/config"
	models "episodic/internal/domain/models/writing"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/repository/postgres"
	"episodic/internal/repository/memory"
	postgresWriting "episodic/internal/repository/postgres/writing"
	serviceWriting "episodic/internal/service/writing"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed data")
	clearData := flag.Bool("clear-data", false, "Delete the dev user's episodes, cards and documents (keep schema)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: --drop-tables and --clear-data are not allowed in prod")
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	logger.Info("seeding", "environment", cfg.Environment, "prefix", cfg.TablePrefix, "user_id", cfg.DevUserID)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		if err := postgres.DropTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		logger.Info("tables dropped")
	}

	if err := postgres.ApplySchema(ctx, pool, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	logger.Info("schema ready")

	if *schemaOnly {
		return
	}

	if err := postgres.ClearUserData(ctx, pool, tables, cfg.DevUserID); err != nil {
		log.Fatalf("Failed to clear data: %v", err)
	}
	if *clearData {
		logger.Info("data cleared")
		return
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	paragraphs := postgresWriting.NewParagraphRepository(repoConfig)
	episodes := postgresWriting.NewEpisodeRepository(repoConfig, paragraphs)
	cards := postgresWriting.NewCardRepository(repoConfig)
	documents := postgresWriting.NewDocumentRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Seeding never generates text or autosaves
	episodeService := serviceWriting.NewEpisodeService(episodes, paragraphs, memory.NewSnapshotStore(), txManager, nil, nil, cfg.AutosaveDelay, logger)
	docService := serviceWriting.NewDocumentService(documents, cfg.DocumentSearchLimit, logger)

	for _, req := range seedEpisodes() {
		req.UserID = cfg.DevUserID
		ep, err := episodeService.CreateEpisode(ctx, req)
		if err != nil {
			log.Fatalf("Failed to seed episode %q: %v", req.Title, err)
		}
		logger.Info("seeded episode", "id", ep.ID, "title", ep.Title, "paragraphs", len(ep.Paragraphs))
	}

	seeded := seedCards()
	if err := cards.CreateBatch(ctx, cfg.DevUserID, seeded); err != nil {
		log.Fatalf("Failed to seed cards: %v", err)
	}
	logger.Info("seeded cards", "count", len(seeded))

	for _, req := range seedDocuments() {
		req.UserID = cfg.DevUserID
		if _, err := docService.Upload(ctx, req); err != nil {
			log.Fatalf("Failed to seed document %q: %v", req.Filename, err)
		}
	}
	logger.Info("seed complete")
}

func seedEpisodes() []*writingSvc.CreateEpisodeRequest {
	return []*writingSvc.CreateEpisodeRequest{
		{
			Title: "Episode 1: The Lighthouse",
			Paragraphs: []string{
				"Mara climbed the last of the iron stairs as the storm rolled in from the west.",
				"The lamp room smelled of oil and salt. Someone had been here before her, and recently.",
				"On the logbook's final page, a single line in her father's hand: do not light the lamp.",
			},
		},
		{
			Title: "Episode 2: Low Tide",
		},
	}
}

func seedCards() []models.ReferenceCard {
	coast := "setting"
	cards := []models.ReferenceCard{
		{Title: "The Greywater Light", Summary: "A decommissioned lighthouse on a tidal island, reachable on foot only at low tide.", Group: &coast},
		{Title: "Mara Ellis", Summary: "Twenty-six, a marine surveyor who left the island at sixteen and swore not to return.", IsPinned: true},
		{Title: "The logbook", Summary: "Her father's keeper's log. The last entries stop mid-sentence three winters ago."},
	}
	// Stagger creation so the active ordering is deterministic
	base := time.Now().Add(-time.Hour)
	for i := range cards {
		cards[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		cards[i].UpdatedAt = cards[i].CreatedAt
	}
	return cards
}

func seedDocuments() []*writingSvc.UploadDocumentRequest {
	return []*writingSvc.UploadDocumentRequest{
		{
			Filename: "greywater-notes.md",
			Content:  "Greywater island: causeway floods twice a day. The lighthouse lamp was replaced with an automatic beacon in 1998. Locals say the old lamp still lights on storm nights.",
		},
	}
}
