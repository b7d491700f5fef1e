package writing

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"episodic/internal/config"
	"episodic/internal/domain"
	models "episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
	domainllm "episodic/internal/domain/services/llm"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/service/llm"
	"episodic/internal/service/llm/prompts"
	"episodic/internal/service/sources"
)

// cardService keeps one cardStore per user. Stores are created on Open and
// dropped on Release; a store opened twice is shared.
type cardService struct {
	cardRepo      writingRepo.CardRepository
	paragraphRepo writingRepo.ParagraphRepository
	episodeRepo   writingRepo.EpisodeRepository
	assembler     *sources.Assembler
	generator     domainllm.TextGenerator
	prompts       *prompts.Registry
	logger        *slog.Logger

	mu     sync.Mutex
	stores map[string]*cardStore
}

// NewCardService creates the card service
func NewCardService(
	cardRepo writingRepo.CardRepository,
	paragraphRepo writingRepo.ParagraphRepository,
	episodeRepo writingRepo.EpisodeRepository,
	assembler *sources.Assembler,
	generator domainllm.TextGenerator,
	registry *prompts.Registry,
	logger *slog.Logger,
) writingSvc.CardService {
	return &cardService{
		cardRepo:      cardRepo,
		paragraphRepo: paragraphRepo,
		episodeRepo:   episodeRepo,
		assembler:     assembler,
		generator:     generator,
		prompts:       registry,
		logger:        logger.With("service", "card"),
		stores:        make(map[string]*cardStore),
	}
}

// Open returns the user's store, loading it on first use
func (s *cardService) Open(ctx context.Context, userID string) (writingSvc.CardStore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if store, ok := s.stores[userID]; ok {
		return store, nil
	}

	store := newCardStore(userID, s.cardRepo, s.logger)
	if err := store.Initialize(ctx); err != nil {
		return nil, err
	}
	s.stores[userID] = store
	return store, nil
}

func (s *cardService) Release(userID string) {
	s.mu.Lock()
	delete(s.stores, userID)
	s.mu.Unlock()
}

// GenerateCards builds a batch from the paragraph, its episode and the
// gathered sources, then adds it to the store in one insert.
func (s *cardService) GenerateCards(ctx context.Context, req *writingSvc.GenerateCardsRequest) ([]models.ReferenceCard, error) {
	store, err := s.Open(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	paragraph, err := s.paragraphRepo.GetByID(ctx, req.ParagraphID, req.UserID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(paragraph.Content) == "" {
		return nil, domain.NewValidation("paragraph %s is empty", paragraph.ID)
	}

	episode, err := s.episodeRepo.GetByID(ctx, paragraph.EpisodeID, req.UserID)
	if err != nil {
		return nil, err
	}

	rawContext := s.assembler.Gather(ctx, req.UserID, paragraph.Content)

	contents := make([]string, 0, len(episode.Paragraphs))
	for _, p := range episode.Paragraphs {
		if strings.TrimSpace(p.Content) != "" {
			contents = append(contents, p.Content)
		}
	}

	existing := store.ContextCards()
	titles := make([]string, 0, len(existing))
	for _, c := range existing {
		titles = append(titles, c.Title)
	}

	prompt, err := s.prompts.Render(prompts.GenerateCards, prompts.Data{
		Count:            config.GeneratedCardBatchSize,
		EpisodeTitle:     episode.Title,
		Paragraphs:       contents,
		Target:           paragraph.Content,
		AllEpisodes:      rawContext.AllEpisodes,
		DocumentSnippets: rawContext.DocumentSnippets,
		WebResults:       rawContext.WebResults,
		ExistingTitles:   titles,
	})
	if err != nil {
		return nil, err
	}

	output, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	drafts, err := llm.ParseCardDrafts(prompts.GenerateCards, output)
	if err != nil {
		s.logger.Warn("unusable card batch", "paragraph_id", paragraph.ID, "error", err)
		return nil, err
	}
	if len(drafts) > config.GeneratedCardBatchSize {
		drafts = drafts[:config.GeneratedCardBatchSize]
	}

	cards := make([]models.ReferenceCard, len(drafts))
	for i, d := range drafts {
		cards[i] = models.ReferenceCard{
			Title:      d.Title,
			Summary:    d.Summary,
			RawContext: rawContext,
		}
	}

	added, err := store.AddCards(ctx, cards)
	if err != nil {
		return nil, err
	}

	s.logger.Info("cards generated",
		"paragraph_id", paragraph.ID,
		"count", len(added),
		"documents", len(rawContext.DocumentSnippets),
		"web", len(rawContext.WebResults),
	)
	return added, nil
}
