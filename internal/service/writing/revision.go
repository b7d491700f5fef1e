package writing

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"episodic/internal/domain"
	models "episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
	domainllm "episodic/internal/domain/services/llm"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/service/llm/prompts"
)

type revisionService struct {
	paragraphRepo writingRepo.ParagraphRepository
	cardRepo      writingRepo.CardRepository
	generator     domainllm.TextGenerator
	prompts       *prompts.Registry
	inflight      *inflightSet
	logger        *slog.Logger
}

// NewRevisionService creates the paragraph revision engine
func NewRevisionService(
	paragraphRepo writingRepo.ParagraphRepository,
	cardRepo writingRepo.CardRepository,
	generator domainllm.TextGenerator,
	registry *prompts.Registry,
	logger *slog.Logger,
) writingSvc.RevisionService {
	return &revisionService{
		paragraphRepo: paragraphRepo,
		cardRepo:      cardRepo,
		generator:     generator,
		prompts:       registry,
		inflight:      newInflightSet(),
		logger:        logger.With("service", "revision"),
	}
}

// inflightSet admits one mutation per paragraph at a time
type inflightSet struct {
	mu  sync.Mutex
	ids map[string]struct{}
}

func newInflightSet() *inflightSet {
	return &inflightSet{ids: make(map[string]struct{})}
}

func (s *inflightSet) acquire(paragraphID string) (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.ids[paragraphID]; busy {
		return nil, &domain.BusyError{ParagraphID: paragraphID}
	}
	s.ids[paragraphID] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.ids, paragraphID)
		s.mu.Unlock()
	}, nil
}

func (s *revisionService) GetParagraph(ctx context.Context, userID, paragraphID string) (*models.Paragraph, error) {
	return s.paragraphRepo.GetByID(ctx, paragraphID, userID)
}

// ApplyCard rewrites the paragraph using a stored card
func (s *revisionService) ApplyCard(ctx context.Context, req *writingSvc.ApplyCardRequest) (*models.Paragraph, error) {
	if strings.TrimSpace(req.CardID) == "" {
		return nil, domain.NewValidation("reference_card_id is required")
	}

	card, err := s.cardRepo.GetByID(ctx, req.CardID, req.UserID)
	if err != nil {
		return nil, err
	}
	return s.applyCard(ctx, req.UserID, req.ParagraphID, card)
}

// ApplyTransientCard rewrites the paragraph from a card that was never
// persisted. Its temp id is still recorded in the applied-card history.
func (s *revisionService) ApplyTransientCard(ctx context.Context, userID, paragraphID string, card *models.ReferenceCard) (*models.Paragraph, error) {
	if card == nil {
		return nil, domain.NewValidation("card is required")
	}
	return s.applyCard(ctx, userID, paragraphID, card)
}

func (s *revisionService) applyCard(ctx context.Context, userID, paragraphID string, card *models.ReferenceCard) (*models.Paragraph, error) {
	return s.mutate(ctx, userID, paragraphID, "apply_card", func(p *models.Paragraph) error {
		prompt, err := s.prompts.Render(prompts.RewriteParagraph, prompts.Data{
			Target: p.Content,
			Card:   card,
		})
		if err != nil {
			return err
		}

		rewritten, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			return err
		}

		p.ApplyRevision(rewritten, card.ID)
		return nil
	})
}

// Expand replaces the paragraph with a longer, more descriptive version.
// Only the content history is pushed.
func (s *revisionService) Expand(ctx context.Context, userID, paragraphID string) (*models.Paragraph, error) {
	return s.mutate(ctx, userID, paragraphID, "expand", func(p *models.Paragraph) error {
		if strings.TrimSpace(p.Content) == "" {
			return domain.NewValidation("paragraph %s is empty", p.ID)
		}

		prompt, err := s.prompts.Render(prompts.ExpandParagraph, prompts.Data{Target: p.Content})
		if err != nil {
			return err
		}

		expanded, err := s.generator.Generate(ctx, prompt)
		if err != nil {
			return err
		}

		p.Rewrite(expanded)
		return nil
	})
}

// Undo restores the previous content. Applied-card history is left alone.
func (s *revisionService) Undo(ctx context.Context, userID, paragraphID string) (*models.Paragraph, error) {
	return s.mutate(ctx, userID, paragraphID, "undo", func(p *models.Paragraph) error {
		return p.Undo()
	})
}

// mutate loads the paragraph, runs fn on a copy and persists the result.
// The stored paragraph is untouched when fn fails.
func (s *revisionService) mutate(ctx context.Context, userID, paragraphID, op string, fn func(p *models.Paragraph) error) (*models.Paragraph, error) {
	release, err := s.inflight.acquire(paragraphID)
	if err != nil {
		return nil, err
	}
	defer release()

	current, err := s.paragraphRepo.GetByID(ctx, paragraphID, userID)
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}

	if err := s.paragraphRepo.UpdateRevision(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to persist %s: %w", op, err)
	}

	s.logger.Info("paragraph revised",
		"op", op,
		"paragraph_id", paragraphID,
		"content_history", len(next.ContentHistory),
		"applied_cards", len(next.AppliedCardHistory),
	)
	return next, nil
}

// GetCardHistory resolves the applied-card history, most recent first.
// Repeats are kept; ids that no longer resolve are dropped.
func (s *revisionService) GetCardHistory(ctx context.Context, userID, paragraphID string) ([]models.ReferenceCard, error) {
	p, err := s.paragraphRepo.GetByID(ctx, paragraphID, userID)
	if err != nil {
		return nil, err
	}

	ids := p.AppliedCardIDsRecentFirst()
	lookup := make([]string, 0, len(ids))
	for _, id := range ids {
		if !models.IsTempID(id) {
			lookup = append(lookup, id)
		}
	}
	if len(lookup) == 0 {
		return []models.ReferenceCard{}, nil
	}

	cards, err := s.cardRepo.GetByIDs(ctx, lookup, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve card history: %w", err)
	}

	byID := make(map[string]models.ReferenceCard, len(cards))
	for _, c := range cards {
		byID[c.ID] = c
	}

	history := make([]models.ReferenceCard, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			history = append(history, c)
		}
	}
	return history, nil
}

// Describe returns generated description for the paragraph without changing it
func (s *revisionService) Describe(ctx context.Context, userID, paragraphID string) (string, error) {
	p, err := s.paragraphRepo.GetByID(ctx, paragraphID, userID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(p.Content) == "" {
		return "", domain.NewValidation("paragraph %s is empty", p.ID)
	}

	prompt, err := s.prompts.Render(prompts.DescribeParagraph, prompts.Data{Target: p.Content})
	if err != nil {
		return "", err
	}

	out, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return flattenDescription(out), nil
}

// flattenDescription strips list markers and joins lines into one block
func flattenDescription(s string) string {
	lines := strings.Split(s, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
