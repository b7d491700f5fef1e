package writing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"episodic/internal/config"
	"episodic/internal/domain"
	models "episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
	writingSvc "episodic/internal/domain/services/writing"
)

// cardStore holds one user's cards in insertion order.
//
// writeMu serializes mutations end to end, including the persistence call,
// so a rollback always restores the state the mutation started from.
// mu guards the slice for readers.
type cardStore struct {
	userID  string
	repo    writingRepo.CardRepository
	logger  *slog.Logger
	writeMu sync.Mutex
	mu      sync.RWMutex
	cards   []models.ReferenceCard
}

func newCardStore(userID string, repo writingRepo.CardRepository, logger *slog.Logger) *cardStore {
	return &cardStore{
		userID: userID,
		repo:   repo,
		logger: logger.With("user_id", userID),
	}
}

// Initialize replaces the in-memory set with what persistence holds
func (s *cardStore) Initialize(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	cards, err := s.repo.List(ctx, s.userID)
	if err != nil {
		return fmt.Errorf("failed to load cards: %w", err)
	}

	// List is newest first; the store keeps insertion order
	ordered := make([]models.ReferenceCard, len(cards))
	for i, c := range cards {
		ordered[len(cards)-1-i] = c
	}

	s.mu.Lock()
	s.cards = ordered
	s.mu.Unlock()

	s.logger.Debug("card store initialized", "cards", len(ordered))
	return nil
}

// AddCards persists the batch, then appends it. A failed insert leaves the
// store as it was.
func (s *cardStore) AddCards(ctx context.Context, cards []models.ReferenceCard) ([]models.ReferenceCard, error) {
	if len(cards) == 0 {
		return nil, domain.NewValidation("card batch is empty")
	}

	batch := make([]models.ReferenceCard, len(cards))
	now := time.Now()
	for i, c := range cards {
		c.ID = ""
		c.UserID = s.userID
		c.Normalize()
		if err := validateCard(&c); err != nil {
			return nil, domain.NewValidation("card %d: %v", i, err)
		}
		c.CreatedAt = now
		c.UpdatedAt = now
		batch[i] = c
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if err := s.repo.CreateBatch(ctx, s.userID, batch); err != nil {
		return nil, fmt.Errorf("failed to store cards: %w", err)
	}

	s.mu.Lock()
	s.cards = append(s.cards, batch...)
	s.mu.Unlock()

	s.logger.Info("cards added", "count", len(batch))
	return append([]models.ReferenceCard(nil), batch...), nil
}

// UpdateCard applies the new pin, group and hold state optimistically and
// restores the previous value if persistence fails.
func (s *cardStore) UpdateCard(ctx context.Context, card models.ReferenceCard) (*models.ReferenceCard, error) {
	card.Normalize()
	if err := validation.Validate(card.Group, validation.NilOrNotEmpty, validation.Length(1, config.MaxCardGroupLength)); err != nil {
		return nil, domain.NewValidation("group: %v", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	idx := s.indexOf(card.ID)
	if idx < 0 {
		s.mu.Unlock()
		return nil, domain.NewNotFound("card", card.ID)
	}
	previous := s.cards[idx]
	next := previous
	next.IsPinned = card.IsPinned
	next.IsInHold = card.IsInHold
	next.Group = card.Group
	next.UpdatedAt = time.Now()
	s.cards[idx] = next
	s.mu.Unlock()

	if err := s.repo.Update(ctx, &next); err != nil {
		s.mu.Lock()
		if i := s.indexOf(card.ID); i >= 0 {
			s.cards[i] = previous
		}
		s.mu.Unlock()
		s.logger.Warn("card update rolled back", "card_id", card.ID, "error", err)
		return nil, fmt.Errorf("failed to update card: %w", err)
	}

	return &next, nil
}

// BulkHold archives every listed card in one persistence call. Holding an
// already-held card is a no-op, so repeating the call is safe.
func (s *cardStore) BulkHold(ctx context.Context, ids []string) (int, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return 0, domain.NewValidation("card_ids must not be empty")
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	previous := make(map[string]models.ReferenceCard, len(unique))
	now := time.Now()
	for _, id := range unique {
		idx := s.indexOf(id)
		if idx < 0 {
			continue
		}
		previous[id] = s.cards[idx]
		s.cards[idx].Hold()
		s.cards[idx].UpdatedAt = now
	}
	s.mu.Unlock()

	matched, err := s.repo.BulkHold(ctx, unique, s.userID)
	if err != nil {
		s.mu.Lock()
		for id, card := range previous {
			if i := s.indexOf(id); i >= 0 {
				s.cards[i] = card
			}
		}
		s.mu.Unlock()
		s.logger.Warn("bulk hold rolled back", "cards", len(unique), "error", err)
		return 0, fmt.Errorf("failed to hold cards: %w", err)
	}

	s.logger.Info("cards held", "requested", len(unique), "matched", matched)
	return matched, nil
}

func (s *cardStore) Card(id string) (*models.ReferenceCard, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx := s.indexOf(id); idx >= 0 {
		c := s.cards[idx]
		return &c, true
	}
	return nil, false
}

func (s *cardStore) ActiveCards() []models.ReferenceCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.SortActive(s.cards)
}

func (s *cardStore) HeldCards() []models.ReferenceCard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return models.FilterHeld(s.cards)
}

// ContextCards is the active set; held cards never reach a prompt
func (s *cardStore) ContextCards() []models.ReferenceCard {
	return s.ActiveCards()
}

// indexOf must be called with mu held
func (s *cardStore) indexOf(id string) int {
	for i := range s.cards {
		if s.cards[i].ID == id {
			return i
		}
	}
	return -1
}

func validateCard(c *models.ReferenceCard) error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Title, validation.Required, validation.Length(1, config.MaxCardTitleLength)),
		validation.Field(&c.Summary, validation.Required),
		validation.Field(&c.Group, validation.NilOrNotEmpty, validation.Length(1, config.MaxCardGroupLength)),
	)
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

var _ writingSvc.CardStore = (*cardStore)(nil)
