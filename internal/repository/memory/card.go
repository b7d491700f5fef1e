package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"episodic/internal/domain"
	"episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
)

type cardRepository struct {
	store *Store
}

// NewCardRepository returns a CardRepository backed by store
func NewCardRepository(store *Store) writingRepo.CardRepository {
	return &cardRepository{store: store}
}

func (r *cardRepository) List(ctx context.Context, userID string) ([]writing.ReferenceCard, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	// Newest first: walk insertion order backwards
	out := make([]writing.ReferenceCard, 0)
	for i := len(r.store.cardOrder) - 1; i >= 0; i-- {
		c := r.store.cards[r.store.cardOrder[i]]
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *cardRepository) GetByID(ctx context.Context, id, userID string) (*writing.ReferenceCard, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	c, ok := r.store.cards[id]
	if !ok || c.UserID != userID {
		return nil, domain.NewNotFound("card", id)
	}
	return &c, nil
}

func (r *cardRepository) GetByIDs(ctx context.Context, ids []string, userID string) ([]writing.ReferenceCard, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	seen := make(map[string]bool, len(ids))
	out := make([]writing.ReferenceCard, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if c, ok := r.store.cards[id]; ok && c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *cardRepository) CreateBatch(ctx context.Context, userID string, cards []writing.ReferenceCard) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for i := range cards {
		cards[i].ID = uuid.NewString()
		cards[i].UserID = userID
		r.store.cards[cards[i].ID] = cards[i]
		r.store.cardOrder = append(r.store.cardOrder, cards[i].ID)
	}
	return nil
}

func (r *cardRepository) Update(ctx context.Context, card *writing.ReferenceCard) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.cards[card.ID]
	if !ok || existing.UserID != card.UserID {
		return domain.NewNotFound("card", card.ID)
	}
	existing.IsPinned = card.IsPinned
	existing.Group = card.Group
	existing.IsInHold = card.IsInHold
	existing.UpdatedAt = card.UpdatedAt
	r.store.cards[card.ID] = existing
	return nil
}

func (r *cardRepository) BulkHold(ctx context.Context, ids []string, userID string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	matched := 0
	for _, id := range ids {
		c, ok := r.store.cards[id]
		if !ok || c.UserID != userID {
			continue
		}
		c.Hold()
		c.UpdatedAt = now
		r.store.cards[id] = c
		matched++
	}
	return matched, nil
}
