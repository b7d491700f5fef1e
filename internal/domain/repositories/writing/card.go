package writing

import (
	"context"

	"episodic/internal/domain/models/writing"
)

// CardRepository defines data access operations for reference cards.
type CardRepository interface {
	// List returns every card for the user, newest first
	List(ctx context.Context, userID string) ([]writing.ReferenceCard, error)

	// GetByID retrieves a single card
	GetByID(ctx context.Context, id, userID string) (*writing.ReferenceCard, error)

	// GetByIDs retrieves the cards in ids that exist. Order is unspecified.
	GetByIDs(ctx context.Context, ids []string, userID string) ([]writing.ReferenceCard, error)

	// CreateBatch inserts cards in order and assigns IDs and timestamps in place
	CreateBatch(ctx context.Context, userID string, cards []writing.ReferenceCard) error

	// Update writes pin, group and hold state
	Update(ctx context.Context, card *writing.ReferenceCard) error

	// BulkHold marks cards held (and unpinned) and returns how many matched
	BulkHold(ctx context.Context, ids []string, userID string) (int, error)
}
