package writing

import (
	"context"

	"episodic/internal/domain/models/writing"
)

// EpisodeRepository defines data access operations for episodes.
// Paragraph rows are handled by ParagraphRepository.
type EpisodeRepository interface {
	// Create inserts the episode row and assigns its ID
	Create(ctx context.Context, ep *writing.Episode) error

	// GetByID retrieves an episode with its paragraphs ordered by order
	GetByID(ctx context.Context, id, userID string) (*writing.Episode, error)

	// List returns the user's episodes, newest first
	List(ctx context.Context, userID string) ([]writing.EpisodeSummary, error)

	// UpdateMeta writes title, summary and updated_at
	UpdateMeta(ctx context.Context, ep *writing.Episode) error

	// Delete removes the episode and its paragraphs
	Delete(ctx context.Context, id, userID string) error
}
