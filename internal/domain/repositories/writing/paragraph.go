package writing

import (
	"context"

	"episodic/internal/domain/models/writing"
)

// ParagraphRepository defines data access operations for paragraphs.
type ParagraphRepository interface {
	// GetByID retrieves a paragraph owned (through its episode) by userID
	GetByID(ctx context.Context, id, userID string) (*writing.Paragraph, error)

	// ListByEpisode returns an episode's paragraphs ordered by order
	ListByEpisode(ctx context.Context, episodeID string) ([]writing.Paragraph, error)

	// SaveLayout upserts content and order for every paragraph. New rows are
	// inserted with empty histories; existing histories are never written.
	SaveLayout(ctx context.Context, episodeID string, paragraphs []writing.Paragraph) error

	// DeleteExcept removes the episode's paragraphs whose IDs are not in keep
	DeleteExcept(ctx context.Context, episodeID string, keep []string) error

	// UpdateRevision writes content and both history arrays
	UpdateRevision(ctx context.Context, p *writing.Paragraph) error
}
