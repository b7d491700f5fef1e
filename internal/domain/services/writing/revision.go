package writing

import (
	"context"

	"episodic/internal/domain/models/writing"
)

// RevisionService owns the paragraph revision state machine.
type RevisionService interface {
	// ApplyCard rewrites the paragraph from a persisted card and records both histories
	ApplyCard(ctx context.Context, req *ApplyCardRequest) (*writing.Paragraph, error)

	// ApplyTransientCard applies a card that only exists inside a triage session
	ApplyTransientCard(ctx context.Context, userID, paragraphID string, card *writing.ReferenceCard) (*writing.Paragraph, error)

	// Undo restores the previous content. Applied-card history is untouched.
	Undo(ctx context.Context, userID, paragraphID string) (*writing.Paragraph, error)

	// GetCardHistory resolves applied cards, most recent first, unknown ids dropped
	GetCardHistory(ctx context.Context, userID, paragraphID string) ([]writing.ReferenceCard, error)

	// Expand rewrites the paragraph with richer description (content history only)
	Expand(ctx context.Context, userID, paragraphID string) (*writing.Paragraph, error)

	// Describe generates a description of the paragraph without mutating it
	Describe(ctx context.Context, userID, paragraphID string) (string, error)

	// GetParagraph returns the current paragraph state
	GetParagraph(ctx context.Context, userID, paragraphID string) (*writing.Paragraph, error)
}

// ApplyCardRequest is the input to ApplyCard
type ApplyCardRequest struct {
	UserID      string `json:"-"`
	ParagraphID string `json:"-"`
	CardID      string `json:"reference_card_id"`
}
