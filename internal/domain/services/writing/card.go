package writing

import (
	"context"

	"episodic/internal/domain/models/writing"
)

// CardService is the per-user entry point to the card store.
type CardService interface {
	// Open initializes (or returns) the user's card store
	Open(ctx context.Context, userID string) (CardStore, error)

	// Release tears the user's card store down
	Release(userID string)

	// GenerateCards requests a new batch of cards for a paragraph and stores them
	GenerateCards(ctx context.Context, req *GenerateCardsRequest) ([]writing.ReferenceCard, error)
}

// CardStore is the single source of truth for one user's reference cards.
type CardStore interface {
	// Initialize loads the full card set from persistence
	Initialize(ctx context.Context) error

	// AddCards persists a batch and appends it in insertion order
	AddCards(ctx context.Context, cards []writing.ReferenceCard) ([]writing.ReferenceCard, error)

	// UpdateCard applies optimistically and rolls back on persistence failure
	UpdateCard(ctx context.Context, card writing.ReferenceCard) (*writing.ReferenceCard, error)

	// BulkHold archives cards in one request. Idempotent.
	BulkHold(ctx context.Context, ids []string) (int, error)

	// Card returns a copy of one card
	Card(id string) (*writing.ReferenceCard, bool)

	// ActiveCards returns non-held cards, pinned first then newest first
	ActiveCards() []writing.ReferenceCard

	// HeldCards returns held cards only
	HeldCards() []writing.ReferenceCard

	// ContextCards returns the cards allowed into generation prompts
	ContextCards() []writing.ReferenceCard
}

// GenerateCardsRequest is the input to GenerateCards
type GenerateCardsRequest struct {
	UserID      string `json:"-"`
	ParagraphID string `json:"-"`
}

// UpdateCardRequest is a partial card update (PATCH semantics)
type UpdateCardRequest struct {
	IsPinned *bool   `json:"is_pinned"`
	IsInHold *bool   `json:"is_in_hold"`
	Group    *string `json:"group"`
	// ClearGroup is set when the JSON carried "group": null
	ClearGroup bool `json:"-"`
}

// CreateCardRequest is one card in a manual create batch
type CreateCardRequest struct {
	Title    string  `json:"title"`
	Summary  string  `json:"summary"`
	IsPinned bool    `json:"is_pinned"`
	Group    *string `json:"group"`
	IsInHold bool    `json:"is_in_hold"`
}

// BulkHoldRequest is the input to BulkHold
type BulkHoldRequest struct {
	CardIDs []string `json:"card_ids"`
}

// Apply merges the patch into card
func (r *UpdateCardRequest) Apply(card *writing.ReferenceCard) {
	if r.IsPinned != nil {
		card.IsPinned = *r.IsPinned
	}
	if r.IsInHold != nil {
		card.IsInHold = *r.IsInHold
	}
	if r.ClearGroup {
		card.Group = nil
	} else if r.Group != nil {
		group := *r.Group
		card.Group = &group
	}
}

// ToCard converts a create request into an unsaved card
func (r *CreateCardRequest) ToCard() writing.ReferenceCard {
	return writing.ReferenceCard{
		Title:    r.Title,
		Summary:  r.Summary,
		IsPinned: r.IsPinned,
		Group:    r.Group,
		IsInHold: r.IsInHold,
	}
}
