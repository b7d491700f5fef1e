package writing

import (
	"context"

	"episodic/internal/domain/models/writing"
)

// EpisodeService owns episode ordering, metadata and persistence.
type EpisodeService interface {
	CreateEpisode(ctx context.Context, req *CreateEpisodeRequest) (*writing.Episode, error)
	GetEpisode(ctx context.Context, id, userID string) (*writing.Episode, error)
	ListEpisodes(ctx context.Context, userID string) ([]writing.EpisodeSummary, error)
	UpdateEpisode(ctx context.Context, id string, req *UpdateEpisodeRequest) (*writing.Episode, error)
	DeleteEpisode(ctx context.Context, id, userID string) error

	// Open returns the fallback snapshot when it is newer than the stored episode
	Open(ctx context.Context, id, userID string) (*OpenedEpisode, error)

	// Save persists the full document in one transaction
	Save(ctx context.Context, ep *writing.Episode) (*writing.Episode, error)

	// Autosave mirrors to the fallback store and schedules a debounced Save.
	// The result maps temporary paragraph ids to the ids they are stored under.
	Autosave(ctx context.Context, ep *writing.Episode) (*AutosaveResult, error)

	// FlushAutosave runs any pending autosave for the user now
	FlushAutosave(ctx context.Context, userID string)

	Reorder(ctx context.Context, req *ReorderRequest) (*writing.Episode, error)
	InsertParagraph(ctx context.Context, req *InsertParagraphRequest) (*writing.Episode, error)

	// Summarize generates and stores a one-sentence summary
	Summarize(ctx context.Context, id, userID string) (*writing.Episode, error)
}

// AutosaveResult reports the stored id of every temporary paragraph id in
// the draft. Clients should swap them in; re-sending a temp id is safe.
type AutosaveResult struct {
	ParagraphIDs map[string]string `json:"paragraph_ids"`
}

// OpenedEpisode is an episode plus whether it came from the fallback store
type OpenedEpisode struct {
	Episode  *writing.Episode `json:"episode"`
	Restored bool             `json:"restored"`
}

// CreateEpisodeRequest is the input to CreateEpisode
type CreateEpisodeRequest struct {
	UserID     string   `json:"-"`
	Title      string   `json:"title"`
	Paragraphs []string `json:"paragraphs"`
}

// UpdateEpisodeRequest edits title and/or summary
type UpdateEpisodeRequest struct {
	UserID  string  `json:"-"`
	Title   *string `json:"title"`
	Summary *string `json:"summary"`
}

// ReorderRequest lists every paragraph id in the new order
type ReorderRequest struct {
	UserID       string   `json:"-"`
	EpisodeID    string   `json:"-"`
	ParagraphIDs []string `json:"paragraph_ids"`
}

// InsertParagraphRequest inserts a blank paragraph after AfterID (end when empty)
type InsertParagraphRequest struct {
	UserID    string `json:"-"`
	EpisodeID string `json:"-"`
	AfterID   string `json:"after_id"`
}
