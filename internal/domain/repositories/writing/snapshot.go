package writing

import (
	"context"

	"episodic/internal/domain/models/writing"
)

// SnapshotStore is the per-user fallback slot holding the latest in-progress
// episode, so unsaved edits survive until the debounced save lands.
type SnapshotStore interface {
	// Put overwrites the user's slot
	Put(ctx context.Context, userID string, ep *writing.Episode) error

	// Get returns the slot contents, or nil when empty
	Get(ctx context.Context, userID string) (*writing.Episode, error)

	// Clear empties the slot
	Clear(ctx context.Context, userID string) error
}
