package memory

import (
	"context"
	"encoding/json"
	"sync"

	"episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
)

// snapshotStore keeps each user's slot as encoded JSON, so a later edit of
// the caller's episode value cannot leak into the stored snapshot.
type snapshotStore struct {
	mu    sync.Mutex
	slots map[string][]byte
}

// NewSnapshotStore returns an in-process SnapshotStore
func NewSnapshotStore() writingRepo.SnapshotStore {
	return &snapshotStore{slots: make(map[string][]byte)}
}

func (s *snapshotStore) Put(ctx context.Context, userID string, ep *writing.Episode) error {
	raw, err := json.Marshal(ep)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.slots[userID] = raw
	s.mu.Unlock()
	return nil
}

func (s *snapshotStore) Get(ctx context.Context, userID string) (*writing.Episode, error) {
	s.mu.Lock()
	raw, ok := s.slots[userID]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var ep writing.Episode
	if err := json.Unmarshal(raw, &ep); err != nil {
		return nil, err
	}
	ep.UserID = userID
	return &ep, nil
}

func (s *snapshotStore) Clear(ctx context.Context, userID string) error {
	s.mu.Lock()
	delete(s.slots, userID)
	s.mu.Unlock()
	return nil
}
