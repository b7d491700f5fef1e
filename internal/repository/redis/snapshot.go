// Package redis holds the Redis-backed autosave fallback slot.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
)

const keyPrefix = "autosave-episode:"

type snapshotStore struct {
	rdb    *goredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewClient dials addr and verifies the connection with a ping.
func NewClient(ctx context.Context, addr string) (*goredis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// NewSnapshotStore stores one slot per user under autosave-episode:{userID}.
// A zero ttl keeps slots until cleared.
func NewSnapshotStore(rdb *goredis.Client, ttl time.Duration, logger *slog.Logger) writingRepo.SnapshotStore {
	return &snapshotStore{
		rdb:    rdb,
		ttl:    ttl,
		logger: logger.With("store", "redis_snapshot"),
	}
}

func slotKey(userID string) string {
	return keyPrefix + userID
}

func (s *snapshotStore) Put(ctx context.Context, userID string, ep *writing.Episode) error {
	raw, err := json.Marshal(ep)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, slotKey(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func (s *snapshotStore) Get(ctx context.Context, userID string) (*writing.Episode, error) {
	raw, err := s.rdb.Get(ctx, slotKey(userID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var ep writing.Episode
	if err := json.Unmarshal(raw, &ep); err != nil {
		// A corrupt slot is dropped rather than blocking every open
		s.logger.Warn("discarding unreadable snapshot", "user_id", userID, "error", err)
		_ = s.Clear(ctx, userID)
		return nil, nil
	}
	ep.UserID = userID
	return &ep, nil
}

func (s *snapshotStore) Clear(ctx context.Context, userID string) error {
	if err := s.rdb.Del(ctx, slotKey(userID)).Err(); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
