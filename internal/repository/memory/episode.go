package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"episodic/internal/domain"
	"episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
)

type episodeRepository struct {
	store *Store
}

// NewEpisodeRepository returns an EpisodeRepository backed by store
func NewEpisodeRepository(store *Store) writingRepo.EpisodeRepository {
	return &episodeRepository{store: store}
}

func (r *episodeRepository) Create(ctx context.Context, ep *writing.Episode) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	ep.ID = uuid.NewString()
	row := *ep
	row.Paragraphs = nil
	r.store.episodes[ep.ID] = row
	return nil
}

func (r *episodeRepository) GetByID(ctx context.Context, id, userID string) (*writing.Episode, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	row, ok := r.store.episodes[id]
	if !ok || row.UserID != userID {
		return nil, domain.NewNotFound("episode", id)
	}

	ep := row
	ep.Paragraphs = r.store.paragraphsOf(id)
	return &ep, nil
}

func (r *episodeRepository) List(ctx context.Context, userID string) ([]writing.EpisodeSummary, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	rows := make([]writing.Episode, 0)
	for _, ep := range r.store.episodes {
		if ep.UserID == userID {
			rows = append(rows, ep)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CreatedAt.After(rows[j].CreatedAt) })

	out := make([]writing.EpisodeSummary, len(rows))
	for i, ep := range rows {
		out[i] = writing.EpisodeSummary{ID: ep.ID, Title: ep.Title, Summary: ep.Summary, UpdatedAt: ep.UpdatedAt}
	}
	return out, nil
}

func (r *episodeRepository) UpdateMeta(ctx context.Context, ep *writing.Episode) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.episodes[ep.ID]
	if !ok || row.UserID != ep.UserID {
		return domain.NewNotFound("episode", ep.ID)
	}
	row.Title = ep.Title
	row.Summary = ep.Summary
	row.UpdatedAt = ep.UpdatedAt
	r.store.episodes[ep.ID] = row
	return nil
}

func (r *episodeRepository) Delete(ctx context.Context, id, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	row, ok := r.store.episodes[id]
	if !ok || row.UserID != userID {
		return domain.NewNotFound("episode", id)
	}
	delete(r.store.episodes, id)
	for pid, p := range r.store.paragraphs {
		if p.EpisodeID == id {
			delete(r.store.paragraphs, pid)
		}
	}
	return nil
}

// paragraphsOf returns deep copies ordered by Order. Caller holds the lock.
func (s *Store) paragraphsOf(episodeID string) []writing.Paragraph {
	out := make([]writing.Paragraph, 0)
	for _, p := range s.paragraphs {
		if p.EpisodeID == episodeID {
			out = append(out, *p.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
