package memory

import (
	"context"
	"time"

	"episodic/internal/domain"
	"episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
)

type paragraphRepository struct {
	store *Store
}

// NewParagraphRepository returns a ParagraphRepository backed by store
func NewParagraphRepository(store *Store) writingRepo.ParagraphRepository {
	return &paragraphRepository{store: store}
}

func (r *paragraphRepository) GetByID(ctx context.Context, id, userID string) (*writing.Paragraph, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	p, ok := r.store.paragraphs[id]
	if !ok {
		return nil, domain.NewNotFound("paragraph", id)
	}
	if ep, ok := r.store.episodes[p.EpisodeID]; !ok || ep.UserID != userID {
		return nil, domain.NewNotFound("paragraph", id)
	}
	return p.Clone(), nil
}

func (r *paragraphRepository) ListByEpisode(ctx context.Context, episodeID string) ([]writing.Paragraph, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return r.store.paragraphsOf(episodeID), nil
}

func (r *paragraphRepository) SaveLayout(ctx context.Context, episodeID string, paragraphs []writing.Paragraph) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now()
	for _, p := range paragraphs {
		existing, ok := r.store.paragraphs[p.ID]
		if ok {
			if existing.EpisodeID != episodeID {
				continue
			}
			existing.Content = p.Content
			existing.Order = p.Order
			existing.UpdatedAt = now
			r.store.paragraphs[p.ID] = existing
			continue
		}

		row := writing.NewParagraph(p.ID, p.Order)
		row.EpisodeID = episodeID
		row.Content = p.Content
		r.store.paragraphs[p.ID] = row
	}
	return nil
}

func (r *paragraphRepository) DeleteExcept(ctx context.Context, episodeID string, keep []string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	kept := make(map[string]bool, len(keep))
	for _, id := range keep {
		kept[id] = true
	}
	for id, p := range r.store.paragraphs {
		if p.EpisodeID == episodeID && !kept[id] {
			delete(r.store.paragraphs, id)
		}
	}
	return nil
}

func (r *paragraphRepository) UpdateRevision(ctx context.Context, p *writing.Paragraph) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	existing, ok := r.store.paragraphs[p.ID]
	if !ok {
		return domain.NewNotFound("paragraph", p.ID)
	}
	existing.Content = p.Content
	existing.ContentHistory = append([]string{}, p.ContentHistory...)
	existing.AppliedCardHistory = append([]string{}, p.AppliedCardHistory...)
	existing.UpdatedAt = p.UpdatedAt
	r.store.paragraphs[p.ID] = existing
	return nil
}
