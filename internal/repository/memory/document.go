package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
)

// snippetRadius is how many bytes of context surround a match, matching
// the keyword-window search the first prototype used for uploaded files.
const snippetRadius = 30

type documentRepository struct {
	store *Store
}

// NewDocumentRepository returns a DocumentRepository backed by store
func NewDocumentRepository(store *Store) writingRepo.DocumentRepository {
	return &documentRepository{store: store}
}

func (r *documentRepository) Create(ctx context.Context, doc *writing.ReferenceDocument) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	doc.ID = uuid.NewString()
	r.store.documents = append(r.store.documents, *doc)
	return nil
}

// Search does case-insensitive substring matching on any query word
func (r *documentRepository) Search(ctx context.Context, userID, query string, limit int) ([]writing.ReferenceDocument, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	words := strings.Fields(strings.ToLower(query))
	out := make([]writing.ReferenceDocument, 0)
	for _, doc := range r.store.documents {
		if doc.UserID != userID {
			continue
		}
		lower := strings.ToLower(doc.Content)
		for _, w := range words {
			idx := strings.Index(lower, w)
			if idx < 0 {
				continue
			}
			start := max(0, idx-snippetRadius)
			end := min(len(doc.Content), idx+len(w)+snippetRadius)
			hit := doc
			hit.Content = doc.Content[start:end]
			out = append(out, hit)
			break
		}
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
