package writing

import (
	"context"

	"episodic/internal/domain/models/writing"
)

// DocumentRepository stores uploaded reference documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *writing.ReferenceDocument) error

	// Search returns matching documents with Content replaced by a snippet
	Search(ctx context.Context, userID, query string, limit int) ([]writing.ReferenceDocument, error)
}
