package writing

import (
	"context"

	"episodic/internal/domain/models/writing"
)

// DocumentService manages uploaded reference documents.
type DocumentService interface {
	Upload(ctx context.Context, req *UploadDocumentRequest) (*writing.ReferenceDocument, error)
	Search(ctx context.Context, userID, query string) ([]writing.DocumentSnippet, error)
}

// UploadDocumentRequest is the input to Upload
type UploadDocumentRequest struct {
	UserID   string `json:"-"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}
