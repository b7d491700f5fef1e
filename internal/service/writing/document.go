package writing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"episodic/internal/config"
	"episodic/internal/domain"
	models "episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/service/convert"
)

type documentService struct {
	docRepo    writingRepo.DocumentRepository
	converters *convert.Registry
	limit      int
	logger     *slog.Logger
}

// NewDocumentService creates the reference document service. limit caps
// the snippets returned per search. HTML uploads are stored as markdown.
func NewDocumentService(docRepo writingRepo.DocumentRepository, limit int, logger *slog.Logger) writingSvc.DocumentService {
	return &documentService{
		docRepo:    docRepo,
		converters: convert.NewRegistry(),
		limit:      limit,
		logger:     logger.With("service", "document"),
	}
}

func (s *documentService) Upload(ctx context.Context, req *writingSvc.UploadDocumentRequest) (*models.ReferenceDocument, error) {
	req.Filename = strings.TrimSpace(req.Filename)
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Filename, validation.Required, validation.Length(1, config.MaxDocumentFilenameLength)),
		validation.Field(&req.Content, validation.Required),
	); err != nil {
		return nil, domain.NewValidation("%v", err)
	}

	content, err := s.converters.Convert(ctx, req.Filename, req.Content)
	if err != nil {
		return nil, domain.NewValidation("%v", err)
	}
	if content == "" {
		return nil, domain.NewValidation("document %q has no text content", req.Filename)
	}

	doc := &models.ReferenceDocument{
		UserID:    req.UserID,
		Filename:  req.Filename,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info("document uploaded", "id", doc.ID, "filename", doc.Filename, "bytes", len(doc.Content))
	return doc, nil
}

// Search returns snippets for query; an empty query matches nothing
func (s *documentService) Search(ctx context.Context, userID, query string) ([]models.DocumentSnippet, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.DocumentSnippet{}, nil
	}
	if len(query) > config.MaxSearchQueryLength*4 {
		return nil, domain.NewValidation("query is too long")
	}

	docs, err := s.docRepo.Search(ctx, userID, query, s.limit)
	if err != nil {
		return nil, err
	}

	snippets := make([]models.DocumentSnippet, 0, len(docs))
	for _, d := range docs {
		snippets = append(snippets, models.DocumentSnippet{Filename: d.Filename, Snippet: d.Content})
	}
	return snippets, nil
}
