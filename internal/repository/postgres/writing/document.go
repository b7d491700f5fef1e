package writing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	models "episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
	"episodic/internal/repository/postgres"
)

// searchLanguage is the text search configuration. 'simple' does no
// stemming, which keeps matching predictable for non-English prose.
const searchLanguage = "simple"

// PostgresDocumentRepository implements the DocumentRepository interface
type PostgresDocumentRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewDocumentRepository creates a new reference document repository
func NewDocumentRepository(config *postgres.RepositoryConfig) writingRepo.DocumentRepository {
	return &PostgresDocumentRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// Create stores an uploaded document
func (r *PostgresDocumentRepository) Create(ctx context.Context, doc *models.ReferenceDocument) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, filename, content, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, doc.UserID, doc.Filename, doc.Content, doc.CreatedAt).
		Scan(&doc.ID, &doc.CreatedAt)
	if err != nil {
		return fmt.Errorf("create document: %w", err)
	}

	return nil
}

// Search runs a full-text query over document content.
//
//   - websearch_to_tsquery accepts free text (quotes, OR, -exclusions)
//   - ts_rank orders by relevance
//   - ts_headline replaces Content with a short snippet around the match
func (r *PostgresDocumentRepository) Search(ctx context.Context, userID, query string, limit int) ([]models.ReferenceDocument, error) {
	sql := fmt.Sprintf(`
		SELECT id, filename,
		       ts_headline($1, content, websearch_to_tsquery($1, $2),
		                   'MaxWords=40, MinWords=15, MaxFragments=1') AS snippet,
		       created_at
		FROM %s
		WHERE user_id = $3
		  AND to_tsvector($1, content) @@ websearch_to_tsquery($1, $2)
		ORDER BY ts_rank(to_tsvector($1, content), websearch_to_tsquery($1, $2)) DESC
		LIMIT $4
	`, r.tables.Documents)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, sql, searchLanguage, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("full-text search query failed: %w", err)
	}
	defer rows.Close()

	docs := make([]models.ReferenceDocument, 0)
	for rows.Next() {
		var doc models.ReferenceDocument
		if err := rows.Scan(&doc.ID, &doc.Filename, &doc.Content, &doc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan search result: %w", err)
		}
		doc.UserID = userID
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate search results: %w", err)
	}

	return docs, nil
}
