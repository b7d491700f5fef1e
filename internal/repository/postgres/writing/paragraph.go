package writing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"episodic/internal/domain"
	models "episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
	"episodic/internal/repository/postgres"
)

// PostgresParagraphRepository implements the ParagraphRepository interface.
// Both history stacks are inline text[] columns on the paragraph row.
type PostgresParagraphRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewParagraphRepository creates a new paragraph repository
func NewParagraphRepository(config *postgres.RepositoryConfig) writingRepo.ParagraphRepository {
	return &PostgresParagraphRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetByID retrieves a paragraph owned by userID through its episode
func (r *PostgresParagraphRepository) GetByID(ctx context.Context, id, userID string) (*models.Paragraph, error) {
	if !postgres.IsStorageID(id) {
		return nil, domain.NewNotFound("paragraph", id)
	}

	query := fmt.Sprintf(`
		SELECT p.id, p.episode_id, p.content, p.order_index,
		       p.content_history, p.applied_card_history, p.created_at, p.updated_at
		FROM %s p
		JOIN %s e ON e.id = p.episode_id
		WHERE p.id = $1 AND e.user_id = $2
	`, r.tables.Paragraphs, r.tables.Episodes)

	var p models.Paragraph
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&p.ID,
		&p.EpisodeID,
		&p.Content,
		&p.Order,
		&p.ContentHistory,
		&p.AppliedCardHistory,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("paragraph", id)
		}
		return nil, fmt.Errorf("get paragraph: %w", err)
	}

	normalizeHistories(&p)
	return &p, nil
}

// ListByEpisode returns an episode's paragraphs ordered by order
func (r *PostgresParagraphRepository) ListByEpisode(ctx context.Context, episodeID string) ([]models.Paragraph, error) {
	query := fmt.Sprintf(`
		SELECT id, episode_id, content, order_index,
		       content_history, applied_card_history, created_at, updated_at
		FROM %s
		WHERE episode_id = $1
		ORDER BY order_index ASC
	`, r.tables.Paragraphs)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, episodeID)
	if err != nil {
		return nil, fmt.Errorf("list paragraphs: %w", err)
	}
	defer rows.Close()

	paragraphs := make([]models.Paragraph, 0)
	for rows.Next() {
		var p models.Paragraph
		if err := rows.Scan(
			&p.ID,
			&p.EpisodeID,
			&p.Content,
			&p.Order,
			&p.ContentHistory,
			&p.AppliedCardHistory,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan paragraph: %w", err)
		}
		normalizeHistories(&p)
		paragraphs = append(paragraphs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate paragraphs: %w", err)
	}

	return paragraphs, nil
}

// SaveLayout upserts content and order. Histories are only written on insert
// (as empty arrays) so a document save can never clobber revision history.
func (r *PostgresParagraphRepository) SaveLayout(ctx context.Context, episodeID string, paragraphs []models.Paragraph) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, episode_id, content, order_index, content_history, applied_card_history, created_at, updated_at)
		VALUES ($1, $2, $3, $4, '{}', '{}', $5, $5)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content,
		    order_index = EXCLUDED.order_index,
		    updated_at = EXCLUDED.updated_at
		WHERE %s.episode_id = EXCLUDED.episode_id
	`, r.tables.Paragraphs, r.tables.Paragraphs)

	executor := postgres.GetExecutor(ctx, r.pool)
	now := time.Now()
	for _, p := range paragraphs {
		if _, err := executor.Exec(ctx, query, p.ID, episodeID, p.Content, p.Order, now); err != nil {
			return postgres.TranslateWriteError(err, "save paragraph "+p.ID, "episode", episodeID)
		}
	}

	return nil
}

// DeleteExcept removes the episode's paragraphs not listed in keep
func (r *PostgresParagraphRepository) DeleteExcept(ctx context.Context, episodeID string, keep []string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE episode_id = $1 AND NOT (id::text = ANY($2))
	`, r.tables.Paragraphs)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, episodeID, keep)
	if err != nil {
		return fmt.Errorf("delete removed paragraphs: %w", err)
	}

	if n := result.RowsAffected(); n > 0 {
		r.logger.Debug("removed paragraphs", "episode_id", episodeID, "count", n)
	}
	return nil
}

// UpdateRevision writes content and both history arrays
func (r *PostgresParagraphRepository) UpdateRevision(ctx context.Context, p *models.Paragraph) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET content = $1, content_history = $2, applied_card_history = $3, updated_at = $4
		WHERE id = $5
	`, r.tables.Paragraphs)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		p.Content,
		p.ContentHistory,
		p.AppliedCardHistory,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update paragraph revision: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("paragraph", p.ID)
	}

	return nil
}

// normalizeHistories turns NULL arrays into empty slices so JSON renders []
func normalizeHistories(p *models.Paragraph) {
	if p.ContentHistory == nil {
		p.ContentHistory = []string{}
	}
	if p.AppliedCardHistory == nil {
		p.AppliedCardHistory = []string{}
	}
}
