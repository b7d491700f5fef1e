package writing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"episodic/internal/domain"
	models "episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
	"episodic/internal/repository/postgres"
)

// PostgresEpisodeRepository implements the EpisodeRepository interface
type PostgresEpisodeRepository struct {
	pool       *pgxpool.Pool
	tables     *postgres.TableNames
	paragraphs writingRepo.ParagraphRepository
	logger     *slog.Logger
}

// NewEpisodeRepository creates a new episode repository
func NewEpisodeRepository(config *postgres.RepositoryConfig, paragraphs writingRepo.ParagraphRepository) writingRepo.EpisodeRepository {
	return &PostgresEpisodeRepository{
		pool:       config.Pool,
		tables:     config.Tables,
		paragraphs: paragraphs,
		logger:     config.Logger,
	}
}

// Create inserts the episode row
func (r *PostgresEpisodeRepository) Create(ctx context.Context, ep *models.Episode) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, title, summary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, r.tables.Episodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		ep.UserID,
		ep.Title,
		ep.Summary,
		ep.CreatedAt,
		ep.UpdatedAt,
	).Scan(&ep.ID, &ep.CreatedAt, &ep.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create episode: %w", err)
	}

	return nil
}

// GetByID retrieves an episode with its ordered paragraphs
func (r *PostgresEpisodeRepository) GetByID(ctx context.Context, id, userID string) (*models.Episode, error) {
	if !postgres.IsStorageID(id) {
		return nil, domain.NewNotFound("episode", id)
	}

	query := fmt.Sprintf(`
		SELECT id, user_id, title, summary, created_at, updated_at
		FROM %s
		WHERE id = $1 AND user_id = $2
	`, r.tables.Episodes)

	var ep models.Episode
	executor := postgres.GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id, userID).Scan(
		&ep.ID,
		&ep.UserID,
		&ep.Title,
		&ep.Summary,
		&ep.CreatedAt,
		&ep.UpdatedAt,
	)
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("episode", id)
		}
		return nil, fmt.Errorf("get episode: %w", err)
	}

	paragraphs, err := r.paragraphs.ListByEpisode(ctx, ep.ID)
	if err != nil {
		return nil, err
	}
	ep.Paragraphs = paragraphs

	return &ep, nil
}

// List returns the user's episodes, newest first
func (r *PostgresEpisodeRepository) List(ctx context.Context, userID string) ([]models.EpisodeSummary, error) {
	query := fmt.Sprintf(`
		SELECT id, title, summary, updated_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, r.tables.Episodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list episodes: %w", err)
	}
	defer rows.Close()

	episodes := make([]models.EpisodeSummary, 0)
	for rows.Next() {
		var s models.EpisodeSummary
		if err := rows.Scan(&s.ID, &s.Title, &s.Summary, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan episode: %w", err)
		}
		episodes = append(episodes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate episodes: %w", err)
	}

	return episodes, nil
}

// UpdateMeta writes title, summary and updated_at
func (r *PostgresEpisodeRepository) UpdateMeta(ctx context.Context, ep *models.Episode) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, summary = $2, updated_at = $3
		WHERE id = $4 AND user_id = $5
	`, r.tables.Episodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, ep.Title, ep.Summary, ep.UpdatedAt, ep.ID, ep.UserID)
	if err != nil {
		return fmt.Errorf("update episode: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("episode", ep.ID)
	}

	return nil
}

// Delete removes the episode; paragraphs cascade
func (r *PostgresEpisodeRepository) Delete(ctx context.Context, id, userID string) error {
	if !postgres.IsStorageID(id) {
		return domain.NewNotFound("episode", id)
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND user_id = $2`, r.tables.Episodes)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete episode: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("episode", id)
	}

	return nil
}
