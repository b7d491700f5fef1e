package writing

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"episodic/internal/domain"
	"episodic/internal/domain/repositories"
	models "episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
	"episodic/internal/repository/postgres"
)

const cardColumns = `id, user_id, title, summary, is_pinned, group_name, is_in_hold, raw_context, created_at, updated_at`

// PostgresCardRepository implements the CardRepository interface
type PostgresCardRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewCardRepository creates a new reference card repository
func NewCardRepository(config *postgres.RepositoryConfig) writingRepo.CardRepository {
	return &PostgresCardRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// List returns every card for the user, newest first
func (r *PostgresCardRepository) List(ctx context.Context, userID string) ([]models.ReferenceCard, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, cardColumns, r.tables.Cards)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	return collectCards(rows)
}

// GetByID retrieves a single card
func (r *PostgresCardRepository) GetByID(ctx context.Context, id, userID string) (*models.ReferenceCard, error) {
	if !postgres.IsStorageID(id) {
		return nil, domain.NewNotFound("card", id)
	}

	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1 AND user_id = $2`, cardColumns, r.tables.Cards)

	executor := postgres.GetExecutor(ctx, r.pool)
	card, err := scanCard(executor.QueryRow(ctx, query, id, userID))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, domain.NewNotFound("card", id)
		}
		return nil, fmt.Errorf("get card: %w", err)
	}

	return card, nil
}

// GetByIDs retrieves the subset of ids that exist (filter-by-id-set)
func (r *PostgresCardRepository) GetByIDs(ctx context.Context, ids []string, userID string) ([]models.ReferenceCard, error) {
	ids = postgres.StorageIDs(ids)
	if len(ids) == 0 {
		return []models.ReferenceCard{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE user_id = $1 AND id::text = ANY($2)
	`, cardColumns, r.tables.Cards)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID, ids)
	if err != nil {
		return nil, fmt.Errorf("get cards by id: %w", err)
	}
	return collectCards(rows)
}

// CreateBatch inserts cards in order, filling IDs and timestamps in place.
// The batch is atomic: it joins the caller's transaction or opens its own.
func (r *PostgresCardRepository) CreateBatch(ctx context.Context, userID string, cards []models.ReferenceCard) error {
	if repositories.GetTx(ctx) != nil {
		return r.insertCards(ctx, postgres.GetExecutor(ctx, r.pool), userID, cards)
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return r.insertCards(ctx, tx, userID, cards)
	})
}

func (r *PostgresCardRepository) insertCards(ctx context.Context, executor repositories.DBTX, userID string, cards []models.ReferenceCard) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (user_id, title, summary, is_pinned, group_name, is_in_hold, raw_context, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`, r.tables.Cards)

	inserted := make([]models.ReferenceCard, len(cards))
	copy(inserted, cards)
	for i := range inserted {
		card := &inserted[i]
		raw, err := encodeRawContext(card.RawContext)
		if err != nil {
			return err
		}
		err = executor.QueryRow(ctx, query,
			userID,
			card.Title,
			card.Summary,
			card.IsPinned,
			card.Group,
			card.IsInHold,
			raw,
			card.CreatedAt,
			card.UpdatedAt,
		).Scan(&card.ID, &card.CreatedAt, &card.UpdatedAt)
		if err != nil {
			return postgres.TranslateWriteError(err, fmt.Sprintf("create card %q", card.Title), "card", card.Title)
		}
		card.UserID = userID
	}

	// Only publish ids once every row is in
	copy(cards, inserted)
	return nil
}

// Update writes pin, group and hold state
func (r *PostgresCardRepository) Update(ctx context.Context, card *models.ReferenceCard) error {
	if !postgres.IsStorageID(card.ID) {
		return domain.NewNotFound("card", card.Title)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET is_pinned = $1, group_name = $2, is_in_hold = $3, updated_at = $4
		WHERE id = $5 AND user_id = $6
	`, r.tables.Cards)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		card.IsPinned,
		card.Group,
		card.IsInHold,
		card.UpdatedAt,
		card.ID,
		card.UserID,
	)
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.NewNotFound("card", card.Title)
	}

	return nil
}

// BulkHold marks cards held and unpinned in one statement. Already held
// cards match too, so repeating the call is harmless.
func (r *PostgresCardRepository) BulkHold(ctx context.Context, ids []string, userID string) (int, error) {
	ids = postgres.StorageIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET is_in_hold = true, is_pinned = false, updated_at = $1
		WHERE user_id = $2 AND id::text = ANY($3)
	`, r.tables.Cards)

	executor := postgres.GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, time.Now(), userID, ids)
	if err != nil {
		return 0, fmt.Errorf("bulk hold cards: %w", err)
	}

	return int(result.RowsAffected()), nil
}

func collectCards(rows pgx.Rows) ([]models.ReferenceCard, error) {
	defer rows.Close()

	cards := make([]models.ReferenceCard, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, *card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cards: %w", err)
	}
	return cards, nil
}

func scanCard(row pgx.Row) (*models.ReferenceCard, error) {
	var card models.ReferenceCard
	var raw []byte
	err := row.Scan(
		&card.ID,
		&card.UserID,
		&card.Title,
		&card.Summary,
		&card.IsPinned,
		&card.Group,
		&card.IsInHold,
		&raw,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(raw) > 0 {
		var rc models.RawContext
		if err := json.Unmarshal(raw, &rc); err != nil {
			return nil, fmt.Errorf("decode raw_context for card %s: %w", card.ID, err)
		}
		card.RawContext = &rc
	}
	return &card, nil
}

// encodeRawContext renders the JSONB parameter; nil stays SQL NULL
func encodeRawContext(rc *models.RawContext) ([]byte, error) {
	if rc == nil {
		return nil, nil
	}
	raw, err := json.Marshal(rc)
	if err != nil {
		return nil, fmt.Errorf("encode raw_context: %w", err)
	}
	return raw, nil
}
