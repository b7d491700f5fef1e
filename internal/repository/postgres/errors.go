package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"episodic/internal/domain"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsPgNoRowsError reports whether a single-row query matched nothing
func IsPgNoRowsError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// TranslateWriteError maps constraint failures on a write of resource/id to
// domain errors. A duplicate key is a conflict; a dangling reference means
// the parent row (an episode, usually deleted mid-save) is gone. Anything
// else is wrapped with op.
func TranslateWriteError(err error, op, resource, id string) error {
	switch pgCode(err) {
	case codeUniqueViolation:
		return &domain.ConflictError{
			Message:      fmt.Sprintf("%s %s already exists", resource, id),
			ResourceType: resource,
			ResourceID:   id,
		}
	case codeForeignKeyViolation:
		return domain.NewNotFound(resource, id)
	}
	return fmt.Errorf("%s: %w", op, err)
}
