package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"episodic/internal/domain"
)

func TestTranslateWriteError(t *testing.T) {
	dup := fmt.Errorf("exec: %w", &pgconn.PgError{Code: "23505"})
	err := TranslateWriteError(dup, "save paragraph", "paragraph", "p1")
	assert.True(t, errors.Is(err, domain.ErrConflict))

	fk := &pgconn.PgError{Code: "23503"}
	err = TranslateWriteError(fk, "save paragraph", "episode", "e1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	other := errors.New("connection reset")
	err = TranslateWriteError(other, "save paragraph", "paragraph", "p1")
	assert.ErrorIs(t, err, other)
	assert.Contains(t, err.Error(), "save paragraph")
}

func TestIsPgNoRowsError(t *testing.T) {
	assert.True(t, IsPgNoRowsError(fmt.Errorf("get: %w", pgx.ErrNoRows)))
	assert.False(t, IsPgNoRowsError(errors.New("boom")))
}
