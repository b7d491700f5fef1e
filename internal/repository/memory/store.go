// Package memory is an in-process implementation of the writing
// repositories. It backs the dev server when DATABASE_URL is unset and the
// service tests. Data does not survive a restart.
package memory

import (
	"context"
	"sync"

	"episodic/internal/domain/models/writing"
	"episodic/internal/domain/repositories"
)

// Store holds every table behind one lock.
type Store struct {
	mu         sync.RWMutex
	episodes   map[string]writing.Episode // Paragraphs left empty; see paragraphs
	paragraphs map[string]writing.Paragraph
	cards      map[string]writing.ReferenceCard
	cardOrder  []string
	documents  []writing.ReferenceDocument
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		episodes:   make(map[string]writing.Episode),
		paragraphs: make(map[string]writing.Paragraph),
		cards:      make(map[string]writing.ReferenceCard),
	}
}

// TransactionManager runs fn directly. Writes are applied immediately and
// are not rolled back when fn fails.
type TransactionManager struct{}

// NewTransactionManager returns the pass-through transaction manager
func NewTransactionManager() repositories.TransactionManager {
	return TransactionManager{}
}

// ExecTx implements repositories.TransactionManager
func (TransactionManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
