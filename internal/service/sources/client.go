// Package sources gathers the material a card batch is generated from:
// uploaded-document snippets, web results and the author's episode digests.
package sources

import (
	"context"

	"episodic/internal/domain/models/writing"
)

// WebSearcher is an external web search API.
// Implementations include Tavily and DuckDuckGo.
type WebSearcher interface {
	// Name identifies the searcher in logs
	Name() string

	// Search returns at most maxResults results for query
	Search(ctx context.Context, query string, maxResults int) ([]writing.WebResult, error)
}

// DocumentSearcher searches the author's uploaded documents
type DocumentSearcher interface {
	Search(ctx context.Context, userID, query string) ([]writing.DocumentSnippet, error)
}

// EpisodeLister lists the author's episodes for the digest source
type EpisodeLister interface {
	List(ctx context.Context, userID string) ([]writing.EpisodeSummary, error)
}
