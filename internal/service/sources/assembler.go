package sources

import (
	"context"
	"log/slog"
	"strings"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"episodic/internal/config"
	"episodic/internal/domain/models/writing"
)

// Assembler fans out to every configured source and merges what comes back
// into one RawContext. A failing source is logged and contributes nothing.
type Assembler struct {
	documents DocumentSearcher
	web       WebSearcher
	episodes  EpisodeLister
	webLimit  int
	logger    *slog.Logger
}

// NewAssembler wires the sources. Any of them may be nil.
func NewAssembler(documents DocumentSearcher, web WebSearcher, episodes EpisodeLister, webLimit int, logger *slog.Logger) *Assembler {
	return &Assembler{
		documents: documents,
		web:       web,
		episodes:  episodes,
		webLimit:  webLimit,
		logger:    logger.With("component", "sources"),
	}
}

// SearchQuery derives the search query from paragraph content: whitespace
// collapsed and cut to the maximum query length on a rune boundary.
func SearchQuery(content string) string {
	q := strings.Join(strings.Fields(content), " ")
	if utf8.RuneCountInString(q) <= config.MaxSearchQueryLength {
		return q
	}
	runes := []rune(q)
	return string(runes[:config.MaxSearchQueryLength])
}

// Gather collects context for one paragraph. It never fails; the result
// may be empty.
func (a *Assembler) Gather(ctx context.Context, userID, content string) *writing.RawContext {
	query := SearchQuery(content)
	rc := &writing.RawContext{}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)

	if a.documents != nil && query != "" {
		g.Go(func() error {
			snippets, err := a.documents.Search(gctx, userID, query)
			if err != nil {
				a.logger.Warn("document search failed", "user_id", userID, "error", err)
				return nil
			}
			rc.DocumentSnippets = snippets
			return nil
		})
	}

	if a.web != nil && query != "" {
		g.Go(func() error {
			results, err := a.web.Search(gctx, query, a.webLimit)
			if err != nil {
				a.logger.Warn("web search failed", "searcher", a.web.Name(), "error", err)
				return nil
			}
			rc.WebResults = results
			return nil
		})
	}

	if a.episodes != nil {
		g.Go(func() error {
			list, err := a.episodes.List(gctx, userID)
			if err != nil {
				a.logger.Warn("episode digest failed", "user_id", userID, "error", err)
				return nil
			}
			digests := make([]writing.EpisodeDigest, 0, len(list))
			for _, ep := range list {
				digests = append(digests, writing.EpisodeDigest{Title: ep.Title, Summary: ep.Summary})
			}
			rc.AllEpisodes = digests
			return nil
		})
	}

	// Each goroutine writes a distinct field and swallows its own error
	_ = g.Wait()

	a.logger.Debug("context gathered",
		"user_id", userID,
		"documents", len(rc.DocumentSnippets),
		"web", len(rc.WebResults),
		"episodes", len(rc.AllEpisodes),
	)
	return rc
}
