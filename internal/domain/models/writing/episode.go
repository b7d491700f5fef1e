package writing

import (
	"sort"
	"strings"
	"time"

	"episodic/internal/domain"
)

// Episode is a titled, ordered collection of paragraphs.
type Episode struct {
	ID         string      `json:"id" db:"id"`
	UserID     string      `json:"-" db:"user_id"`
	Title      string      `json:"title" db:"title"`
	Summary    string      `json:"summary" db:"summary"`
	Paragraphs []Paragraph `json:"paragraphs"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// EpisodeSummary is the list view of an episode (no paragraphs).
type EpisodeSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SortParagraphs orders Paragraphs by Order.
func (e *Episode) SortParagraphs() {
	sort.SliceStable(e.Paragraphs, func(i, j int) bool {
		return e.Paragraphs[i].Order < e.Paragraphs[j].Order
	})
}

// Renumber assigns Order as the 1-based index of every paragraph in its
// current slice position. Always a total reassignment.
func (e *Episode) Renumber() {
	for i := range e.Paragraphs {
		e.Paragraphs[i].Order = i + 1
		e.Paragraphs[i].EpisodeID = e.ID
	}
}

// Reorder rearranges paragraphs to match ids, which must name every
// paragraph exactly once, then renumbers.
func (e *Episode) Reorder(ids []string) error {
	if len(ids) != len(e.Paragraphs) {
		return domain.NewValidation("reorder must list all %d paragraphs, got %d", len(e.Paragraphs), len(ids))
	}

	byID := make(map[string]Paragraph, len(e.Paragraphs))
	for _, p := range e.Paragraphs {
		byID[p.ID] = p
	}

	reordered := make([]Paragraph, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		p, ok := byID[id]
		if !ok {
			return domain.NewNotFound("paragraph", id)
		}
		if seen[id] {
			return domain.NewValidation("paragraph %s listed twice", id)
		}
		seen[id] = true
		reordered = append(reordered, p)
	}

	e.Paragraphs = reordered
	e.Renumber()
	return nil
}

// InsertParagraph inserts p directly after afterID, or at the end when
// afterID is empty, then renumbers.
func (e *Episode) InsertParagraph(p Paragraph, afterID string) error {
	idx := len(e.Paragraphs)
	if afterID != "" {
		found := e.indexOf(afterID)
		if found < 0 {
			return domain.NewNotFound("paragraph", afterID)
		}
		idx = found + 1
	}

	e.Paragraphs = append(e.Paragraphs, Paragraph{})
	copy(e.Paragraphs[idx+1:], e.Paragraphs[idx:])
	e.Paragraphs[idx] = p
	e.Renumber()
	return nil
}

// Paragraph returns a pointer into Paragraphs for id, or nil.
func (e *Episode) Paragraph(id string) *Paragraph {
	if i := e.indexOf(id); i >= 0 {
		return &e.Paragraphs[i]
	}
	return nil
}

// ValidateOrder checks that Order values are a permutation of 1..N.
func (e *Episode) ValidateOrder() error {
	seen := make([]bool, len(e.Paragraphs)+1)
	for _, p := range e.Paragraphs {
		if p.Order < 1 || p.Order > len(e.Paragraphs) || seen[p.Order] {
			return domain.NewValidation("paragraph order must be a permutation of 1..%d", len(e.Paragraphs))
		}
		seen[p.Order] = true
	}
	return nil
}

// FullText joins paragraph contents in order, skipping blanks.
func (e *Episode) FullText(sep string) string {
	parts := make([]string, 0, len(e.Paragraphs))
	for _, p := range e.Paragraphs {
		if strings.TrimSpace(p.Content) != "" {
			parts = append(parts, p.Content)
		}
	}
	return strings.Join(parts, sep)
}

func (e *Episode) indexOf(id string) int {
	for i := range e.Paragraphs {
		if e.Paragraphs[i].ID == id {
			return i
		}
	}
	return -1
}
