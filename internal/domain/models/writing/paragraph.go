package writing

import (
	"strings"
	"time"

	"episodic/internal/domain"
)

// TempIDPrefix marks ids assigned by a client (paragraphs) or by a triage
// session (candidate cards) that have never been persisted.
const TempIDPrefix = "temp-"

// IsTempID reports whether id has not been assigned by storage yet.
func IsTempID(id string) bool {
	return id == "" || strings.HasPrefix(id, TempIDPrefix)
}

// Paragraph is one independently revisable block of prose in an episode.
//
// ContentHistory and AppliedCardHistory are two independent logs. Every
// content-replacing mutation pushes the previous content onto ContentHistory;
// only card applications push onto AppliedCardHistory, and nothing ever pops it.
type Paragraph struct {
	ID                 string    `json:"id" db:"id"`
	EpisodeID          string    `json:"episode_id" db:"episode_id"`
	Content            string    `json:"content" db:"content"`
	Order              int       `json:"order" db:"order"`
	ContentHistory     []string  `json:"content_history" db:"content_history"`
	AppliedCardHistory []string  `json:"applied_card_history" db:"applied_card_history"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at" db:"updated_at"`
}

// NewParagraph returns a blank paragraph with empty histories.
func NewParagraph(id string, order int) Paragraph {
	now := time.Now()
	return Paragraph{
		ID:                 id,
		Order:              order,
		ContentHistory:     []string{},
		AppliedCardHistory: []string{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// ApplyRevision records a card-driven rewrite.
func (p *Paragraph) ApplyRevision(rewritten, cardID string) {
	p.Rewrite(rewritten)
	p.AppliedCardHistory = append(p.AppliedCardHistory, cardID)
}

// Rewrite replaces the content and pushes the previous content onto
// ContentHistory. It does not touch AppliedCardHistory.
func (p *Paragraph) Rewrite(rewritten string) {
	p.ContentHistory = append(p.ContentHistory, p.Content)
	p.Content = rewritten
	p.UpdatedAt = time.Now()
}

// Undo restores the most recent ContentHistory entry.
// AppliedCardHistory is intentionally left as is.
func (p *Paragraph) Undo() error {
	if !p.CanUndo() {
		return &domain.EmptyHistoryError{ParagraphID: p.ID}
	}
	last := len(p.ContentHistory) - 1
	p.Content = p.ContentHistory[last]
	p.ContentHistory = p.ContentHistory[:last]
	p.UpdatedAt = time.Now()
	return nil
}

// CanUndo reports whether the paragraph is in the "has history" state.
func (p *Paragraph) CanUndo() bool {
	return len(p.ContentHistory) > 0
}

// LastAppliedCardID returns the most recently applied card id, or "".
func (p *Paragraph) LastAppliedCardID() string {
	if len(p.AppliedCardHistory) == 0 {
		return ""
	}
	return p.AppliedCardHistory[len(p.AppliedCardHistory)-1]
}

// AppliedCardIDsRecentFirst returns AppliedCardHistory newest first, repeats kept.
func (p *Paragraph) AppliedCardIDsRecentFirst() []string {
	ids := make([]string, len(p.AppliedCardHistory))
	for i, id := range p.AppliedCardHistory {
		ids[len(ids)-1-i] = id
	}
	return ids
}

// Clone returns a deep copy so callers can mutate without aliasing history slices.
func (p *Paragraph) Clone() *Paragraph {
	c := *p
	c.ContentHistory = append([]string{}, p.ContentHistory...)
	c.AppliedCardHistory = append([]string{}, p.AppliedCardHistory...)
	return &c
}
