package writing

import (
	"sort"
	"time"
)

// ReferenceCard is a short generated suggestion meant to drive a rewrite.
type ReferenceCard struct {
	ID         string      `json:"id" db:"id"`
	UserID     string      `json:"-" db:"user_id"`
	Title      string      `json:"title" db:"title"`
	Summary    string      `json:"summary" db:"summary"`
	IsPinned   bool        `json:"is_pinned" db:"is_pinned"`
	Group      *string     `json:"group" db:"group_name"` // NULL = ungrouped
	IsInHold   bool        `json:"is_in_hold" db:"is_in_hold"`
	RawContext *RawContext `json:"raw_context,omitempty" db:"raw_context"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at" db:"updated_at"`
}

// RawContext is the material a card was generated from. Stored as JSONB and
// fed back into rewrite and related-card prompts.
type RawContext struct {
	DocumentSnippets []DocumentSnippet `json:"document_snippets,omitempty"`
	WebResults       []WebResult       `json:"web_results,omitempty"`
	AllEpisodes      []EpisodeDigest   `json:"all_episodes,omitempty"`
}

type DocumentSnippet struct {
	Filename string `json:"filename"`
	Snippet  string `json:"snippet"`
}

type WebResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type EpisodeDigest struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

// IsEmpty reports whether the context carries nothing.
func (rc *RawContext) IsEmpty() bool {
	return rc == nil || (len(rc.DocumentSnippets) == 0 && len(rc.WebResults) == 0 && len(rc.AllEpisodes) == 0)
}

// IsTransient reports whether the card only exists inside a triage session.
func (c *ReferenceCard) IsTransient() bool {
	return IsTempID(c.ID)
}

// Hold archives the card. Holding clears the pin.
func (c *ReferenceCard) Hold() {
	c.IsInHold = true
	c.IsPinned = false
}

// Normalize enforces the pin/hold exclusivity on an incoming card value.
func (c *ReferenceCard) Normalize() {
	if c.IsInHold {
		c.IsPinned = false
	}
}

// SortActive filters out held cards and orders the rest pinned first, then
// newest first. The sort is stable so equal keys keep insertion order.
func SortActive(cards []ReferenceCard) []ReferenceCard {
	active := make([]ReferenceCard, 0, len(cards))
	for _, c := range cards {
		if !c.IsInHold {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].IsPinned != active[j].IsPinned {
			return active[i].IsPinned
		}
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})
	return active
}

// FilterHeld returns only held cards, newest first.
func FilterHeld(cards []ReferenceCard) []ReferenceCard {
	held := make([]ReferenceCard, 0)
	for _, c := range cards {
		if c.IsInHold {
			held = append(held, c)
		}
	}
	sort.SliceStable(held, func(i, j int) bool {
		return held[i].CreatedAt.After(held[j].CreatedAt)
	})
	return held
}
