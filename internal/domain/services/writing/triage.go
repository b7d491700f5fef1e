package writing

import (
	"context"
	"time"

	"episodic/internal/domain/models/writing"
)

// TriageMode selects how a triage session fills its candidate set.
type TriageMode string

const (
	// TriageModeHistory shows previously applied cards for the paragraph
	TriageModeHistory TriageMode = "history"
	// TriageModeDiscovery generates new candidates next to the current card
	TriageModeDiscovery TriageMode = "discovery"
)

// TriageSession is a bounded, per-paragraph review of candidate cards.
type TriageSession struct {
	ID          string                  `json:"id"`
	UserID      string                  `json:"-"`
	ParagraphID string                  `json:"paragraph_id"`
	Mode        TriageMode              `json:"mode"`
	Candidates  []writing.ReferenceCard `json:"candidates"`
	Paragraph   *writing.Paragraph      `json:"paragraph"`
	StartedAt   time.Time               `json:"started_at"`
}

// TriageCloseResult reports what closing a session archived.
type TriageCloseResult struct {
	HeldCardIDs []string `json:"held_card_ids"`
	Discarded   int      `json:"discarded"`
}

// TriageService manages triage sessions.
type TriageService interface {
	Start(ctx context.Context, req *StartTriageRequest) (*TriageSession, error)
	Apply(ctx context.Context, userID, sessionID, cardID string) (*TriageSession, error)
	Get(userID, sessionID string) (*TriageSession, error)
	Close(ctx context.Context, userID, sessionID string) (*TriageCloseResult, error)

	// Discard drops every open session of the user without holding cards
	Discard(userID string) int
}

// StartTriageRequest is the input to Start
type StartTriageRequest struct {
	UserID      string     `json:"-"`
	ParagraphID string     `json:"paragraph_id"`
	Mode        TriageMode `json:"mode"`
}
