package writing

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"episodic/internal/config"
	"episodic/internal/domain"
	models "episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
	domainllm "episodic/internal/domain/services/llm"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/service/llm"
	"episodic/internal/service/llm/prompts"
)

type triageService struct {
	revision  writingSvc.RevisionService
	cards     writingSvc.CardService
	cardRepo  writingRepo.CardRepository
	generator domainllm.TextGenerator
	prompts   *prompts.Registry
	logger    *slog.Logger

	mu       sync.Mutex
	sessions map[string]*writingSvc.TriageSession
}

// NewTriageService creates the triage session registry
func NewTriageService(
	revision writingSvc.RevisionService,
	cards writingSvc.CardService,
	cardRepo writingRepo.CardRepository,
	generator domainllm.TextGenerator,
	registry *prompts.Registry,
	logger *slog.Logger,
) writingSvc.TriageService {
	return &triageService{
		revision:  revision,
		cards:     cards,
		cardRepo:  cardRepo,
		generator: generator,
		prompts:   registry,
		logger:    logger.With("service", "triage"),
		sessions:  make(map[string]*writingSvc.TriageSession),
	}
}

// Start opens a session over the paragraph's card history or over fresh
// candidates next to its current card.
func (s *triageService) Start(ctx context.Context, req *writingSvc.StartTriageRequest) (*writingSvc.TriageSession, error) {
	if req.Mode == "" {
		req.Mode = writingSvc.TriageModeHistory
	}

	paragraph, err := s.revision.GetParagraph(ctx, req.UserID, req.ParagraphID)
	if err != nil {
		return nil, err
	}

	var candidates []models.ReferenceCard
	switch req.Mode {
	case writingSvc.TriageModeHistory:
		candidates, err = s.revision.GetCardHistory(ctx, req.UserID, req.ParagraphID)
	case writingSvc.TriageModeDiscovery:
		candidates, err = s.discover(ctx, req.UserID, paragraph)
	default:
		return nil, domain.NewValidation("unknown triage mode %q", req.Mode)
	}
	if err != nil {
		return nil, err
	}

	session := &writingSvc.TriageSession{
		ID:          uuid.NewString(),
		UserID:      req.UserID,
		ParagraphID: req.ParagraphID,
		Mode:        req.Mode,
		Candidates:  candidates,
		Paragraph:   paragraph,
		StartedAt:   time.Now(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	s.logger.Info("triage started",
		"session_id", session.ID,
		"paragraph_id", req.ParagraphID,
		"mode", req.Mode,
		"candidates", len(candidates),
	)
	return copySession(session), nil
}

// discover returns the current card (when it still resolves) followed by
// transient candidates related to it.
func (s *triageService) discover(ctx context.Context, userID string, paragraph *models.Paragraph) ([]models.ReferenceCard, error) {
	candidates := make([]models.ReferenceCard, 0, config.DiscoveryCandidateCount+1)

	var current *models.ReferenceCard
	if id := paragraph.LastAppliedCardID(); id != "" && !models.IsTempID(id) {
		card, err := s.cardRepo.GetByID(ctx, id, userID)
		switch {
		case err == nil:
			current = card
			candidates = append(candidates, *card)
		case errors.Is(err, domain.ErrNotFound):
			s.logger.Debug("current card no longer exists", "card_id", id)
		default:
			return nil, err
		}
	}

	prompt, err := s.prompts.Render(prompts.RelatedCards, prompts.Data{
		Count:  config.DiscoveryCandidateCount,
		Target: paragraph.Content,
		Card:   current,
	})
	if err != nil {
		return nil, err
	}

	output, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	drafts, err := llm.ParseCardDrafts(prompts.RelatedCards, output)
	if err != nil {
		return nil, err
	}
	if len(drafts) > config.DiscoveryCandidateCount {
		drafts = drafts[:config.DiscoveryCandidateCount]
	}

	now := time.Now()
	var rawContext *models.RawContext
	if current != nil {
		rawContext = current.RawContext
	}
	for _, d := range drafts {
		candidates = append(candidates, models.ReferenceCard{
			ID:         models.TempIDPrefix + uuid.NewString(),
			UserID:     userID,
			Title:      d.Title,
			Summary:    d.Summary,
			RawContext: rawContext,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return candidates, nil
}

// Apply rewrites the session's paragraph with one of its candidates. The
// session stays open.
func (s *triageService) Apply(ctx context.Context, userID, sessionID, cardID string) (*writingSvc.TriageSession, error) {
	session, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	var card *models.ReferenceCard
	for i := range session.Candidates {
		if session.Candidates[i].ID == cardID {
			c := session.Candidates[i]
			card = &c
			break
		}
	}
	if card == nil {
		return nil, domain.NewNotFound("candidate", cardID)
	}

	var paragraph *models.Paragraph
	if card.IsTransient() {
		paragraph, err = s.revision.ApplyTransientCard(ctx, userID, session.ParagraphID, card)
	} else {
		paragraph, err = s.revision.ApplyCard(ctx, &writingSvc.ApplyCardRequest{
			UserID:      userID,
			ParagraphID: session.ParagraphID,
			CardID:      card.ID,
		})
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	session.Paragraph = paragraph
	out := copySession(session)
	s.mu.Unlock()
	return out, nil
}

func (s *triageService) Get(userID, sessionID string) (*writingSvc.TriageSession, error) {
	session, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySession(session), nil
}

// Close ends the session. Every persisted candidate other than the
// paragraph's latest applied card is moved to hold in one request;
// transient candidates are dropped. The session stays open until the
// hold is persisted, so a failed close can be retried.
func (s *triageService) Close(ctx context.Context, userID, sessionID string) (*writingSvc.TriageCloseResult, error) {
	session, err := s.lookup(userID, sessionID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	session = copySession(session)
	s.mu.Unlock()

	latest := session.Paragraph.LastAppliedCardID()
	if fresh, err := s.revision.GetParagraph(ctx, userID, session.ParagraphID); err == nil {
		latest = fresh.LastAppliedCardID()
	} else {
		s.logger.Warn("using session copy of paragraph on close", "paragraph_id", session.ParagraphID, "error", err)
	}

	result := &writingSvc.TriageCloseResult{HeldCardIDs: []string{}}
	hold := make([]string, 0, len(session.Candidates))
	for _, c := range session.Candidates {
		if c.IsTransient() {
			result.Discarded++
			continue
		}
		if c.ID == latest {
			continue
		}
		hold = append(hold, c.ID)
	}
	hold = dedupe(hold)

	if len(hold) > 0 {
		store, err := s.cards.Open(ctx, userID)
		if err != nil {
			return nil, err
		}
		if _, err := store.BulkHold(ctx, hold); err != nil {
			return nil, err
		}
		result.HeldCardIDs = hold
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	s.logger.Info("triage closed",
		"session_id", sessionID,
		"held", len(result.HeldCardIDs),
		"discarded", result.Discarded,
	)
	return result, nil
}

func (s *triageService) Discard(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, session := range s.sessions {
		if session.UserID == userID {
			delete(s.sessions, id)
			n++
		}
	}
	if n > 0 {
		s.logger.Debug("triage sessions discarded", "user_id", userID, "count", n)
	}
	return n
}

func (s *triageService) lookup(userID, sessionID string) (*writingSvc.TriageSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, domain.NewNotFound("triage session", sessionID)
	}
	return session, nil
}

// copySession must be called with mu held (or before the session is shared)
func copySession(src *writingSvc.TriageSession) *writingSvc.TriageSession {
	out := *src
	out.Candidates = append([]models.ReferenceCard(nil), src.Candidates...)
	if src.Paragraph != nil {
		out.Paragraph = src.Paragraph.Clone()
	}
	return &out
}
