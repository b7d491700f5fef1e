package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episodic/internal/domain"
	models "episodic/internal/domain/models/writing"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/middleware"
	"episodic/internal/repository/memory"
	"episodic/internal/service/llm/prompts"
	"episodic/internal/service/sources"
	"episodic/internal/service/writing"
)

const author = "11111111-1111-1111-1111-111111111111"

type scriptedGenerator struct {
	mu      sync.Mutex
	outputs []string
	err     error
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return "", domain.NewGeneration("generate", g.err)
	}
	if len(g.outputs) == 0 {
		return "", domain.NewGeneration("generate", errors.New("script exhausted"))
	}
	out := g.outputs[0]
	g.outputs = g.outputs[1:]
	return out, nil
}

func (g *scriptedGenerator) script(outputs ...string) {
	g.mu.Lock()
	g.outputs = append(g.outputs, outputs...)
	g.mu.Unlock()
}

type testServer struct {
	mux     *http.ServeMux
	handler http.Handler
	gen     *scriptedGenerator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	registry, err := prompts.NewRegistry()
	require.NoError(t, err)

	store := memory.NewStore()
	episodes := memory.NewEpisodeRepository(store)
	paragraphs := memory.NewParagraphRepository(store)
	cardRepo := memory.NewCardRepository(store)
	gen := &scriptedGenerator{}

	docs := writing.NewDocumentService(memory.NewDocumentRepository(store), 5, logger)
	assembler := sources.NewAssembler(docs, nil, episodes, 5, logger)
	revision := writing.NewRevisionService(paragraphs, cardRepo, gen, registry, logger)
	cards := writing.NewCardService(cardRepo, paragraphs, episodes, assembler, gen, registry, logger)
	triage := writing.NewTriageService(revision, cards, cardRepo, gen, registry, logger)
	episodeSvc := writing.NewEpisodeService(episodes, paragraphs, memory.NewSnapshotStore(), memory.NewTransactionManager(), gen, registry, time.Hour, logger)
	commands := writing.NewCommandService(cards, revision, logger)

	mux := http.NewServeMux()
	RegisterRoutes(mux, &Handlers{
		Episodes:   NewEpisodeHandler(episodeSvc, logger),
		Paragraphs: NewParagraphHandler(revision, cards, commands, logger),
		Cards:      NewCardHandler(cards, logger),
		Triage:     NewTriageHandler(triage, logger),
		Documents:  NewDocumentHandler(docs, logger),
		Session:    NewSessionHandler(cards, episodeSvc, triage, logger),
	})

	return &testServer{
		mux:     mux,
		handler: middleware.DevAuth(author)(mux),
		gen:     gen,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) createEpisode(t *testing.T, paragraphs ...string) models.Episode {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/episodes", map[string]interface{}{"title": "Ep", "paragraphs": paragraphs})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Episode](t, rec)
}

func (s *testServer) createCards(t *testing.T, titles ...string) []models.ReferenceCard {
	t.Helper()
	reqs := make([]map[string]interface{}, len(titles))
	for i, title := range titles {
		reqs[i] = map[string]interface{}{"title": title, "summary": title + " summary"}
	}
	rec := s.do(t, http.MethodPost, "/api/cards", map[string]interface{}{"cards": reqs})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[[]models.ReferenceCard](t, rec)
}

func TestApplyCardThenUndoOverHTTP(t *testing.T) {
	s := newTestServer(t)
	ep := s.createEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	cards := s.createCards(t, "C1")

	s.gen.script("B")
	rec := s.do(t, http.MethodPost, "/api/paragraphs/"+pid+"/apply-card", map[string]string{"reference_card_id": cards[0].ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	p := decode[models.Paragraph](t, rec)
	assert.Equal(t, "B", p.Content)
	assert.Equal(t, []string{cards[0].ID}, p.AppliedCardHistory)

	rec = s.do(t, http.MethodPost, "/api/paragraphs/"+pid+"/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A", decode[models.Paragraph](t, rec).Content)

	rec = s.do(t, http.MethodPost, "/api/paragraphs/"+pid+"/undo", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	problem := decode[map[string]interface{}](t, rec)
	assert.Equal(t, "empty_history", problem["code"])

	rec = s.do(t, http.MethodGet, "/api/paragraphs/"+pid+"/card-history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.ReferenceCard](t, rec), 1)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer(t)
	ep := s.createEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	cards := s.createCards(t, "C1")

	rec := s.do(t, http.MethodPost, "/api/paragraphs/"+pid+"/apply-card", map[string]string{"reference_card_id": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.gen.err = errors.New("upstream down")
	rec = s.do(t, http.MethodPost, "/api/paragraphs/"+pid+"/apply-card", map[string]string{"reference_card_id": cards[0].ID})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "generation_failed", decode[map[string]interface{}](t, rec)["code"])

	req := httptest.NewRequest(http.MethodPost, "/api/episodes", bytes.NewBufferString("{not json"))
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequiresUser(t *testing.T) {
	s := newTestServer(t)

	// The bare mux has no auth middleware in front of it
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/episodes", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	s.mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCardRoutes(t *testing.T) {
	s := newTestServer(t)
	cards := s.createCards(t, "keep", "archive")

	rec := s.do(t, http.MethodPatch, "/api/cards/"+cards[0].ID, map[string]interface{}{"group": "setting", "is_pinned": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	card := decode[models.ReferenceCard](t, rec)
	require.NotNil(t, card.Group)
	assert.Equal(t, "setting", *card.Group)
	assert.True(t, card.IsPinned)

	// Absent group leaves it, null clears it
	rec = s.do(t, http.MethodPatch, "/api/cards/"+cards[0].ID, map[string]interface{}{"is_pinned": false})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decode[models.ReferenceCard](t, rec).Group)

	rec = s.do(t, http.MethodPatch, "/api/cards/"+cards[0].ID, map[string]interface{}{"group": nil})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decode[models.ReferenceCard](t, rec).Group)

	rec = s.do(t, http.MethodPatch, "/api/cards/nope", map[string]interface{}{"is_pinned": true})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/cards/bulk-hold", map[string]interface{}{"card_ids": []string{cards[1].ID, cards[1].ID}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[map[string]int](t, rec)["held"])

	rec = s.do(t, http.MethodPost, "/api/cards/bulk-hold", map[string]interface{}{"card_ids": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/cards/held", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	held := decode[[]models.ReferenceCard](t, rec)
	require.Len(t, held, 1)
	assert.Equal(t, cards[1].ID, held[0].ID)

	rec = s.do(t, http.MethodGet, "/api/cards", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decode[[]models.ReferenceCard](t, rec)
	require.Len(t, active, 1)
	assert.Equal(t, cards[0].ID, active[0].ID)

	// Restore from hold
	rec = s.do(t, http.MethodPatch, "/api/cards/"+cards[1].ID, map[string]interface{}{"is_in_hold": false})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/cards", nil)
	assert.Len(t, decode[[]models.ReferenceCard](t, rec), 2)

	rec = s.do(t, http.MethodPost, "/api/cards", map[string]interface{}{"cards": []interface{}{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTriageRoutes(t *testing.T) {
	s := newTestServer(t)
	ep := s.createEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	cards := s.createCards(t, "c1", "c2")

	s.gen.script("after c1", "after c2")
	for _, c := range cards {
		rec := s.do(t, http.MethodPost, "/api/paragraphs/"+pid+"/apply-card", map[string]string{"reference_card_id": c.ID})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := s.do(t, http.MethodPost, "/api/triage", map[string]string{"paragraph_id": pid, "mode": "history"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decode[writingSvc.TriageSession](t, rec)
	require.Len(t, session.Candidates, 2)

	s.gen.script("back to c1")
	rec = s.do(t, http.MethodPost, "/api/triage/"+session.ID+"/apply", map[string]string{"reference_card_id": cards[0].ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "back to c1", decode[writingSvc.TriageSession](t, rec).Paragraph.Content)

	rec = s.do(t, http.MethodPost, "/api/triage/"+session.ID+"/apply", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/triage/"+session.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[writingSvc.TriageCloseResult](t, rec)
	assert.Equal(t, []string{cards[1].ID}, result.HeldCardIDs)

	rec = s.do(t, http.MethodGet, "/api/triage/"+session.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEpisodeRoutes(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/episodes", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	ep := decode[models.Episode](t, rec)
	assert.Len(t, ep.Paragraphs, 5)

	rec = s.do(t, http.MethodPost, "/api/episodes/"+ep.ID+"/paragraphs", map[string]string{"after_id": ep.Paragraphs[0].ID})
	require.Equal(t, http.StatusCreated, rec.Code)
	ep = decode[models.Episode](t, rec)
	require.Len(t, ep.Paragraphs, 6)

	ids := make([]string, len(ep.Paragraphs))
	for i, p := range ep.Paragraphs {
		ids[len(ids)-1-i] = p.ID
	}
	rec = s.do(t, http.MethodPut, "/api/episodes/"+ep.ID+"/order", map[string]interface{}{"paragraph_ids": ids})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, ids[0], decode[models.Episode](t, rec).Paragraphs[0].ID)

	ep.Title = "Draft title"
	ep.Paragraphs = []models.Paragraph{{ID: "temp-1", Content: "only one", Order: 1}}
	rec = s.do(t, http.MethodPut, "/api/episodes/"+ep.ID+"/draft", ep)
	require.Equal(t, http.StatusAccepted, rec.Code)
	storedID := decode[writingSvc.AutosaveResult](t, rec).ParagraphIDs["temp-1"]
	require.NotEmpty(t, storedID)

	rec = s.do(t, http.MethodGet, "/api/episodes/"+ep.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	opened := decode[writingSvc.OpenedEpisode](t, rec)
	assert.True(t, opened.Restored)
	assert.Equal(t, "Draft title", opened.Episode.Title)
	assert.Equal(t, storedID, opened.Episode.Paragraphs[0].ID)

	rec = s.do(t, http.MethodPut, "/api/episodes/"+ep.ID, ep)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[models.Episode](t, rec)
	require.Len(t, saved.Paragraphs, 1)
	assert.Equal(t, storedID, saved.Paragraphs[0].ID)

	rec = s.do(t, http.MethodPatch, "/api/episodes/"+ep.ID, map[string]string{"title": "Final"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Final", decode[models.Episode](t, rec).Title)

	s.gen.script("One line.")
	rec = s.do(t, http.MethodPost, "/api/episodes/"+ep.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "One line.", decode[models.Episode](t, rec).Summary)

	rec = s.do(t, http.MethodGet, "/api/episodes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.EpisodeSummary](t, rec), 1)

	rec = s.do(t, http.MethodDelete, "/api/episodes/"+ep.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/episodes/"+ep.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionAndDocuments(t *testing.T) {
	s := newTestServer(t)
	s.createCards(t, "one")

	rec := s.do(t, http.MethodPost, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[map[string]int](t, rec)["active_cards"])

	rec = s.do(t, http.MethodPost, "/api/documents", map[string]string{"filename": "lore.txt", "content": "The lighthouse keeper hates storms."})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	doc := decode[models.ReferenceDocument](t, rec)
	assert.NotEmpty(t, doc.ID)
	assert.Empty(t, doc.Content)

	rec = s.do(t, http.MethodGet, "/api/documents/search?q=lighthouse", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snippets := decode[[]models.DocumentSnippet](t, rec)
	require.Len(t, snippets, 1)
	assert.Equal(t, "lore.txt", snippets[0].Filename)

	rec = s.do(t, http.MethodDelete, "/api/session", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestCommandRoute(t *testing.T) {
	s := newTestServer(t)
	ep := s.createEpisode(t, "A")

	rec := s.do(t, http.MethodPost, "/api/paragraphs/"+ep.Paragraphs[0].ID+"/commands", map[string]string{"command": "focus_editor"})
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[writingSvc.CommandResult](t, rec)
	require.NotNil(t, result.Paragraph)
	assert.Equal(t, "A", result.Paragraph.Content)

	rec = s.do(t, http.MethodPost, "/api/paragraphs/"+ep.Paragraphs[0].ID+"/commands", map[string]string{"command": "dance"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
