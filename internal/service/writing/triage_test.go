package writing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"episodic/internal/domain"
	models "episodic/internal/domain/models/writing"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/service/llm/prompts"
)

func (f *fixture) applyAll(t *testing.T, paragraphID string, cards []models.ReferenceCard) {
	t.Helper()
	for _, c := range cards {
		f.gen.script("after " + c.Title)
		_, err := f.revision.ApplyCard(context.Background(), &writingSvc.ApplyCardRequest{UserID: testUser, ParagraphID: paragraphID, CardID: c.ID})
		require.NoError(t, err)
	}
}

func TestTriage_HistoryCloseHoldsAllButLatest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep := f.seedEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	cards := f.seedCards(t, models.ReferenceCard{Title: "c1"}, models.ReferenceCard{Title: "c2"}, models.ReferenceCard{Title: "c3"})
	f.applyAll(t, pid, cards)

	session, err := f.triage.Start(ctx, &writingSvc.StartTriageRequest{UserID: testUser, ParagraphID: pid, Mode: writingSvc.TriageModeHistory})
	require.NoError(t, err)
	assert.Equal(t, []string{cards[2].ID, cards[1].ID, cards[0].ID}, cardIDs(session.Candidates))

	result, err := f.triage.Close(ctx, testUser, session.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{cards[0].ID, cards[1].ID}, result.HeldCardIDs)
	assert.Zero(t, result.Discarded)

	store, err := f.cards.Open(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, []string{cards[2].ID}, cardIDs(store.ActiveCards()))

	_, err = f.triage.Get(testUser, session.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestTriage_DiscoveryAppliesTransientAndDiscardsOnClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep := f.seedEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	cards := f.seedCards(t, models.ReferenceCard{Title: "c1"}, models.ReferenceCard{Title: "current"})
	f.applyAll(t, pid, cards)

	f.gen.script(`[{"title":"n1","summary":"s1"},{"title":"n2","summary":"s2"},{"title":"n3","summary":"s3"}]`)
	session, err := f.triage.Start(ctx, &writingSvc.StartTriageRequest{UserID: testUser, ParagraphID: pid, Mode: writingSvc.TriageModeDiscovery})
	require.NoError(t, err)
	require.Len(t, session.Candidates, 4)
	assert.Equal(t, cards[1].ID, session.Candidates[0].ID)
	assert.Contains(t, f.gen.lastPrompt(), "Title: current")
	for _, c := range session.Candidates[1:] {
		assert.True(t, c.IsTransient())
	}

	transient := session.Candidates[2]
	f.gen.script("rewritten from n2")
	session, err = f.triage.Apply(ctx, testUser, session.ID, transient.ID)
	require.NoError(t, err)
	assert.Equal(t, "rewritten from n2", session.Paragraph.Content)
	assert.Equal(t, transient.ID, session.Paragraph.LastAppliedCardID())

	result, err := f.triage.Close(ctx, testUser, session.ID)
	require.NoError(t, err)
	// "current" is no longer the latest applied card, so it is held
	assert.Equal(t, []string{cards[1].ID}, result.HeldCardIDs)
	assert.Equal(t, 3, result.Discarded)

	all, err := f.cardRepo.List(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Transient ids stay in the raw history but never resolve
	history, err := f.revision.GetCardHistory(ctx, testUser, pid)
	require.NoError(t, err)
	assert.Equal(t, []string{cards[1].ID, cards[0].ID}, cardIDs(history))
}

func TestTriage_DiscoveryWithoutCurrentCard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep := f.seedEpisode(t, "A")

	f.gen.script(`[{"title":"n1","summary":"s1"},{"title":"n2","summary":"s2"},{"title":"n3","summary":"s3"},{"title":"n4","summary":"s4"}]`)
	session, err := f.triage.Start(ctx, &writingSvc.StartTriageRequest{UserID: testUser, ParagraphID: ep.Paragraphs[0].ID, Mode: writingSvc.TriageModeDiscovery})
	require.NoError(t, err)
	assert.Len(t, session.Candidates, 3)

	result, err := f.triage.Close(ctx, testUser, session.ID)
	require.NoError(t, err)
	assert.Empty(t, result.HeldCardIDs)
	assert.Equal(t, 3, result.Discarded)
}

func TestTriage_ApplyRejectsNonCandidateAndOtherUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep := f.seedEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	cards := f.seedCards(t, models.ReferenceCard{Title: "c1"}, models.ReferenceCard{Title: "outside"})
	f.applyAll(t, pid, cards[:1])

	session, err := f.triage.Start(ctx, &writingSvc.StartTriageRequest{UserID: testUser, ParagraphID: pid})
	require.NoError(t, err)
	assert.Equal(t, writingSvc.TriageModeHistory, session.Mode)

	_, err = f.triage.Apply(ctx, testUser, session.ID, cards[1].ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.triage.Apply(ctx, "someone-else", session.ID, cards[0].ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.triage.Start(ctx, &writingSvc.StartTriageRequest{UserID: testUser, ParagraphID: pid, Mode: "sideways"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestTriage_SessionsAreIndependent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep := f.seedEpisode(t, "A", "B")
	cards := f.seedCards(t, models.ReferenceCard{Title: "c1"}, models.ReferenceCard{Title: "c2"})
	f.applyAll(t, ep.Paragraphs[0].ID, cards)
	f.applyAll(t, ep.Paragraphs[1].ID, cards[:1])

	s1, err := f.triage.Start(ctx, &writingSvc.StartTriageRequest{UserID: testUser, ParagraphID: ep.Paragraphs[0].ID})
	require.NoError(t, err)
	s2, err := f.triage.Start(ctx, &writingSvc.StartTriageRequest{UserID: testUser, ParagraphID: ep.Paragraphs[1].ID})
	require.NoError(t, err)

	_, err = f.triage.Close(ctx, testUser, s1.ID)
	require.NoError(t, err)

	still, err := f.triage.Get(testUser, s2.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{cards[0].ID}, cardIDs(still.Candidates))
}

func TestTriage_FailedCloseCanBeRetried(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep := f.seedEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	cards := f.seedCards(t, models.ReferenceCard{Title: "c1"}, models.ReferenceCard{Title: "c2"})
	f.applyAll(t, pid, cards)

	registry, err := prompts.NewRegistry()
	require.NoError(t, err)
	repo := &outageCardRepo{CardRepository: f.cardRepo}
	cardSvc := NewCardService(repo, f.paragraphs, f.episodes, nil, f.gen, registry, testLogger())
	triage := NewTriageService(f.revision, cardSvc, repo, f.gen, registry, testLogger())

	session, err := triage.Start(ctx, &writingSvc.StartTriageRequest{UserID: testUser, ParagraphID: pid})
	require.NoError(t, err)

	repo.down.Store(true)
	_, err = triage.Close(ctx, testUser, session.ID)
	require.ErrorIs(t, err, errStorage)

	store, err := cardSvc.Open(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, store.ActiveCards(), 2)

	_, err = triage.Get(testUser, session.ID)
	require.NoError(t, err, "session must survive a failed close")

	repo.down.Store(false)
	result, err := triage.Close(ctx, testUser, session.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{cards[0].ID}, result.HeldCardIDs)
	assert.Equal(t, []string{cards[1].ID}, cardIDs(store.ActiveCards()))

	_, err = triage.Get(testUser, session.ID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestTriage_DiscardDropsOnlyThatUsersSessions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep := f.seedEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	f.applyAll(t, pid, f.seedCards(t, models.ReferenceCard{Title: "c1"}))

	first, err := f.triage.Start(ctx, &writingSvc.StartTriageRequest{UserID: testUser, ParagraphID: pid})
	require.NoError(t, err)
	second, err := f.triage.Start(ctx, &writingSvc.StartTriageRequest{UserID: testUser, ParagraphID: pid})
	require.NoError(t, err)

	assert.Zero(t, f.triage.Discard("someone-else"))
	assert.Equal(t, 2, f.triage.Discard(testUser))

	for _, id := range []string{first.ID, second.ID} {
		_, err := f.triage.Get(testUser, id)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
	}

	store, err := f.cards.Open(ctx, testUser)
	require.NoError(t, err)
	assert.Len(t, store.ActiveCards(), 1)
}
