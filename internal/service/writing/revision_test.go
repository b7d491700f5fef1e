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
)

func TestApplyCard_ThenUndo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep := f.seedEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	cards := f.seedCards(t, models.ReferenceCard{Title: "C1"})

	f.gen.script("B")
	p, err := f.revision.ApplyCard(ctx, &writingSvc.ApplyCardRequest{UserID: testUser, ParagraphID: pid, CardID: cards[0].ID})
	require.NoError(t, err)
	assert.Equal(t, "B", p.Content)
	assert.Equal(t, []string{"A"}, p.ContentHistory)
	assert.Equal(t, []string{cards[0].ID}, p.AppliedCardHistory)
	assert.Contains(t, f.gen.lastPrompt(), "- Title: C1")

	p, err = f.revision.Undo(ctx, testUser, pid)
	require.NoError(t, err)
	assert.Equal(t, "A", p.Content)
	assert.Empty(t, p.ContentHistory)
	assert.Equal(t, []string{cards[0].ID}, p.AppliedCardHistory)

	stored := f.paragraph(t, pid)
	assert.Equal(t, "A", stored.Content)
	assert.Equal(t, []string{cards[0].ID}, stored.AppliedCardHistory)
}

func TestApplyCard_RepeatedApplicationsAreAllRecorded(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep := f.seedEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	cards := f.seedCards(t, models.ReferenceCard{Title: "C1"})

	f.gen.script("B1", "B2", "B3")
	for i := 0; i < 3; i++ {
		_, err := f.revision.ApplyCard(ctx, &writingSvc.ApplyCardRequest{UserID: testUser, ParagraphID: pid, CardID: cards[0].ID})
		require.NoError(t, err)
	}

	p := f.paragraph(t, pid)
	assert.Equal(t, "B3", p.Content)
	assert.Equal(t, []string{"A", "B1", "B2"}, p.ContentHistory)
	assert.Len(t, p.AppliedCardHistory, 3)

	history, err := f.revision.GetCardHistory(ctx, testUser, pid)
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestUndo_EmptyHistoryChangesNothing(t *testing.T) {
	f := newFixture(t)
	ep := f.seedEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	before := f.paragraph(t, pid)

	_, err := f.revision.Undo(context.Background(), testUser, pid)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEmptyHistory))

	assert.Equal(t, before, f.paragraph(t, pid))
}

func TestApplyCard_GenerationFailureLeavesParagraph(t *testing.T) {
	f := newFixture(t)
	ep := f.seedEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	cards := f.seedCards(t, models.ReferenceCard{Title: "C1"})

	f.gen.err = errors.New("upstream down")
	_, err := f.revision.ApplyCard(context.Background(), &writingSvc.ApplyCardRequest{UserID: testUser, ParagraphID: pid, CardID: cards[0].ID})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGeneration))

	p := f.paragraph(t, pid)
	assert.Equal(t, "A", p.Content)
	assert.Empty(t, p.ContentHistory)
	assert.Empty(t, p.AppliedCardHistory)
}

func TestApplyCard_UnknownCardOrParagraph(t *testing.T) {
	f := newFixture(t)
	ep := f.seedEpisode(t, "A")
	cards := f.seedCards(t, models.ReferenceCard{Title: "C1"})

	_, err := f.revision.ApplyCard(context.Background(), &writingSvc.ApplyCardRequest{UserID: testUser, ParagraphID: ep.Paragraphs[0].ID, CardID: "missing"})
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = f.revision.ApplyCard(context.Background(), &writingSvc.ApplyCardRequest{UserID: testUser, ParagraphID: "missing", CardID: cards[0].ID})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestApplyCard_SameParagraphIsSingleFlight(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep := f.seedEpisode(t, "A", "X")
	pid := ep.Paragraphs[0].ID
	cards := f.seedCards(t, models.ReferenceCard{Title: "C1"})

	f.gen.started = make(chan struct{}, 1)
	f.gen.gate = make(chan struct{})
	f.gen.script("B", "Y")

	done := make(chan error, 1)
	go func() {
		_, err := f.revision.ApplyCard(ctx, &writingSvc.ApplyCardRequest{UserID: testUser, ParagraphID: pid, CardID: cards[0].ID})
		done <- err
	}()
	<-f.gen.started

	_, err := f.revision.Undo(ctx, testUser, pid)
	assert.True(t, errors.Is(err, domain.ErrParagraphBusy))

	// A different paragraph is not blocked
	otherDone := make(chan error, 1)
	go func() {
		_, err := f.revision.ApplyCard(ctx, &writingSvc.ApplyCardRequest{UserID: testUser, ParagraphID: ep.Paragraphs[1].ID, CardID: cards[0].ID})
		otherDone <- err
	}()
	<-f.gen.started

	close(f.gen.gate)
	require.NoError(t, <-done)
	require.NoError(t, <-otherDone)

	_, err = f.revision.Undo(ctx, testUser, pid)
	assert.NoError(t, err)
}

func TestGetCardHistory_RecentFirstDropsUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ep := f.seedEpisode(t, "A")
	pid := ep.Paragraphs[0].ID
	cards := f.seedCards(t, models.ReferenceCard{Title: "C1"}, models.ReferenceCard{Title: "C2"})

	p := f.paragraph(t, pid)
	p.AppliedCardHistory = []string{cards[0].ID, "99999999-9999-9999-9999-999999999999", cards[1].ID, "temp-x", cards[0].ID}
	require.NoError(t, f.paragraphs.UpdateRevision(ctx, p))

	history, err := f.revision.GetCardHistory(ctx, testUser, pid)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, cards[0].ID, history[0].ID)
	assert.Equal(t, cards[1].ID, history[1].ID)
	assert.Equal(t, cards[0].ID, history[2].ID)
}

func TestExpand_PushesContentHistoryOnly(t *testing.T) {
	f := newFixture(t)
	ep := f.seedEpisode(t, "A")
	pid := ep.Paragraphs[0].ID

	f.gen.script("A, but longer.")
	p, err := f.revision.Expand(context.Background(), testUser, pid)
	require.NoError(t, err)
	assert.Equal(t, "A, but longer.", p.Content)
	assert.Equal(t, []string{"A"}, p.ContentHistory)
	assert.Empty(t, p.AppliedCardHistory)
}

func TestDescribe_DoesNotMutate(t *testing.T) {
	f := newFixture(t)
	ep := f.seedEpisode(t, "A")
	pid := ep.Paragraphs[0].ID

	f.gen.script("- Rain on glass.\n- A cold room.")
	desc, err := f.revision.Describe(context.Background(), testUser, pid)
	require.NoError(t, err)
	assert.Equal(t, "Rain on glass. A cold room.", desc)
	assert.Equal(t, "A", f.paragraph(t, pid).Content)
}
