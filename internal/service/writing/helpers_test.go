package writing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"episodic/internal/domain"
	models "episodic/internal/domain/models/writing"
	writingRepo "episodic/internal/domain/repositories/writing"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/repository/memory"
	"episodic/internal/service/llm/prompts"
	"episodic/internal/service/sources"
)

const testUser = "11111111-1111-1111-1111-111111111111"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeGenerator replays scripted outputs in order. When gate is set, each
// call signals started and then waits for gate before answering.
type fakeGenerator struct {
	mu      sync.Mutex
	outputs []string
	err     error
	prompts []string

	started chan struct{}
	gate    chan struct{}
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	started, gate := g.started, g.gate
	g.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}

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

func (g *fakeGenerator) script(outputs ...string) {
	g.mu.Lock()
	g.outputs = append(g.outputs, outputs...)
	g.mu.Unlock()
}

func (g *fakeGenerator) lastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}

type fixture struct {
	store      *memory.Store
	episodes   writingRepo.EpisodeRepository
	paragraphs writingRepo.ParagraphRepository
	cardRepo   writingRepo.CardRepository
	snapshots  writingRepo.SnapshotStore
	gen        *fakeGenerator

	revision writingSvc.RevisionService
	cards    writingSvc.CardService
	triage   writingSvc.TriageService
	episode  writingSvc.EpisodeService
	commands writingSvc.CommandService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	registry, err := prompts.NewRegistry()
	require.NoError(t, err)

	store := memory.NewStore()
	f := &fixture{
		store:      store,
		episodes:   memory.NewEpisodeRepository(store),
		paragraphs: memory.NewParagraphRepository(store),
		cardRepo:   memory.NewCardRepository(store),
		snapshots:  memory.NewSnapshotStore(),
		gen:        &fakeGenerator{},
	}

	logger := testLogger()
	docs := NewDocumentService(memory.NewDocumentRepository(store), 5, logger)
	assembler := sources.NewAssembler(docs, nil, f.episodes, 5, logger)

	f.revision = NewRevisionService(f.paragraphs, f.cardRepo, f.gen, registry, logger)
	f.cards = NewCardService(f.cardRepo, f.paragraphs, f.episodes, assembler, f.gen, registry, logger)
	f.triage = NewTriageService(f.revision, f.cards, f.cardRepo, f.gen, registry, logger)
	f.episode = NewEpisodeService(f.episodes, f.paragraphs, f.snapshots, memory.NewTransactionManager(), f.gen, registry, 20*time.Millisecond, logger)
	f.commands = NewCommandService(f.cards, f.revision, logger)
	return f
}

// seedEpisode stores an episode whose paragraphs hold contents, in order
func (f *fixture) seedEpisode(t *testing.T, contents ...string) *models.Episode {
	t.Helper()
	ep, err := f.episode.CreateEpisode(context.Background(), &writingSvc.CreateEpisodeRequest{
		UserID:     testUser,
		Title:      "Episode",
		Paragraphs: contents,
	})
	require.NoError(t, err)
	return ep
}

// seedCards stores cards directly, bypassing the card store
func (f *fixture) seedCards(t *testing.T, cards ...models.ReferenceCard) []models.ReferenceCard {
	t.Helper()
	for i := range cards {
		if cards[i].Summary == "" {
			cards[i].Summary = cards[i].Title + " summary"
		}
		if cards[i].CreatedAt.IsZero() {
			cards[i].CreatedAt = time.Now()
		}
	}
	require.NoError(t, f.cardRepo.CreateBatch(context.Background(), testUser, cards))
	return cards
}

func (f *fixture) paragraph(t *testing.T, id string) *models.Paragraph {
	t.Helper()
	p, err := f.paragraphs.GetByID(context.Background(), id, testUser)
	require.NoError(t, err)
	return p
}

// failingCardRepo fails every write after the wrapped repo's reads
type failingCardRepo struct {
	writingRepo.CardRepository
}

var errStorage = errors.New("storage unavailable")

func (r failingCardRepo) Update(ctx context.Context, card *models.ReferenceCard) error {
	return errStorage
}

func (r failingCardRepo) BulkHold(ctx context.Context, ids []string, userID string) (int, error) {
	return 0, errStorage
}

func (r failingCardRepo) CreateBatch(ctx context.Context, userID string, cards []models.ReferenceCard) error {
	return errStorage
}

// outageCardRepo fails BulkHold while down is set
type outageCardRepo struct {
	writingRepo.CardRepository
	down atomic.Bool
}

func (r *outageCardRepo) BulkHold(ctx context.Context, ids []string, userID string) (int, error) {
	if r.down.Load() {
		return 0, errStorage
	}
	return r.CardRepository.BulkHold(ctx, ids, userID)
}
