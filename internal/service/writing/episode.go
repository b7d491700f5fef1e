package writing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"episodic/internal/config"
	"episodic/internal/domain"
	models "episodic/internal/domain/models/writing"
	"episodic/internal/domain/repositories"
	writingRepo "episodic/internal/domain/repositories/writing"
	domainllm "episodic/internal/domain/services/llm"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/service/llm/prompts"
)

const (
	defaultEpisodeTitle = "Untitled episode"
	autosaveTimeout     = 30 * time.Second
)

type episodeService struct {
	episodeRepo   writingRepo.EpisodeRepository
	paragraphRepo writingRepo.ParagraphRepository
	snapshots     writingRepo.SnapshotStore
	txManager     repositories.TransactionManager
	generator     domainllm.TextGenerator
	prompts       *prompts.Registry
	autosave      *debouncer
	logger        *slog.Logger
}

// NewEpisodeService creates the episode service
func NewEpisodeService(
	episodeRepo writingRepo.EpisodeRepository,
	paragraphRepo writingRepo.ParagraphRepository,
	snapshots writingRepo.SnapshotStore,
	txManager repositories.TransactionManager,
	generator domainllm.TextGenerator,
	registry *prompts.Registry,
	autosaveDelay time.Duration,
	logger *slog.Logger,
) writingSvc.EpisodeService {
	return &episodeService{
		episodeRepo:   episodeRepo,
		paragraphRepo: paragraphRepo,
		snapshots:     snapshots,
		txManager:     txManager,
		generator:     generator,
		prompts:       registry,
		autosave:      newDebouncer(autosaveDelay),
		logger:        logger.With("service", "episode"),
	}
}

// CreateEpisode creates an episode with the given paragraphs, or with
// blank ones when none are supplied
func (s *episodeService) CreateEpisode(ctx context.Context, req *writingSvc.CreateEpisodeRequest) (*models.Episode, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		req.Title = defaultEpisodeTitle
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.Length(1, config.MaxEpisodeTitleLength)),
		validation.Field(&req.Paragraphs, validation.Length(0, config.MaxParagraphsPerEpisode)),
	); err != nil {
		return nil, domain.NewValidation("%v", err)
	}

	contents := req.Paragraphs
	if len(contents) == 0 {
		contents = make([]string, config.NewEpisodeParagraphCount)
	}

	now := time.Now()
	ep := &models.Episode{
		UserID:    req.UserID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for i, content := range contents {
		p := models.NewParagraph(uuid.NewString(), i+1)
		p.Content = content
		ep.Paragraphs = append(ep.Paragraphs, p)
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.episodeRepo.Create(txCtx, ep); err != nil {
			return err
		}
		ep.Renumber()
		return s.paragraphRepo.SaveLayout(txCtx, ep.ID, ep.Paragraphs)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("episode created", "id", ep.ID, "user_id", req.UserID, "paragraphs", len(ep.Paragraphs))
	return s.episodeRepo.GetByID(ctx, ep.ID, req.UserID)
}

func (s *episodeService) GetEpisode(ctx context.Context, id, userID string) (*models.Episode, error) {
	return s.episodeRepo.GetByID(ctx, id, userID)
}

func (s *episodeService) ListEpisodes(ctx context.Context, userID string) ([]models.EpisodeSummary, error) {
	return s.episodeRepo.List(ctx, userID)
}

// UpdateEpisode edits title and/or summary
func (s *episodeService) UpdateEpisode(ctx context.Context, id string, req *writingSvc.UpdateEpisodeRequest) (*models.Episode, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		req.Title = &title
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Title, validation.NilOrNotEmpty, validation.Length(1, config.MaxEpisodeTitleLength)),
	); err != nil {
		return nil, domain.NewValidation("%v", err)
	}

	ep, err := s.episodeRepo.GetByID(ctx, id, req.UserID)
	if err != nil {
		return nil, err
	}
	if req.Title != nil {
		ep.Title = *req.Title
	}
	if req.Summary != nil {
		ep.Summary = strings.TrimSpace(*req.Summary)
	}
	ep.UpdatedAt = time.Now()

	if err := s.episodeRepo.UpdateMeta(ctx, ep); err != nil {
		return nil, err
	}
	return ep, nil
}

func (s *episodeService) DeleteEpisode(ctx context.Context, id, userID string) error {
	if err := s.episodeRepo.Delete(ctx, id, userID); err != nil {
		return err
	}

	if snap, err := s.snapshots.Get(ctx, userID); err == nil && snap != nil && snap.ID == id {
		s.autosave.Cancel(userID)
		if err := s.snapshots.Clear(ctx, userID); err != nil {
			s.logger.Warn("failed to clear snapshot", "user_id", userID, "error", err)
		}
	}

	s.logger.Info("episode deleted", "id", id, "user_id", userID)
	return nil
}

// Open loads the stored episode and prefers the fallback snapshot when it
// belongs to the same episode and is newer
func (s *episodeService) Open(ctx context.Context, id, userID string) (*writingSvc.OpenedEpisode, error) {
	stored, err := s.episodeRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshots.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("snapshot read failed", "user_id", userID, "error", err)
		return &writingSvc.OpenedEpisode{Episode: stored}, nil
	}
	if snap != nil && snap.ID == id && snap.UpdatedAt.After(stored.UpdatedAt) {
		s.logger.Info("restoring unsaved episode", "id", id, "user_id", userID)
		return &writingSvc.OpenedEpisode{Episode: snap, Restored: true}, nil
	}
	return &writingSvc.OpenedEpisode{Episode: stored}, nil
}

// Save persists title, summary, paragraph content and order in one
// transaction. Paragraph histories are never written here.
func (s *episodeService) Save(ctx context.Context, ep *models.Episode) (*models.Episode, error) {
	if ep == nil || ep.ID == "" {
		return nil, domain.NewValidation("episode id is required")
	}
	if len(ep.Paragraphs) > config.MaxParagraphsPerEpisode {
		return nil, domain.NewValidation("episode has %d paragraphs, max is %d", len(ep.Paragraphs), config.MaxParagraphsPerEpisode)
	}

	title := strings.TrimSpace(ep.Title)
	if title == "" {
		title = defaultEpisodeTitle
	}
	if len(title) > config.MaxEpisodeTitleLength {
		return nil, domain.NewValidation("title exceeds %d characters", config.MaxEpisodeTitleLength)
	}

	// Ownership check
	if _, err := s.episodeRepo.GetByID(ctx, ep.ID, ep.UserID); err != nil {
		return nil, err
	}

	working := &models.Episode{
		ID:         ep.ID,
		UserID:     ep.UserID,
		Title:      title,
		Summary:    ep.Summary,
		Paragraphs: append([]models.Paragraph(nil), ep.Paragraphs...),
		UpdatedAt:  time.Now(),
	}
	working.SortParagraphs()

	seen := make(map[string]bool, len(working.Paragraphs))
	keep := make([]string, 0, len(working.Paragraphs))
	for i := range working.Paragraphs {
		p := &working.Paragraphs[i]
		p.ID = storedParagraphID(working.ID, p.ID)
		if seen[p.ID] {
			return nil, domain.NewValidation("paragraph %s appears twice", p.ID)
		}
		seen[p.ID] = true
		keep = append(keep, p.ID)
	}
	working.Renumber()

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.episodeRepo.UpdateMeta(txCtx, working); err != nil {
			return err
		}
		if err := s.paragraphRepo.SaveLayout(txCtx, working.ID, working.Paragraphs); err != nil {
			return err
		}
		return s.paragraphRepo.DeleteExcept(txCtx, working.ID, keep)
	})
	if err != nil {
		return nil, err
	}

	s.clearSnapshotIfCurrent(ctx, ep)

	s.logger.Info("episode saved", "id", ep.ID, "paragraphs", len(working.Paragraphs))
	return s.episodeRepo.GetByID(ctx, ep.ID, ep.UserID)
}

// clearSnapshotIfCurrent drops the fallback slot when the save just made
// covers it. A snapshot touched after ep was captured is kept.
func (s *episodeService) clearSnapshotIfCurrent(ctx context.Context, ep *models.Episode) {
	snap, err := s.snapshots.Get(ctx, ep.UserID)
	if err != nil || snap == nil || snap.ID != ep.ID || snap.UpdatedAt.After(ep.UpdatedAt) {
		return
	}
	if err := s.snapshots.Clear(ctx, ep.UserID); err != nil {
		s.logger.Warn("failed to clear snapshot", "user_id", ep.UserID, "error", err)
	}
}

// Autosave writes the snapshot now and schedules a Save after the debounce
// window. A later call for the same user supersedes the pending one.
// Temporary paragraph ids are resolved before the snapshot is written, so
// a restored draft and every later save address the same rows.
func (s *episodeService) Autosave(ctx context.Context, ep *models.Episode) (*writingSvc.AutosaveResult, error) {
	if ep == nil || ep.ID == "" {
		return nil, domain.NewValidation("episode id is required")
	}

	result := &writingSvc.AutosaveResult{ParagraphIDs: map[string]string{}}
	snap := *ep
	snap.Paragraphs = make([]models.Paragraph, len(ep.Paragraphs))
	for i := range ep.Paragraphs {
		p := ep.Paragraphs[i].Clone()
		if stored := storedParagraphID(ep.ID, p.ID); stored != p.ID {
			if p.ID != "" {
				result.ParagraphIDs[p.ID] = stored
			}
			p.ID = stored
		}
		snap.Paragraphs[i] = *p
	}
	snap.UpdatedAt = time.Now()

	if err := s.snapshots.Put(ctx, ep.UserID, &snap); err != nil {
		return nil, err
	}

	s.autosave.Schedule(ep.UserID, func(runCtx context.Context) {
		saveCtx, cancel := context.WithTimeout(runCtx, autosaveTimeout)
		defer cancel()
		if _, err := s.Save(saveCtx, &snap); err != nil {
			s.logger.Error("autosave failed", "episode_id", snap.ID, "user_id", snap.UserID, "error", err)
			return
		}
		s.logger.Debug("autosave complete", "episode_id", snap.ID)
	})
	return result, nil
}

// storedParagraphID returns the id a client paragraph id is stored under.
// Temp ids hash into the episode's namespace, so the same temp id always
// lands on the same row. A blank id has no identity and gets a fresh one.
func storedParagraphID(episodeID, id string) string {
	if id == "" {
		return uuid.NewString()
	}
	if !models.IsTempID(id) && uuid.Validate(id) == nil {
		return id
	}
	ns, err := uuid.Parse(episodeID)
	if err != nil {
		ns = uuid.NewSHA1(uuid.NameSpaceURL, []byte(episodeID))
	}
	return uuid.NewSHA1(ns, []byte(id)).String()
}

func (s *episodeService) FlushAutosave(ctx context.Context, userID string) {
	if s.autosave.Flush(ctx, userID) {
		s.logger.Debug("autosave flushed", "user_id", userID)
	}
}

// Reorder applies a full new ordering
func (s *episodeService) Reorder(ctx context.Context, req *writingSvc.ReorderRequest) (*models.Episode, error) {
	ep, err := s.episodeRepo.GetByID(ctx, req.EpisodeID, req.UserID)
	if err != nil {
		return nil, err
	}
	if err := ep.Reorder(req.ParagraphIDs); err != nil {
		return nil, err
	}
	if err := s.persistLayout(ctx, ep); err != nil {
		return nil, err
	}
	return ep, nil
}

// InsertParagraph adds a blank paragraph after AfterID, or at the end
func (s *episodeService) InsertParagraph(ctx context.Context, req *writingSvc.InsertParagraphRequest) (*models.Episode, error) {
	ep, err := s.episodeRepo.GetByID(ctx, req.EpisodeID, req.UserID)
	if err != nil {
		return nil, err
	}
	if len(ep.Paragraphs) >= config.MaxParagraphsPerEpisode {
		return nil, domain.NewValidation("episode already has %d paragraphs", len(ep.Paragraphs))
	}

	p := models.NewParagraph(uuid.NewString(), 0)
	p.EpisodeID = ep.ID
	if err := ep.InsertParagraph(p, req.AfterID); err != nil {
		return nil, err
	}
	if err := s.persistLayout(ctx, ep); err != nil {
		return nil, err
	}
	return ep, nil
}

func (s *episodeService) persistLayout(ctx context.Context, ep *models.Episode) error {
	ep.UpdatedAt = time.Now()
	return s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.paragraphRepo.SaveLayout(txCtx, ep.ID, ep.Paragraphs); err != nil {
			return err
		}
		return s.episodeRepo.UpdateMeta(txCtx, ep)
	})
}

// Summarize generates a one-sentence summary and stores it
func (s *episodeService) Summarize(ctx context.Context, id, userID string) (*models.Episode, error) {
	ep, err := s.episodeRepo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	text := ep.FullText("\n\n")
	if text == "" {
		return nil, domain.NewValidation("episode %s has no content to summarize", id)
	}

	prompt, err := s.prompts.Render(prompts.SummarizeEpisode, prompts.Data{
		EpisodeTitle: ep.Title,
		Text:         text,
	})
	if err != nil {
		return nil, err
	}

	summary, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	ep.Summary = strings.TrimSpace(summary)
	ep.UpdatedAt = time.Now()
	if err := s.episodeRepo.UpdateMeta(ctx, ep); err != nil {
		return nil, err
	}

	s.logger.Info("episode summarized", "id", id)
	return ep, nil
}
