package handler

import (
	"log/slog"
	"net/http"

	models "episodic/internal/domain/models/writing"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/httputil"
)

// EpisodeHandler serves episode CRUD, layout edits, save and autosave
type EpisodeHandler struct {
	episodeService writingSvc.EpisodeService
	logger         *slog.Logger
}

func NewEpisodeHandler(episodeService writingSvc.EpisodeService, logger *slog.Logger) *EpisodeHandler {
	return &EpisodeHandler{episodeService: episodeService, logger: logger}
}

// ListEpisodes GET /api/episodes
func (h *EpisodeHandler) ListEpisodes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	episodes, err := h.episodeService.ListEpisodes(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	if episodes == nil {
		episodes = []models.EpisodeSummary{}
	}
	httputil.RespondJSON(w, http.StatusOK, episodes)
}

// CreateEpisode POST /api/episodes
func (h *EpisodeHandler) CreateEpisode(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req writingSvc.CreateEpisodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.UserID = userID

	ep, err := h.episodeService.CreateEpisode(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, ep)
}

// OpenEpisode GET /api/episodes/{id}
// Returns the autosave snapshot instead of the stored copy when it is newer.
func (h *EpisodeHandler) OpenEpisode(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := requirePathParam(w, r, "id", "episode ID")
	if !ok {
		return
	}

	opened, err := h.episodeService.Open(r.Context(), id, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, opened)
}

// UpdateEpisode PATCH /api/episodes/{id}
func (h *EpisodeHandler) UpdateEpisode(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := requirePathParam(w, r, "id", "episode ID")
	if !ok {
		return
	}

	var req writingSvc.UpdateEpisodeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.UserID = userID

	ep, err := h.episodeService.UpdateEpisode(r.Context(), id, &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ep)
}

// decodeEpisode reads a full client copy and binds it to the route and user
func decodeEpisode(w http.ResponseWriter, r *http.Request) (*models.Episode, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	id, ok := requirePathParam(w, r, "id", "episode ID")
	if !ok {
		return nil, false
	}

	var ep models.Episode
	if !decodeBody(w, r, &ep) {
		return nil, false
	}
	ep.ID = id
	ep.UserID = userID
	return &ep, true
}

// SaveEpisode PUT /api/episodes/{id}
func (h *EpisodeHandler) SaveEpisode(w http.ResponseWriter, r *http.Request) {
	ep, ok := decodeEpisode(w, r)
	if !ok {
		return
	}

	saved, err := h.episodeService.Save(r.Context(), ep)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, saved)
}

// AutosaveEpisode PUT /api/episodes/{id}/draft
// The snapshot is written before responding; persistence happens later.
// The body maps temporary paragraph ids to their stored ids.
func (h *EpisodeHandler) AutosaveEpisode(w http.ResponseWriter, r *http.Request) {
	ep, ok := decodeEpisode(w, r)
	if !ok {
		return
	}

	result, err := h.episodeService.Autosave(r.Context(), ep)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusAccepted, result)
}

// DeleteEpisode DELETE /api/episodes/{id}
func (h *EpisodeHandler) DeleteEpisode(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := requirePathParam(w, r, "id", "episode ID")
	if !ok {
		return
	}

	if err := h.episodeService.DeleteEpisode(r.Context(), id, userID); err != nil {
		handleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// InsertParagraph POST /api/episodes/{id}/paragraphs
func (h *EpisodeHandler) InsertParagraph(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := requirePathParam(w, r, "id", "episode ID")
	if !ok {
		return
	}

	var req writingSvc.InsertParagraphRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.UserID = userID
	req.EpisodeID = id

	ep, err := h.episodeService.InsertParagraph(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, ep)
}

// ReorderParagraphs PUT /api/episodes/{id}/order
func (h *EpisodeHandler) ReorderParagraphs(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := requirePathParam(w, r, "id", "episode ID")
	if !ok {
		return
	}

	var req writingSvc.ReorderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.UserID = userID
	req.EpisodeID = id

	ep, err := h.episodeService.Reorder(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ep)
}

// SummarizeEpisode POST /api/episodes/{id}/summary
func (h *EpisodeHandler) SummarizeEpisode(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := requirePathParam(w, r, "id", "episode ID")
	if !ok {
		return
	}

	ep, err := h.episodeService.Summarize(r.Context(), id, userID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, ep)
}
