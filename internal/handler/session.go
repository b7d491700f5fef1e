package handler

import (
	"log/slog"
	"net/http"

	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/httputil"
)

// SessionHandler owns the per-author editing session: the card store's
// lifecycle, open triage sessions and the final autosave flush.
type SessionHandler struct {
	cardService    writingSvc.CardService
	episodeService writingSvc.EpisodeService
	triageService  writingSvc.TriageService
	logger         *slog.Logger
}

func NewSessionHandler(
	cardService writingSvc.CardService,
	episodeService writingSvc.EpisodeService,
	triageService writingSvc.TriageService,
	logger *slog.Logger,
) *SessionHandler {
	return &SessionHandler{
		cardService:    cardService,
		episodeService: episodeService,
		triageService:  triageService,
		logger:         logger,
	}
}

type sessionResponse struct {
	ActiveCards int `json:"active_cards"`
	HeldCards   int `json:"held_cards"`
}

// OpenSession POST /api/session
func (h *SessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	store, err := h.cardService.Open(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return
	}
	h.logger.Debug("editing session opened", "user_id", userID)
	httputil.RespondJSON(w, http.StatusOK, sessionResponse{
		ActiveCards: len(store.ActiveCards()),
		HeldCards:   len(store.HeldCards()),
	})
}

// CloseSession DELETE /api/session
// Pending autosaves are written before the card store is dropped.
// Triage sessions left open are discarded without holding anything.
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	h.episodeService.FlushAutosave(r.Context(), userID)
	h.triageService.Discard(userID)
	h.cardService.Release(userID)
	h.logger.Debug("editing session closed", "user_id", userID)
	w.WriteHeader(http.StatusNoContent)
}
