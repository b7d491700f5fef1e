package handler

import (
	"log/slog"
	"net/http"

	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/httputil"
)

// TriageHandler drives triage sessions over HTTP
type TriageHandler struct {
	triageService writingSvc.TriageService
	logger        *slog.Logger
}

func NewTriageHandler(triageService writingSvc.TriageService, logger *slog.Logger) *TriageHandler {
	return &TriageHandler{triageService: triageService, logger: logger}
}

// StartTriage POST /api/triage
func (h *TriageHandler) StartTriage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req writingSvc.StartTriageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.UserID = userID

	session, err := h.triageService.Start(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, session)
}

// GetTriage GET /api/triage/{id}
func (h *TriageHandler) GetTriage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := requirePathParam(w, r, "id", "session ID")
	if !ok {
		return
	}

	session, err := h.triageService.Get(userID, id)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, session)
}

type applyTriageBody struct {
	CardID string `json:"reference_card_id"`
}

// ApplyTriage POST /api/triage/{id}/apply
func (h *TriageHandler) ApplyTriage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := requirePathParam(w, r, "id", "session ID")
	if !ok {
		return
	}

	var body applyTriageBody
	if !decodeBody(w, r, &body) {
		return
	}
	if body.CardID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "reference_card_id is required")
		return
	}

	session, err := h.triageService.Apply(r.Context(), userID, id, body.CardID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, session)
}

// CloseTriage DELETE /api/triage/{id}
func (h *TriageHandler) CloseTriage(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := requirePathParam(w, r, "id", "session ID")
	if !ok {
		return
	}

	result, err := h.triageService.Close(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}
	if result.HeldCardIDs == nil {
		result.HeldCardIDs = []string{}
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}
