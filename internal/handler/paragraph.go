package handler

import (
	"log/slog"
	"net/http"

	models "episodic/internal/domain/models/writing"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/httputil"
)

// ParagraphHandler exposes the revision engine and per-paragraph generation
type ParagraphHandler struct {
	revisionService writingSvc.RevisionService
	cardService     writingSvc.CardService
	commandService  writingSvc.CommandService
	logger          *slog.Logger
}

func NewParagraphHandler(
	revisionService writingSvc.RevisionService,
	cardService writingSvc.CardService,
	commandService writingSvc.CommandService,
	logger *slog.Logger,
) *ParagraphHandler {
	return &ParagraphHandler{
		revisionService: revisionService,
		cardService:     cardService,
		commandService:  commandService,
		logger:          logger,
	}
}

func paragraphRoute(w http.ResponseWriter, r *http.Request) (userID, paragraphID string, ok bool) {
	if userID, ok = requireUser(w, r); !ok {
		return "", "", false
	}
	paragraphID, ok = requirePathParam(w, r, "id", "paragraph ID")
	return userID, paragraphID, ok
}

// GetParagraph GET /api/paragraphs/{id}
func (h *ParagraphHandler) GetParagraph(w http.ResponseWriter, r *http.Request) {
	userID, paragraphID, ok := paragraphRoute(w, r)
	if !ok {
		return
	}

	p, err := h.revisionService.GetParagraph(r.Context(), userID, paragraphID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, p)
}

// ApplyCard POST /api/paragraphs/{id}/apply-card
func (h *ParagraphHandler) ApplyCard(w http.ResponseWriter, r *http.Request) {
	userID, paragraphID, ok := paragraphRoute(w, r)
	if !ok {
		return
	}

	var req writingSvc.ApplyCardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.UserID = userID
	req.ParagraphID = paragraphID

	p, err := h.revisionService.ApplyCard(r.Context(), &req)
	if err != nil {
		h.logger.Debug("apply card failed", "paragraph_id", paragraphID, "card_id", req.CardID, "error", err)
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, p)
}

// Undo POST /api/paragraphs/{id}/undo
// An empty history is a 409 with code "empty_history"; the client shows it
// as a notice rather than an error.
func (h *ParagraphHandler) Undo(w http.ResponseWriter, r *http.Request) {
	userID, paragraphID, ok := paragraphRoute(w, r)
	if !ok {
		return
	}

	p, err := h.revisionService.Undo(r.Context(), userID, paragraphID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, p)
}

// CardHistory GET /api/paragraphs/{id}/card-history
func (h *ParagraphHandler) CardHistory(w http.ResponseWriter, r *http.Request) {
	userID, paragraphID, ok := paragraphRoute(w, r)
	if !ok {
		return
	}

	cards, err := h.revisionService.GetCardHistory(r.Context(), userID, paragraphID)
	if err != nil {
		handleError(w, err)
		return
	}
	if cards == nil {
		cards = []models.ReferenceCard{}
	}
	httputil.RespondJSON(w, http.StatusOK, cards)
}

// Expand POST /api/paragraphs/{id}/expand
func (h *ParagraphHandler) Expand(w http.ResponseWriter, r *http.Request) {
	userID, paragraphID, ok := paragraphRoute(w, r)
	if !ok {
		return
	}

	p, err := h.revisionService.Expand(r.Context(), userID, paragraphID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, p)
}

type describeResponse struct {
	ParagraphID string `json:"paragraph_id"`
	Description string `json:"description"`
}

// Describe POST /api/paragraphs/{id}/describe
func (h *ParagraphHandler) Describe(w http.ResponseWriter, r *http.Request) {
	userID, paragraphID, ok := paragraphRoute(w, r)
	if !ok {
		return
	}

	desc, err := h.revisionService.Describe(r.Context(), userID, paragraphID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, describeResponse{ParagraphID: paragraphID, Description: desc})
}

// GenerateCards POST /api/paragraphs/{id}/cards
func (h *ParagraphHandler) GenerateCards(w http.ResponseWriter, r *http.Request) {
	userID, paragraphID, ok := paragraphRoute(w, r)
	if !ok {
		return
	}

	cards, err := h.cardService.GenerateCards(r.Context(), &writingSvc.GenerateCardsRequest{
		UserID:      userID,
		ParagraphID: paragraphID,
	})
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, cards)
}

// Command POST /api/paragraphs/{id}/commands
func (h *ParagraphHandler) Command(w http.ResponseWriter, r *http.Request) {
	userID, paragraphID, ok := paragraphRoute(w, r)
	if !ok {
		return
	}

	var req writingSvc.CommandRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.UserID = userID
	req.ParagraphID = paragraphID

	result, err := h.commandService.Dispatch(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}
