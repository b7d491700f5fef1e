package handler

import (
	"log/slog"
	"net/http"

	"episodic/internal/domain"
	models "episodic/internal/domain/models/writing"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/httputil"
)

// CardHandler serves the author's reference cards through their card store
type CardHandler struct {
	cardService writingSvc.CardService
	logger      *slog.Logger
}

func NewCardHandler(cardService writingSvc.CardService, logger *slog.Logger) *CardHandler {
	return &CardHandler{cardService: cardService, logger: logger}
}

// store opens (or reuses) the caller's card store
func (h *CardHandler) store(w http.ResponseWriter, r *http.Request) (writingSvc.CardStore, bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return nil, false
	}
	store, err := h.cardService.Open(r.Context(), userID)
	if err != nil {
		handleError(w, err)
		return nil, false
	}
	return store, true
}

func respondCards(w http.ResponseWriter, status int, cards []models.ReferenceCard) {
	if cards == nil {
		cards = []models.ReferenceCard{}
	}
	httputil.RespondJSON(w, status, cards)
}

// ListCards GET /api/cards
// Active cards: pinned first, then newest.
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	respondCards(w, http.StatusOK, store.ActiveCards())
}

// ListHeldCards GET /api/cards/held
func (h *CardHandler) ListHeldCards(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	respondCards(w, http.StatusOK, store.HeldCards())
}

type createCardsBody struct {
	Cards []writingSvc.CreateCardRequest `json:"cards"`
}

// CreateCards POST /api/cards
// Accepts {"cards": [...]} and stores the batch in one insert.
func (h *CardHandler) CreateCards(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	var body createCardsBody
	if !decodeBody(w, r, &body) {
		return
	}

	cards := make([]models.ReferenceCard, len(body.Cards))
	for i := range body.Cards {
		cards[i] = body.Cards[i].ToCard()
	}

	created, err := store.AddCards(r.Context(), cards)
	if err != nil {
		handleError(w, err)
		return
	}
	respondCards(w, http.StatusCreated, created)
}

type updateCardBody struct {
	IsPinned *bool                   `json:"is_pinned"`
	IsInHold *bool                   `json:"is_in_hold"`
	Group    httputil.OptionalString `json:"group"`
}

// UpdateCard PATCH /api/cards/{id}
// "group": null ungroups; an absent key leaves the group unchanged.
func (h *CardHandler) UpdateCard(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}
	id, ok := requirePathParam(w, r, "id", "card ID")
	if !ok {
		return
	}

	var body updateCardBody
	if !decodeBody(w, r, &body) {
		return
	}
	req := writingSvc.UpdateCardRequest{
		IsPinned:   body.IsPinned,
		IsInHold:   body.IsInHold,
		Group:      body.Group.Value,
		ClearGroup: body.Group.IsNull(),
	}

	card, found := store.Card(id)
	if !found {
		handleError(w, domain.NewNotFound("card", id))
		return
	}
	req.Apply(card)

	updated, err := store.UpdateCard(r.Context(), *card)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, updated)
}

type bulkHoldResponse struct {
	Held int `json:"held"`
}

// BulkHold POST /api/cards/bulk-hold
func (h *CardHandler) BulkHold(w http.ResponseWriter, r *http.Request) {
	store, ok := h.store(w, r)
	if !ok {
		return
	}

	var req writingSvc.BulkHoldRequest
	if !decodeBody(w, r, &req) {
		return
	}

	n, err := store.BulkHold(r.Context(), req.CardIDs)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, bulkHoldResponse{Held: n})
}
