package handler

import "net/http"

// Handlers groups every route handler for registration
type Handlers struct {
	Episodes   *EpisodeHandler
	Paragraphs *ParagraphHandler
	Cards      *CardHandler
	Triage     *TriageHandler
	Documents  *DocumentHandler
	Session    *SessionHandler
}

// RegisterRoutes wires the API onto mux (Go 1.22+ method patterns)
func RegisterRoutes(mux *http.ServeMux, h *Handlers) {
	mux.HandleFunc("GET /health", HealthCheck)

	// Episodes
	mux.HandleFunc("GET /api/episodes", h.Episodes.ListEpisodes)
	mux.HandleFunc("POST /api/episodes", h.Episodes.CreateEpisode)
	mux.HandleFunc("GET /api/episodes/{id}", h.Episodes.OpenEpisode)
	mux.HandleFunc("PATCH /api/episodes/{id}", h.Episodes.UpdateEpisode)
	mux.HandleFunc("PUT /api/episodes/{id}", h.Episodes.SaveEpisode)
	mux.HandleFunc("DELETE /api/episodes/{id}", h.Episodes.DeleteEpisode)
	mux.HandleFunc("POST /api/episodes/{id}/paragraphs", h.Episodes.InsertParagraph)
	mux.HandleFunc("PUT /api/episodes/{id}/order", h.Episodes.ReorderParagraphs)
	mux.HandleFunc("PUT /api/episodes/{id}/draft", h.Episodes.AutosaveEpisode)
	mux.HandleFunc("POST /api/episodes/{id}/summary", h.Episodes.SummarizeEpisode)

	// Paragraph revisions
	mux.HandleFunc("GET /api/paragraphs/{id}", h.Paragraphs.GetParagraph)
	mux.HandleFunc("POST /api/paragraphs/{id}/apply-card", h.Paragraphs.ApplyCard)
	mux.HandleFunc("POST /api/paragraphs/{id}/undo", h.Paragraphs.Undo)
	mux.HandleFunc("GET /api/paragraphs/{id}/card-history", h.Paragraphs.CardHistory)
	mux.HandleFunc("POST /api/paragraphs/{id}/expand", h.Paragraphs.Expand)
	mux.HandleFunc("POST /api/paragraphs/{id}/describe", h.Paragraphs.Describe)
	mux.HandleFunc("POST /api/paragraphs/{id}/cards", h.Paragraphs.GenerateCards)
	mux.HandleFunc("POST /api/paragraphs/{id}/commands", h.Paragraphs.Command)

	// Cards ("held" and "bulk-hold" are literal segments and win over {id})
	mux.HandleFunc("GET /api/cards", h.Cards.ListCards)
	mux.HandleFunc("POST /api/cards", h.Cards.CreateCards)
	mux.HandleFunc("GET /api/cards/held", h.Cards.ListHeldCards)
	mux.HandleFunc("PATCH /api/cards/{id}", h.Cards.UpdateCard)
	mux.HandleFunc("POST /api/cards/bulk-hold", h.Cards.BulkHold)

	// Triage
	mux.HandleFunc("POST /api/triage", h.Triage.StartTriage)
	mux.HandleFunc("GET /api/triage/{id}", h.Triage.GetTriage)
	mux.HandleFunc("POST /api/triage/{id}/apply", h.Triage.ApplyTriage)
	mux.HandleFunc("DELETE /api/triage/{id}", h.Triage.CloseTriage)

	// Reference documents
	mux.HandleFunc("POST /api/documents", h.Documents.UploadDocument)
	mux.HandleFunc("GET /api/documents/search", h.Documents.SearchDocuments)

	// Editing session
	mux.HandleFunc("POST /api/session", h.Session.OpenSession)
	mux.HandleFunc("DELETE /api/session", h.Session.CloseSession)
}
