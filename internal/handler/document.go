package handler

import (
	"log/slog"
	"net/http"
	"time"

	models "episodic/internal/domain/models/writing"
	writingSvc "episodic/internal/domain/services/writing"
	"episodic/internal/httputil"
)

// DocumentHandler handles reference document uploads and search
type DocumentHandler struct {
	docService writingSvc.DocumentService
	logger     *slog.Logger
}

func NewDocumentHandler(docService writingSvc.DocumentService, logger *slog.Logger) *DocumentHandler {
	return &DocumentHandler{docService: docService, logger: logger}
}

// UploadDocument POST /api/documents
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req writingSvc.UploadDocumentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	req.UserID = userID

	doc, err := h.docService.Upload(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	// Echoing the body back is wasted bandwidth
	doc.Content = ""
	httputil.RespondJSON(w, http.StatusCreated, doc)
}

// SearchDocuments GET /api/documents/search?q=
func (h *DocumentHandler) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	snippets, err := h.docService.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		handleError(w, err)
		return
	}
	if snippets == nil {
		snippets = []models.DocumentSnippet{}
	}
	httputil.RespondJSON(w, http.StatusOK, snippets)
}

// HealthCheck is a simple health check endpoint
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}
