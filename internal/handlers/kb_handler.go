package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"seocoach-backend/internal/models"
	"seocoach-backend/internal/services"
	"seocoach-backend/pkg/httputil"
)

// KBService defines the interface expected from the knowledge base service.
type KBService interface {
	Search(ctx context.Context, query string, k *int, topic *string) ([]models.RetrievalHit, error)
	Ingest(ctx context.Context, docs []models.Document) (int, error)
}

type KBHandler struct {
	kbService KBService
}

func NewKBHandler(kbSvc KBService) *KBHandler {
	return &KBHandler{
		kbService: kbSvc,
	}
}

// HandleSearch handles GET /v1/search?q=&k=&topic=
func (h *KBHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	k, err := httputil.QueryInt(r, "k")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "k must be an integer")
		return
	}

	hits, err := h.kbService.Search(r.Context(), query, k, httputil.QueryString(r, "topic"))
	if err != nil {
		if errors.Is(err, services.ErrEmptyQuery) {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(r.Context(), "search failed", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.SearchResponse{Query: query, Hits: hits})
}

type ingestRequest struct {
	Documents []models.Document `json:"documents"`
}

type ingestResponse struct {
	Upserted int `json:"upserted"`
}

// HandleIngest handles POST /v1/documents
func (h *KBHandler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	n, err := h.kbService.Ingest(r.Context(), req.Documents)
	if err != nil {
		if errors.Is(err, services.ErrKBValidation) {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to store documents")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, ingestResponse{Upserted: n})
}
