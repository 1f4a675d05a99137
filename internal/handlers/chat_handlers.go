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

// ChatService is the part of services.ChatService the handlers use.
type ChatService interface {
	Turn(ctx context.Context, req services.TurnRequest) (*services.TurnResult, error)
	Transcript(ctx context.Context, sessionID, identity string, limit int) ([]models.Message, error)
}

// ChatHandlers handles HTTP requests related to chat sessions.
type ChatHandlers struct {
	chatService ChatService
}

// NewChatHandlers creates a new ChatHandlers instance.
func NewChatHandlers(chatService ChatService) *ChatHandlers {
	return &ChatHandlers{
		chatService: chatService,
	}
}

// HandleCreateSession handles POST /v1/sessions.
func (h *ChatHandlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusCreated, models.SessionResponse{SessionID: services.NewSessionID()})
}

// HandleAsk handles POST /v1/sessions/{sessionID}/messages and runs one turn.
func (h *ChatHandlers) HandleAsk(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID, identity := sessionFromRequest(r)

	var req models.AskRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	res, err := h.chatService.Turn(ctx, services.TurnRequest{
		SessionID: sessionID,
		Identity:  identity,
		Question:  req.Question,
		TopK:      req.TopK,
		Topic:     req.Topic,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyQuestion), errors.Is(err, services.ErrInvalidSession):
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			slog.ErrorContext(ctx, "chat turn failed", "error", err)
			httputil.RespondError(w, http.StatusInternalServerError, "Failed to answer question")
		}
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.AskResponse{
		SessionID:    sessionID,
		Reply:        res.Reply,
		Sources:      services.Citations(res.Hits),
		CitationLine: res.CitationLine,
		PromptTokens: res.PromptTokens,
	})
}

// HandleTranscript handles GET /v1/sessions/{sessionID}/messages?limit=.
func (h *ChatHandlers) HandleTranscript(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID, identity := sessionFromRequest(r)

	limit, err := httputil.QueryInt(r, "limit")
	if err != nil || (limit != nil && *limit < 0) {
		httputil.RespondError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	n := 0
	if limit != nil {
		n = *limit
	}

	msgs, err := h.chatService.Transcript(ctx, sessionID, identity, n)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSession) {
			httputil.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.ErrorContext(ctx, "failed to load transcript", "error", err)
		httputil.RespondError(w, http.StatusInternalServerError, "Failed to load transcript")
		return
	}

	httputil.RespondJSON(w, http.StatusOK, models.TranscriptResponse{
		SessionID: sessionID,
		Messages:  msgs,
	})
}
