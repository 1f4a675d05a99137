package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"seocoach-backend/internal/history"
	"seocoach-backend/internal/llm"
	"seocoach-backend/internal/logger"
	"seocoach-backend/internal/models"
	"seocoach-backend/internal/prompt"
	"seocoach-backend/internal/retrieval"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// Custom errors for the chat service
var (
	ErrEmptyQuestion  = errors.New("question cannot be empty")
	ErrInvalidSession = errors.New("session id cannot be empty")
)

// ChatConfig bounds each turn.
type ChatConfig struct {
	TopK           int
	MaxTopK        int
	MaxBodyChars   int
	HistoryWindow  int
	DisplayHistory int
	Topic          string // Default topic filter; empty disables it
}

// TurnRequest is one question in a session. Nil TopK/Topic use the configured
// defaults; a non-nil empty Topic disables the filter.
type TurnRequest struct {
	SessionID string
	Identity  string
	Question  string
	TopK      *int
	Topic     *string
}

type TurnResult struct {
	Reply        string
	Hits         []models.RetrievalHit
	CitationLine string
	PromptTokens int
}

// ChatService runs the retrieve, prompt, complete and persist cycle of a
// conversation. It keeps no per-session state between turns.
type ChatService struct {
	retrieval *retrieval.Client
	history   *history.Client
	completer *llm.Completer
	tokens    *llm.TokenCounter
	cfg       ChatConfig
}

// NewChatService creates a new ChatService. tokens may be nil.
func NewChatService(r *retrieval.Client, h *history.Client, c *llm.Completer, tokens *llm.TokenCounter, cfg ChatConfig) *ChatService {
	if cfg.MaxTopK <= 0 {
		cfg.MaxTopK = 10
	}
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.DisplayHistory <= 0 {
		cfg.DisplayHistory = 50
	}
	return &ChatService{
		retrieval: r,
		history:   h,
		completer: c,
		tokens:    tokens,
		cfg:       cfg,
	}
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.NewString()
}

// Turn answers one question. The user message is stored before retrieval and
// the reply, error replies included, is stored after completion. Only blank
// questions and missing session ids fail; every backend problem degrades.
func (s *ChatService) Turn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if strings.TrimSpace(req.SessionID) == "" {
		return nil, ErrInvalidSession
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(req.SessionID),
		Identity:  logger.Ptr(req.Identity),
		Component: "seocoach.services.chat",
	})
	sc := logger.StartSpan(ctx, "chat.turn")
	defer sc.End()
	ctx = sc.Context()

	start := time.Now()
	k := s.topK(req.TopK)
	topic := s.cfg.Topic
	if req.Topic != nil {
		topic = strings.TrimSpace(*req.Topic)
	}

	userMsg := s.history.Append(ctx, req.SessionID, req.Identity, models.RoleUser, question)

	hits := s.retrieval.Search(ctx, question, k, topic)
	contextText := prompt.FormatContext(hits, s.cfg.MaxBodyChars)
	window := s.priorTurns(ctx, req.SessionID, req.Identity, userMsg.ID)
	messages := prompt.Assemble(window, contextText, question)

	promptTokens := s.tokens.CountMessages(llm.SystemPrompt, messages)

	reply := s.completer.Complete(ctx, messages)
	if llm.IsErrorReply(reply) {
		sc.RecordError(errors.New(reply))
	}

	s.history.Append(ctx, req.SessionID, req.Identity, models.RoleAssistant, reply)

	sc.Span().SetAttributes(
		attribute.Int("chat.top_k", k),
		attribute.String("chat.topic", topic),
		attribute.Int("chat.hits", len(hits)),
		attribute.Int("chat.history_turns", len(window)),
		attribute.Int("chat.prompt_tokens", promptTokens),
	)
	slog.InfoContext(ctx, "chat turn completed",
		"question", logger.Truncate(question, 80),
		"hits", len(hits),
		"history_turns", len(window),
		"prompt_tokens", promptTokens,
		"duration_ms", time.Since(start).Milliseconds())

	return &TurnResult{
		Reply:        reply,
		Hits:         hits,
		CitationLine: CitationLine(hits),
		PromptTokens: promptTokens,
	}, nil
}

// priorTurns returns up to HistoryWindow messages preceding the current turn.
// The window is read after the current question is stored so the stored copy
// is dropped by id; if the append failed nothing matches and only the limit
// applies.
func (s *ChatService) priorTurns(ctx context.Context, sessionID, identity string, currentID int64) []models.Message {
	if s.cfg.HistoryWindow <= 0 {
		return nil
	}
	msgs := s.history.Fetch(ctx, sessionID, identity, s.cfg.HistoryWindow+1)
	out := make([]models.Message, 0, len(msgs))
	for _, m := range msgs {
		if currentID != 0 && m.ID == currentID {
			continue
		}
		out = append(out, m)
	}
	if len(out) > s.cfg.HistoryWindow {
		out = out[len(out)-s.cfg.HistoryWindow:]
	}
	return out
}

func (s *ChatService) topK(requested *int) int {
	k := s.cfg.TopK
	if requested != nil {
		k = *requested
	}
	return min(max(k, 1), s.cfg.MaxTopK)
}

// MaxTranscriptLimit bounds one transcript page.
const MaxTranscriptLimit = 250

// Transcript returns the latest messages of a session, oldest first. A
// non-positive limit uses the display default.
func (s *ChatService) Transcript(ctx context.Context, sessionID, identity string, limit int) ([]models.Message, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSession
	}
	if limit <= 0 {
		limit = s.cfg.DisplayHistory
	}
	return s.history.Fetch(ctx, sessionID, identity, min(limit, MaxTranscriptLimit)), nil
}

// Citations lists the source of each hit in retrieval order.
func Citations(hits []models.RetrievalHit) []models.Citation {
	out := make([]models.Citation, 0, len(hits))
	for _, h := range hits {
		out = append(out, models.Citation{Source: h.Source, Section: h.Section})
	}
	return out
}

// CitationLine renders hits as "Sources: a.md • Intro, b.md". No hits, no line.
func CitationLine(hits []models.RetrievalHit) string {
	if len(hits) == 0 {
		return ""
	}
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		p := h.Source
		if h.Section != "" {
			p += " • " + h.Section
		}
		parts = append(parts, p)
	}
	return "Sources: " + strings.Join(parts, ", ")
}
