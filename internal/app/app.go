// Package app wires configuration into the services shared by the HTTP
// server and the CLI.
package app

import (
	"context"
	"log/slog"
	"time"

	"seocoach-backend/internal/backends"
	"seocoach-backend/internal/config"
	"seocoach-backend/internal/history"
	"seocoach-backend/internal/llm"
	"seocoach-backend/internal/logger"
	"seocoach-backend/internal/retrieval"
	"seocoach-backend/internal/services"
	"seocoach-backend/internal/store"
)

// App holds the constructed clients and services. Close releases the store.
type App struct {
	Store store.Store
	Auth  *services.AuthService // nil when the backend has no user table
	Chat  *services.ChatService
	KB    *services.KBService
}

// New builds every dependency from cfg. Backend and model failures do not
// stop startup: the store falls back to store.Unavailable and a missing API
// key yields the fixed "not configured" reply.
func New(ctx context.Context, cfg *config.Config, registry *backends.Registry) *App {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Backend:   logger.Ptr(cfg.Store.Backend),
		Component: "seocoach.app",
	})
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var (
		st    store.Store
		users store.UserStore
	)
	opened, err := registry.Open(openCtx, cfg)
	switch {
	case err != nil:
		slog.ErrorContext(ctx, "storage backend unavailable, running degraded",
			"history_backend", cfg.HistoryBackendName(),
			"error", err)
		st = store.Unavailable{Reason: err}
	case opened.HistoryErr != nil:
		st, users = opened.Store, opened.Users
		slog.ErrorContext(ctx, "history backend unavailable, answering without memory",
			"history_backend", cfg.HistoryBackendName(),
			"error", opened.HistoryErr)
	default:
		st, users = opened.Store, opened.Users
		slog.InfoContext(ctx, "storage backend ready",
			"history_backend", cfg.HistoryBackendName())
	}

	var client llm.Client
	if !cfg.LLM.Enabled() {
		slog.WarnContext(ctx, "model API key not configured, answers are disabled", "provider", cfg.LLM.Provider)
	} else if client, err = llm.New(llm.Config{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
	}); err != nil {
		slog.ErrorContext(ctx, "model client unavailable", "provider", cfg.LLM.Provider, "error", err)
	}

	tokens, err := llm.GetTokenCounter()
	if err != nil {
		slog.WarnContext(ctx, "token counter unavailable, using byte estimate", "error", err)
	}

	chat := services.NewChatService(
		retrieval.NewClient(st),
		history.NewClient(st),
		llm.NewCompleter(client, cfg.LLM.MaxTokens),
		tokens,
		services.ChatConfig{
			TopK:           cfg.RAG.TopK,
			MaxTopK:        cfg.RAG.MaxTopK,
			MaxBodyChars:   cfg.RAG.MaxBodyChars,
			HistoryWindow:  cfg.RAG.HistoryWindow,
			DisplayHistory: cfg.RAG.DisplayHistory,
			Topic:          cfg.RAG.Topic,
		},
	)

	a := &App{
		Store: st,
		Chat:  chat,
		KB:    services.NewKBService(st, cfg.RAG.TopK, cfg.RAG.MaxTopK, cfg.RAG.Topic),
	}
	if users != nil {
		a.Auth = services.NewAuthService(users, cfg.JWTSecret, cfg.TokenExpiration)
	}
	return a
}

func (a *App) Close() error {
	return a.Store.Close()
}
