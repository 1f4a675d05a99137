package backends

import (
	"context"
	"log/slog"

	"seocoach-backend/internal/config"
	"seocoach-backend/internal/store"
	"seocoach-backend/internal/store/postgres"
	"seocoach-backend/internal/store/redisstore"
	"seocoach-backend/internal/store/sqlite"
	"seocoach-backend/internal/store/typesense"
)

// Default returns a registry with every built-in backend.
func Default() *Registry {
	r := NewRegistry()
	r.Register("postgres", openPostgres)
	r.Register("sqlite", openSQLite)
	r.Register("typesense", openTypesense)
	r.RegisterHistory("redis", openRedis)
	return r
}

func openPostgres(ctx context.Context, cfg *config.Config) (store.Store, error) {
	s, err := postgres.Open(ctx, postgres.Config{
		DSN:      cfg.Postgres.DSN,
		MaxConns: cfg.Postgres.MaxConns,
		MinConns: cfg.Postgres.MinConns,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openSQLite(_ context.Context, cfg *config.Config) (store.Store, error) {
	s, err := sqlite.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openTypesense(ctx context.Context, cfg *config.Config) (store.Store, error) {
	s, err := typesense.New(typesense.Config{
		URL:            cfg.Typesense.URL,
		APIKey:         cfg.Typesense.APIKey,
		DocsCollection: cfg.Typesense.DocsCollection,
		ChatCollection: cfg.Typesense.ChatCollection,
	})
	if err != nil {
		return nil, err
	}
	// Each call is a fresh HTTP request, so an outage at startup is not fatal.
	if err := s.Ping(ctx); err != nil {
		slog.WarnContext(ctx, "typesense not reachable yet, keeping client", "error", err)
	}
	return s, nil
}

func openRedis(ctx context.Context, cfg *config.Config) (store.HistoryStore, error) {
	h, err := redisstore.Open(ctx, cfg.Redis.URL, cfg.Redis.KeyPrefix)
	if err != nil {
		return nil, err
	}
	return h, nil
}
