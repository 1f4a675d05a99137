package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seocoach-backend/internal/api"
	"seocoach-backend/internal/app"
	"seocoach-backend/internal/backends"
	"seocoach-backend/internal/config"
	"seocoach-backend/internal/handlers"
	"seocoach-backend/internal/id"
	"seocoach-backend/internal/logger"
	"seocoach-backend/internal/otel"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		slog.Error("failed to setup telemetry", "error", err)
		os.Exit(1)
	}
	logger.Setup(cfg)

	if err := id.Init(1); err != nil {
		slog.Error("failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	slog.Info("starting seocoach server",
		"env", cfg.Env,
		"port", cfg.HTTPPort,
		"store_backend", cfg.Store.Backend,
		"llm_provider", cfg.LLM.Provider,
		"llm_model", cfg.LLM.Model)

	// 2. Initialize Store, Clients and Services
	a := app.New(ctx, cfg, backends.Default())

	// 3. Initialize Handlers
	var authHandler *handlers.AuthHandler
	if a.Auth != nil {
		authHandler = handlers.NewAuthHandler(a.Auth)
	}

	// 4. Setup Router & Inject Dependencies
	router := api.NewRouter(api.RouterDependencies{
		AuthHandler: authHandler,
		ChatHandler: handlers.NewChatHandlers(a.Chat),
		KBHandler:   handlers.NewKBHandler(a.KB),
		JWTSecret:   cfg.JWTSecret,
		Ping:        a.Store.Ping,
	})

	// 5. Configure and Start HTTP Server
	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
		// A turn blocks on the model, so writes get more room than reads.
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-stopChan
	slog.Info("shutdown signal received, initiating graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server graceful shutdown failed", "error", err)
	}
	if err := a.Close(); err != nil {
		slog.Error("failed to close store", "error", err)
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown telemetry", "error", err)
	}

	slog.Info("server shutdown complete")
}
