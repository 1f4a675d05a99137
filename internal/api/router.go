package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"seocoach-backend/internal/handlers"
	"seocoach-backend/pkg/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	AuthHandler *handlers.AuthHandler // nil when the backend cannot store users
	ChatHandler *handlers.ChatHandlers
	KBHandler   *handlers.KBHandler
	JWTSecret   string
	// Ping reports backend health for /health; nil means always healthy.
	Ping           func(ctx context.Context) error
	RequestTimeout time.Duration
}

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	if deps.ChatHandler == nil || deps.KBHandler == nil {
		panic("ChatHandler and KBHandler dependencies are required in router setup")
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	// --- CORS Configuration ---
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// The service answers even when the store is down, so health stays 200.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok", Store: "ok"}
		if deps.Ping != nil {
			if err := deps.Ping(r.Context()); err != nil {
				slog.WarnContext(r.Context(), "store health check failed", "error", err)
				resp = healthResponse{Status: "degraded", Store: "unavailable"}
			}
		}
		httputil.RespondJSON(w, http.StatusOK, resp)
	})

	if deps.AuthHandler == nil {
		slog.Warn("AuthHandler dependency is nil, skipping /v1/auth routes")
	}

	r.Route("/v1", func(r chi.Router) {
		if deps.AuthHandler != nil {
			r.Route("/auth", func(r chi.Router) {
				r.Post("/signup", deps.AuthHandler.HandleSignup)
				r.Post("/login", deps.AuthHandler.HandleLogin)
			})
		}

		// Anonymous callers share the empty identity.
		r.Group(func(r chi.Router) {
			r.Use(OptionalJwtMiddleware(deps.JWTSecret))

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", deps.ChatHandler.HandleCreateSession)
				r.Post("/{sessionID}/messages", deps.ChatHandler.HandleAsk)
				r.Get("/{sessionID}/messages", deps.ChatHandler.HandleTranscript)
			})
			r.Get("/search", deps.KBHandler.HandleSearch)
		})

		// Ingestion needs an account, so it only exists alongside auth.
		if deps.AuthHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(JwtAuthMiddleware(deps.JWTSecret))
				r.Post("/documents", deps.KBHandler.HandleIngest)
			})
		}
	})

	return r
}
