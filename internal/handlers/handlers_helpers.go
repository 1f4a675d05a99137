package handlers

import (
	"context"
	"net/http"
	"strings"

	"seocoach-backend/internal/auth"
	"seocoach-backend/internal/logger"

	"github.com/go-chi/chi/v5"
)

// sessionFromRequest returns the {sessionID} path parameter and the request
// context enriched with session and identity log fields.
func sessionFromRequest(r *http.Request) (context.Context, string, string) {
	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionID"))
	identity := auth.IdentityFromContext(r.Context())
	ctx := logger.WithLogFields(r.Context(), logger.LogFields{
		SessionID: logger.Ptr(sessionID),
		Identity:  logger.Ptr(identity),
		Component: "seocoach.handlers",
	})
	return ctx, sessionID, identity
}
