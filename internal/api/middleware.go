package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/terra-clan/growth-tracker/internal/session"
)

// Authenticate resolves a bearer session token to a user and their
// tracker entry. Supports "Bearer <token>" in the Authorization header
// and a raw token in X-Session-Token.
func (s *Server) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "provide Authorization header with Bearer token")
			return
		}

		userID, err := s.sessions.Lookup(r.Context(), token)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				respondError(w, http.StatusUnauthorized, "unauthenticated", "session expired or unknown")
				return
			}
			slog.Error("failed to look up session", "error", err)
			respondError(w, http.StatusServiceUnavailable, "session_store_unavailable", "could not verify session")
			return
		}

		entry, user, err := s.entryForUser(r.Context(), userID)
		if err != nil {
			slog.Error("failed to restore tracker entry", "error", err, "user", userID)
			respondError(w, http.StatusServiceUnavailable, "store_unavailable", "could not load user")
			return
		}
		if entry == nil {
			// Session outlived the user record.
			respondError(w, http.StatusUnauthorized, "unauthenticated", "user no longer exists")
			return
		}

		ctx := contextWithAuth(r.Context(), user, entry, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken pulls the session token from request headers.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		if strings.HasPrefix(authHeader, "Bearer ") {
			return strings.TrimPrefix(authHeader, "Bearer ")
		}
		return authHeader
	}
	return r.Header.Get("X-Session-Token")
}
