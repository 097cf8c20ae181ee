package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/growth-tracker/internal/assessment"
	"github.com/terra-clan/growth-tracker/internal/identity"
	"github.com/terra-clan/growth-tracker/internal/models"
)

type loginRequest struct {
	APIKey string `json:"api_key"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.APIKey == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "api_key is required")
		return
	}

	user, err := s.repo.GetUserByAPIKey(r.Context(), req.APIKey)
	if err != nil {
		slog.Error("failed to look up user", "error", err)
		respondOperationError(w, err, "failed to verify credentials")
		return
	}

	if user == nil {
		slog.Warn("invalid api key attempt", "remote_addr", r.RemoteAddr)
		respondError(w, http.StatusUnauthorized, "invalid_credentials", "the provided api key is not valid")
		return
	}

	if !user.IsActive {
		slog.Warn("inactive user attempt", "user", user.ID)
		respondError(w, http.StatusUnauthorized, "user_inactive", "this account has been deactivated")
		return
	}

	token, err := s.sessions.Create(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to create session", "error", err, "user", user.ID)
		respondError(w, http.StatusServiceUnavailable, "session_store_unavailable", "could not create session")
		return
	}

	entry := s.registry.GetOrCreate(user.ID, func() *assessment.Entry {
		handle := identity.NewHandle()
		return &assessment.Entry{
			Handle:  handle,
			Tracker: assessment.NewTracker(s.repo, handle, s.notifier),
		}
	})

	// Signing in (re-)publishes the identity, which triggers the
	// tracker's initial load.
	entry.Handle.Set(*user)

	// Stamp last_seen_at without blocking the response.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.repo.UpdateUserLastSeen(ctx, user.ID); err != nil {
			slog.Error("failed to update user last_seen_at", "error", err, "user", user.ID)
		}
	}()

	slog.Info("user logged in", "user", user.ID, "key_prefix", user.MaskedAPIKey())

	respondJSON(w, http.StatusOK, loginResponse{
		Token: token,
		User:  *user,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	token := TokenFromContext(r.Context())

	if err := s.sessions.Delete(r.Context(), token); err != nil {
		slog.Error("failed to delete session", "error", err, "user", user.ID)
		respondError(w, http.StatusServiceUnavailable, "session_store_unavailable", "could not delete session")
		return
	}

	// Tear the tracker down only when this was the user's last session;
	// another device may still be signed in.
	active, err := s.sessions.ActiveUser(r.Context(), user.ID)
	if err != nil {
		slog.Error("failed to check remaining sessions", "error", err, "user", user.ID)
	} else if !active {
		s.registry.Remove(user.ID)
	}

	slog.Info("user logged out", "user", user.ID)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out",
	})
}
