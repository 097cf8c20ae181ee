package api

import (
	"context"

	"github.com/terra-clan/growth-tracker/internal/assessment"
	"github.com/terra-clan/growth-tracker/internal/models"
)

type contextKey string

const (
	userContextKey  contextKey = "auth_user"
	entryContextKey contextKey = "tracker_entry"
	tokenContextKey contextKey = "session_token"
)

// UserFromContext extracts the authenticated user from context
func UserFromContext(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

// EntryFromContext extracts the user's tracker entry from context
func EntryFromContext(ctx context.Context) *assessment.Entry {
	entry, ok := ctx.Value(entryContextKey).(*assessment.Entry)
	if !ok {
		return nil
	}
	return entry
}

// TokenFromContext extracts the session token from context
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenContextKey).(string)
	return token
}

func contextWithAuth(ctx context.Context, user models.User, entry *assessment.Entry, token string) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	ctx = context.WithValue(ctx, entryContextKey, entry)
	return context.WithValue(ctx, tokenContextKey, token)
}
