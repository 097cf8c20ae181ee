package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/growth-tracker/internal/assessment"
	"github.com/terra-clan/growth-tracker/internal/session"
)

// Reaper periodically tears down trackers for users whose sessions
// have all expired. Session records themselves expire in the session
// store; the reaper only frees the in-memory side.
type Reaper struct {
	registry *assessment.Registry
	sessions session.Store
	interval time.Duration
}

// NewReaper creates a reaper worker.
func NewReaper(registry *assessment.Registry, sessions session.Store, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Reaper{
		registry: registry,
		sessions: sessions,
		interval: interval,
	}
}

// Start begins the reaper in a goroutine.
func (r *Reaper) Start(ctx context.Context) {
	go r.run(ctx)
}

func (r *Reaper) run(ctx context.Context) {
	slog.Info("tracker reaper started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("tracker reaper stopped")
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

// sweep removes trackers for users with no live session left.
func (r *Reaper) sweep(ctx context.Context) {
	slog.Debug("running reaper sweep")

	for _, userID := range r.registry.ActiveUsers() {
		active, err := r.sessions.ActiveUser(ctx, userID)
		if err != nil {
			slog.Error("failed to check user sessions", "error", err, "user", userID)
			continue
		}
		if active {
			continue
		}

		slog.Info("reaping tracker for expired user", "user", userID)
		r.registry.Remove(userID)
	}
}
