// Package assessment owns the canonical in-memory assessment list and
// the single in-progress draft for a user, mediating every read and
// write between callers and the persistence layer.
package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/terra-clan/growth-tracker/internal/identity"
	"github.com/terra-clan/growth-tracker/internal/models"
	"github.com/terra-clan/growth-tracker/internal/notify"
	"github.com/terra-clan/growth-tracker/internal/storage"
)

// Common errors
var (
	ErrInvalidArea     = errors.New("unrecognized area")
	ErrUnauthenticated = errors.New("no authenticated user")
)

// identityRefreshTimeout bounds the automatic reload that follows an
// identity change.
const identityRefreshTimeout = 30 * time.Second

// Tracker is the aggregate manager for one user's assessments. All
// state lives behind a single mutex; nothing else mutates the list or
// the draft. Constructed via NewTracker, torn down via Close.
type Tracker struct {
	repo     storage.Repository
	ident    identity.Provider
	notifier notify.Notifier
	now      func() time.Time

	mu          sync.Mutex
	assessments []*models.Assessment // newest first
	draft       *models.Assessment
	loading     bool

	// generation increments on every identity change; a refresh whose
	// captured generation no longer matches discards its response.
	generation int

	// inflight is non-nil while a refresh runs; concurrent callers for
	// the same generation wait on it instead of issuing a second load.
	inflight    chan struct{}
	inflightGen int
	refreshErr  error

	unsubscribe func()
	closed      bool
}

// NewTracker creates a tracker bound to an identity provider and a
// store. It subscribes to identity changes: a new identity triggers a
// reload, a sign-out clears all state.
func NewTracker(repo storage.Repository, ident identity.Provider, notifier notify.Notifier) *Tracker {
	t := &Tracker{
		repo:     repo,
		ident:    ident,
		notifier: notifier,
		now:      time.Now,
	}
	if t.notifier == nil {
		t.notifier = notify.LogNotifier{}
	}
	t.unsubscribe = ident.Subscribe(t.onIdentityChange)
	return t
}

// Close unsubscribes from identity changes. The tracker must not be
// used afterwards.
func (t *Tracker) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.generation++ // discard any in-flight response
	t.mu.Unlock()

	t.unsubscribe()
}

// onIdentityChange reacts to sign-in and sign-out. Either way the
// draft and any in-flight load for the previous identity are dropped.
func (t *Tracker) onIdentityChange(user models.User, ok bool) {
	t.mu.Lock()
	t.generation++
	t.draft = nil
	if !ok {
		// Clearing immediately avoids cross-user leakage.
		t.assessments = nil
		t.loading = false
		t.mu.Unlock()
		return
	}
	closed := t.closed
	t.mu.Unlock()

	if closed {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), identityRefreshTimeout)
		defer cancel()
		if err := t.Refresh(ctx); err != nil {
			slog.Warn("initial assessment load failed", "user", user.ID, "error", err)
		}
	}()
}

// Start replaces the current draft with a fresh one: every score at
// the default, every note empty. Any prior unsaved draft is discarded;
// confirming the discard with the end user is the caller's job.
func (t *Tracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draft = models.NewDraft(t.now())
}

// UpdateScore writes a clamped score into the draft. Without a draft
// it is a silent no-op; an unrecognized area is a caller error.
func (t *Tracker) UpdateScore(area models.Area, value float64) error {
	if !area.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidArea, area)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.draft == nil {
		return nil
	}
	t.draft.Scores[area] = models.ClampScore(value)
	return nil
}

// UpdateNote writes text verbatim into the draft's note for the area.
// No length limit is enforced at this layer.
func (t *Tracker) UpdateNote(area models.Area, text string) error {
	if !area.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidArea, area)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.draft == nil {
		return nil
	}
	t.draft.Notes[area] = text
	return nil
}

// Cancel discards the current draft unconditionally.
func (t *Tracker) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.draft = nil
}

// Save persists the current draft and reloads the list from the store
// so ordering and ids stay server-assigned. Without an identity it
// fails; without a draft it succeeds with nothing to do (nil, nil).
// On store failure the draft is preserved so the user can retry.
func (t *Tracker) Save(ctx context.Context) (*models.Assessment, error) {
	user, ok := t.ident.Current()
	if !ok {
		return nil, ErrUnauthenticated
	}

	t.mu.Lock()
	if t.draft == nil {
		t.mu.Unlock()
		return nil, nil
	}
	record := t.draft.Clone()
	t.mu.Unlock()

	record.ID = "" // store assigns
	record.UserID = user.ID
	record.Normalize()

	if err := t.repo.CreateAssessment(ctx, record); err != nil {
		t.notifier.OperationFailed(user.ID, "save", err)
		return nil, fmt.Errorf("failed to save assessment: %w", err)
	}

	t.mu.Lock()
	t.draft = nil
	t.mu.Unlock()

	t.notifier.AssessmentSaved(user.ID, record.ID)

	// Reload so the snapshot reflects server ordering. The save itself
	// already succeeded, so a reload failure only delays visibility.
	if err := t.Refresh(ctx); err != nil {
		slog.Warn("post-save reload failed", "user", user.ID, "error", err)
	}

	return record.Clone(), nil
}

// Delete removes an assessment by id. Deleting an unknown id is a
// no-op, not an error.
func (t *Tracker) Delete(ctx context.Context, id string) error {
	user, ok := t.ident.Current()
	if !ok {
		return ErrUnauthenticated
	}

	if err := t.repo.DeleteAssessment(ctx, user.ID, id); err != nil {
		t.notifier.OperationFailed(user.ID, "delete", err)
		return fmt.Errorf("failed to delete assessment: %w", err)
	}

	t.mu.Lock()
	kept := t.assessments[:0]
	for _, a := range t.assessments {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	t.assessments = kept
	t.mu.Unlock()

	t.notifier.AssessmentDeleted(user.ID, id)
	return nil
}

// Refresh reloads the assessment list from the store. Concurrent calls
// coalesce onto a single in-flight load; a response that arrives after
// the identity changed is discarded. On failure the previous snapshot
// stays in place.
func (t *Tracker) Refresh(ctx context.Context) error {
	user, ok := t.ident.Current()
	if !ok {
		return ErrUnauthenticated
	}

	t.mu.Lock()
	if t.inflight != nil && t.inflightGen == t.generation {
		done := t.inflight
		t.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}

		t.mu.Lock()
		err := t.refreshErr
		t.mu.Unlock()
		return err
	}

	gen := t.generation
	done := make(chan struct{})
	t.inflight = done
	t.inflightGen = gen
	t.loading = true
	t.mu.Unlock()

	list, err := t.repo.ListAssessments(ctx, user.ID)

	t.mu.Lock()
	stale := gen != t.generation
	var retErr error
	if !stale {
		if err != nil {
			retErr = fmt.Errorf("failed to refresh assessments: %w", err)
		} else {
			t.assessments = list
		}
		t.refreshErr = retErr
		t.loading = false
	}
	if t.inflight == done {
		t.inflight = nil
	}
	t.mu.Unlock()
	close(done)

	if stale {
		slog.Debug("discarding stale assessment load", "user", user.ID)
		return nil
	}

	if retErr != nil {
		t.notifier.OperationFailed(user.ID, "refresh", err)
		return retErr
	}

	t.notifier.AssessmentsRefreshed(user.ID, len(list))
	return nil
}

// Export serializes the full assessment list to pretty-printed JSON
// and returns it with a dated download filename. Pure read.
func (t *Tracker) Export() ([]byte, string, error) {
	list := t.Assessments()
	if list == nil {
		list = []*models.Assessment{}
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("failed to encode export: %w", err)
	}

	name := fmt.Sprintf("growth-assessment-export-%s.json", t.now().UTC().Format("2006-01-02"))
	return data, name, nil
}

// Assessments returns a snapshot of the list, newest first. Entries
// are clones; mutating them does not touch tracker state.
func (t *Tracker) Assessments() []*models.Assessment {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.assessments == nil {
		return nil
	}
	out := make([]*models.Assessment, len(t.assessments))
	for i, a := range t.assessments {
		out[i] = a.Clone()
	}
	return out
}

// Draft returns a clone of the current draft, or nil.
func (t *Tracker) Draft() *models.Assessment {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.draft == nil {
		return nil
	}
	return t.draft.Clone()
}

// IsLoading reports whether a refresh is in flight.
func (t *Tracker) IsLoading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}
