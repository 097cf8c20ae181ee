package assessment

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/growth-tracker/internal/identity"
	"github.com/terra-clan/growth-tracker/internal/models"
)

// fakeRepo is a controllable Repository: listings can be gated to
// simulate slow responses and both operations can be forced to fail.
type fakeRepo struct {
	mu        sync.Mutex
	data      map[string][]*models.Assessment
	listCalls int
	listDone  int
	listErr   error
	createErr error
	deleteErr error
	gate      chan struct{}
	seq       int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{data: make(map[string][]*models.Assessment)}
}

func (f *fakeRepo) ListAssessments(_ context.Context, userID string) ([]*models.Assessment, error) {
	f.mu.Lock()
	f.listCalls++
	gate := f.gate
	err := f.listErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	defer func() {
		f.mu.Lock()
		f.listDone++
		f.mu.Unlock()
	}()

	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	list := f.data[userID]
	out := make([]*models.Assessment, len(list))
	for i, a := range list {
		out[i] = a.Clone()
	}
	return out, nil
}

func (f *fakeRepo) CreateAssessment(_ context.Context, a *models.Assessment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return f.createErr
	}

	f.seq++
	a.ID = fmt.Sprintf("srv-%d", f.seq)
	a.CreatedAt = time.Now().UTC()
	f.data[a.UserID] = append([]*models.Assessment{a.Clone()}, f.data[a.UserID]...)
	return nil
}

func (f *fakeRepo) DeleteAssessment(_ context.Context, userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.deleteErr != nil {
		return f.deleteErr
	}

	list := f.data[userID]
	kept := list[:0]
	for _, a := range list {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	f.data[userID] = kept
	return nil
}

func (f *fakeRepo) GetUserByAPIKey(context.Context, string) (*models.User, error) { return nil, nil }
func (f *fakeRepo) GetUserByID(context.Context, string) (*models.User, error)     { return nil, nil }
func (f *fakeRepo) UpdateUserLastSeen(context.Context, string) error              { return nil }
func (f *fakeRepo) Ping(context.Context) error                                    { return nil }
func (f *fakeRepo) Close() error                                                  { return nil }

func (f *fakeRepo) calls() (started, done int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.listDone
}

func (f *fakeRepo) seed(userID string, list ...*models.Assessment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[userID] = list
}

// recordingNotifier counts signals per kind.
type recordingNotifier struct {
	mu        sync.Mutex
	saved     []string
	deleted   []string
	refreshed int
	failed    []string
}

func (n *recordingNotifier) AssessmentSaved(_, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.saved = append(n.saved, id)
}

func (n *recordingNotifier) AssessmentDeleted(_, id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deleted = append(n.deleted, id)
}

func (n *recordingNotifier) AssessmentsRefreshed(string, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.refreshed++
}

func (n *recordingNotifier) OperationFailed(_, op string, _ error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, op)
}

var testUser = models.User{ID: "user-1", Name: "Test User", IsActive: true}

// newSettledTracker builds a tracker, signs the test user in, and
// waits for the initial load to finish.
func newSettledTracker(t *testing.T, repo *fakeRepo, notifier *recordingNotifier) (*Tracker, *identity.Handle) {
	t.Helper()

	handle := identity.NewHandle()
	tracker := NewTracker(repo, handle, notifier)
	t.Cleanup(tracker.Close)

	handle.Set(testUser)
	require.Eventually(t, func() bool {
		_, done := repo.calls()
		return done >= 1 && !tracker.IsLoading()
	}, time.Second, 5*time.Millisecond, "initial load did not settle")

	return tracker, handle
}

func record(id string, date time.Time, tech int) *models.Assessment {
	a := &models.Assessment{
		ID:     id,
		UserID: testUser.ID,
		Date:   date,
		Scores: map[models.Area]int{models.AreaTech: tech},
	}
	a.Normalize()
	return a
}

func TestStartResetsDraft(t *testing.T) {
	tracker, _ := newSettledTracker(t, newFakeRepo(), &recordingNotifier{})

	tracker.Start()
	require.NoError(t, tracker.UpdateScore(models.AreaTech, 9))
	require.NoError(t, tracker.UpdateNote(models.AreaTech, "deep dive into distributed systems"))

	// Starting again silently discards the previous draft.
	tracker.Start()

	draft := tracker.Draft()
	require.NotNil(t, draft)
	for _, area := range models.Areas() {
		assert.Equal(t, models.DefaultScore, draft.Scores[area])
		assert.Empty(t, draft.Notes[area])
	}
}

func TestUpdateScoreClamps(t *testing.T) {
	tracker, _ := newSettledTracker(t, newFakeRepo(), &recordingNotifier{})
	tracker.Start()

	require.NoError(t, tracker.UpdateScore(models.AreaTech, -5))
	assert.Equal(t, 1, tracker.Draft().Scores[models.AreaTech])

	require.NoError(t, tracker.UpdateScore(models.AreaTech, 99))
	assert.Equal(t, 10, tracker.Draft().Scores[models.AreaTech])

	require.NoError(t, tracker.UpdateScore(models.AreaPersonal, 6.6))
	assert.Equal(t, 7, tracker.Draft().Scores[models.AreaPersonal])
}

func TestUpdateScoreInvalidArea(t *testing.T) {
	tracker, _ := newSettledTracker(t, newFakeRepo(), &recordingNotifier{})
	tracker.Start()

	err := tracker.UpdateScore("finance", 5)
	assert.ErrorIs(t, err, ErrInvalidArea)

	err = tracker.UpdateNote("finance", "nope")
	assert.ErrorIs(t, err, ErrInvalidArea)
}

func TestDraftMutationWithoutDraftIsNoop(t *testing.T) {
	tracker, _ := newSettledTracker(t, newFakeRepo(), &recordingNotifier{})

	require.NoError(t, tracker.UpdateScore(models.AreaTech, 9))
	require.NoError(t, tracker.UpdateNote(models.AreaTech, "ignored"))
	assert.Nil(t, tracker.Draft())
}

func TestSaveWithoutIdentity(t *testing.T) {
	repo := newFakeRepo()
	handle := identity.NewHandle()
	notifier := &recordingNotifier{}
	tracker := NewTracker(repo, handle, notifier)
	defer tracker.Close()

	tracker.Start()
	require.NoError(t, tracker.UpdateScore(models.AreaTech, 8))

	_, err := tracker.Save(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Draft preserved, nothing persisted.
	require.NotNil(t, tracker.Draft())
	assert.Equal(t, 8, tracker.Draft().Scores[models.AreaTech])
	assert.Empty(t, tracker.Assessments())
}

func TestSaveWithoutDraftIsNoop(t *testing.T) {
	tracker, _ := newSettledTracker(t, newFakeRepo(), &recordingNotifier{})

	saved, err := tracker.Save(context.Background())
	require.NoError(t, err)
	assert.Nil(t, saved)
}

func TestSavePersistsAndReloads(t *testing.T) {
	repo := newFakeRepo()
	notifier := &recordingNotifier{}
	tracker, _ := newSettledTracker(t, repo, notifier)

	tracker.Start()
	require.NoError(t, tracker.UpdateScore(models.AreaTech, 9))
	require.NoError(t, tracker.UpdateNote(models.AreaTech, "shipped a side project"))

	saved, err := tracker.Save(context.Background())
	require.NoError(t, err)
	require.NotNil(t, saved)

	assert.Equal(t, "srv-1", saved.ID, "id comes from the store")
	assert.False(t, saved.CreatedAt.IsZero())
	assert.Equal(t, testUser.ID, saved.UserID)
	assert.Equal(t, 9, saved.Scores[models.AreaTech])

	// Draft gone, list reflects the store.
	assert.Nil(t, tracker.Draft())
	list := tracker.Assessments()
	require.Len(t, list, 1)
	assert.Equal(t, "srv-1", list[0].ID)

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Equal(t, []string{"srv-1"}, notifier.saved)
}

func TestSaveFailurePreservesDraft(t *testing.T) {
	repo := newFakeRepo()
	notifier := &recordingNotifier{}
	tracker, _ := newSettledTracker(t, repo, notifier)

	tracker.Start()
	require.NoError(t, tracker.UpdateScore(models.AreaTech, 9))

	repo.mu.Lock()
	repo.createErr = fmt.Errorf("connection refused")
	repo.mu.Unlock()

	_, err := tracker.Save(context.Background())
	require.Error(t, err)

	// The draft survives so the user can retry.
	draft := tracker.Draft()
	require.NotNil(t, draft)
	assert.Equal(t, 9, draft.Scores[models.AreaTech])
	assert.Empty(t, tracker.Assessments())

	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	assert.Contains(t, notifier.failed, "save")
}

func TestDeleteUnknownIDIsNoop(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser.ID, record("a-1", time.Now(), 5))
	tracker, _ := newSettledTracker(t, repo, &recordingNotifier{})

	require.Len(t, tracker.Assessments(), 1)
	require.NoError(t, tracker.Delete(context.Background(), "no-such-id"))
	assert.Len(t, tracker.Assessments(), 1)
}

func TestDeleteRemovesRecord(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	repo.seed(testUser.ID,
		record("a-2", now, 8),
		record("a-1", now.Add(-24*time.Hour), 4),
	)
	tracker, _ := newSettledTracker(t, repo, &recordingNotifier{})

	require.NoError(t, tracker.Delete(context.Background(), "a-2"))

	list := tracker.Assessments()
	require.Len(t, list, 1)
	assert.Equal(t, "a-1", list[0].ID)

	// Gone from the store too.
	stored, err := repo.ListAssessments(context.Background(), testUser.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
}

func TestExportRoundTrip(t *testing.T) {
	repo := newFakeRepo()
	now := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	repo.seed(testUser.ID,
		record("a-2", now, 8),
		record("a-1", now.Add(-7*24*time.Hour), 4),
	)
	tracker, _ := newSettledTracker(t, repo, &recordingNotifier{})

	data, name, err := tracker.Export()
	require.NoError(t, err)
	assert.Regexp(t, `^growth-assessment-export-\d{4}-\d{2}-\d{2}\.json$`, name)

	var parsed []*models.Assessment
	require.NoError(t, json.Unmarshal(data, &parsed))

	original := tracker.Assessments()
	require.Len(t, parsed, len(original))
	for i := range original {
		assert.Equal(t, original[i].ID, parsed[i].ID)
		assert.Equal(t, original[i].Scores, parsed[i].Scores)
		assert.Equal(t, original[i].Notes, parsed[i].Notes)
		assert.True(t, original[i].Date.Equal(parsed[i].Date))
	}
}

func TestIdentityChangeTriggersSingleRefresh(t *testing.T) {
	repo := newFakeRepo()
	handle := identity.NewHandle()
	tracker := NewTracker(repo, handle, &recordingNotifier{})
	defer tracker.Close()

	handle.Set(testUser)

	require.Eventually(t, func() bool {
		_, done := repo.calls()
		return done == 1
	}, time.Second, 5*time.Millisecond)

	// No further loads happen on their own.
	time.Sleep(50 * time.Millisecond)
	started, _ := repo.calls()
	assert.Equal(t, 1, started)
}

func TestSignOutClearsState(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser.ID, record("a-1", time.Now(), 7))
	tracker, handle := newSettledTracker(t, repo, &recordingNotifier{})

	tracker.Start()
	require.Len(t, tracker.Assessments(), 1)

	handle.Clear()

	assert.Empty(t, tracker.Assessments())
	assert.Nil(t, tracker.Draft())
	assert.False(t, tracker.IsLoading())
}

func TestStaleResponseDiscardedAfterIdentitySwitch(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser.ID, record("a-1", time.Now(), 7))

	gate := make(chan struct{})
	repo.mu.Lock()
	repo.gate = gate
	repo.mu.Unlock()

	handle := identity.NewHandle()
	tracker := NewTracker(repo, handle, &recordingNotifier{})
	defer tracker.Close()

	// Sign in: the load starts and blocks on the gate.
	handle.Set(testUser)
	require.Eventually(t, func() bool {
		started, _ := repo.calls()
		return started == 1
	}, time.Second, 5*time.Millisecond)

	// Identity changes while the response is still in flight.
	handle.Clear()

	// The slow response finally arrives and must be discarded.
	close(gate)
	require.Eventually(t, func() bool {
		_, done := repo.calls()
		return done >= 1
	}, time.Second, 5*time.Millisecond)

	assert.Empty(t, tracker.Assessments(), "stale response must not repopulate a signed-out tracker")
}

func TestRefreshCoalescesConcurrentCalls(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser.ID, record("a-1", time.Now(), 7))
	tracker, _ := newSettledTracker(t, repo, &recordingNotifier{})

	gate := make(chan struct{})
	repo.mu.Lock()
	repo.gate = gate
	repo.mu.Unlock()

	startedBefore, _ := repo.calls()

	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tracker.Refresh(context.Background())
		}()
	}

	// Let the leader start and the others queue behind it.
	require.Eventually(t, func() bool {
		started, _ := repo.calls()
		return started == startedBefore+1
	}, time.Second, 5*time.Millisecond)

	close(gate)
	wg.Wait()

	started, _ := repo.calls()
	assert.Equal(t, startedBefore+1, started, "concurrent refreshes must share one load")
}

func TestRefreshFailureKeepsSnapshot(t *testing.T) {
	repo := newFakeRepo()
	repo.seed(testUser.ID, record("a-1", time.Now(), 7))
	notifier := &recordingNotifier{}
	tracker, _ := newSettledTracker(t, repo, notifier)

	require.Len(t, tracker.Assessments(), 1)

	repo.mu.Lock()
	repo.listErr = fmt.Errorf("connection reset")
	repo.mu.Unlock()

	err := tracker.Refresh(context.Background())
	require.Error(t, err)

	// Previous snapshot stays; no empty flash on transient failure.
	assert.Len(t, tracker.Assessments(), 1)
	assert.False(t, tracker.IsLoading())
}

func TestRefreshWithoutIdentity(t *testing.T) {
	repo := newFakeRepo()
	handle := identity.NewHandle()
	tracker := NewTracker(repo, handle, &recordingNotifier{})
	defer tracker.Close()

	err := tracker.Refresh(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
