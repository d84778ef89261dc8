package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

type fakeBackend struct {
	mu          sync.Mutex
	unseen      []domain.Notification
	failMark    error
	failMarkAll error
	markedIDs   []string
	markedAll   int
}

func (b *fakeBackend) FetchUnseen(_ context.Context, _ int64) ([]domain.Notification, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]domain.Notification(nil), b.unseen...), nil
}

func (b *fakeBackend) MarkSeen(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failMark != nil {
		return b.failMark
	}
	b.markedIDs = append(b.markedIDs, id)
	return nil
}

func (b *fakeBackend) MarkAllSeen(_ context.Context, _ int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failMarkAll != nil {
		return b.failMarkAll
	}
	b.markedAll++
	return nil
}

func notificationN(n int) domain.Notification {
	return domain.Notification{
		ID:          fmt.Sprintf("00000000-0000-0000-0000-%012d", n),
		RecipientID: 100,
		Category:    domain.CategoryStatusChanged,
		Title:       "Cambio de Estado",
		Body:        fmt.Sprintf("ticket %d cambio de estado", n),
		CreatedAt:   time.Now(),
	}
}

func newLoadedReconciler(t *testing.T, backend *fakeBackend, count int) *Reconciler {
	t.Helper()
	for i := 0; i < count; i++ {
		backend.unseen = append(backend.unseen, notificationN(i))
	}
	r := NewReconciler(100, backend, nil)
	t.Cleanup(r.Close)
	require.NoError(t, r.Load(context.Background()))
	require.Equal(t, count, r.UnreadCount())
	return r
}

func TestReconcilerLoadSeedsState(t *testing.T) {
	r := newLoadedReconciler(t, &fakeBackend{}, 3)
	assert.Len(t, r.Notifications(), 3)
	assert.Equal(t, 3, r.UnreadCount())
}

func TestReconcilerPushPrependsAndIncrements(t *testing.T) {
	r := newLoadedReconciler(t, &fakeBackend{}, 2)

	events := make(chan domain.Notification, 1)
	r.Attach(events)
	pushed := notificationN(99)
	events <- pushed
	close(events)

	require.Eventually(t, func() bool { return r.UnreadCount() == 3 }, time.Second, 5*time.Millisecond)
	list := r.Notifications()
	require.Len(t, list, 3)
	assert.Equal(t, pushed.ID, list[0].ID)
}

func TestReconcilerPushDoesNotDeduplicate(t *testing.T) {
	r := newLoadedReconciler(t, &fakeBackend{}, 0)

	events := make(chan domain.Notification, 2)
	r.Attach(events)
	same := notificationN(1)
	events <- same
	events <- same
	close(events)

	require.Eventually(t, func() bool { return r.UnreadCount() == 2 }, time.Second, 5*time.Millisecond)
	assert.Len(t, r.Notifications(), 2)
}

func TestReconcilerMarkSeenRemovesAndDecrements(t *testing.T) {
	backend := &fakeBackend{}
	r := newLoadedReconciler(t, backend, 3)
	target := r.Notifications()[1]

	r.MarkSeen(context.Background(), target.ID)

	assert.Equal(t, 2, r.UnreadCount())
	for _, n := range r.Notifications() {
		assert.NotEqual(t, target.ID, n.ID)
	}
	assert.Equal(t, []string{target.ID}, backend.markedIDs)
}

func TestReconcilerMarkSeenKeepsOptimisticStateOnFailure(t *testing.T) {
	backend := &fakeBackend{failMark: errors.New("boom")}
	r := newLoadedReconciler(t, backend, 2)
	target := r.Notifications()[0]

	r.MarkSeen(context.Background(), target.ID)

	// Fire-and-forget: the optimistic removal stands even though the
	// backend rejected the call.
	assert.Equal(t, 1, r.UnreadCount())
	assert.Len(t, r.Notifications(), 1)
}

func TestReconcilerMarkSeenNeverGoesNegative(t *testing.T) {
	r := newLoadedReconciler(t, &fakeBackend{}, 0)

	r.MarkSeen(context.Background(), "00000000-0000-0000-0000-000000000042")
	r.MarkSeen(context.Background(), "00000000-0000-0000-0000-000000000042")

	assert.Equal(t, 0, r.UnreadCount())
}

func TestReconcilerMarkAllSeenClears(t *testing.T) {
	backend := &fakeBackend{}
	r := newLoadedReconciler(t, backend, 4)

	require.NoError(t, r.MarkAllSeen(context.Background()))

	assert.Zero(t, r.UnreadCount())
	assert.Empty(t, r.Notifications())
	assert.Equal(t, 1, backend.markedAll)
}

func TestReconcilerMarkAllSeenRollsBackOnFailure(t *testing.T) {
	backend := &fakeBackend{failMarkAll: errors.New("timeout")}
	r := newLoadedReconciler(t, backend, 4)
	before := r.Notifications()

	err := r.MarkAllSeen(context.Background())

	require.Error(t, err)
	assert.Equal(t, before, r.Notifications())
	assert.Equal(t, 4, r.UnreadCount())
}

type gatedBackend struct {
	fakeBackend
	entered chan struct{}
	release chan struct{}
}

func (b *gatedBackend) MarkAllSeen(ctx context.Context, principalID int64) error {
	close(b.entered)
	<-b.release
	return b.fakeBackend.MarkAllSeen(ctx, principalID)
}

func TestReconcilerPushDuringBulkLandsAfterSettle(t *testing.T) {
	backend := &gatedBackend{
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	for i := 0; i < 3; i++ {
		backend.unseen = append(backend.unseen, notificationN(i))
	}
	r := NewReconciler(100, backend, nil)
	t.Cleanup(r.Close)
	require.NoError(t, r.Load(context.Background()))

	events := make(chan domain.Notification, 1)
	r.Attach(events)

	done := make(chan error, 1)
	go func() { done <- r.MarkAllSeen(context.Background()) }()

	// The writer loop is inside the bulk operation now; the push queues
	// behind it and must apply only after the clear settles.
	<-backend.entered
	events <- notificationN(50)
	close(events)
	close(backend.release)
	require.NoError(t, <-done)

	require.Eventually(t, func() bool { return r.UnreadCount() == 1 }, time.Second, 5*time.Millisecond)
	list := r.Notifications()
	require.Len(t, list, 1)
	assert.Equal(t, notificationN(50).ID, list[0].ID)
}

func TestTopicBuildsPerPrincipalChannel(t *testing.T) {
	assert.Equal(t, "notify:user:42", Topic("notify:user:", 42))
}
