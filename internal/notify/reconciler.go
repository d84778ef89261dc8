package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

// Backend is the request/response side the reconciler settles against.
type Backend interface {
	FetchUnseen(ctx context.Context, principalID int64) ([]domain.Notification, error)
	MarkSeen(ctx context.Context, id string) error
	MarkAllSeen(ctx context.Context, principalID int64) error
}

// Reconciler maintains the client-side unread view: a newest-first
// notification list and an unread counter. All state mutations run on
// one writer goroutine, so a push arriving while a bulk operation is in
// flight is applied only after the optimistic state settles.
//
// Single mark-seen is deliberately fire-and-forget: the optimistic
// decrement is not reverted on backend failure, unlike the bulk
// operation which restores the pre-clear snapshot. The asymmetry is
// inherited behavior, kept to keep single-item marking cheap.
type Reconciler struct {
	principalID int64
	backend     Backend
	logger      *zap.Logger

	cmds      chan func()
	pushes    chan domain.Notification
	done      chan struct{}
	closeOnce sync.Once

	// Owned by the run loop.
	notifications []domain.Notification
	unread        int
}

// NewReconciler creates the reconciler and starts its writer loop.
func NewReconciler(principalID int64, backend Backend, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reconciler{
		principalID: principalID,
		backend:     backend,
		logger:      logger,
		cmds:        make(chan func()),
		pushes:      make(chan domain.Notification, 64),
		done:        make(chan struct{}),
	}
	go r.run()
	return r
}

// Attach starts consuming pushed events from the given stream, usually
// a Channel's Events().
func (r *Reconciler) Attach(events <-chan domain.Notification) {
	go func() {
		for notification := range events {
			select {
			case r.pushes <- notification:
			case <-r.done:
				return
			}
		}
	}()
}

// Close stops the writer loop.
func (r *Reconciler) Close() {
	r.closeOnce.Do(func() { close(r.done) })
}

// Load fetches the current unread set and seeds the local state.
func (r *Reconciler) Load(ctx context.Context) error {
	var loadErr error
	r.do(func() {
		list, err := r.backend.FetchUnseen(ctx, r.principalID)
		if err != nil {
			loadErr = err
			return
		}
		r.notifications = list
		r.unread = countUnseen(list)
	})
	return loadErr
}

// MarkSeen optimistically removes the notification from the unread view
// and decrements the counter by at most one before the backing call
// resolves. A backend failure is logged and left unresolved.
func (r *Reconciler) MarkSeen(ctx context.Context, id string) {
	r.do(func() {
		for i := range r.notifications {
			if r.notifications[i].ID == id {
				r.notifications = append(r.notifications[:i], r.notifications[i+1:]...)
				break
			}
		}
		if r.unread > 0 {
			r.unread--
		}
		if err := r.backend.MarkSeen(ctx, id); err != nil {
			r.logger.Warn("mark seen failed, keeping optimistic state",
				zap.String("notification_id", id), zap.Error(err))
		}
	})
}

// MarkAllSeen optimistically clears the view and zeroes the counter
// before the backing call resolves. On failure the previous list is
// restored and the counter recomputed from it.
func (r *Reconciler) MarkAllSeen(ctx context.Context) error {
	var opErr error
	r.do(func() {
		snapshot := append([]domain.Notification(nil), r.notifications...)
		r.notifications = nil
		r.unread = 0

		if err := r.backend.MarkAllSeen(ctx, r.principalID); err != nil {
			r.notifications = snapshot
			r.unread = countUnseen(snapshot)
			opErr = err
		}
	})
	return opErr
}

// Notifications returns a copy of the current view, newest first.
func (r *Reconciler) Notifications() []domain.Notification {
	var out []domain.Notification
	r.do(func() {
		out = append([]domain.Notification(nil), r.notifications...)
	})
	return out
}

// UnreadCount returns the current unread counter.
func (r *Reconciler) UnreadCount() int {
	var count int
	r.do(func() { count = r.unread })
	return count
}

func (r *Reconciler) run() {
	for {
		select {
		case fn := <-r.cmds:
			fn()
		case notification := <-r.pushes:
			r.applyPush(notification)
		case <-r.done:
			return
		}
	}
}

// applyPush prepends unconditionally: delivery is at-least-once and
// deduplication, if any, belongs to the delivery collaborator.
func (r *Reconciler) applyPush(notification domain.Notification) {
	r.notifications = append([]domain.Notification{notification}, r.notifications...)
	r.unread++
}

// do runs fn on the writer goroutine and waits for it to finish.
func (r *Reconciler) do(fn func()) {
	executed := make(chan struct{})
	wrapped := func() {
		fn()
		close(executed)
	}
	select {
	case r.cmds <- wrapped:
		<-executed
	case <-r.done:
	}
}

func countUnseen(list []domain.Notification) int {
	count := 0
	for i := range list {
		if !list[i].Seen {
			count++
		}
	}
	return count
}
