package notify

import (
	"context"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
	"github.com/dev-serdi/helpdesk-core/internal/repository"
)

// RepositoryBackend settles reconciler operations directly against the
// notification store. Deployments embedding the reconciler elsewhere
// supply an HTTP-backed Backend instead.
type RepositoryBackend struct {
	notifications repository.NotificationRepository
}

var _ Backend = (*RepositoryBackend)(nil)

// NewRepositoryBackend builds the backend.
func NewRepositoryBackend(notifications repository.NotificationRepository) *RepositoryBackend {
	return &RepositoryBackend{notifications: notifications}
}

func (b *RepositoryBackend) FetchUnseen(ctx context.Context, principalID int64) ([]domain.Notification, error) {
	return b.notifications.ListUnseenByRecipient(ctx, principalID)
}

func (b *RepositoryBackend) MarkSeen(ctx context.Context, id string) error {
	return b.notifications.MarkSeen(ctx, id)
}

func (b *RepositoryBackend) MarkAllSeen(ctx context.Context, principalID int64) error {
	return b.notifications.MarkAllSeen(ctx, principalID)
}
