package service

import (
	"context"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
	"github.com/dev-serdi/helpdesk-core/internal/repository"
)

// NotificationService exposes the per-principal notification feed.
type NotificationService struct {
	notifications repository.NotificationRepository
}

// NewNotificationService constructs the service.
func NewNotificationService(notifications repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// ListUnseen returns the unseen feed, newest first.
func (s *NotificationService) ListUnseen(ctx context.Context, recipientID int64) ([]domain.Notification, error) {
	return s.notifications.ListUnseenByRecipient(ctx, recipientID)
}

// ListAll returns one page of the full feed, newest first.
func (s *NotificationService) ListAll(ctx context.Context, recipientID int64, page, size int) ([]domain.Notification, error) {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	return s.notifications.ListByRecipient(ctx, recipientID, size, page*size)
}

// MarkSeen flags one notification as seen.
func (s *NotificationService) MarkSeen(ctx context.Context, id string) error {
	return s.notifications.MarkSeen(ctx, id)
}

// MarkAllSeen flags every unseen notification of the recipient.
func (s *NotificationService) MarkAllSeen(ctx context.Context, recipientID int64) error {
	return s.notifications.MarkAllSeen(ctx, recipientID)
}
