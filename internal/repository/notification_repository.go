package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

// NotificationRepository stores per-principal notifications.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.Notification) error
	ListUnseenByRecipient(ctx context.Context, recipientID int64) ([]domain.Notification, error)
	ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]domain.Notification, error)
	MarkSeen(ctx context.Context, id string) error
	MarkAllSeen(ctx context.Context, recipientID int64) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	const query = `
        INSERT INTO notifications (id, recipient_id, category, title, body, url, seen)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		notification.ID,
		notification.RecipientID,
		notification.Category,
		notification.Title,
		notification.Body,
		notification.URL,
		notification.Seen,
	).Scan(&notification.CreatedAt)
}

func (r *notificationRepository) ListUnseenByRecipient(ctx context.Context, recipientID int64) ([]domain.Notification, error) {
	const query = `
        SELECT id, recipient_id, category, title, body, url, seen, created_at
        FROM notifications WHERE recipient_id=$1 AND seen=FALSE ORDER BY created_at DESC`
	return r.list(ctx, query, recipientID)
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID int64, limit, offset int) ([]domain.Notification, error) {
	const query = `
        SELECT id, recipient_id, category, title, body, url, seen, created_at
        FROM notifications WHERE recipient_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, recipientID, limit, offset)
}

// MarkSeen flips the seen flag. The flag is monotonic, re-marking is a
// no-op.
func (r *notificationRepository) MarkSeen(ctx context.Context, id string) error {
	const query = `UPDATE notifications SET seen=TRUE WHERE id=$1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func (r *notificationRepository) MarkAllSeen(ctx context.Context, recipientID int64) error {
	const query = `UPDATE notifications SET seen=TRUE WHERE recipient_id=$1 AND seen=FALSE`
	_, err := r.pool.Exec(ctx, query, recipientID)
	return err
}

func (r *notificationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Notification, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Notification
	for rows.Next() {
		var notification domain.Notification
		if err := rows.Scan(
			&notification.ID,
			&notification.RecipientID,
			&notification.Category,
			&notification.Title,
			&notification.Body,
			&notification.URL,
			&notification.Seen,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, notification)
	}
	return result, rows.Err()
}
