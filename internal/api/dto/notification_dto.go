package dto

import (
	"time"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

// NotificationResponse mirrors the payload pushed over the realtime
// channel so the bell renders both sources identically.
type NotificationResponse struct {
	ID          string    `json:"id"`
	RecipientID int64     `json:"recipientId"`
	Category    string    `json:"category"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	URL         string    `json:"url"`
	Seen        bool      `json:"readed"`
	CreatedAt   time.Time `json:"timestamp"`
}

// NewNotificationResponse adapts a domain notification.
func NewNotificationResponse(notification *domain.Notification) NotificationResponse {
	return NotificationResponse{
		ID:          notification.ID,
		RecipientID: notification.RecipientID,
		Category:    string(notification.Category),
		Title:       notification.Title,
		Body:        notification.Body,
		URL:         notification.URL,
		Seen:        notification.Seen,
		CreatedAt:   notification.CreatedAt,
	}
}

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token and the principal summary.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresAt   time.Time `json:"expiresAt"`
	UserID      int64     `json:"userId"`
	Email       string    `json:"email"`
	FullName    string    `json:"fullName"`
	Permissions []string  `json:"permissions"`
}
