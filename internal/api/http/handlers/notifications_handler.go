package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dev-serdi/helpdesk-core/internal/api/dto"
	"github.com/dev-serdi/helpdesk-core/internal/domain"
	"github.com/dev-serdi/helpdesk-core/internal/service"
	apperrors "github.com/dev-serdi/helpdesk-core/pkg/util"

	"github.com/google/uuid"
)

// NotificationsHandler serves the bell feed endpoints.
type NotificationsHandler struct {
	service *service.NotificationService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(notificationService *service.NotificationService) *NotificationsHandler {
	return &NotificationsHandler{service: notificationService}
}

// ListUnseen GET /notifications/unreaded/:userId.
func (h *NotificationsHandler) ListUnseen(c *fiber.Ctx) error {
	recipientID, err := h.recipientID(c)
	if err != nil {
		return err
	}
	notifications, err := h.service.ListUnseen(c.Context(), recipientID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationResponses(notifications)})
}

// ListAll GET /notifications/all/:userId.
func (h *NotificationsHandler) ListAll(c *fiber.Ctx) error {
	recipientID, err := h.recipientID(c)
	if err != nil {
		return err
	}
	page := parseInt(c.Query("page"), 0)
	size := parseInt(c.Query("size"), 20)
	notifications, err := h.service.ListAll(c.Context(), recipientID, page, size)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": notificationResponses(notifications)})
}

// MarkSeen PUT /notifications/seen/:notificationId.
func (h *NotificationsHandler) MarkSeen(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	id := c.Params("notificationId")
	if _, err := uuid.Parse(id); err != nil {
		return apperrors.NewValidationError("notificationId must be a uuid", nil)
	}
	if err := h.service.MarkSeen(c.Context(), id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// MarkAllSeen PUT /notifications/setall/:userId.
func (h *NotificationsHandler) MarkAllSeen(c *fiber.Ctx) error {
	recipientID, err := h.recipientID(c)
	if err != nil {
		return err
	}
	if err := h.service.MarkAllSeen(c.Context(), recipientID); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// recipientID resolves the :userId segment. Principals can only read
// their own feed.
func (h *NotificationsHandler) recipientID(c *fiber.Ctx) (int64, error) {
	principal, err := requirePrincipal(c)
	if err != nil {
		return 0, err
	}
	recipientID, err := paramID(c, "userId")
	if err != nil {
		return 0, err
	}
	if recipientID != principal.User.ID {
		return 0, apperrors.NewPermissionDenied("notifications:read")
	}
	return recipientID, nil
}

func notificationResponses(notifications []domain.Notification) []dto.NotificationResponse {
	items := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		items = append(items, dto.NewNotificationResponse(&notifications[i]))
	}
	return items
}
