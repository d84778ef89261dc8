package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dev-serdi/helpdesk-core/internal/api/dto"
	"github.com/dev-serdi/helpdesk-core/internal/service"
	apperrors "github.com/dev-serdi/helpdesk-core/pkg/util"
)

// AuthHandler serves local-account authentication.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.service.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	permissions := make([]string, 0, len(result.User.Permissions))
	for _, p := range result.User.Permissions {
		permissions = append(permissions, string(p))
	}
	return c.JSON(dto.LoginResponse{
		AccessToken: result.AccessToken,
		ExpiresAt:   result.ExpiresAt,
		UserID:      result.User.ID,
		Email:       result.User.Email,
		FullName:    result.User.FullName,
		Permissions: permissions,
	})
}
