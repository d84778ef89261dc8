package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
	"github.com/dev-serdi/helpdesk-core/internal/lifecycle"
	"github.com/dev-serdi/helpdesk-core/internal/repository"
	apperrors "github.com/dev-serdi/helpdesk-core/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller together with the
// permission set resolved for this request. Lifecycle operations take
// the set explicitly; nothing downstream re-resolves identity.
type Principal struct {
	User        *domain.User
	Permissions domain.PermissionSet
}

// Actor converts the principal into a lifecycle actor.
func (p *Principal) Actor() lifecycle.Actor {
	return lifecycle.Actor{
		ID:          p.User.ID,
		Email:       p.User.Email,
		Permissions: p.Permissions,
	}
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  repository.UserRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, users repository.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return apperrors.NewUnauthorized("invalid token subject")
	}

	user, err := m.users.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}
	if !user.IsActive {
		return apperrors.NewUnauthorized("user inactive")
	}

	c.Locals(principalKey, &Principal{
		User:        user,
		Permissions: user.PermissionSet(),
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	principal, ok := c.Locals(principalKey).(*Principal)
	return principal, ok && principal != nil && principal.User != nil
}
