package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/dev-serdi/helpdesk-core/internal/api/http/handlers"
	"github.com/dev-serdi/helpdesk-core/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Notifications  *handlers.NotificationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Static ticket segments are
// registered before the :id routes so "search" and "trashed" never
// parse as ids.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/search", cfg.Tickets.SearchTickets)
	tickets.Get("/trashed", cfg.Tickets.ListTrashed)
	tickets.Get("/user/:userId", cfg.Tickets.ListUserTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Put("/:id", cfg.Tickets.EditTicket)
	tickets.Delete("/:id", cfg.Tickets.TrashTicket)
	tickets.Put("/:id/status", cfg.Tickets.ChangeStatus)
	tickets.Put("/:id/not-authorized", cfg.Tickets.MarkNotAuthorized)
	tickets.Put("/:id/reassign", cfg.Tickets.Reassign)
	tickets.Put("/:id/commitment-date", cfg.Tickets.SetCommitmentDate)
	tickets.Put("/:id/restore", cfg.Tickets.RestoreTicket)
	tickets.Get("/:id/history", cfg.Tickets.GetHistory)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle)
	notifications.Get("/unreaded/:userId", cfg.Notifications.ListUnseen)
	notifications.Get("/all/:userId", cfg.Notifications.ListAll)
	notifications.Put("/seen/:notificationId", cfg.Notifications.MarkSeen)
	notifications.Put("/setall/:userId", cfg.Notifications.MarkAllSeen)
}
