package handlers

import (
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/dev-serdi/helpdesk-core/internal/api/dto"
	"github.com/dev-serdi/helpdesk-core/internal/auth"
	"github.com/dev-serdi/helpdesk-core/internal/domain"
	"github.com/dev-serdi/helpdesk-core/internal/lifecycle"
	"github.com/dev-serdi/helpdesk-core/internal/service"
	apperrors "github.com/dev-serdi/helpdesk-core/pkg/util"
)

// TicketsHandler serves ticket listings and the lifecycle operations.
type TicketsHandler struct {
	machine *lifecycle.Machine
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(machine *lifecycle.Machine, ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{machine: machine, service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.DepartmentID == 0 || req.IncidentTypeID == 0 || req.PriorityID == 0 {
		return apperrors.NewValidationError("departamentoId, incidenciaId, prioridadId required", nil)
	}

	ticket, err := h.machine.Create(c.Context(), lifecycle.CreateInput{
		DepartmentID:   req.DepartmentID,
		IncidentTypeID: req.IncidentTypeID,
		AssigneeID:     req.AssigneeID,
		PriorityID:     req.PriorityID,
		Subject:        req.Subject,
		Description:    req.Description,
	}, principal.Actor())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	filter := parseListFilter(c)
	tickets, total, err := h.service.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(pagedResponse(tickets, total, filter))
}

// ListUserTickets GET /tickets/user/:userId.
func (h *TicketsHandler) ListUserTickets(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	userID, err := paramID(c, "userId")
	if err != nil {
		return err
	}
	filter := parseListFilter(c)
	filter.AssigneeID = &userID
	tickets, total, err := h.service.ListTickets(c.Context(), filter)
	if err != nil {
		return err
	}
	return c.JSON(pagedResponse(tickets, total, filter))
}

// SearchTickets GET /tickets/search.
func (h *TicketsHandler) SearchTickets(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	term := c.Query("busqueda")
	limit := parseInt(c.Query("size"), 20)
	tickets, err := h.service.SearchTickets(c.Context(), term, limit)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponses(tickets)})
}

// ListTrashed GET /tickets/trashed.
func (h *TicketsHandler) ListTrashed(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	filter := parseListFilter(c)
	tickets, total, err := h.service.ListTrashed(c.Context(), principal.Permissions, filter)
	if err != nil {
		return err
	}
	return c.JSON(pagedResponse(tickets, total, filter))
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ChangeStatus PUT /tickets/:id/status.
func (h *TicketsHandler) ChangeStatus(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ChangeStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	target := domain.TicketStatus(req.StatusID)
	if !target.Valid() {
		return apperrors.NewValidationError("estadoId must be 1, 2 or 3", nil)
	}

	ticket, err := h.machine.ApplyTransition(c.Context(), id, target, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// MarkNotAuthorized PUT /tickets/:id/not-authorized.
func (h *TicketsHandler) MarkNotAuthorized(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.machine.MarkNotAuthorized(c.Context(), id, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// Reassign PUT /tickets/:id/reassign.
func (h *TicketsHandler) Reassign(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AgentID == nil && req.DepartmentID == nil {
		return apperrors.NewValidationError("usuarioAsignadoId or departamentoId required", nil)
	}

	ticket, err := h.machine.Reassign(c.Context(), id, lifecycle.ReassignInput{
		AgentID:        req.AgentID,
		DepartmentID:   req.DepartmentID,
		IncidentTypeID: req.IncidentTypeID,
	}, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// SetCommitmentDate PUT /tickets/:id/commitment-date.
func (h *TicketsHandler) SetCommitmentDate(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CommitmentDateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	date, err := time.Parse(domain.CommitmentDateLayout, strings.TrimSpace(req.CommitmentDate))
	if err != nil {
		return apperrors.NewValidationError("fechaCompromiso must be yyyy-MM-dd", nil)
	}

	ticket, err := h.machine.SetCommitmentDate(c.Context(), id, date, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// EditTicket PUT /tickets/:id.
func (h *TicketsHandler) EditTicket(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.EditTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Subject) == "" {
		return apperrors.NewValidationError("tema required", nil)
	}

	ticket, err := h.machine.Edit(c.Context(), id, req.Subject, req.Description, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// TrashTicket DELETE /tickets/:id.
func (h *TicketsHandler) TrashTicket(c *fiber.Ctx) error {
	return h.setTrashed(c, true)
}

// RestoreTicket PUT /tickets/:id/restore.
func (h *TicketsHandler) RestoreTicket(c *fiber.Ctx) error {
	return h.setTrashed(c, false)
}

func (h *TicketsHandler) setTrashed(c *fiber.Ctx, trashed bool) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	ticket, err := h.machine.SetTrashed(c.Context(), id, trashed, principal.Actor())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// GetHistory GET /tickets/:id/history.
func (h *TicketsHandler) GetHistory(c *fiber.Ctx) error {
	if _, err := requirePrincipal(c); err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	trail, err := h.service.GetAuditTrail(c.Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": trail})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal, nil
}

func paramID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError(name+" must be a positive integer", nil)
	}
	return id, nil
}

func parseListFilter(c *fiber.Ctx) service.ListFilter {
	filter := service.ListFilter{
		Page: parseInt(c.Query("page"), 0),
		Size: parseInt(c.Query("size"), 8),
	}
	if creator := parseOptionalID(c.Query("usuarioCreadorId")); creator != nil {
		filter.CreatorID = creator
	}
	if dept := parseOptionalID(c.Query("departamentoId")); dept != nil {
		filter.DepartmentID = dept
	}
	if assignee := parseOptionalID(c.Query("usuarioAsignadoId")); assignee != nil {
		filter.AssigneeID = assignee
	}
	if status := parseOptionalID(c.Query("estadoId")); status != nil {
		filter.StatusID = status
	}
	if term := strings.TrimSpace(c.Query("busqueda")); term != "" {
		filter.SearchTerm = &term
	}
	return filter
}

func parseOptionalID(val string) *int64 {
	if val == "" {
		return nil
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil || parsed <= 0 {
		return nil
	}
	return &parsed
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func ticketResponses(tickets []domain.Ticket) []dto.TicketResponse {
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return items
}

func pagedResponse(tickets []domain.Ticket, total int64, filter service.ListFilter) dto.PagedTicketsResponse {
	return dto.PagedTicketsResponse{
		Items:      ticketResponses(tickets),
		TotalCount: total,
		Page:       filter.Page,
		Size:       filter.Size,
	}
}
