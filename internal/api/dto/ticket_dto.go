package dto

import (
	"time"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

// The JSON keys below are the dashboard's wire contract and stay in
// Spanish even though the field names are English.

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	DepartmentID   int64  `json:"departamentoId"`
	IncidentTypeID int64  `json:"incidenciaId"`
	AssigneeID     *int64 `json:"usuarioAsignadoId"`
	PriorityID     int64  `json:"prioridadId"`
	Subject        string `json:"tema"`
	Description    string `json:"descripcion"`
}

// ChangeStatusRequest payload for PUT /tickets/:id/status.
type ChangeStatusRequest struct {
	StatusID int64 `json:"estadoId"`
}

// ReassignRequest payload. Department reassignment requires agent and
// incident type in the same call.
type ReassignRequest struct {
	AgentID        *int64 `json:"usuarioAsignadoId"`
	DepartmentID   *int64 `json:"departamentoId"`
	IncidentTypeID *int64 `json:"incidenciaId"`
}

// CommitmentDateRequest payload, date formatted as yyyy-MM-dd.
type CommitmentDateRequest struct {
	CommitmentDate string `json:"fechaCompromiso"`
}

// EditTicketRequest payload.
type EditTicketRequest struct {
	Subject     string `json:"tema"`
	Description string `json:"descripcion"`
}

// TicketResponse is the listing and detail shape.
type TicketResponse struct {
	ID             int64      `json:"id"`
	Code           string     `json:"codigo"`
	CreatorID      int64      `json:"usuarioCreadorId"`
	DepartmentID   int64      `json:"departamentoId"`
	IncidentTypeID int64      `json:"incidenciaId"`
	AssigneeID     *int64     `json:"usuarioAsignadoId"`
	PriorityID     int64      `json:"prioridadId"`
	Subject        string     `json:"tema"`
	Description    string     `json:"descripcion"`
	StatusID       int64      `json:"estadoId"`
	StatusName     string     `json:"estadoNombre"`
	Authorized     bool       `json:"autorizado"`
	CommitmentDate *string    `json:"fechaCompromiso"`
	DueDate        *string    `json:"fechaVencimiento"`
	Overdue        bool       `json:"vencido"`
	Trashed        bool       `json:"isTrashed"`
	CreatedAt      time.Time  `json:"fechaCreacion"`
	ClosedAt       *time.Time `json:"fechaCierre"`
	UpdatedAt      time.Time  `json:"fechaActualizacion"`
}

// PagedTicketsResponse wraps a ticket page with its total count.
type PagedTicketsResponse struct {
	Items      []TicketResponse `json:"items"`
	TotalCount int64            `json:"totalCount"`
	Page       int              `json:"page"`
	Size       int              `json:"size"`
}

// NewTicketResponse adapts a domain ticket to the wire shape. The
// status label accounts for the authorization overlay.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:             ticket.ID,
		Code:           ticket.Code,
		CreatorID:      ticket.CreatorID,
		DepartmentID:   ticket.DepartmentID,
		IncidentTypeID: ticket.IncidentTypeID,
		AssigneeID:     ticket.AssigneeID,
		PriorityID:     ticket.PriorityID,
		Subject:        ticket.Subject,
		Description:    ticket.Description,
		StatusID:       int64(ticket.Status),
		StatusName:     domain.StatusLabel(ticket.Status, ticket.Authorized),
		Authorized:     ticket.Authorized,
		CommitmentDate: formatDate(ticket.CommitmentDate),
		DueDate:        formatDate(ticket.DueDate),
		Overdue:        ticket.Overdue(time.Now()),
		Trashed:        ticket.Trashed,
		CreatedAt:      ticket.CreatedAt,
		ClosedAt:       ticket.ClosedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	formatted := t.Format(domain.CommitmentDateLayout)
	return &formatted
}
