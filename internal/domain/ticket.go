package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets. The numeric
// values are part of the wire contract with the dashboard.
type TicketStatus int

const (
	TicketStatusOpen      TicketStatus = 1
	TicketStatusCompleted TicketStatus = 2
	TicketStatusClosed    TicketStatus = 3
)

// Valid reports whether the status is one of the enumerated values.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusCompleted, TicketStatusClosed:
		return true
	}
	return false
}

// Label returns the display name used in snapshots and listings.
func (s TicketStatus) Label() string {
	switch s {
	case TicketStatusOpen:
		return "En Proceso"
	case TicketStatusCompleted:
		return "Completado"
	case TicketStatusClosed:
		return "Cerrado"
	}
	return "Desconocido"
}

// StatusLabel renders a status together with the authorization overlay.
// A closed ticket with authorized=false was administratively voided.
func StatusLabel(s TicketStatus, authorized bool) string {
	if s == TicketStatusClosed && !authorized {
		return "No Autorizado"
	}
	return s.Label()
}

// Ticket is the aggregate for support requests. Status and Authorized
// are only ever mutated through the lifecycle machine.
type Ticket struct {
	ID             int64
	Code           string
	CreatorID      int64
	DepartmentID   int64
	IncidentTypeID int64
	AssigneeID     *int64
	PriorityID     int64
	Subject        string
	Description    string
	Status         TicketStatus
	Authorized     bool
	CommitmentDate *time.Time
	DueDate        *time.Time
	Trashed        bool
	CreatedAt      time.Time
	ClosedAt       *time.Time
	ClosedByID     *int64
	UpdatedAt      time.Time
}

// Active reports whether the ticket is still in a mutable state.
func (t *Ticket) Active() bool {
	return t.Status == TicketStatusOpen || t.Status == TicketStatusCompleted
}

// Overdue reports whether the ticket blew past its due date. Closed
// tickets are judged against their closure time instead of now.
func (t *Ticket) Overdue(now time.Time) bool {
	if t.DueDate == nil {
		return false
	}
	deadline := t.DueDate.Add(24*time.Hour - time.Second)
	if t.Status == TicketStatusClosed && t.ClosedAt != nil {
		return t.ClosedAt.After(deadline)
	}
	return now.After(deadline)
}
