package events

import (
	"time"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated     EventType = "ticket_created"
	EventStatusChanged     EventType = "ticket_status_changed"
	EventUserReassigned    EventType = "ticket_user_reassigned"
	EventDeptReassigned    EventType = "ticket_department_reassigned"
	EventCommitmentDateSet EventType = "ticket_commitment_date_set"
)

// Event represents a domain event emitted by the lifecycle machine.
type Event struct {
	ID         string
	Type       EventType
	TicketID   int64
	TicketCode string
	ActorID    int64
	Timestamp  time.Time
	Payload    any
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	CreatorID  int64
	AssigneeID *int64
	Subject    string
	Priority   string
}

// StatusChangedPayload payload.
type StatusChangedPayload struct {
	OldStatus  domain.TicketStatus
	NewStatus  domain.TicketStatus
	Authorized bool
	CreatorID  int64
	AssigneeID *int64
}

// UserReassignedPayload payload.
type UserReassignedPayload struct {
	OldAssigneeID *int64
	NewAssigneeID int64
}

// DeptReassignedPayload payload.
type DeptReassignedPayload struct {
	OldDepartmentID int64
	NewDepartmentID int64
	OldAssigneeID   *int64
	NewAssigneeID   int64
	IncidentTypeID  int64
}

// CommitmentDateSetPayload payload.
type CommitmentDateSetPayload struct {
	AssigneeID     *int64
	CommitmentDate time.Time
}
