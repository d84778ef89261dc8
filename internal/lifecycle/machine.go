package lifecycle

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
	"github.com/dev-serdi/helpdesk-core/internal/events"
	"github.com/dev-serdi/helpdesk-core/internal/observability"
	"github.com/dev-serdi/helpdesk-core/internal/repository"
	apperrors "github.com/dev-serdi/helpdesk-core/pkg/util"
)

// Actor is the principal performing a lifecycle operation, carrying its
// capability tokens. The machine never looks permissions up on its own.
type Actor struct {
	ID          int64
	Email       string
	Permissions domain.PermissionSet
}

// Machine owns the canonical status of tickets. Every successful
// mutation appends exactly one revision; state-changing mutations also
// emit an event for the notification path. Operations on the same
// ticket serialize through a per-id lock so revision numbering stays
// gap-free.
type Machine struct {
	tickets    repository.TicketRepository
	revisions  repository.RevisionRepository
	directory  repository.DirectoryRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	locks      *keyedMutex
}

// Dependencies bundles collaborators for the machine.
type Dependencies struct {
	TicketRepo    repository.TicketRepository
	RevisionRepo  repository.RevisionRepository
	DirectoryRepo repository.DirectoryRepository
	UserRepo      repository.UserRepository
	Dispatcher    events.Dispatcher
	Logger        *zap.Logger
	Metrics       *observability.Metrics
}

// NewMachine constructs the machine.
func NewMachine(deps Dependencies) *Machine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		tickets:    deps.TicketRepo,
		revisions:  deps.RevisionRepo,
		directory:  deps.DirectoryRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
		locks:      newKeyedMutex(),
	}
}

type edge struct {
	from, to domain.TicketStatus
}

// transitionPermits is the canonical transition table. The
// not-authorized closure is a separate operation, not a row here.
var transitionPermits = map[edge]domain.Permission{
	{domain.TicketStatusOpen, domain.TicketStatusCompleted}:   domain.PermCompleteTicket,
	{domain.TicketStatusCompleted, domain.TicketStatusOpen}:   domain.PermReopenTicket,
	{domain.TicketStatusCompleted, domain.TicketStatusClosed}: domain.PermCloseTicket,
}

// CreateInput describes ticket creation payload.
type CreateInput struct {
	DepartmentID   int64
	IncidentTypeID int64
	AssigneeID     *int64
	PriorityID     int64
	Subject        string
	Description    string
}

// ReassignInput carries the reassignment payload. A non-nil
// DepartmentID demands AgentID and IncidentTypeID as well.
type ReassignInput struct {
	AgentID        *int64
	DepartmentID   *int64
	IncidentTypeID *int64
}

// Create opens a new ticket in status En Proceso and appends revision 1.
func (m *Machine) Create(ctx context.Context, input CreateInput, actor Actor) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Subject) == "" {
		return nil, apperrors.NewValidationError("subject required", nil)
	}

	dept, err := m.directory.GetDepartmentByID(ctx, input.DepartmentID)
	if err != nil {
		return nil, mapLookup(err, "department")
	}
	if !dept.IsActive {
		return nil, apperrors.NewValidationError("department inactive", nil)
	}
	incident, err := m.directory.GetIncidentTypeByID(ctx, input.IncidentTypeID)
	if err != nil {
		return nil, mapLookup(err, "incident type")
	}
	if incident.DepartmentID != dept.ID {
		return nil, apperrors.NewInconsistentAssignment("incident type not part of department", map[string]any{
			"department_id":    dept.ID,
			"incident_type_id": incident.ID,
		})
	}
	priority, err := m.directory.GetPriorityByID(ctx, input.PriorityID)
	if err != nil {
		return nil, mapLookup(err, "priority")
	}

	due := time.Now().AddDate(0, 0, priority.DueDays)
	ticket := &domain.Ticket{
		Code:           generateTicketCode(),
		CreatorID:      actor.ID,
		DepartmentID:   dept.ID,
		IncidentTypeID: incident.ID,
		AssigneeID:     input.AssigneeID,
		PriorityID:     priority.ID,
		Subject:        strings.TrimSpace(input.Subject),
		Description:    strings.TrimSpace(input.Description),
		Status:         domain.TicketStatusOpen,
		Authorized:     true,
		DueDate:        &due,
	}
	if err := m.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}
	if err := m.appendRevision(ctx, ticket, actor); err != nil {
		return nil, err
	}
	m.emit(ctx, events.Event{
		Type:       events.EventTicketCreated,
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		ActorID:    actor.ID,
		Payload: events.TicketCreatedPayload{
			CreatorID:  ticket.CreatorID,
			AssigneeID: ticket.AssigneeID,
			Subject:    ticket.Subject,
			Priority:   priority.Name,
		},
	})
	return ticket, nil
}

// ApplyTransition requests a status change through the transition
// table. Both gates are mandatory: a pair absent from the table fails
// with InvalidTransition, a missing capability with PermissionDenied.
func (m *Machine) ApplyTransition(ctx context.Context, ticketID int64, target domain.TicketStatus, actor Actor) (*domain.Ticket, error) {
	unlock := m.locks.Lock(ticketID)
	defer unlock()

	ticket, err := m.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	required, ok := transitionPermits[edge{ticket.Status, target}]
	if !ok {
		return nil, apperrors.NewInvalidTransition(ticket.Status.Label(), target.Label())
	}
	if !actor.Permissions.Has(required) {
		return nil, apperrors.NewPermissionDenied(string(required))
	}

	oldStatus := ticket.Status
	ticket.Status = target
	ticket.Authorized = true
	if target == domain.TicketStatusClosed {
		now := time.Now()
		ticket.ClosedAt = &now
		ticket.ClosedByID = &actor.ID
	} else {
		ticket.ClosedAt = nil
		ticket.ClosedByID = nil
	}

	return m.commitStatusChange(ctx, ticket, oldStatus, actor)
}

// MarkNotAuthorized closes the ticket as administratively voided. It is
// reachable from either active state.
func (m *Machine) MarkNotAuthorized(ctx context.Context, ticketID int64, actor Actor) (*domain.Ticket, error) {
	unlock := m.locks.Lock(ticketID)
	defer unlock()

	ticket, err := m.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.Active() {
		return nil, apperrors.NewInvalidTransition(domain.StatusLabel(ticket.Status, ticket.Authorized), "No Autorizado")
	}
	if !actor.Permissions.Has(domain.PermMarkNotAuthorized) {
		return nil, apperrors.NewPermissionDenied(string(domain.PermMarkNotAuthorized))
	}

	oldStatus := ticket.Status
	now := time.Now()
	ticket.Status = domain.TicketStatusClosed
	ticket.Authorized = false
	ticket.ClosedAt = &now
	ticket.ClosedByID = &actor.ID

	return m.commitStatusChange(ctx, ticket, oldStatus, actor)
}

// Reassign changes the assigned agent, or atomically moves the ticket
// to another department together with a valid agent and incident type.
func (m *Machine) Reassign(ctx context.Context, ticketID int64, input ReassignInput, actor Actor) (*domain.Ticket, error) {
	unlock := m.locks.Lock(ticketID)
	defer unlock()

	ticket, err := m.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.Active() {
		return nil, apperrors.NewInvalidState("cannot reassign a closed ticket")
	}

	oldAssignee := ticket.AssigneeID

	switch {
	case input.DepartmentID != nil:
		if !actor.Permissions.Has(domain.PermReassignDepartment) {
			return nil, apperrors.NewPermissionDenied(string(domain.PermReassignDepartment))
		}
		if input.AgentID == nil || input.IncidentTypeID == nil {
			return nil, apperrors.NewInconsistentAssignment("department reassignment requires agent and incident type", nil)
		}
		oldDept := ticket.DepartmentID
		if err := m.applyDepartmentReassignment(ctx, ticket, *input.DepartmentID, *input.AgentID, *input.IncidentTypeID); err != nil {
			return nil, err
		}
		if err := m.tickets.Update(ctx, ticket); err != nil {
			return nil, err
		}
		if err := m.appendRevision(ctx, ticket, actor); err != nil {
			return nil, err
		}
		m.emit(ctx, events.Event{
			Type:       events.EventDeptReassigned,
			TicketID:   ticket.ID,
			TicketCode: ticket.Code,
			ActorID:    actor.ID,
			Payload: events.DeptReassignedPayload{
				OldDepartmentID: oldDept,
				NewDepartmentID: ticket.DepartmentID,
				OldAssigneeID:   oldAssignee,
				NewAssigneeID:   *ticket.AssigneeID,
				IncidentTypeID:  ticket.IncidentTypeID,
			},
		})
		return ticket, nil

	case input.AgentID != nil:
		if !actor.Permissions.Has(domain.PermReassignUser) {
			return nil, apperrors.NewPermissionDenied(string(domain.PermReassignUser))
		}
		agent, err := m.users.GetByID(ctx, *input.AgentID)
		if err != nil {
			return nil, mapLookup(err, "agent")
		}
		if !agent.IsActive {
			return nil, apperrors.NewInconsistentAssignment("agent inactive", map[string]any{"agent_id": agent.ID})
		}
		ticket.AssigneeID = &agent.ID
		if err := m.tickets.Update(ctx, ticket); err != nil {
			return nil, err
		}
		if err := m.appendRevision(ctx, ticket, actor); err != nil {
			return nil, err
		}
		m.emit(ctx, events.Event{
			Type:       events.EventUserReassigned,
			TicketID:   ticket.ID,
			TicketCode: ticket.Code,
			ActorID:    actor.ID,
			Payload: events.UserReassignedPayload{
				OldAssigneeID: oldAssignee,
				NewAssigneeID: agent.ID,
			},
		})
		return ticket, nil
	}

	return nil, apperrors.NewValidationError("nothing to reassign", nil)
}

// SetCommitmentDate assigns or overwrites the commitment date. Only
// permitted while the ticket is En Proceso.
func (m *Machine) SetCommitmentDate(ctx context.Context, ticketID int64, date time.Time, actor Actor) (*domain.Ticket, error) {
	unlock := m.locks.Lock(ticketID)
	defer unlock()

	ticket, err := m.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status != domain.TicketStatusOpen {
		return nil, apperrors.NewInvalidState("commitment date can only be set while the ticket is open")
	}
	if !actor.Permissions.Has(domain.PermAddCommitmentDate) {
		return nil, apperrors.NewPermissionDenied(string(domain.PermAddCommitmentDate))
	}

	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	ticket.CommitmentDate = &day
	if err := m.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := m.appendRevision(ctx, ticket, actor); err != nil {
		return nil, err
	}
	m.emit(ctx, events.Event{
		Type:       events.EventCommitmentDateSet,
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		ActorID:    actor.ID,
		Payload: events.CommitmentDateSetPayload{
			AssigneeID:     ticket.AssigneeID,
			CommitmentDate: day,
		},
	})
	return ticket, nil
}

// SetTrashed moves the ticket to the trash or restores it. Allowed in
// any status; produces a revision but no notification.
func (m *Machine) SetTrashed(ctx context.Context, ticketID int64, trashed bool, actor Actor) (*domain.Ticket, error) {
	unlock := m.locks.Lock(ticketID)
	defer unlock()

	ticket, err := m.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Trashed == trashed {
		if trashed {
			return nil, apperrors.NewInvalidState("ticket already in trash")
		}
		return nil, apperrors.NewInvalidState("ticket is not in trash")
	}

	ticket.Trashed = trashed
	if err := m.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := m.appendRevision(ctx, ticket, actor); err != nil {
		return nil, err
	}
	return ticket, nil
}

// Edit updates subject and description. Gated by EDITAR_TICKET and only
// while the ticket is active.
func (m *Machine) Edit(ctx context.Context, ticketID int64, subject, description string, actor Actor) (*domain.Ticket, error) {
	unlock := m.locks.Lock(ticketID)
	defer unlock()

	ticket, err := m.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.Active() {
		return nil, apperrors.NewInvalidState("cannot edit a closed ticket")
	}
	if !actor.Permissions.Has(domain.PermEditTicket) {
		return nil, apperrors.NewPermissionDenied(string(domain.PermEditTicket))
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject required", nil)
	}
	if subject == ticket.Subject && strings.TrimSpace(description) == ticket.Description {
		return ticket, nil
	}

	ticket.Subject = subject
	ticket.Description = strings.TrimSpace(description)
	if err := m.tickets.Update(ctx, ticket); err != nil {
		return nil, err
	}
	if err := m.appendRevision(ctx, ticket, actor); err != nil {
		return nil, err
	}
	return ticket, nil
}

func (m *Machine) commitStatusChange(ctx context.Context, ticket *domain.Ticket, oldStatus domain.TicketStatus, actor Actor) (*domain.Ticket, error) {
	if err := m.tickets.UpdateStatus(ctx, ticket, oldStatus); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, apperrors.NewInvalidTransition(oldStatus.Label(), ticket.Status.Label())
		}
		return nil, err
	}
	if err := m.appendRevision(ctx, ticket, actor); err != nil {
		return nil, err
	}
	m.metrics.RecordTransition(oldStatus.Label(), domain.StatusLabel(ticket.Status, ticket.Authorized))
	m.emit(ctx, events.Event{
		Type:       events.EventStatusChanged,
		TicketID:   ticket.ID,
		TicketCode: ticket.Code,
		ActorID:    actor.ID,
		Payload: events.StatusChangedPayload{
			OldStatus:  oldStatus,
			NewStatus:  ticket.Status,
			Authorized: ticket.Authorized,
			CreatorID:  ticket.CreatorID,
			AssigneeID: ticket.AssigneeID,
		},
	})
	return ticket, nil
}

func (m *Machine) applyDepartmentReassignment(ctx context.Context, ticket *domain.Ticket, departmentID, agentID, incidentTypeID int64) error {
	dept, err := m.directory.GetDepartmentByID(ctx, departmentID)
	if err != nil {
		return mapLookup(err, "department")
	}
	if !dept.IsActive {
		return apperrors.NewInconsistentAssignment("department inactive", map[string]any{"department_id": dept.ID})
	}
	incident, err := m.directory.GetIncidentTypeByID(ctx, incidentTypeID)
	if err != nil {
		return mapLookup(err, "incident type")
	}
	if incident.DepartmentID != dept.ID {
		return apperrors.NewInconsistentAssignment("incident type not part of department", map[string]any{
			"department_id":    dept.ID,
			"incident_type_id": incident.ID,
		})
	}
	agent, err := m.users.GetByID(ctx, agentID)
	if err != nil {
		return mapLookup(err, "agent")
	}
	if !agent.IsActive || agent.DepartmentID == nil || *agent.DepartmentID != dept.ID {
		return apperrors.NewInconsistentAssignment("agent not part of department", map[string]any{
			"department_id": dept.ID,
			"agent_id":      agent.ID,
		})
	}

	ticket.DepartmentID = dept.ID
	ticket.IncidentTypeID = incident.ID
	ticket.AssigneeID = &agent.ID
	return nil
}

// appendRevision snapshots the ticket's reportable fields and appends
// them to the revision store under the caller's exclusion scope.
func (m *Machine) appendRevision(ctx context.Context, ticket *domain.Ticket, actor Actor) error {
	revision := &domain.Revision{
		TicketID:    ticket.ID,
		AuthorID:    &actor.ID,
		AuthorEmail: actor.Email,
		Snapshot:    m.snapshot(ctx, ticket),
	}
	return m.revisions.Append(ctx, revision)
}

func (m *Machine) snapshot(ctx context.Context, ticket *domain.Ticket) domain.Snapshot {
	snapshot := domain.Snapshot{
		Subject:     ticket.Subject,
		Description: ticket.Description,
		Status:      domain.StatusLabel(ticket.Status, ticket.Authorized),
		Trashed:     ticket.Trashed,
	}
	if dept, err := m.directory.GetDepartmentByID(ctx, ticket.DepartmentID); err == nil {
		snapshot.Department = dept.Name
	}
	if incident, err := m.directory.GetIncidentTypeByID(ctx, ticket.IncidentTypeID); err == nil {
		snapshot.IncidentType = incident.Name
	}
	if priority, err := m.directory.GetPriorityByID(ctx, ticket.PriorityID); err == nil {
		snapshot.Priority = priority.Name
	}
	if ticket.AssigneeID != nil {
		if agent, err := m.users.GetByID(ctx, *ticket.AssigneeID); err == nil {
			snapshot.Assignee = agent.FullName
		}
	}
	if ticket.ClosedByID != nil {
		if closer, err := m.users.GetByID(ctx, *ticket.ClosedByID); err == nil {
			snapshot.ClosedBy = closer.FullName
		}
	}
	if ticket.CommitmentDate != nil {
		snapshot.CommitmentDate = ticket.CommitmentDate.Format(domain.CommitmentDateLayout)
	}
	return snapshot
}

func (m *Machine) loadTicket(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := m.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, mapLookup(err, "ticket")
	}
	return ticket, nil
}

func (m *Machine) emit(ctx context.Context, event events.Event) {
	if m.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := m.dispatcher.Publish(ctx, event); err != nil {
		m.logger.Warn("event publish failed",
			zap.String("type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID),
			zap.Error(err))
	}
}

func mapLookup(err error, resource string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}

func generateTicketCode() string {
	return "TK-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
