package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/dev-serdi/helpdesk-core/internal/audit"
	"github.com/dev-serdi/helpdesk-core/internal/domain"
	"github.com/dev-serdi/helpdesk-core/internal/repository"
	apperrors "github.com/dev-serdi/helpdesk-core/pkg/util"
)

// TicketService serves the read side: listings, search, trash view and
// the reconstructed audit trail. All writes go through the lifecycle
// machine.
type TicketService struct {
	tickets   repository.TicketRepository
	revisions repository.RevisionRepository
	engine    *audit.Engine
}

// NewTicketService constructs the service.
func NewTicketService(tickets repository.TicketRepository, revisions repository.RevisionRepository, engine *audit.Engine) *TicketService {
	return &TicketService{tickets: tickets, revisions: revisions, engine: engine}
}

// ListFilter describes listing parameters from the dashboard.
type ListFilter struct {
	CreatorID    *int64
	DepartmentID *int64
	AssigneeID   *int64
	StatusID     *int64
	SearchTerm   *string
	Page         int
	Size         int
}

// GetTicket fetches one ticket.
func (s *TicketService) GetTicket(ctx context.Context, id int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": id})
		}
		return nil, err
	}
	return ticket, nil
}

// ListTickets returns one page plus the total matching count.
func (s *TicketService) ListTickets(ctx context.Context, filter ListFilter) ([]domain.Ticket, int64, error) {
	repoFilter := s.repoFilter(filter, false)
	items, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.tickets.CountWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SearchTickets looks tickets up by subject or code.
func (s *TicketService) SearchTickets(ctx context.Context, term string, limit int) ([]domain.Ticket, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return []domain.Ticket{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	return s.tickets.ListWithFilter(ctx, repository.TicketFilter{
		SearchTerm: &term,
		Limit:      limit,
	})
}

// ListTrashed returns the trash view, gated by VER_PAPELERA.
func (s *TicketService) ListTrashed(ctx context.Context, perms domain.PermissionSet, filter ListFilter) ([]domain.Ticket, int64, error) {
	if !perms.Has(domain.PermViewTrash) {
		return nil, 0, apperrors.NewPermissionDenied(string(domain.PermViewTrash))
	}
	repoFilter := s.repoFilter(filter, true)
	items, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.tickets.CountWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetAuditTrail reconstructs the ordered change log for one ticket.
func (s *TicketService) GetAuditTrail(ctx context.Context, ticketID int64) ([]audit.Entry, error) {
	if _, err := s.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	revisions, err := s.revisions.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.engine.BuildTrail(revisions), nil
}

func (s *TicketService) repoFilter(filter ListFilter, trashed bool) repository.TicketFilter {
	repoFilter := repository.TicketFilter{
		CreatorID:    filter.CreatorID,
		DepartmentID: filter.DepartmentID,
		AssigneeID:   filter.AssigneeID,
		SearchTerm:   filter.SearchTerm,
		Trashed:      trashed,
	}
	if filter.StatusID != nil {
		status := domain.TicketStatus(*filter.StatusID)
		if status.Valid() {
			repoFilter.Status = &status
		}
	}
	size := filter.Size
	if size <= 0 {
		size = 8
	}
	page := filter.Page
	if page < 0 {
		page = 0
	}
	repoFilter.Limit = size
	repoFilter.Offset = page * size
	return repoFilter
}
