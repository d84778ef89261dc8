package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

// ErrStaleStatus signals an optimistic status update that found the row
// already moved past the expected status.
var ErrStaleStatus = errors.New("ticket status changed concurrently")

// TicketFilter captures listing parameters.
type TicketFilter struct {
	CreatorID    *int64
	DepartmentID *int64
	AssigneeID   *int64
	Status       *domain.TicketStatus
	SearchTerm   *string
	Trashed      bool
	Limit        int
	Offset       int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id int64) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) error
	UpdateStatus(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	CountWithFilter(ctx context.Context, filter TicketFilter) (int64, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, code, creator_id, department_id, incident_type_id, assignee_id, priority_id,
        subject, description, status, authorized, commitment_date, due_date, trashed,
        created_at, closed_at, closed_by_id, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (code, creator_id, department_id, incident_type_id, assignee_id, priority_id,
            subject, description, status, authorized, commitment_date, due_date, trashed)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.Code,
		ticket.CreatorID,
		ticket.DepartmentID,
		ticket.IncidentTypeID,
		ticket.AssigneeID,
		ticket.PriorityID,
		ticket.Subject,
		ticket.Description,
		ticket.Status,
		ticket.Authorized,
		ticket.CommitmentDate,
		ticket.DueDate,
		ticket.Trashed,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id int64) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicket(row)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET department_id=$1, incident_type_id=$2, assignee_id=$3, priority_id=$4,
            subject=$5, description=$6, commitment_date=$7, due_date=$8, trashed=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.DepartmentID,
		ticket.IncidentTypeID,
		ticket.AssigneeID,
		ticket.PriorityID,
		ticket.Subject,
		ticket.Description,
		ticket.CommitmentDate,
		ticket.DueDate,
		ticket.Trashed,
		ticket.ID,
	).Scan(&ticket.UpdatedAt)
}

// UpdateStatus persists a status mutation guarded by the status the
// caller read. Zero rows affected means another writer won the race.
func (r *ticketRepository) UpdateStatus(ctx context.Context, ticket *domain.Ticket, expected domain.TicketStatus) error {
	const query = `
        UPDATE tickets SET status=$1, authorized=$2, closed_at=$3, closed_by_id=$4, updated_at=NOW()
        WHERE id=$5 AND status=$6`
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Status,
		ticket.Authorized,
		ticket.ClosedAt,
		ticket.ClosedByID,
		ticket.ID,
		expected,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets`
	where, args := buildTicketWhere(filter)
	query += where + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) CountWithFilter(ctx context.Context, filter TicketFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM tickets`
	where, args := buildTicketWhere(filter)
	query += where

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.CreatorID,
		&ticket.DepartmentID,
		&ticket.IncidentTypeID,
		&ticket.AssigneeID,
		&ticket.PriorityID,
		&ticket.Subject,
		&ticket.Description,
		&ticket.Status,
		&ticket.Authorized,
		&ticket.CommitmentDate,
		&ticket.DueDate,
		&ticket.Trashed,
		&ticket.CreatedAt,
		&ticket.ClosedAt,
		&ticket.ClosedByID,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func buildTicketWhere(filter TicketFilter) (string, []any) {
	clauses := []string{"trashed = $1"}
	args := []any{filter.Trashed}

	if filter.CreatorID != nil {
		args = append(args, *filter.CreatorID)
		clauses = append(clauses, fmt.Sprintf("creator_id = $%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		clauses = append(clauses, fmt.Sprintf("assignee_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		args = append(args, "%"+strings.TrimSpace(*filter.SearchTerm)+"%")
		clauses = append(clauses, fmt.Sprintf("(subject ILIKE $%d OR code ILIKE $%d)", len(args), len(args)))
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}
