package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

// RevisionRepository is the append-only store of ticket snapshots.
// Appends assign the next per-ticket sequence number; callers hold the
// ticket's exclusion scope so numbering stays gap-free.
type RevisionRepository interface {
	Append(ctx context.Context, revision *domain.Revision) error
	ListByTicket(ctx context.Context, ticketID int64) ([]domain.Revision, error)
}

type revisionRepository struct {
	pool *pgxpool.Pool
}

// NewRevisionRepository builds repository.
func NewRevisionRepository(pool *pgxpool.Pool) RevisionRepository {
	return &revisionRepository{pool: pool}
}

func (r *revisionRepository) Append(ctx context.Context, revision *domain.Revision) error {
	snapshot, err := json.Marshal(revision.Snapshot)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO ticket_revisions (ticket_id, seq, author_id, author_email, snapshot)
        VALUES ($1, (SELECT COALESCE(MAX(seq), 0) + 1 FROM ticket_revisions WHERE ticket_id = $1), $2, $3, $4)
        RETURNING id, seq, created_at`
	return r.pool.QueryRow(ctx, query,
		revision.TicketID,
		revision.AuthorID,
		revision.AuthorEmail,
		snapshot,
	).Scan(&revision.ID, &revision.Seq, &revision.CreatedAt)
}

func (r *revisionRepository) ListByTicket(ctx context.Context, ticketID int64) ([]domain.Revision, error) {
	const query = `
        SELECT id, ticket_id, seq, author_id, author_email, snapshot, created_at
        FROM ticket_revisions WHERE ticket_id=$1 ORDER BY seq ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Revision
	for rows.Next() {
		var revision domain.Revision
		var snapshot []byte
		if err := rows.Scan(
			&revision.ID,
			&revision.TicketID,
			&revision.Seq,
			&revision.AuthorID,
			&revision.AuthorEmail,
			&snapshot,
			&revision.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(snapshot, &revision.Snapshot); err != nil {
			return nil, err
		}
		result = append(result, revision)
	}
	return result, rows.Err()
}
