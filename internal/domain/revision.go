package domain

import "time"

// CommitmentDateLayout is the format commitment dates carry inside
// snapshots. A snapshot value that fails to parse with this layout is
// treated as "never set" by the audit engine.
const CommitmentDateLayout = "2006-01-02"

// Snapshot freezes the reportable fields of a ticket at revision time.
// The JSON keys match the history DTO the dashboard consumes.
type Snapshot struct {
	Subject        string `json:"tema"`
	Description    string `json:"descripcion"`
	Department     string `json:"departamentoNombre"`
	IncidentType   string `json:"incidenciaNombre"`
	Priority       string `json:"prioridadNombre"`
	Status         string `json:"estadoNombre"`
	Assignee       string `json:"usuarioAsignadoNombres"`
	CommitmentDate string `json:"fechaCompromiso"`
	Trashed        bool   `json:"isTrashed"`
	ClosedBy       string `json:"usuarioCerrar"`
}

// Revision is an immutable snapshot appended after every committed
// mutation. Seq is monotonic per ticket, starting at 1 on creation.
type Revision struct {
	ID          int64
	TicketID    int64
	Seq         int
	AuthorID    *int64
	AuthorEmail string
	CreatedAt   time.Time
	Snapshot    Snapshot
}
