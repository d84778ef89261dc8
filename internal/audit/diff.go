// Package audit reconstructs a human-readable change trail from the
// append-only revision sequence of a ticket. Each revision is compared
// only against its immediate predecessor over a fixed field set, so a
// chain of incremental edits always reads back correctly.
package audit

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

// Sentence templates. The trash toggle overrides the generic template
// with a fixed sentence so it reads as a distinct semantic event.
const (
	sentinelUnassigned  = "unassigned"
	trashedSentence     = "ticket moved to trash"
	restoredSentence    = "ticket restored from trash"
	creationHeader      = "Ticket Created"
	changedTemplate     = `%s changed from "%s" to "%s"`
	assignedTemplate    = `%s set to "%s"`
	initialSubjectLabel = "Initial subject"
	initialPriorityLbl  = "Initial priority"
)

// Entry is one rendered revision of the trail.
type Entry struct {
	RevisionNumber int       `json:"revisionNumber"`
	AuthorEmail    string    `json:"authorEmail"`
	Timestamp      time.Time `json:"revisionTimestamp"`
	Changes        []string  `json:"changeDescriptions"`
}

// Engine renders audit trails. Stateless apart from its logger.
type Engine struct {
	logger *zap.Logger
}

// NewEngine constructs the engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

type field struct {
	label string
	value func(*domain.Snapshot) string
}

// comparisonFields is the fixed field set, in render order.
var comparisonFields = []field{
	{"Tema", func(s *domain.Snapshot) string { return s.Subject }},
	{"Descripción", func(s *domain.Snapshot) string { return s.Description }},
	{"Departamento", func(s *domain.Snapshot) string { return s.Department }},
	{"Incidencia", func(s *domain.Snapshot) string { return s.IncidentType }},
	{"Prioridad", func(s *domain.Snapshot) string { return s.Priority }},
	{"Estado", func(s *domain.Snapshot) string { return s.Status }},
	{"Usuario Asignado", func(s *domain.Snapshot) string { return s.Assignee }},
	{"Fecha de Compromiso", func(s *domain.Snapshot) string { return s.CommitmentDate }},
	{"Usuario de Cierre", func(s *domain.Snapshot) string { return s.ClosedBy }},
}

// BuildTrail renders the ordered revision sequence of one ticket. A
// revision yielding zero changes is dropped from the output; that case
// means some writer committed a revision without touching a tracked
// field, so it is logged rather than silently discarded.
func (e *Engine) BuildTrail(revisions []domain.Revision) []Entry {
	trail := make([]Entry, 0, len(revisions))
	for i := range revisions {
		revision := &revisions[i]

		var changes []string
		if i == 0 {
			changes = creationRecord(&revision.Snapshot)
		} else {
			changes = e.compare(&revisions[i-1].Snapshot, &revision.Snapshot)
		}

		if len(changes) == 0 {
			e.logger.Warn("revision produced no detectable changes, dropping from trail",
				zap.Int64("ticket_id", revision.TicketID),
				zap.Int("revision", revision.Seq))
			continue
		}

		trail = append(trail, Entry{
			RevisionNumber: revision.Seq,
			AuthorEmail:    revision.AuthorEmail,
			Timestamp:      revision.CreatedAt,
			Changes:        changes,
		})
	}
	return trail
}

// creationRecord synthesizes the first revision's "changes": there is
// no predecessor, so it reports the initial subject and priority.
func creationRecord(snapshot *domain.Snapshot) []string {
	return []string{
		creationHeader,
		fmt.Sprintf("%s: %s", initialSubjectLabel, snapshot.Subject),
		fmt.Sprintf("%s: %s", initialPriorityLbl, snapshot.Priority),
	}
}

func (e *Engine) compare(previous, current *domain.Snapshot) []string {
	var changes []string

	for _, f := range comparisonFields {
		prev := normalize(f.value(previous))
		curr := normalize(f.value(current))
		if prev == curr {
			continue
		}
		if f.label == "Fecha de Compromiso" && !parsesAsDate(f.value(previous)) {
			changes = append(changes, fmt.Sprintf(assignedTemplate, f.label, curr))
			continue
		}
		changes = append(changes, fmt.Sprintf(changedTemplate, f.label, prev, curr))
	}

	if previous.Trashed != current.Trashed {
		if current.Trashed {
			changes = append(changes, trashedSentence)
		} else {
			changes = append(changes, restoredSentence)
		}
	}

	return changes
}

// normalize maps missing values to a sentinel so null-to-null never
// reads as a change and null-to-value reads as an assignment.
func normalize(value string) string {
	if value == "" {
		return sentinelUnassigned
	}
	return value
}

func parsesAsDate(value string) bool {
	_, err := time.Parse(domain.CommitmentDateLayout, value)
	return err == nil
}
