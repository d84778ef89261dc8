package audit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

func revisionAt(seq int, email string, snapshot domain.Snapshot) domain.Revision {
	return domain.Revision{
		TicketID:    7,
		Seq:         seq,
		AuthorEmail: email,
		CreatedAt:   time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(seq) * time.Hour),
		Snapshot:    snapshot,
	}
}

func baseSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Subject:      "Sin acceso a la red",
		Description:  "El equipo no conecta",
		Department:   "Sistemas",
		IncidentType: "Hardware",
		Priority:     "Alta",
		Status:       "En Proceso",
	}
}

func TestBuildTrailCreationRecord(t *testing.T) {
	engine := NewEngine(nil)

	trail := engine.BuildTrail([]domain.Revision{revisionAt(1, "creador@serdi.mx", baseSnapshot())})

	require.Len(t, trail, 1)
	assert.Equal(t, 1, trail[0].RevisionNumber)
	assert.Equal(t, "creador@serdi.mx", trail[0].AuthorEmail)
	assert.Equal(t, []string{
		"Ticket Created",
		"Initial subject: Sin acceso a la red",
		"Initial priority: Alta",
	}, trail[0].Changes)
}

func TestBuildTrailStatusChangeSentence(t *testing.T) {
	engine := NewEngine(nil)
	first := baseSnapshot()
	second := baseSnapshot()
	second.Status = "Completado"

	trail := engine.BuildTrail([]domain.Revision{
		revisionAt(1, "creador@serdi.mx", first),
		revisionAt(2, "agente@serdi.mx", second),
	})

	require.Len(t, trail, 2)
	assert.Equal(t, []string{`Estado changed from "En Proceso" to "Completado"`}, trail[1].Changes)
}

func TestBuildTrailMultipleChangesKeepFieldOrder(t *testing.T) {
	engine := NewEngine(nil)
	first := baseSnapshot()
	second := baseSnapshot()
	second.Subject = "Sin acceso a la red corporativa"
	second.Status = "Completado"
	second.Assignee = "Agente Uno"

	trail := engine.BuildTrail([]domain.Revision{
		revisionAt(1, "creador@serdi.mx", first),
		revisionAt(2, "agente@serdi.mx", second),
	})

	require.Len(t, trail, 2)
	assert.Equal(t, []string{
		`Tema changed from "Sin acceso a la red" to "Sin acceso a la red corporativa"`,
		`Estado changed from "En Proceso" to "Completado"`,
		`Usuario Asignado changed from "unassigned" to "Agente Uno"`,
	}, trail[1].Changes)
}

func TestBuildTrailIsDeterministic(t *testing.T) {
	engine := NewEngine(nil)
	first := baseSnapshot()
	second := baseSnapshot()
	second.Priority = "Baja"
	second.Department = "Mantenimiento"
	revisions := []domain.Revision{
		revisionAt(1, "creador@serdi.mx", first),
		revisionAt(2, "agente@serdi.mx", second),
	}

	previous := engine.BuildTrail(revisions)
	for i := 0; i < 5; i++ {
		assert.Equal(t, previous, engine.BuildTrail(revisions))
	}
}

func TestBuildTrailDropsZeroChangeRevision(t *testing.T) {
	engine := NewEngine(nil)
	snapshot := baseSnapshot()

	trail := engine.BuildTrail([]domain.Revision{
		revisionAt(1, "creador@serdi.mx", snapshot),
		revisionAt(2, "agente@serdi.mx", snapshot),
		revisionAt(3, "agente@serdi.mx", func() domain.Snapshot {
			s := baseSnapshot()
			s.Status = "Completado"
			return s
		}()),
	})

	require.Len(t, trail, 2)
	assert.Equal(t, 1, trail[0].RevisionNumber)
	assert.Equal(t, 3, trail[1].RevisionNumber)
	assert.Equal(t, []string{`Estado changed from "En Proceso" to "Completado"`}, trail[1].Changes)
}

func TestBuildTrailUnassignedSentinel(t *testing.T) {
	engine := NewEngine(nil)
	first := baseSnapshot()
	first.Assignee = "Agente Uno"
	second := baseSnapshot()

	trail := engine.BuildTrail([]domain.Revision{
		revisionAt(1, "creador@serdi.mx", first),
		revisionAt(2, "agente@serdi.mx", second),
	})

	require.Len(t, trail, 2)
	assert.Equal(t, []string{`Usuario Asignado changed from "Agente Uno" to "unassigned"`}, trail[1].Changes)
}

func TestBuildTrailCommitmentDateFirstAssignment(t *testing.T) {
	engine := NewEngine(nil)
	first := baseSnapshot()
	second := baseSnapshot()
	second.CommitmentDate = "2026-09-15"

	trail := engine.BuildTrail([]domain.Revision{
		revisionAt(1, "creador@serdi.mx", first),
		revisionAt(2, "agente@serdi.mx", second),
	})

	require.Len(t, trail, 2)
	assert.Equal(t, []string{`Fecha de Compromiso set to "2026-09-15"`}, trail[1].Changes)
}

func TestBuildTrailCommitmentDateOverwrite(t *testing.T) {
	engine := NewEngine(nil)
	first := baseSnapshot()
	first.CommitmentDate = "2026-09-15"
	second := baseSnapshot()
	second.CommitmentDate = "2026-09-22"

	trail := engine.BuildTrail([]domain.Revision{
		revisionAt(1, "creador@serdi.mx", first),
		revisionAt(2, "agente@serdi.mx", second),
	})

	require.Len(t, trail, 2)
	assert.Equal(t, []string{`Fecha de Compromiso changed from "2026-09-15" to "2026-09-22"`}, trail[1].Changes)
}

func TestBuildTrailTrashSentences(t *testing.T) {
	engine := NewEngine(nil)
	first := baseSnapshot()
	second := baseSnapshot()
	second.Trashed = true
	third := baseSnapshot()

	trail := engine.BuildTrail([]domain.Revision{
		revisionAt(1, "creador@serdi.mx", first),
		revisionAt(2, "agente@serdi.mx", second),
		revisionAt(3, "agente@serdi.mx", third),
	})

	require.Len(t, trail, 3)
	assert.Equal(t, []string{"ticket moved to trash"}, trail[1].Changes)
	assert.Equal(t, []string{"ticket restored from trash"}, trail[2].Changes)
}

func TestBuildTrailNotAuthorizedClosure(t *testing.T) {
	engine := NewEngine(nil)
	first := baseSnapshot()
	second := baseSnapshot()
	second.Status = "No Autorizado"
	second.ClosedBy = "Supervisor Uno"

	trail := engine.BuildTrail([]domain.Revision{
		revisionAt(1, "creador@serdi.mx", first),
		revisionAt(2, "supervisor@serdi.mx", second),
	})

	require.Len(t, trail, 2)
	assert.Equal(t, []string{
		`Estado changed from "En Proceso" to "No Autorizado"`,
		`Usuario de Cierre changed from "unassigned" to "Supervisor Uno"`,
	}, trail[1].Changes)
}

func TestBuildTrailEmptyInput(t *testing.T) {
	engine := NewEngine(nil)
	assert.Empty(t, engine.BuildTrail(nil))
}
