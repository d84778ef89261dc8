package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPermissionSetHas(t *testing.T) {
	set := NewPermissionSet(PermCompleteTicket, PermReopenTicket)

	assert.True(t, set.Has(PermCompleteTicket))
	assert.True(t, set.Has(PermReopenTicket))
	assert.False(t, set.Has(PermCloseTicket))
	assert.Equal(t, 2, set.Len())
}

func TestPermissionSetListIsSortedAndDeduplicated(t *testing.T) {
	set := NewPermissionSet(PermViewTrash, PermCloseTicket, PermViewTrash)

	assert.Equal(t, []Permission{PermCloseTicket, PermViewTrash}, set.List())
}

func TestEmptyPermissionSetHasNothing(t *testing.T) {
	var set PermissionSet
	assert.False(t, set.Has(PermCompleteTicket))
	assert.Zero(t, set.Len())
	assert.Empty(t, set.List())
}

func TestStatusLabelAuthorizationOverlay(t *testing.T) {
	assert.Equal(t, "En Proceso", StatusLabel(TicketStatusOpen, true))
	assert.Equal(t, "Completado", StatusLabel(TicketStatusCompleted, true))
	assert.Equal(t, "Cerrado", StatusLabel(TicketStatusClosed, true))
	assert.Equal(t, "No Autorizado", StatusLabel(TicketStatusClosed, false))
	// The overlay only applies to closed tickets.
	assert.Equal(t, "En Proceso", StatusLabel(TicketStatusOpen, false))
}

func TestTicketActive(t *testing.T) {
	assert.True(t, (&Ticket{Status: TicketStatusOpen}).Active())
	assert.True(t, (&Ticket{Status: TicketStatusCompleted}).Active())
	assert.False(t, (&Ticket{Status: TicketStatusClosed}).Active())
}

func TestTicketOverdue(t *testing.T) {
	due := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	endOfDay := due.Add(24*time.Hour - time.Second)

	open := &Ticket{Status: TicketStatusOpen, DueDate: &due}
	assert.False(t, open.Overdue(endOfDay))
	assert.True(t, open.Overdue(endOfDay.Add(time.Minute)))

	// Closed tickets are judged against closure time, not now.
	closedLate := endOfDay.Add(48 * time.Hour)
	closed := &Ticket{Status: TicketStatusClosed, DueDate: &due, ClosedAt: &closedLate}
	assert.True(t, closed.Overdue(due))

	noDue := &Ticket{Status: TicketStatusOpen}
	assert.False(t, noDue.Overdue(endOfDay))
}

func TestSubscribes(t *testing.T) {
	user := User{Subscriptions: []NotificationCategory{CategoryTicketCreated, CategoryStatusChanged}}

	assert.True(t, user.Subscribes(CategoryStatusChanged))
	assert.False(t, user.Subscribes(CategoryCommitmentDateSet))
}
