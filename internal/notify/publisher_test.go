package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
	"github.com/dev-serdi/helpdesk-core/internal/events"
)

type memNotificationRepo struct {
	mu     sync.Mutex
	stored []domain.Notification
}

func (r *memNotificationRepo) Create(_ context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stored = append(r.stored, *notification)
	return nil
}

func (r *memNotificationRepo) ListUnseenByRecipient(_ context.Context, recipientID int64) ([]domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Notification
	for _, n := range r.stored {
		if n.RecipientID == recipientID && !n.Seen {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r *memNotificationRepo) ListByRecipient(_ context.Context, recipientID int64, _, _ int) ([]domain.Notification, error) {
	return r.ListUnseenByRecipient(context.Background(), recipientID)
}

func (r *memNotificationRepo) MarkSeen(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.stored {
		if r.stored[i].ID == id {
			r.stored[i].Seen = true
		}
	}
	return nil
}

func (r *memNotificationRepo) MarkAllSeen(_ context.Context, recipientID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.stored {
		if r.stored[i].RecipientID == recipientID {
			r.stored[i].Seen = true
		}
	}
	return nil
}

type memUserRepo struct {
	users map[int64]domain.User
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, _ string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func subscribedUser(id int64, categories ...domain.NotificationCategory) domain.User {
	return domain.User{ID: id, IsActive: true, Subscriptions: categories}
}

func newPublisherFixture(users map[int64]domain.User) (*Publisher, *memNotificationRepo) {
	repo := &memNotificationRepo{}
	publisher := NewPublisher(PublisherDependencies{
		NotificationRepo: repo,
		UserRepo:         &memUserRepo{users: users},
		TopicPrefix:      "notify:user:",
	})
	return publisher, repo
}

func statusChangedEvent(actorID int64, creatorID int64, assigneeID *int64) events.Event {
	return events.Event{
		ID:         "evt-1",
		Type:       events.EventStatusChanged,
		TicketID:   7,
		TicketCode: "TK-ABC12345",
		ActorID:    actorID,
		Payload: events.StatusChangedPayload{
			OldStatus:  domain.TicketStatusOpen,
			NewStatus:  domain.TicketStatusCompleted,
			Authorized: true,
			CreatorID:  creatorID,
			AssigneeID: assigneeID,
		},
	}
}

func TestStatusChangeNotifiesCreatorAndAssignee(t *testing.T) {
	assignee := int64(200)
	publisher, repo := newPublisherFixture(map[int64]domain.User{
		100: subscribedUser(100, domain.CategoryStatusChanged),
		200: subscribedUser(200, domain.CategoryStatusChanged),
	})

	err := publisher.handleStatusChanged(context.Background(), statusChangedEvent(300, 100, &assignee))
	require.NoError(t, err)

	require.Len(t, repo.stored, 2)
	recipientIDs := []int64{repo.stored[0].RecipientID, repo.stored[1].RecipientID}
	assert.ElementsMatch(t, []int64{100, 200}, recipientIDs)
	assert.Equal(t, domain.CategoryStatusChanged, repo.stored[0].Category)
	assert.Contains(t, repo.stored[0].Body, "TK-ABC12345")
	assert.Equal(t, "/helpdesk/tasks/7", repo.stored[0].URL)
	assert.False(t, repo.stored[0].Seen)
}

func TestActorIsNeverNotifiedAboutOwnAction(t *testing.T) {
	assignee := int64(100)
	publisher, repo := newPublisherFixture(map[int64]domain.User{
		100: subscribedUser(100, domain.CategoryStatusChanged),
	})

	// Actor 100 is both creator and assignee of the ticket.
	err := publisher.handleStatusChanged(context.Background(), statusChangedEvent(100, 100, &assignee))
	require.NoError(t, err)
	assert.Empty(t, repo.stored)
}

func TestUnsubscribedRecipientIsSkipped(t *testing.T) {
	publisher, repo := newPublisherFixture(map[int64]domain.User{
		100: subscribedUser(100, domain.CategoryTicketCreated),
	})

	err := publisher.handleStatusChanged(context.Background(), statusChangedEvent(300, 100, nil))
	require.NoError(t, err)
	assert.Empty(t, repo.stored)
}

func TestInactiveRecipientIsSkipped(t *testing.T) {
	inactive := subscribedUser(100, domain.CategoryStatusChanged)
	inactive.IsActive = false
	publisher, repo := newPublisherFixture(map[int64]domain.User{100: inactive})

	err := publisher.handleStatusChanged(context.Background(), statusChangedEvent(300, 100, nil))
	require.NoError(t, err)
	assert.Empty(t, repo.stored)
}

func TestCommitmentDateOnlyNotifiesAssignee(t *testing.T) {
	assignee := int64(200)
	publisher, repo := newPublisherFixture(map[int64]domain.User{
		200: subscribedUser(200, domain.CategoryCommitmentDateSet),
	})

	err := publisher.handleCommitmentDateSet(context.Background(), events.Event{
		Type:       events.EventCommitmentDateSet,
		TicketID:   7,
		TicketCode: "TK-ABC12345",
		ActorID:    300,
		Payload: events.CommitmentDateSetPayload{
			AssigneeID: &assignee,
		},
	})
	require.NoError(t, err)
	require.Len(t, repo.stored, 1)
	assert.Equal(t, int64(200), repo.stored[0].RecipientID)
	assert.Equal(t, domain.CategoryCommitmentDateSet, repo.stored[0].Category)
}

func TestUnexpectedPayloadIsAnError(t *testing.T) {
	publisher, _ := newPublisherFixture(nil)

	err := publisher.handleStatusChanged(context.Background(), events.Event{
		Type:    events.EventStatusChanged,
		Payload: "not a payload",
	})
	assert.Error(t, err)
}
