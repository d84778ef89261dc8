package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
	"github.com/dev-serdi/helpdesk-core/internal/events"
	"github.com/dev-serdi/helpdesk-core/internal/observability"
	"github.com/dev-serdi/helpdesk-core/internal/repository"
)

// Topic returns the principal-scoped pub/sub topic.
func Topic(prefix string, principalID int64) string {
	return prefix + strconv.FormatInt(principalID, 10)
}

// Publisher turns lifecycle events into stored notifications and
// pushes them onto each recipient's topic. Push failures are logged
// and swallowed: the committed transition is never invalidated by the
// notification path.
type Publisher struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	redis         *redis.Client
	logger        *zap.Logger
	metrics       *observability.Metrics
	topicPrefix   string
}

// PublisherDependencies bundles collaborators.
type PublisherDependencies struct {
	NotificationRepo repository.NotificationRepository
	UserRepo         repository.UserRepository
	Redis            *redis.Client
	Logger           *zap.Logger
	Metrics          *observability.Metrics
	TopicPrefix      string
}

// NewPublisher creates the publisher.
func NewPublisher(deps PublisherDependencies) *Publisher {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		notifications: deps.NotificationRepo,
		users:         deps.UserRepo,
		redis:         deps.Redis,
		logger:        logger,
		metrics:       deps.Metrics,
		topicPrefix:   deps.TopicPrefix,
	}
}

// RegisterHandlers subscribes to lifecycle events.
func (p *Publisher) RegisterHandlers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketCreated, p.handleTicketCreated)
	dispatcher.Subscribe(events.EventStatusChanged, p.handleStatusChanged)
	dispatcher.Subscribe(events.EventUserReassigned, p.handleUserReassigned)
	dispatcher.Subscribe(events.EventDeptReassigned, p.handleDeptReassigned)
	dispatcher.Subscribe(events.EventCommitmentDateSet, p.handleCommitmentDateSet)
}

func (p *Publisher) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	if payload.AssigneeID == nil {
		return nil
	}
	p.deliver(ctx, *payload.AssigneeID, event, domain.CategoryTicketCreated,
		"Nuevo ticket asignado",
		fmt.Sprintf("Se te asignó el ticket %s: %s", event.TicketCode, payload.Subject))
	return nil
}

func (p *Publisher) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	body := fmt.Sprintf("El ticket %s cambió de %q a %q",
		event.TicketCode,
		payload.OldStatus.Label(),
		domain.StatusLabel(payload.NewStatus, payload.Authorized))

	for _, recipient := range recipients(event.ActorID, &payload.CreatorID, payload.AssigneeID) {
		p.deliver(ctx, recipient, event, domain.CategoryStatusChanged, "Cambio de estado", body)
	}
	return nil
}

func (p *Publisher) handleUserReassigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserReassignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	body := fmt.Sprintf("El ticket %s fue reasignado", event.TicketCode)
	for _, recipient := range recipients(event.ActorID, payload.OldAssigneeID, &payload.NewAssigneeID) {
		p.deliver(ctx, recipient, event, domain.CategoryUserReassigned, "Reasignación de ticket", body)
	}
	return nil
}

func (p *Publisher) handleDeptReassigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.DeptReassignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	body := fmt.Sprintf("El ticket %s fue reasignado a otro departamento", event.TicketCode)
	for _, recipient := range recipients(event.ActorID, payload.OldAssigneeID, &payload.NewAssigneeID) {
		p.deliver(ctx, recipient, event, domain.CategoryDepartmentReassigned, "Reasignación de departamento", body)
	}
	return nil
}

func (p *Publisher) handleCommitmentDateSet(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommitmentDateSetPayload)
	if !ok {
		return fmt.Errorf("unexpected payload for %s", event.Type)
	}
	if payload.AssigneeID == nil || *payload.AssigneeID == event.ActorID {
		return nil
	}
	body := fmt.Sprintf("El ticket %s tiene fecha de compromiso %s",
		event.TicketCode,
		payload.CommitmentDate.Format(domain.CommitmentDateLayout))
	p.deliver(ctx, *payload.AssigneeID, event, domain.CategoryCommitmentDateSet, "Fecha de compromiso asignada", body)
	return nil
}

// deliver stores the notification and pushes it to the recipient's
// topic, subject to the recipient's subscription preferences.
func (p *Publisher) deliver(ctx context.Context, recipientID int64, event events.Event, category domain.NotificationCategory, title, body string) {
	user, err := p.users.GetByID(ctx, recipientID)
	if err != nil {
		p.logger.Warn("notification recipient lookup failed",
			zap.Int64("recipient_id", recipientID), zap.Error(err))
		return
	}
	if !user.IsActive || !user.Subscribes(category) {
		return
	}

	notification := &domain.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Category:    category,
		Title:       title,
		Body:        body,
		URL:         fmt.Sprintf("/helpdesk/tasks/%d", event.TicketID),
	}
	if err := p.notifications.Create(ctx, notification); err != nil {
		p.logger.Warn("notification store failed",
			zap.Int64("recipient_id", recipientID), zap.Error(err))
		return
	}

	p.metrics.RecordNotification(string(category))
	p.push(ctx, notification)
}

func (p *Publisher) push(ctx context.Context, notification *domain.Notification) {
	if p.redis == nil {
		return
	}
	payload, err := json.Marshal(notification)
	if err != nil {
		p.logger.Warn("notification encode failed", zap.Error(err))
		return
	}
	topic := Topic(p.topicPrefix, notification.RecipientID)
	if err := p.redis.Publish(ctx, topic, payload).Err(); err != nil {
		p.logger.Warn("notification push failed",
			zap.String("topic", topic), zap.Error(err))
	}
}

// recipients dedupes the candidate ids and drops the actor: nobody is
// notified about their own action.
func recipients(actorID int64, candidates ...*int64) []int64 {
	seen := make(map[int64]struct{}, len(candidates))
	var out []int64
	for _, candidate := range candidates {
		if candidate == nil || *candidate == actorID {
			continue
		}
		if _, dup := seen[*candidate]; dup {
			continue
		}
		seen[*candidate] = struct{}{}
		out = append(out, *candidate)
	}
	return out
}
