package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dev-serdi/helpdesk-core/internal/domain"
)

// ConnectionStatus reports the state of a channel subscription.
type ConnectionStatus string

const (
	StatusConnecting   ConnectionStatus = "CONNECTING"
	StatusConnected    ConnectionStatus = "CONNECTED"
	StatusError        ConnectionStatus = "ERROR"
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
)

// DefaultRetryDelay matches the dashboard's fixed reconnect delay.
const DefaultRetryDelay = 5 * time.Second

// Channel is the client side of the per-principal notification stream.
// On connection loss it retries on a fixed delay until the subscription
// is restored or the channel is closed. Events published while the
// channel was down are not replayed: delivery while disconnected is
// at-most-once, and callers wanting reconciliation must re-fetch
// explicitly.
type Channel struct {
	client     *redis.Client
	topic      string
	retryDelay time.Duration
	logger     *zap.Logger

	events chan domain.Notification
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	status ConnectionStatus
}

// OpenChannel subscribes to the principal's topic and starts the
// receive loop.
func OpenChannel(client *redis.Client, topicPrefix string, principalID int64, retryDelay time.Duration, logger *zap.Logger) *Channel {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		client:     client,
		topic:      Topic(topicPrefix, principalID),
		retryDelay: retryDelay,
		logger:     logger,
		events:     make(chan domain.Notification, 64),
		cancel:     cancel,
		done:       make(chan struct{}),
		status:     StatusConnecting,
	}
	go c.run(ctx)
	return c
}

// Events returns the stream of decoded notifications. The channel is
// closed when Close is called.
func (c *Channel) Events() <-chan domain.Notification {
	return c.events
}

// Status returns the current connection status.
func (c *Channel) Status() ConnectionStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Close tears down the subscription. There is no finer-grained
// cancellation for an in-flight reconnect attempt.
func (c *Channel) Close() {
	c.cancel()
	<-c.done
}

func (c *Channel) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)
	defer c.setStatus(StatusDisconnected)

	for {
		if ctx.Err() != nil {
			return
		}
		c.setStatus(StatusConnecting)

		pubsub := c.client.Subscribe(ctx, c.topic)
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("subscribe failed, retrying",
				zap.String("topic", c.topic), zap.Error(err))
			c.setStatus(StatusError)
			if !c.sleep(ctx) {
				return
			}
			continue
		}

		c.setStatus(StatusConnected)
		c.receive(ctx, pubsub)
		_ = pubsub.Close()

		if ctx.Err() != nil {
			return
		}
		c.setStatus(StatusError)
		if !c.sleep(ctx) {
			return
		}
	}
}

func (c *Channel) receive(ctx context.Context, pubsub *redis.PubSub) {
	for {
		msg, err := pubsub.ReceiveMessage(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.logger.Warn("notification stream interrupted",
					zap.String("topic", c.topic), zap.Error(err))
			}
			return
		}
		var notification domain.Notification
		if err := json.Unmarshal([]byte(msg.Payload), &notification); err != nil {
			c.logger.Warn("undecodable notification payload",
				zap.String("topic", c.topic), zap.Error(err))
			continue
		}
		select {
		case c.events <- notification:
		case <-ctx.Done():
			return
		default:
			c.logger.Warn("event buffer full, dropping notification",
				zap.String("id", notification.ID))
		}
	}
}

// sleep waits out the fixed retry delay. Returns false when the channel
// was closed meanwhile.
func (c *Channel) sleep(ctx context.Context) bool {
	timer := time.NewTimer(c.retryDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Channel) setStatus(status ConnectionStatus) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()
}
