package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher interface allows event publication/subscription.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// asyncDispatcher fans events out to handlers on a single worker
// goroutine. Publish never blocks the committing transition beyond the
// channel hand-off; handler failures are logged and swallowed.
type asyncDispatcher struct {
	mu        sync.RWMutex
	listeners map[EventType][]EventHandler
	queue     chan Event
	logger    *zap.Logger
	done      chan struct{}
	closeOnce sync.Once
}

// NewAsyncDispatcher creates a dispatcher and starts its worker.
func NewAsyncDispatcher(logger *zap.Logger, buffer int) *asyncDispatcher {
	if buffer <= 0 {
		buffer = 256
	}
	d := &asyncDispatcher{
		listeners: make(map[EventType][]EventHandler),
		queue:     make(chan Event, buffer),
		logger:    logger,
		done:      make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues the event for asynchronous delivery. A full queue
// drops the event rather than stalling the caller.
func (d *asyncDispatcher) Publish(ctx context.Context, event Event) error {
	select {
	case d.queue <- event:
		return nil
	default:
		d.logger.Warn("event queue full, dropping event",
			zap.String("type", string(event.Type)),
			zap.Int64("ticket_id", event.TicketID))
		return nil
	}
}

// Subscribe registers a handler for the given event type.
func (d *asyncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners[eventType] = append(d.listeners[eventType], handler)
}

// Close stops the worker after draining queued events.
func (d *asyncDispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *asyncDispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		d.mu.RLock()
		handlers := append([]EventHandler{}, d.listeners[event.Type]...)
		d.mu.RUnlock()

		for _, handler := range handlers {
			if err := handler(context.Background(), event); err != nil {
				d.logger.Warn("event handler failed",
					zap.String("type", string(event.Type)),
					zap.Int64("ticket_id", event.TicketID),
					zap.Error(err))
			}
		}
	}
}
