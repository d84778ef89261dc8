package worker

import (
	"github.com/dev-serdi/helpdesk-core/internal/events"
	"github.com/dev-serdi/helpdesk-core/internal/notify"
)

// StartNotificationWorker subscribes the publisher to lifecycle events.
func StartNotificationWorker(publisher *notify.Publisher, dispatcher events.Dispatcher) {
	if publisher == nil || dispatcher == nil {
		return
	}
	publisher.RegisterHandlers(dispatcher)
}
