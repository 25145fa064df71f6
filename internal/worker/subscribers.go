package worker

import (
	"github.com/spec-kit/evaluation-service/internal/events"
)

// Subscriber consumes domain events once attached to a dispatcher.
type Subscriber interface {
	Attach(d events.Dispatcher)
}

// StartSubscribers attaches every non-nil subscriber to d.
func StartSubscribers(d events.Dispatcher, subscribers ...Subscriber) int {
	attached := 0
	for _, s := range subscribers {
		if s == nil {
			continue
		}
		s.Attach(d)
		attached++
	}
	return attached
}
