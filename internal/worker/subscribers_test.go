package worker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/evaluation-service/internal/events"
)

type countingSubscriber struct {
	seen []events.EventType
}

func (c *countingSubscriber) Attach(d events.Dispatcher) {
	d.Subscribe(events.EventReportGenerated, func(_ context.Context, e events.Event) error {
		c.seen = append(c.seen, e.Type)
		return nil
	})
}

func TestStartSubscribers(t *testing.T) {
	d := events.NewInMemoryDispatcher()
	first, second := &countingSubscriber{}, &countingSubscriber{}

	n := StartSubscribers(d, first, nil, second)
	assert.Equal(t, 2, n)

	require.NoError(t, d.Publish(context.Background(), events.Event{Type: events.EventReportGenerated}))
	require.NoError(t, d.Publish(context.Background(), events.Event{Type: events.EventEvaluationCreated}))

	assert.Equal(t, []events.EventType{events.EventReportGenerated}, first.seen)
	assert.Equal(t, []events.EventType{events.EventReportGenerated}, second.seen)
}
