package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/evaluation-service/internal/domain"
)

func TestDispatcherRunsAllHandlers(t *testing.T) {
	d := NewInMemoryDispatcher()
	var calls []string
	d.Subscribe(EventEvaluationCreated, func(context.Context, Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventEvaluationCreated, func(context.Context, Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(EventReportGenerated, func(context.Context, Event) error {
		calls = append(calls, "other")
		return nil
	})

	err := d.Publish(context.Background(), New(EventEvaluationCreated, 1, domain.Actor{}, nil))
	assert.EqualError(t, err, "boom")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatcherRecoversHandlerPanic(t *testing.T) {
	d := NewInMemoryDispatcher()
	ran := false
	d.Subscribe(EventReportGenerated, func(context.Context, Event) error {
		panic("generator exploded")
	})
	d.Subscribe(EventReportGenerated, func(context.Context, Event) error {
		ran = true
		return nil
	})
	d.Subscribe(EventReportGenerated, nil)

	err := d.Publish(context.Background(), New(EventReportGenerated, 3, domain.Actor{}, nil))
	assert.EqualError(t, err, "report_generated handler panic: generator exploded")
	assert.True(t, ran)
}

func TestSubscribeAll(t *testing.T) {
	d := NewInMemoryDispatcher()
	seen := map[EventType]bool{}
	SubscribeAll(d, func(_ context.Context, e Event) error {
		seen[e.Type] = true
		return nil
	})
	for _, typ := range AllTypes() {
		require.NoError(t, d.Publish(context.Background(), New(typ, 0, domain.Actor{}, nil)))
	}
	assert.Len(t, seen, len(AllTypes()))
}

type recordingChannel struct {
	key string
	msg amqp.Publishing
	err error
}

func (r *recordingChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	r.key = key
	r.msg = msg
	return r.err
}

func TestAMQPForwarderPublishesJSON(t *testing.T) {
	ch := &recordingChannel{}
	f := NewAMQPForwarder(ch, "evaluation_events", zap.NewNop())

	actor := domain.Actor{Email: "hr@example.com", Role: domain.RoleHR}
	event := New(EventHRReviewCompleted, 7, actor, HRReviewCompletedPayload{RatingAdjustment: 2, FinalScore: 5})
	require.NoError(t, f.Handle(context.Background(), event))

	assert.Equal(t, "evaluation_events", ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.Equal(t, event.ID, ch.msg.MessageId)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, "hr_review_completed", decoded["type"])
	assert.Equal(t, float64(7), decoded["evaluation_id"])
	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, float64(5), payload["final_score"])
}

func TestAMQPForwarderWrapsPublishError(t *testing.T) {
	f := NewAMQPForwarder(&recordingChannel{err: errors.New("channel closed")}, "q", zap.NewNop())
	err := f.Handle(context.Background(), New(EventReportGenerated, 1, domain.Actor{}, nil))
	assert.ErrorContains(t, err, "channel closed")
}
