package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher is the subset of *amqp.Channel the forwarder needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AMQPForwarder copies every dispatched event onto a durable RabbitMQ queue.
type AMQPForwarder struct {
	conn    *amqp.Connection
	channel Publisher
	queue   string
	timeout time.Duration
	logger  *zap.Logger
}

// DialAMQPForwarder connects to url and declares queue.
func DialAMQPForwarder(url, queue string, logger *zap.Logger) (*AMQPForwarder, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	logger.Info("forwarding events to rabbitmq", zap.String("queue", q.Name))
	f := NewAMQPForwarder(ch, q.Name, logger)
	f.conn = conn
	return f, nil
}

// NewAMQPForwarder wraps an already open channel.
func NewAMQPForwarder(ch Publisher, queue string, logger *zap.Logger) *AMQPForwarder {
	return &AMQPForwarder{channel: ch, queue: queue, timeout: 5 * time.Second, logger: logger}
}

// Attach subscribes the forwarder to every event type.
func (f *AMQPForwarder) Attach(d Dispatcher) {
	SubscribeAll(d, f.Handle)
}

// Handle publishes one event as a persistent JSON message.
func (f *AMQPForwarder) Handle(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	err = f.channel.PublishWithContext(ctx,
		"",      // default exchange
		f.queue, // routing key
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.Timestamp,
			Type:         string(event.Type),
			Body:         body,
		},
	)
	if err != nil {
		f.logger.Warn("event forward failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close shuts the underlying connection when the forwarder owns one.
func (f *AMQPForwarder) Close() {
	if f != nil && f.conn != nil {
		_ = f.conn.Close()
	}
}
