package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/evaluation-service/internal/config"
	"github.com/spec-kit/evaluation-service/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	logger *zap.Logger
	cfg    config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{logger: logger, cfg: cfg}
}

// Attach subscribes one handler per event type.
func (n *NotificationService) Attach(d events.Dispatcher) {
	d.Subscribe(events.EventEvaluationCreated, n.handleEvaluationCreated)
	d.Subscribe(events.EventInternFeedbackSubmitted, n.handleFeedbackSubmitted)
	d.Subscribe(events.EventHRReviewCompleted, n.handleReviewCompleted)
	d.Subscribe(events.EventReportGenerated, n.handleReportGenerated)
	d.Subscribe(events.EventUserStatusToggled, n.handleUserStatusToggled)
}

// The intern is told an evaluation awaits their feedback.
func (n *NotificationService) handleEvaluationCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("EvaluationCreated", zap.Int64("evaluation_id", event.EvaluationID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleFeedbackSubmitted(ctx context.Context, event events.Event) error {
	n.logger.Info("InternFeedbackSubmitted", zap.Int64("evaluation_id", event.EvaluationID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleReviewCompleted(ctx context.Context, event events.Event) error {
	n.logger.Info("HRReviewCompleted", zap.Int64("evaluation_id", event.EvaluationID), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleReportGenerated(ctx context.Context, event events.Event) error {
	n.logger.Info("ReportGenerated", zap.Int64("evaluation_id", event.EvaluationID), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) handleUserStatusToggled(ctx context.Context, event events.Event) error {
	n.logger.Info("UserStatusToggled", zap.String("actor", event.Actor.Email), zap.Any("payload", event.Payload))
	n.sendEmailNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.Int64("evaluation_id", event.EvaluationID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.Int64("evaluation_id", event.EvaluationID),
		zap.String("event_type", string(event.Type)))
}
