package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/evaluation-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEvaluationCreated       EventType = "evaluation_created"
	EventInternFeedbackSubmitted EventType = "intern_feedback_submitted"
	EventHRReviewCompleted       EventType = "hr_review_completed"
	EventReportGenerated         EventType = "report_generated"
	EventUserStatusToggled       EventType = "user_status_toggled"
)

// AllTypes lists every event the services emit.
func AllTypes() []EventType {
	return []EventType{
		EventEvaluationCreated,
		EventInternFeedbackSubmitted,
		EventHRReviewCompleted,
		EventReportGenerated,
		EventUserStatusToggled,
	}
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	EvaluationID int64       `json:"evaluation_id,omitempty"`
	Actor        Actor       `json:"actor"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// New stamps an event with a fresh id and the current time.
func New(eventType EventType, evaluationID int64, actor domain.Actor, payload interface{}) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		EvaluationID: evaluationID,
		Actor:        Actor{Email: actor.Email, Role: actor.Role},
		Timestamp:    time.Now().UTC(),
		Payload:      payload,
	}
}

// EvaluationCreatedPayload payload.
type EvaluationCreatedPayload struct {
	InternID     string `json:"intern_id"`
	Rating       int    `json:"rating"`
	MonthsWorked int    `json:"months_worked"`
}

// StatusChangedPayload is shared by feedback and review events.
type StatusChangedPayload struct {
	InternID  string                  `json:"intern_id"`
	ManagerID string                  `json:"manager_id"`
	OldStatus domain.EvaluationStatus `json:"old_status"`
	NewStatus domain.EvaluationStatus `json:"new_status"`
}

// HRReviewCompletedPayload payload.
type HRReviewCompletedPayload struct {
	StatusChangedPayload
	RatingAdjustment int `json:"rating_adjustment"`
	FinalScore       int `json:"final_score"`
}

// ReportGeneratedPayload payload.
type ReportGeneratedPayload struct {
	Trigger string `json:"trigger"`
	Length  int    `json:"length"`
}

// UserStatusToggledPayload payload.
type UserStatusToggledPayload struct {
	Email    string `json:"email"`
	IsActive bool   `json:"is_active"`
}
