// Package workflow owns the evaluation state machine: states, transition
// legality, input guards, derived display state and per-role affordances.
// Both the API and the dashboards consume it, so status handling lives only here.
package workflow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spec-kit/evaluation-service/internal/domain"
)

const (
	MinRating     = 1
	MaxRating     = 5
	MinAdjustment = -2
	MaxAdjustment = 2
)

var (
	// ErrValidation marks missing or out-of-range input.
	ErrValidation = errors.New("validation failed")
	// ErrForbidden marks a role or ownership mismatch.
	ErrForbidden = errors.New("action not permitted")
	// ErrInvalidState marks a transition invoked outside its required state.
	ErrInvalidState = errors.New("invalid workflow state")
)

// Violation describes a rejected action. Kind is one of the sentinel errors above.
type Violation struct {
	Kind    error
	Field   string
	Message string
}

func (v *Violation) Error() string { return v.Message }

func (v *Violation) Unwrap() error { return v.Kind }

func invalid(field, message string) error {
	return &Violation{Kind: ErrValidation, Field: field, Message: message}
}

func forbidden(message string) error {
	return &Violation{Kind: ErrForbidden, Message: message}
}

func wrongState(current domain.EvaluationStatus, message string) error {
	return &Violation{Kind: ErrInvalidState, Field: "status", Message: fmt.Sprintf("%s (status %s)", message, current)}
}

var allowedTransitions = map[domain.EvaluationStatus]domain.EvaluationStatus{
	domain.StatusPendingIntern: domain.StatusPendingHR,
	domain.StatusPendingHR:     domain.StatusCompleted,
}

var stageOrder = map[domain.EvaluationStatus]int{
	domain.StatusPendingIntern: 0,
	domain.StatusPendingHR:     1,
	domain.StatusCompleted:     2,
}

// Statuses lists the workflow stages in order.
func Statuses() []domain.EvaluationStatus {
	return []domain.EvaluationStatus{domain.StatusPendingIntern, domain.StatusPendingHR, domain.StatusCompleted}
}

// ParseStatus validates a status string.
func ParseStatus(s string) (domain.EvaluationStatus, error) {
	status := domain.EvaluationStatus(strings.TrimSpace(s))
	if _, ok := stageOrder[status]; !ok {
		return "", invalid("status", fmt.Sprintf("unknown status %q", s))
	}
	return status, nil
}

// Next returns the stage that follows current; false when current is terminal or unknown.
func Next(current domain.EvaluationStatus) (domain.EvaluationStatus, bool) {
	next, ok := allowedTransitions[current]
	return next, ok
}

// IsValidTransition reports whether from -> to is a legal single step.
func IsValidTransition(from, to domain.EvaluationStatus) bool {
	next, ok := allowedTransitions[from]
	return ok && next == to
}

// Reached reports whether status has arrived at or past stage.
func Reached(status, stage domain.EvaluationStatus) bool {
	return stageOrder[status] >= stageOrder[stage]
}

// CreateInput is the manager's creation form.
type CreateInput struct {
	InternID       string
	Rating         int
	ManagerComment string
	MonthsWorked   int
}

// ValidateCreate checks the creation guard without touching any state.
func ValidateCreate(in CreateInput) error {
	if strings.TrimSpace(in.InternID) == "" {
		return invalid("intern_id", "intern id is required")
	}
	if strings.TrimSpace(in.ManagerComment) == "" {
		return invalid("manager_comment", "manager comment is required")
	}
	if in.Rating < MinRating || in.Rating > MaxRating {
		return invalid("rating", "Rating must be between 1 and 5")
	}
	if in.MonthsWorked < 1 {
		return invalid("months_worked", "Months worked must be positive")
	}
	return nil
}

// ValidateFeedback checks the intern feedback guard.
func ValidateFeedback(comment string) error {
	if strings.TrimSpace(comment) == "" {
		return invalid("comment", "feedback comment is required")
	}
	return nil
}

// ValidateReview checks the HR review guard.
func ValidateReview(comment string, adjustment int) error {
	if strings.TrimSpace(comment) == "" {
		return invalid("comment", "review comment is required")
	}
	if adjustment < MinAdjustment || adjustment > MaxAdjustment {
		return invalid("rating_adjustment", "Adjustment must be between -2 and 2")
	}
	return nil
}

// NewEvaluation builds a pending_intern record owned by the acting manager.
func NewEvaluation(actor domain.Actor, in CreateInput) (*domain.Evaluation, error) {
	if actor.Role != domain.RoleManager {
		return nil, forbidden("only managers can create evaluations")
	}
	if err := ValidateCreate(in); err != nil {
		return nil, err
	}
	return &domain.Evaluation{
		InternID:       strings.TrimSpace(in.InternID),
		ManagerID:      actor.Email,
		Rating:         in.Rating,
		ManagerComment: strings.TrimSpace(in.ManagerComment),
		MonthsWorked:   in.MonthsWorked,
		Status:         domain.StatusPendingIntern,
	}, nil
}

// SubmitFeedback records the intern's comment and advances to pending_hr.
// e is left untouched when any guard fails.
func SubmitFeedback(e *domain.Evaluation, actor domain.Actor, comment string) error {
	if actor.Role != domain.RoleIntern {
		return forbidden("only interns can submit feedback")
	}
	if !strings.EqualFold(actor.Email, e.InternID) {
		return forbidden("evaluation belongs to another intern")
	}
	if e.Status != domain.StatusPendingIntern {
		return wrongState(e.Status, "feedback already submitted")
	}
	if err := ValidateFeedback(comment); err != nil {
		return err
	}
	text := strings.TrimSpace(comment)
	e.InternComment = &text
	e.Status = domain.StatusPendingHR
	return nil
}

// SubmitReview records the HR comment and adjustment and completes the evaluation.
func SubmitReview(e *domain.Evaluation, actor domain.Actor, comment string, adjustment int) error {
	if actor.Role != domain.RoleHR {
		return forbidden("only HR can submit reviews")
	}
	if e.Status != domain.StatusPendingHR {
		return wrongState(e.Status, "evaluation is not awaiting HR review")
	}
	if err := ValidateReview(comment, adjustment); err != nil {
		return err
	}
	text := strings.TrimSpace(comment)
	adj := adjustment
	e.HRComment = &text
	e.HRRatingAdjustment = &adj
	e.Status = domain.StatusCompleted
	return nil
}

// CanGenerateReport checks whether actor may trigger generation for e.
func CanGenerateReport(e *domain.Evaluation, actor domain.Actor) error {
	switch actor.Role {
	case domain.RoleHR:
	case domain.RoleManager:
		if !strings.EqualFold(actor.Email, e.ManagerID) {
			return forbidden("evaluation was created by another manager")
		}
	default:
		return forbidden("only managers and HR can generate reports")
	}
	if e.Status != domain.StatusCompleted {
		return wrongState(e.Status, "Evaluation not completed yet")
	}
	return nil
}

// AttachReport stores generated text without altering status or any other field.
func AttachReport(e *domain.Evaluation, actor domain.Actor, report string) error {
	if err := CanGenerateReport(e, actor); err != nil {
		return err
	}
	if strings.TrimSpace(report) == "" {
		return invalid("report", "generated report is empty")
	}
	text := report
	e.Report = &text
	return nil
}

// CheckConsistency verifies that only fields of reached stages are populated.
func CheckConsistency(e *domain.Evaluation) error {
	if _, ok := stageOrder[e.Status]; !ok {
		return invalid("status", fmt.Sprintf("unknown status %q", e.Status))
	}
	hasIntern := e.InternComment != nil
	hasHR := e.HRComment != nil || e.HRRatingAdjustment != nil
	if hasIntern != Reached(e.Status, domain.StatusPendingHR) {
		return wrongState(e.Status, "intern comment does not match stage")
	}
	if hasHR != (e.Status == domain.StatusCompleted) {
		return wrongState(e.Status, "hr review does not match stage")
	}
	if e.Report != nil && e.Status != domain.StatusCompleted {
		return wrongState(e.Status, "report attached before completion")
	}
	return nil
}

// FinalScore is rating plus HR adjustment, clamped to the rating scale.
func FinalScore(rating int, adjustment *int) int {
	score := rating
	if adjustment != nil {
		score += *adjustment
	}
	if score < MinRating {
		return MinRating
	}
	if score > MaxRating {
		return MaxRating
	}
	return score
}
