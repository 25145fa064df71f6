package dto

import (
	"time"

	"github.com/spec-kit/evaluation-service/internal/domain"
)

// EvaluationCreateRequest is the manager's creation form. Ranges are
// enforced by the workflow engine so every caller gets the same messages.
type EvaluationCreateRequest struct {
	InternID       string `json:"intern_id" validate:"required,email"`
	Rating         int    `json:"rating"`
	ManagerComment string `json:"manager_comment" validate:"required,max=4000"`
	MonthsWorked   int    `json:"months_worked"`
}

// InternFeedbackRequest payload.
type InternFeedbackRequest struct {
	Comment string `json:"comment" validate:"required,max=4000"`
}

// HRReviewRequest payload. The adjustment is a pointer so 0 can be told apart from missing.
type HRReviewRequest struct {
	Comment          string `json:"comment" validate:"required,max=4000"`
	RatingAdjustment *int   `json:"rating_adjustment" validate:"required"`
}

// EvaluationResponse mirrors domain.Evaluation on the wire.
type EvaluationResponse struct {
	ID                 int64     `json:"id"`
	InternID           string    `json:"intern_id"`
	ManagerID          string    `json:"manager_id"`
	Rating             int       `json:"rating"`
	ManagerComment     string    `json:"manager_comment"`
	MonthsWorked       int       `json:"months_worked"`
	InternComment      *string   `json:"intern_comment"`
	HRComment          *string   `json:"hr_comment"`
	HRRatingAdjustment *int      `json:"hr_rating_adjustment"`
	Report             *string   `json:"report"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"created_at"`
}

// EvaluationListResponse is one page of a filtered list.
type EvaluationListResponse struct {
	Evaluations []EvaluationResponse `json:"evaluations"`
	Total       int                  `json:"total"`
}

// ReportResponse carries generated report text.
type ReportResponse struct {
	Report string `json:"report"`
}

// NewEvaluationResponse maps a domain evaluation for the wire.
func NewEvaluationResponse(e domain.Evaluation) EvaluationResponse {
	return EvaluationResponse{
		ID:                 e.ID,
		InternID:           e.InternID,
		ManagerID:          e.ManagerID,
		Rating:             e.Rating,
		ManagerComment:     e.ManagerComment,
		MonthsWorked:       e.MonthsWorked,
		InternComment:      e.InternComment,
		HRComment:          e.HRComment,
		HRRatingAdjustment: e.HRRatingAdjustment,
		Report:             e.Report,
		Status:             string(e.Status),
		CreatedAt:          e.CreatedAt,
	}
}

// NewEvaluationListResponse maps a page of evaluations.
func NewEvaluationListResponse(items []domain.Evaluation, total int) EvaluationListResponse {
	out := EvaluationListResponse{Evaluations: make([]EvaluationResponse, 0, len(items)), Total: total}
	for _, e := range items {
		out.Evaluations = append(out.Evaluations, NewEvaluationResponse(e))
	}
	return out
}

// ToDomain maps a wire evaluation back to the domain type.
func (r EvaluationResponse) ToDomain() domain.Evaluation {
	return domain.Evaluation{
		ID:                 r.ID,
		InternID:           r.InternID,
		ManagerID:          r.ManagerID,
		Rating:             r.Rating,
		ManagerComment:     r.ManagerComment,
		MonthsWorked:       r.MonthsWorked,
		InternComment:      r.InternComment,
		HRComment:          r.HRComment,
		HRRatingAdjustment: r.HRRatingAdjustment,
		Report:             r.Report,
		Status:             domain.EvaluationStatus(r.Status),
		CreatedAt:          r.CreatedAt,
	}
}
