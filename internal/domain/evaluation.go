package domain

import "time"

// EvaluationStatus enumerates workflow stages for an evaluation.
type EvaluationStatus string

const (
	StatusPendingIntern EvaluationStatus = "pending_intern"
	StatusPendingHR     EvaluationStatus = "pending_hr"
	StatusCompleted     EvaluationStatus = "completed"
)

// Evaluation tracks one performance review cycle for one intern.
type Evaluation struct {
	ID                 int64
	InternID           string
	ManagerID          string
	Rating             int
	ManagerComment     string
	MonthsWorked       int
	InternComment      *string
	HRComment          *string
	HRRatingAdjustment *int
	Report             *string
	Status             EvaluationStatus
	CreatedAt          time.Time
}

// HasReport reports whether a narrative report is attached.
func (e *Evaluation) HasReport() bool {
	return e.Report != nil && *e.Report != ""
}

// Clone returns a deep copy so callers can stage mutations.
func (e *Evaluation) Clone() *Evaluation {
	if e == nil {
		return nil
	}
	out := *e
	out.InternComment = cloneString(e.InternComment)
	out.HRComment = cloneString(e.HRComment)
	out.Report = cloneString(e.Report)
	if e.HRRatingAdjustment != nil {
		adj := *e.HRRatingAdjustment
		out.HRRatingAdjustment = &adj
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
