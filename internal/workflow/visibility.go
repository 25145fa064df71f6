package workflow

import (
	"strings"

	"github.com/spec-kit/evaluation-service/internal/domain"
)

// Affordances lists the controls a role sees for one evaluation.
type Affordances struct {
	CanCreate         bool
	CanSubmitFeedback bool
	CanSubmitReview   bool
	CanGenerateReport bool
	CanViewReport     bool
	CanDownloadPDF    bool
}

// Any reports whether at least one per-evaluation action is available.
func (a Affordances) Any() bool {
	return a.CanSubmitFeedback || a.CanSubmitReview || a.CanGenerateReport || a.CanViewReport || a.CanDownloadPDF
}

// AffordancesFor derives role-gated visibility for e as seen by actor.
func AffordancesFor(actor domain.Actor, e *domain.Evaluation) Affordances {
	var a Affordances
	completed := e.Status == domain.StatusCompleted
	hasReport := e.HasReport()

	switch actor.Role {
	case domain.RoleManager:
		a.CanCreate = true
		if !strings.EqualFold(actor.Email, e.ManagerID) {
			return a
		}
		a.CanGenerateReport = completed && !hasReport
		a.CanViewReport = completed && hasReport
		a.CanDownloadPDF = a.CanViewReport
	case domain.RoleIntern:
		if !strings.EqualFold(actor.Email, e.InternID) {
			return a
		}
		a.CanSubmitFeedback = e.Status == domain.StatusPendingIntern
		a.CanViewReport = completed && hasReport
		a.CanDownloadPDF = a.CanViewReport
	case domain.RoleHR:
		a.CanSubmitReview = e.Status == domain.StatusPendingHR
		a.CanGenerateReport = completed && !hasReport
		a.CanViewReport = completed && hasReport
		a.CanDownloadPDF = a.CanViewReport
	}
	return a
}
