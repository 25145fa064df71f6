package dashboard

import (
	"context"

	"github.com/spec-kit/evaluation-service/internal/client"
	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/session"
	"github.com/spec-kit/evaluation-service/internal/workflow"
)

// InternPageSize is the number of cards per intern page.
const InternPageSize = 5

// InternAPI is what the intern dashboard calls.
type InternAPI interface {
	ListInternEvaluations(ctx context.Context, skip, limit int) (*client.ListResult, error)
	SubmitInternFeedback(ctx context.Context, id int64, comment string) (*domain.Evaluation, error)
}

// InternDashboard shows the intern's own evaluations.
type InternDashboard struct {
	*base
	api InternAPI
}

// NewInternDashboard guards the session and returns the dashboard.
func NewInternDashboard(api InternAPI, s *session.Session, opts Options) (*InternDashboard, error) {
	b, err := newBase(s, domain.RoleIntern, opts)
	if err != nil {
		return nil, err
	}
	return &InternDashboard{base: b, api: api}, nil
}

// Load fetches one page.
func (d *InternDashboard) Load(ctx context.Context, page int) (*Page, error) {
	page = normalizePage(page)
	return d.loaded(ctx, func(ctx context.Context) (*client.ListResult, error) {
		return d.api.ListInternEvaluations(ctx, (page-1)*InternPageSize, InternPageSize)
	}, page, InternPageSize)
}

// SubmitFeedback records the intern's comment on a pending evaluation.
func (d *InternDashboard) SubmitFeedback(ctx context.Context, id int64, comment string) (*domain.Evaluation, error) {
	if err := workflow.ValidateFeedback(comment); err != nil {
		return nil, d.rejectInput(err)
	}
	release, err := d.flags.acquire("feedback")
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := d.api.SubmitInternFeedback(ctx, id, comment)
	if err != nil {
		return nil, d.failed(err, "Error submitting feedback")
	}
	d.opts.Toaster.Success("Feedback Submitted Successfully")
	_, err = d.Load(ctx, d.lastPage())
	return updated, refreshError(err)
}
