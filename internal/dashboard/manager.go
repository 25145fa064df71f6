package dashboard

import (
	"context"

	"github.com/spec-kit/evaluation-service/internal/api/dto"
	"github.com/spec-kit/evaluation-service/internal/client"
	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/session"
	"github.com/spec-kit/evaluation-service/internal/workflow"
)

// ManagerPageSize is the number of cards per manager page.
const ManagerPageSize = 5

// ManagerAPI is what the manager dashboard calls.
type ManagerAPI interface {
	ListManagerEvaluations(ctx context.Context, p client.ListParams) (*client.ListResult, error)
	CreateEvaluation(ctx context.Context, req dto.EvaluationCreateRequest) (*domain.Evaluation, error)
	GenerateReport(ctx context.Context, id int64) (string, error)
}

// CreateForm is the manager's new-evaluation form.
type CreateForm struct {
	InternID       string
	Rating         int
	ManagerComment string
	MonthsWorked   int
}

// ManagerDashboard lists and creates the manager's own evaluations.
type ManagerDashboard struct {
	*base
	api ManagerAPI
}

// NewManagerDashboard guards the session and returns the dashboard.
func NewManagerDashboard(api ManagerAPI, s *session.Session, opts Options) (*ManagerDashboard, error) {
	b, err := newBase(s, domain.RoleManager, opts)
	if err != nil {
		return nil, err
	}
	return &ManagerDashboard{base: b, api: api}, nil
}

// Load fetches one page, optionally narrowed by intern id search.
func (d *ManagerDashboard) Load(ctx context.Context, search string, page int) (*Page, error) {
	page = normalizePage(page)
	d.mu.Lock()
	d.search = search
	d.mu.Unlock()
	return d.loaded(ctx, func(ctx context.Context) (*client.ListResult, error) {
		return d.api.ListManagerEvaluations(ctx, client.ListParams{
			Search: search,
			Skip:   (page - 1) * ManagerPageSize,
			Limit:  ManagerPageSize,
		})
	}, page, ManagerPageSize)
}

func (d *ManagerDashboard) reload(ctx context.Context, page int) error {
	d.mu.Lock()
	search := d.search
	d.mu.Unlock()
	_, err := d.Load(ctx, search, page)
	return refreshError(err)
}

// Create submits the form and returns to the first page.
func (d *ManagerDashboard) Create(ctx context.Context, form CreateForm) (*domain.Evaluation, error) {
	in := workflow.CreateInput{
		InternID:       form.InternID,
		Rating:         form.Rating,
		ManagerComment: form.ManagerComment,
		MonthsWorked:   form.MonthsWorked,
	}
	if err := workflow.ValidateCreate(in); err != nil {
		return nil, d.rejectInput(err)
	}
	release, err := d.flags.acquire("create")
	if err != nil {
		return nil, err
	}
	defer release()

	created, err := d.api.CreateEvaluation(ctx, dto.EvaluationCreateRequest{
		InternID:       in.InternID,
		Rating:         in.Rating,
		ManagerComment: in.ManagerComment,
		MonthsWorked:   in.MonthsWorked,
	})
	if err != nil {
		return nil, d.failed(err, "Error creating evaluation")
	}
	d.opts.Toaster.Success("Evaluation Created Successfully")
	return created, d.reload(ctx, 1)
}

// GenerateReport requests the narrative for a completed evaluation.
func (d *ManagerDashboard) GenerateReport(ctx context.Context, id int64) (string, error) {
	release, err := d.flags.acquire("report")
	if err != nil {
		return "", err
	}
	defer release()

	text, err := d.api.GenerateReport(ctx, id)
	if err != nil {
		return "", d.failed(err, "Error generating report")
	}
	d.opts.Toaster.Success("Report Generated")
	return text, d.reload(ctx, d.lastPage())
}
