package dashboard

import (
	"context"
	"strings"

	"github.com/spec-kit/evaluation-service/internal/client"
	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/session"
	"github.com/spec-kit/evaluation-service/internal/workflow"
)

// HRPageSize is the number of cards per HR page.
const HRPageSize = 10

// HRAPI is what the HR dashboard calls.
type HRAPI interface {
	ListHREvaluations(ctx context.Context, p client.ListParams) (*client.ListResult, error)
	SubmitHRReview(ctx context.Context, id int64, comment string, adjustment int) (*domain.Evaluation, error)
	GenerateReport(ctx context.Context, id int64) (string, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	ToggleUserActive(ctx context.Context, email string) (*domain.User, error)
}

// HRDashboard reviews evaluations and administers accounts.
type HRDashboard struct {
	*base
	api    HRAPI
	status string
}

// NewHRDashboard guards the session and returns the dashboard.
func NewHRDashboard(api HRAPI, s *session.Session, opts Options) (*HRDashboard, error) {
	b, err := newBase(s, domain.RoleHR, opts)
	if err != nil {
		return nil, err
	}
	return &HRDashboard{base: b, api: api}, nil
}

// Load fetches one page. An empty status leaves the server's default set.
func (d *HRDashboard) Load(ctx context.Context, search, status string, page int) (*Page, error) {
	if status != "" {
		if _, err := workflow.ParseStatus(status); err != nil {
			return nil, d.rejectInput(err)
		}
	}
	page = normalizePage(page)
	d.mu.Lock()
	d.search, d.status = search, status
	d.mu.Unlock()
	return d.loaded(ctx, func(ctx context.Context) (*client.ListResult, error) {
		return d.api.ListHREvaluations(ctx, client.ListParams{
			Search: search,
			Status: status,
			Skip:   (page - 1) * HRPageSize,
			Limit:  HRPageSize,
		})
	}, page, HRPageSize)
}

func (d *HRDashboard) reload(ctx context.Context) error {
	d.mu.Lock()
	search, status := d.search, d.status
	d.mu.Unlock()
	_, err := d.Load(ctx, search, status, d.lastPage())
	return refreshError(err)
}

// SubmitReview records HR's comment and adjustment. Report generation starts on the server.
func (d *HRDashboard) SubmitReview(ctx context.Context, id int64, comment string, adjustment int) (*domain.Evaluation, error) {
	if err := workflow.ValidateReview(comment, adjustment); err != nil {
		return nil, d.rejectInput(err)
	}
	release, err := d.flags.acquire("review")
	if err != nil {
		return nil, err
	}
	defer release()

	updated, err := d.api.SubmitHRReview(ctx, id, comment, adjustment)
	if err != nil {
		return nil, d.failed(err, "Error submitting review")
	}
	d.opts.Toaster.Success("Review Submitted")
	return updated, d.reload(ctx)
}

// GenerateReport requests the narrative for a completed evaluation.
func (d *HRDashboard) GenerateReport(ctx context.Context, id int64) (string, error) {
	release, err := d.flags.acquire("report")
	if err != nil {
		return "", err
	}
	defer release()

	text, err := d.api.GenerateReport(ctx, id)
	if err != nil {
		return "", d.failed(err, "Failed to generate AI report")
	}
	d.opts.Toaster.Success("AI Report Generated Successfully")
	return text, d.reload(ctx)
}

// Users lists every account.
func (d *HRDashboard) Users(ctx context.Context) ([]domain.User, error) {
	users, err := d.api.ListUsers(ctx)
	if err != nil {
		return nil, d.failed(err, "Failed to load users")
	}
	return users, nil
}

// ToggleUser flips an account's active flag and returns the refreshed list.
func (d *HRDashboard) ToggleUser(ctx context.Context, email string) ([]domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, d.rejectInput(&workflow.Violation{Kind: workflow.ErrValidation, Field: "email", Message: "email is required"})
	}
	release, err := d.flags.acquire("toggle")
	if err != nil {
		return nil, err
	}
	defer release()

	if _, err := d.api.ToggleUserActive(ctx, email); err != nil {
		return nil, d.failed(err, "Failed to update user")
	}
	d.opts.Toaster.Success("User status updated")
	return d.Users(ctx)
}
