package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/evaluation-service/internal/api/http/handlers"
	"github.com/spec-kit/evaluation-service/internal/auth"
	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/export"
	"github.com/spec-kit/evaluation-service/internal/observability"
	"github.com/spec-kit/evaluation-service/internal/service"
	"github.com/spec-kit/evaluation-service/internal/workflow"
	apperrors "github.com/spec-kit/evaluation-service/pkg/util"
)

type fakeAuth struct{}

func (fakeAuth) Register(_ context.Context, in service.RegisterInput) (*domain.User, error) {
	return &domain.User{ID: 1, Name: in.Name, Email: in.Email, Role: in.Role, IsActive: true}, nil
}

func (fakeAuth) Login(context.Context, string, string) (*domain.User, string, time.Time, error) {
	return nil, "", time.Time{}, apperrors.NewUnauthorized("Invalid credentials")
}

type fakeEvaluations struct {
	created   *workflow.CreateInput
	adjusted  *int
	reviewErr error
	store     []domain.Evaluation
}

func (f *fakeEvaluations) Create(_ context.Context, actor domain.Actor, in workflow.CreateInput) (*domain.Evaluation, error) {
	f.created = &in
	return &domain.Evaluation{ID: 7, InternID: in.InternID, ManagerID: actor.Email, Rating: in.Rating,
		ManagerComment: in.ManagerComment, MonthsWorked: in.MonthsWorked, Status: domain.StatusPendingIntern}, nil
}

func (f *fakeEvaluations) Get(_ context.Context, _ domain.Actor, id int64) (*domain.Evaluation, error) {
	return nil, apperrors.NewNotFound("Evaluation", map[string]any{"id": id})
}

func (f *fakeEvaluations) ListForManager(context.Context, domain.Actor, service.ListQuery) (*service.ListResult, error) {
	return &service.ListResult{Evaluations: f.store, Total: len(f.store)}, nil
}

func (f *fakeEvaluations) ListForIntern(context.Context, domain.Actor, int, int) (*service.ListResult, error) {
	return &service.ListResult{}, nil
}

func (f *fakeEvaluations) ListForHR(_ context.Context, _ domain.Actor, q service.ListQuery) (*service.ListResult, error) {
	end := q.Skip + q.Limit
	if end > len(f.store) {
		end = len(f.store)
	}
	if q.Skip > end {
		q.Skip = end
	}
	return &service.ListResult{Evaluations: f.store[q.Skip:end], Total: len(f.store)}, nil
}

func (f *fakeEvaluations) SubmitFeedback(context.Context, domain.Actor, int64, string) (*domain.Evaluation, error) {
	return nil, apperrors.NewInvalidState("Evaluation is not awaiting intern feedback", nil)
}

func (f *fakeEvaluations) SubmitReview(_ context.Context, _ domain.Actor, id int64, _ string, adjustment int) (*domain.Evaluation, error) {
	if f.reviewErr != nil {
		return nil, f.reviewErr
	}
	f.adjusted = &adjustment
	return &domain.Evaluation{ID: id, Status: domain.StatusCompleted, HRRatingAdjustment: &adjustment}, nil
}

func (f *fakeEvaluations) GenerateReport(context.Context, domain.Actor, int64) (string, error) {
	return "narrative", nil
}

type fakeUsers struct{}

func (fakeUsers) List(context.Context, domain.Actor) ([]domain.User, error) {
	return []domain.User{{ID: 1, Email: "a@example.com", Role: domain.RoleIntern, IsActive: true}}, nil
}

func (fakeUsers) ToggleActive(_ context.Context, _ domain.Actor, email string) (*domain.User, error) {
	return &domain.User{Email: email, Role: domain.RoleIntern, IsActive: false}, nil
}

type routerFixture struct {
	app    *fiber.App
	tokens *auth.TokenManager
	evals  *fakeEvaluations
}

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	tokens := auth.NewTokenManager("test-secret", 60)
	evals := &fakeEvaluations{}
	metrics := observability.NewMetrics()

	app := NewApp("test")
	RegisterMiddlewares(app, MiddlewareConfig{Logger: zap.NewNop(), Metrics: metrics, Timeout: time.Second})
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("test", "dev", metrics, nil),
		Auth:           handlers.NewAuthHandler(fakeAuth{}),
		Evaluations:    handlers.NewEvaluationsHandler(evals),
		HR:             handlers.NewHRHandler(fakeUsers{}, evals),
		AuthMiddleware: auth.NewAuthMiddleware(tokens, nil),
	})
	return &routerFixture{app: app, tokens: tokens, evals: evals}
}

func (f *routerFixture) do(t *testing.T, method, path string, role domain.Role, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		token, _, err := f.tokens.GenerateToken(string(role)+"@example.com", role)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	decoded := map[string]any{}
	if len(raw) > 0 && resp.Header.Get("Content-Type") == fiber.MIMEApplicationJSON {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func errorCode(body map[string]any) string {
	if e, ok := body["error"].(map[string]any); ok {
		code, _ := e["code"].(string)
		return code
	}
	return ""
}

func TestRoutesRequireAuthentication(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{"/manager/evaluations", "/intern/evaluations", "/hr/evaluations", "/evaluations/1"} {
		resp, body := f.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
		assert.Equal(t, "UNAUTHORIZED", errorCode(body), path)
	}
}

func TestRoutesEnforceRoles(t *testing.T) {
	f := newRouterFixture(t)

	cases := []struct {
		method string
		path   string
		role   domain.Role
	}{
		{http.MethodPost, "/evaluations", domain.RoleIntern},
		{http.MethodGet, "/manager/evaluations", domain.RoleHR},
		{http.MethodGet, "/intern/evaluations", domain.RoleManager},
		{http.MethodGet, "/hr/users", domain.RoleManager},
		{http.MethodPost, "/evaluations/1/hr-review", domain.RoleManager},
		{http.MethodPost, "/evaluations/1/intern-feedback", domain.RoleHR},
		{http.MethodPost, "/evaluations/1/report", domain.RoleIntern},
	}
	for _, tc := range cases {
		resp, body := f.do(t, tc.method, tc.path, tc.role, map[string]any{})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "%s %s as %s", tc.method, tc.path, tc.role)
		assert.Equal(t, "FORBIDDEN", errorCode(body))
	}
}

func TestCreateEvaluation(t *testing.T) {
	f := newRouterFixture(t)

	resp, body := f.do(t, http.MethodPost, "/evaluations", domain.RoleManager, map[string]any{
		"intern_id": "intern@example.com", "rating": 4, "manager_comment": "steady", "months_worked": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, float64(7), data["id"])
	assert.Equal(t, "pending_intern", data["status"])
	assert.Equal(t, "manager@example.com", data["manager_id"])
	require.NotNil(t, f.evals.created)
	assert.Equal(t, 3, f.evals.created.MonthsWorked)
}

func TestCreateEvaluationValidatesPayload(t *testing.T) {
	f := newRouterFixture(t)

	resp, body := f.do(t, http.MethodPost, "/evaluations", domain.RoleManager, map[string]any{"rating": 4})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Contains(t, details, "intern_id")
	assert.Nil(t, f.evals.created)
}

func TestReviewRequiresAdjustment(t *testing.T) {
	f := newRouterFixture(t)

	resp, body := f.do(t, http.MethodPost, "/evaluations/3/hr-review", domain.RoleHR, map[string]any{"comment": "ok"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	resp, body = f.do(t, http.MethodPost, "/evaluations/3/hr-review", domain.RoleHR, map[string]any{"comment": "ok", "rating_adjustment": 0})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, f.evals.adjusted)
	assert.Equal(t, 0, *f.evals.adjusted)
	assert.Equal(t, "completed", body["data"].(map[string]any)["status"])
}

func TestWorkflowErrorsMapToStatus(t *testing.T) {
	f := newRouterFixture(t)

	resp, body := f.do(t, http.MethodPost, "/evaluations/3/intern-feedback", domain.RoleIntern, map[string]any{"comment": "late"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "INVALID_WORKFLOW_STATE", errorCode(body))

	resp, body = f.do(t, http.MethodGet, "/evaluations/99", domain.RoleIntern, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	resp, body = f.do(t, http.MethodGet, "/evaluations/abc", domain.RoleIntern, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(body))

	f.evals.reviewErr = apperrors.NewUpstreamError("REPORT_GENERATION_FAILED", "report generation failed", nil)
	resp, body = f.do(t, http.MethodPost, "/evaluations/3/hr-review", domain.RoleHR, map[string]any{"comment": "ok", "rating_adjustment": 1})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "REPORT_GENERATION_FAILED", errorCode(body))
}

func TestGenerateReportRoute(t *testing.T) {
	f := newRouterFixture(t)

	resp, body := f.do(t, http.MethodPost, "/evaluations/3/report", domain.RoleHR, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "narrative", body["data"].(map[string]any)["report"])
}

func TestToggleUserAcceptsQueryEmail(t *testing.T) {
	f := newRouterFixture(t)

	resp, body := f.do(t, http.MethodPost, "/hr/users/toggle?email=a@example.com", domain.RoleHR, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "User status updated to inactive", body["data"].(map[string]any)["message"])
}

func TestExportXLSXPagesThroughAllEvaluations(t *testing.T) {
	f := newRouterFixture(t)
	for i := 1; i <= service.MaxPageLimit+5; i++ {
		f.evals.store = append(f.evals.store, domain.Evaluation{ID: int64(i), Rating: 3, MonthsWorked: 1, Status: domain.StatusPendingHR})
	}

	resp, _ := f.do(t, http.MethodGet, "/hr/evaluations/export", domain.RoleHR, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, export.XLSXContentType, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "attachment")
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	f := newRouterFixture(t)

	resp, body := f.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])

	resp, body = f.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(body))

	resp, body = f.do(t, http.MethodPost, "/auth/login", "", map[string]any{"email": "x@example.com", "password": "bad"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", errorCode(body))
}
