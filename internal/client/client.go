// Package client calls the evaluation API on behalf of a signed-in user.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/evaluation-service/internal/api/dto"
	"github.com/spec-kit/evaluation-service/internal/domain"
)

// RemoteError is a non-2xx answer from the API.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error %d", e.Status)
	}
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// IsUnauthorized reports whether err means the stored credential is no longer accepted.
func IsUnauthorized(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.Status == http.StatusUnauthorized
}

// IsForbidden reports whether the API refused the action for the caller's role or account state.
func IsForbidden(err error) bool {
	var remote *RemoteError
	return errors.As(err, &remote) && remote.Status == http.StatusForbidden
}

// Client is a thin typed wrapper over the HTTP API.
type Client struct {
	baseURL string
	token   string
}

// New creates a client. token may be empty for the public auth calls.
func New(baseURL, token string) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), token: token}
}

// WithToken returns a copy authenticated with token.
func (c *Client) WithToken(token string) *Client {
	return &Client{baseURL: c.baseURL, token: token}
}

// ListParams narrows a list call.
type ListParams struct {
	Search string
	Status string
	Skip   int
	Limit  int
}

func (p ListParams) encode() string {
	v := url.Values{}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.Status != "" {
		v.Set("status", p.Status)
	}
	if p.Skip > 0 {
		v.Set("skip", strconv.Itoa(p.Skip))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	return v.Encode()
}

// ListResult is one page of evaluations and the full match count.
type ListResult struct {
	Evaluations []domain.Evaluation
	Total       int
}

// LoginResult carries the account and its bearer credential.
type LoginResult struct {
	User  domain.User
	Token dto.AuthResponse
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (*domain.User, error) {
	var out dto.UserResponse
	if err := c.do(ctx, fiber.MethodPost, "/auth/register", "", req, &out); err != nil {
		return nil, err
	}
	user := out.ToDomain()
	return &user, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out struct {
		User dto.UserResponse `json:"user"`
		Auth dto.AuthResponse `json:"auth"`
	}
	if err := c.do(ctx, fiber.MethodPost, "/auth/login", "", dto.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &LoginResult{User: out.User.ToDomain(), Token: out.Auth}, nil
}

// CreateEvaluation starts a new evaluation as the signed-in manager.
func (c *Client) CreateEvaluation(ctx context.Context, req dto.EvaluationCreateRequest) (*domain.Evaluation, error) {
	return c.evaluation(ctx, fiber.MethodPost, "/evaluations", req)
}

// GetEvaluation fetches one evaluation visible to the caller.
func (c *Client) GetEvaluation(ctx context.Context, id int64) (*domain.Evaluation, error) {
	return c.evaluation(ctx, fiber.MethodGet, fmt.Sprintf("/evaluations/%d", id), nil)
}

// ListManagerEvaluations lists evaluations the caller created.
func (c *Client) ListManagerEvaluations(ctx context.Context, p ListParams) (*ListResult, error) {
	return c.list(ctx, "/manager/evaluations", p)
}

// ListInternEvaluations lists evaluations about the caller.
func (c *Client) ListInternEvaluations(ctx context.Context, skip, limit int) (*ListResult, error) {
	return c.list(ctx, "/intern/evaluations", ListParams{Skip: skip, Limit: limit})
}

// ListHREvaluations lists evaluations past intern feedback.
func (c *Client) ListHREvaluations(ctx context.Context, p ListParams) (*ListResult, error) {
	return c.list(ctx, "/hr/evaluations", p)
}

// SubmitInternFeedback records the intern's comment.
func (c *Client) SubmitInternFeedback(ctx context.Context, id int64, comment string) (*domain.Evaluation, error) {
	return c.evaluation(ctx, fiber.MethodPost, fmt.Sprintf("/evaluations/%d/intern-feedback", id), dto.InternFeedbackRequest{Comment: comment})
}

// SubmitHRReview records HR's comment and adjustment.
func (c *Client) SubmitHRReview(ctx context.Context, id int64, comment string, adjustment int) (*domain.Evaluation, error) {
	body := dto.HRReviewRequest{Comment: comment, RatingAdjustment: &adjustment}
	return c.evaluation(ctx, fiber.MethodPost, fmt.Sprintf("/evaluations/%d/hr-review", id), body)
}

// GenerateReport asks the API for the narrative report and returns its text.
func (c *Client) GenerateReport(ctx context.Context, id int64) (string, error) {
	var out dto.ReportResponse
	if err := c.do(ctx, fiber.MethodPost, fmt.Sprintf("/evaluations/%d/report", id), "", nil, &out); err != nil {
		return "", err
	}
	return out.Report, nil
}

// ListUsers returns every account.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var out []dto.UserResponse
	if err := c.do(ctx, fiber.MethodGet, "/hr/users", "", nil, &out); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(out))
	for _, u := range out {
		users = append(users, u.ToDomain())
	}
	return users, nil
}

// ToggleUserActive flips the account's active flag.
func (c *Client) ToggleUserActive(ctx context.Context, email string) (*domain.User, error) {
	var out struct {
		User dto.UserResponse `json:"user"`
	}
	if err := c.do(ctx, fiber.MethodPost, "/hr/users/toggle", "", dto.ToggleUserRequest{Email: email}, &out); err != nil {
		return nil, err
	}
	user := out.User.ToDomain()
	return &user, nil
}

// ExportEvaluationsXLSX downloads the HR spreadsheet for the filters in p.
func (c *Client) ExportEvaluationsXLSX(ctx context.Context, p ListParams) ([]byte, error) {
	p.Skip, p.Limit = 0, 0
	status, body, err := c.send(ctx, fiber.MethodGet, "/hr/evaluations/export", p.encode(), nil)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, remoteError(status, body)
	}
	return body, nil
}

func (c *Client) evaluation(ctx context.Context, method, path string, body any) (*domain.Evaluation, error) {
	var out dto.EvaluationResponse
	if err := c.do(ctx, method, path, "", body, &out); err != nil {
		return nil, err
	}
	e := out.ToDomain()
	return &e, nil
}

func (c *Client) list(ctx context.Context, path string, p ListParams) (*ListResult, error) {
	var out dto.EvaluationListResponse
	if err := c.do(ctx, fiber.MethodGet, path, p.encode(), nil, &out); err != nil {
		return nil, err
	}
	res := &ListResult{Total: out.Total, Evaluations: make([]domain.Evaluation, 0, len(out.Evaluations))}
	for _, e := range out.Evaluations {
		res.Evaluations = append(res.Evaluations, e.ToDomain())
	}
	return res, nil
}

func (c *Client) do(ctx context.Context, method, path, query string, body, out any) error {
	status, raw, err := c.send(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return remoteError(status, raw)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// send performs one round-trip. Requests are not cancelled once dispatched.
func (c *Client) send(ctx context.Context, method, path, query string, body any) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	agent := fiber.AcquireAgent()
	req := agent.Request()
	req.Header.SetMethod(method)
	req.SetRequestURI(c.baseURL + path)
	if err := agent.Parse(); err != nil {
		fiber.ReleaseAgent(agent)
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	agent.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if c.token != "" {
		agent.Set(fiber.HeaderAuthorization, "Bearer "+c.token)
	}
	if query != "" {
		agent.QueryString(query)
	}
	if body != nil {
		agent.JSON(body)
	}

	status, raw, errs := agent.Bytes()
	if len(errs) > 0 {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, errors.Join(errs...))
	}
	return status, raw, nil
}

func remoteError(status int, raw []byte) error {
	remote := &RemoteError{Status: status}
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		remote.Code = env.Error.Code
		remote.Message = env.Error.Message
	}
	return remote
}
