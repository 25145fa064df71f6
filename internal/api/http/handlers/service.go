package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/evaluation-service/internal/api/dto"
	"github.com/spec-kit/evaluation-service/internal/auth"
	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/service"
	"github.com/spec-kit/evaluation-service/internal/workflow"
	apperrors "github.com/spec-kit/evaluation-service/pkg/util"
)

// Authenticator is the auth surface the handlers call.
type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, string, time.Time, error)
}

// Evaluations is the workflow surface the handlers call.
type Evaluations interface {
	Create(ctx context.Context, actor domain.Actor, in workflow.CreateInput) (*domain.Evaluation, error)
	Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Evaluation, error)
	ListForManager(ctx context.Context, actor domain.Actor, q service.ListQuery) (*service.ListResult, error)
	ListForIntern(ctx context.Context, actor domain.Actor, skip, limit int) (*service.ListResult, error)
	ListForHR(ctx context.Context, actor domain.Actor, q service.ListQuery) (*service.ListResult, error)
	SubmitFeedback(ctx context.Context, actor domain.Actor, id int64, comment string) (*domain.Evaluation, error)
	SubmitReview(ctx context.Context, actor domain.Actor, id int64, comment string, adjustment int) (*domain.Evaluation, error)
	GenerateReport(ctx context.Context, actor domain.Actor, id int64) (string, error)
}

// UserAdmin is the HR account surface the handlers call.
type UserAdmin interface {
	List(ctx context.Context, actor domain.Actor) ([]domain.User, error)
	ToggleActive(ctx context.Context, actor domain.Actor, email string) (*domain.User, error)
}

func actorFrom(c *fiber.Ctx) (domain.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Actor(), nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := dto.Validate(out); err != nil {
		return apperrors.NewValidationError("invalid payload", dto.ValidationDetails(err))
	}
	return nil
}

func evaluationID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid evaluation id", map[string]any{"id": c.Params("id")})
	}
	return int64(id), nil
}

func listQuery(c *fiber.Ctx) service.ListQuery {
	return service.ListQuery{
		Search: c.Query("search"),
		Status: c.Query("status"),
		Skip:   c.QueryInt("skip", 0),
		Limit:  c.QueryInt("limit", 0),
	}
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}
