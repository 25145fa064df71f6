package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/evaluation-service/internal/api/dto"
	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/export"
	"github.com/spec-kit/evaluation-service/internal/service"
)

// HRHandler exposes HR-only administration.
type HRHandler struct {
	users       UserAdmin
	evaluations Evaluations
}

// NewHRHandler constructs handler.
func NewHRHandler(users UserAdmin, evaluations Evaluations) *HRHandler {
	return &HRHandler{users: users, evaluations: evaluations}
}

// Users handles GET /hr/users.
func (h *HRHandler) Users(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.UserContext(), actor)
	if err != nil {
		return err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, dto.NewUserResponse(u))
	}
	return data(c, http.StatusOK, out)
}

// ToggleUser handles POST /hr/users/toggle. The email may come as body or query.
func (h *HRHandler) ToggleUser(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	req := dto.ToggleUserRequest{Email: c.Query("email")}
	if req.Email == "" {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	user, err := h.users.ToggleActive(c.UserContext(), actor, req.Email)
	if err != nil {
		return err
	}
	state := "inactive"
	if user.IsActive {
		state = "active"
	}
	return data(c, http.StatusOK, fiber.Map{
		"user":    dto.NewUserResponse(*user),
		"message": "User status updated to " + state,
	})
}

// ExportXLSX handles GET /hr/evaluations/export with the HR list filters.
func (h *HRHandler) ExportXLSX(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	q := listQuery(c)
	q.Skip, q.Limit = 0, service.MaxPageLimit

	var all []domain.Evaluation
	for {
		res, err := h.evaluations.ListForHR(c.UserContext(), actor, q)
		if err != nil {
			return err
		}
		all = append(all, res.Evaluations...)
		q.Skip += len(res.Evaluations)
		if len(res.Evaluations) == 0 || q.Skip >= res.Total {
			break
		}
	}

	var buf bytes.Buffer
	if err := export.WriteEvaluationsXLSX(&buf, all); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, export.XLSXContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="evaluations_%s.xlsx"`, time.Now().UTC().Format("20060102")))
	return c.Status(http.StatusOK).Send(buf.Bytes())
}
