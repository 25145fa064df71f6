package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/evaluation-service/internal/api/dto"
	"github.com/spec-kit/evaluation-service/internal/workflow"
)

// EvaluationsHandler exposes the evaluation workflow.
type EvaluationsHandler struct {
	evaluations Evaluations
}

// NewEvaluationsHandler constructs handler.
func NewEvaluationsHandler(evaluations Evaluations) *EvaluationsHandler {
	return &EvaluationsHandler{evaluations: evaluations}
}

// Create handles POST /evaluations.
func (h *EvaluationsHandler) Create(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req dto.EvaluationCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	evaluation, err := h.evaluations.Create(c.UserContext(), actor, workflow.CreateInput{
		InternID:       req.InternID,
		Rating:         req.Rating,
		ManagerComment: req.ManagerComment,
		MonthsWorked:   req.MonthsWorked,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, dto.NewEvaluationResponse(*evaluation))
}

// Get handles GET /evaluations/:id.
func (h *EvaluationsHandler) Get(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := evaluationID(c)
	if err != nil {
		return err
	}
	evaluation, err := h.evaluations.Get(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewEvaluationResponse(*evaluation))
}

// ListManager handles GET /manager/evaluations.
func (h *EvaluationsHandler) ListManager(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	res, err := h.evaluations.ListForManager(c.UserContext(), actor, listQuery(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewEvaluationListResponse(res.Evaluations, res.Total))
}

// ListIntern handles GET /intern/evaluations.
func (h *EvaluationsHandler) ListIntern(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	q := listQuery(c)
	res, err := h.evaluations.ListForIntern(c.UserContext(), actor, q.Skip, q.Limit)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewEvaluationListResponse(res.Evaluations, res.Total))
}

// ListHR handles GET /hr/evaluations.
func (h *EvaluationsHandler) ListHR(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	res, err := h.evaluations.ListForHR(c.UserContext(), actor, listQuery(c))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewEvaluationListResponse(res.Evaluations, res.Total))
}

// SubmitFeedback handles POST /evaluations/:id/intern-feedback.
func (h *EvaluationsHandler) SubmitFeedback(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := evaluationID(c)
	if err != nil {
		return err
	}
	var req dto.InternFeedbackRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	evaluation, err := h.evaluations.SubmitFeedback(c.UserContext(), actor, id, req.Comment)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewEvaluationResponse(*evaluation))
}

// SubmitReview handles POST /evaluations/:id/hr-review.
func (h *EvaluationsHandler) SubmitReview(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := evaluationID(c)
	if err != nil {
		return err
	}
	var req dto.HRReviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	evaluation, err := h.evaluations.SubmitReview(c.UserContext(), actor, id, req.Comment, *req.RatingAdjustment)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.NewEvaluationResponse(*evaluation))
}

// GenerateReport handles POST /evaluations/:id/report.
func (h *EvaluationsHandler) GenerateReport(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	id, err := evaluationID(c)
	if err != nil {
		return err
	}
	text, err := h.evaluations.GenerateReport(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.ReportResponse{Report: text})
}
