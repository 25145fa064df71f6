package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/events"
	"github.com/spec-kit/evaluation-service/internal/observability"
	"github.com/spec-kit/evaluation-service/internal/report"
	"github.com/spec-kit/evaluation-service/internal/repository"
	"github.com/spec-kit/evaluation-service/internal/workflow"
	apperrors "github.com/spec-kit/evaluation-service/pkg/util"
)

const (
	DefaultPageLimit = 50
	MaxPageLimit     = 100
)

// Report triggers recorded in metrics and events.
const (
	TriggerAuto   = "auto"
	TriggerManual = "manual"
)

// automatic generation follows an HR review and acts with HR authority.
var reportWorkerActor = domain.Actor{Email: "report-worker", Role: domain.RoleHR}

// ReportQueue accepts evaluation ids for background generation.
type ReportQueue interface {
	Enqueue(evaluationID int64) bool
}

// EvaluationService coordinates the evaluation workflow against storage.
type EvaluationService struct {
	evaluations repository.EvaluationRepository
	generator   report.Generator
	locker      report.Locker
	lockTTL     time.Duration
	queue       ReportQueue
	dispatcher  events.Dispatcher
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// EvaluationDependencies bundles collaborators for the evaluation service.
type EvaluationDependencies struct {
	EvaluationRepo repository.EvaluationRepository
	Generator      report.Generator
	Locker         report.Locker
	LockTTL        time.Duration
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// ListQuery carries dashboard search and pagination.
type ListQuery struct {
	Search string
	Status string
	Skip   int
	Limit  int
}

// ListResult is one page plus the filter's total match count.
type ListResult struct {
	Evaluations []domain.Evaluation
	Total       int
}

// NewEvaluationService constructs the service.
func NewEvaluationService(deps EvaluationDependencies) *EvaluationService {
	s := &EvaluationService{
		evaluations: deps.EvaluationRepo,
		generator:   deps.Generator,
		locker:      deps.Locker,
		lockTTL:     deps.LockTTL,
		dispatcher:  deps.Dispatcher,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
	}
	if s.generator == nil {
		s.generator = report.UnavailableGenerator{}
	}
	if s.locker == nil {
		s.locker = report.NoopLocker{}
	}
	if s.lockTTL <= 0 {
		s.lockTTL = 2 * time.Minute
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// SetReportQueue wires the background worker once it exists.
func (s *EvaluationService) SetReportQueue(queue ReportQueue) {
	s.queue = queue
}

// Create stores a new evaluation owned by the acting manager.
func (s *EvaluationService) Create(ctx context.Context, actor domain.Actor, in workflow.CreateInput) (*domain.Evaluation, error) {
	evaluation, err := workflow.NewEvaluation(actor, in)
	if err != nil {
		return nil, mapWorkflowError(err)
	}
	if err := s.evaluations.Create(ctx, evaluation); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.New(events.EventEvaluationCreated, evaluation.ID, actor, events.EvaluationCreatedPayload{
		InternID:     evaluation.InternID,
		Rating:       evaluation.Rating,
		MonthsWorked: evaluation.MonthsWorked,
	}))
	return evaluation, nil
}

// Get fetches one evaluation the actor is allowed to see.
func (s *EvaluationService) Get(ctx context.Context, actor domain.Actor, id int64) (*domain.Evaluation, error) {
	evaluation, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleHR:
	case domain.RoleManager:
		if !strings.EqualFold(evaluation.ManagerID, actor.Email) {
			return nil, apperrors.NewForbidden("evaluation was created by another manager")
		}
	case domain.RoleIntern:
		if !strings.EqualFold(evaluation.InternID, actor.Email) {
			return nil, apperrors.NewForbidden("evaluation belongs to another intern")
		}
	default:
		return nil, apperrors.NewForbidden("unknown role")
	}
	return evaluation, nil
}

// ListForManager lists evaluations the manager created. Search matches the intern id.
func (s *EvaluationService) ListForManager(ctx context.Context, actor domain.Actor, q ListQuery) (*ListResult, error) {
	if actor.Role != domain.RoleManager {
		return nil, apperrors.NewForbidden("manager role required")
	}
	filter, err := pageFilter(q)
	if err != nil {
		return nil, err
	}
	manager := actor.Email
	filter.ManagerID = &manager
	if q.Status != "" {
		status, err := workflow.ParseStatus(q.Status)
		if err != nil {
			return nil, mapWorkflowError(err)
		}
		filter.Statuses = []domain.EvaluationStatus{status}
	}
	filter.SearchColumns = []string{repository.ColumnInternID}
	return s.list(ctx, filter)
}

// ListForIntern lists the caller's own evaluations.
func (s *EvaluationService) ListForIntern(ctx context.Context, actor domain.Actor, skip, limit int) (*ListResult, error) {
	if actor.Role != domain.RoleIntern {
		return nil, apperrors.NewForbidden("intern role required")
	}
	filter, err := pageFilter(ListQuery{Skip: skip, Limit: limit})
	if err != nil {
		return nil, err
	}
	intern := actor.Email
	filter.InternID = &intern
	return s.list(ctx, filter)
}

// ListForHR lists evaluations across managers. Without a status filter only
// evaluations awaiting HR or already completed are shown.
func (s *EvaluationService) ListForHR(ctx context.Context, actor domain.Actor, q ListQuery) (*ListResult, error) {
	if actor.Role != domain.RoleHR {
		return nil, apperrors.NewForbidden("hr role required")
	}
	filter, err := pageFilter(q)
	if err != nil {
		return nil, err
	}
	if q.Status != "" {
		status, err := workflow.ParseStatus(q.Status)
		if err != nil {
			return nil, mapWorkflowError(err)
		}
		filter.Statuses = []domain.EvaluationStatus{status}
	} else {
		filter.Statuses = []domain.EvaluationStatus{domain.StatusPendingHR, domain.StatusCompleted}
	}
	filter.SearchColumns = []string{repository.ColumnInternID, repository.ColumnManagerID}
	return s.list(ctx, filter)
}

// SubmitFeedback records the intern's comment.
func (s *EvaluationService) SubmitFeedback(ctx context.Context, actor domain.Actor, id int64, comment string) (*domain.Evaluation, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := workflow.SubmitFeedback(next, actor, comment); err != nil {
		return nil, mapWorkflowError(err)
	}
	if err := s.persistTransition(ctx, next, current.Status); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.New(events.EventInternFeedbackSubmitted, next.ID, actor, events.StatusChangedPayload{
		InternID:  next.InternID,
		ManagerID: next.ManagerID,
		OldStatus: current.Status,
		NewStatus: next.Status,
	}))
	return next, nil
}

// SubmitReview records the HR review and schedules report generation.
func (s *EvaluationService) SubmitReview(ctx context.Context, actor domain.Actor, id int64, comment string, adjustment int) (*domain.Evaluation, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	if err := workflow.SubmitReview(next, actor, comment, adjustment); err != nil {
		return nil, mapWorkflowError(err)
	}
	if err := s.persistTransition(ctx, next, current.Status); err != nil {
		return nil, err
	}

	publish(ctx, s.dispatcher, events.New(events.EventHRReviewCompleted, next.ID, actor, events.HRReviewCompletedPayload{
		StatusChangedPayload: events.StatusChangedPayload{
			InternID:  next.InternID,
			ManagerID: next.ManagerID,
			OldStatus: current.Status,
			NewStatus: next.Status,
		},
		RatingAdjustment: adjustment,
		FinalScore:       workflow.FinalScore(next.Rating, next.HRRatingAdjustment),
	}))

	if s.queue != nil && !s.queue.Enqueue(next.ID) {
		s.logger.Warn("report not scheduled; manual generation required", zap.Int64("evaluation_id", next.ID))
	}
	return next, nil
}

// GenerateReport returns the evaluation's report, generating it first when absent.
func (s *EvaluationService) GenerateReport(ctx context.Context, actor domain.Actor, id int64) (string, error) {
	evaluation, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if err := workflow.CanGenerateReport(evaluation, actor); err != nil {
		return "", mapWorkflowError(err)
	}
	if evaluation.HasReport() {
		return *evaluation.Report, nil
	}

	text, err := s.generateAndStore(ctx, actor, id, TriggerManual)
	if errors.Is(err, report.ErrLocked) {
		return "", apperrors.NewConflict("Report generation already in progress", map[string]any{"evaluation_id": id})
	}
	return text, err
}

// ProcessReport is the background entry point used after an HR review.
func (s *EvaluationService) ProcessReport(ctx context.Context, id int64) error {
	_, err := s.generateAndStore(ctx, reportWorkerActor, id, TriggerAuto)
	if errors.Is(err, report.ErrLocked) {
		s.logger.Info("report already being generated", zap.Int64("evaluation_id", id))
		return nil
	}
	return err
}

func (s *EvaluationService) generateAndStore(ctx context.Context, actor domain.Actor, id int64, trigger string) (string, error) {
	release, err := s.locker.Obtain(ctx, id, s.lockTTL)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release report lock", zap.Int64("evaluation_id", id), zap.Error(err))
		}
	}()

	// Re-read under the lock; another caller may have finished first.
	evaluation, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if evaluation.HasReport() {
		return *evaluation.Report, nil
	}
	if evaluation.Status != domain.StatusCompleted {
		return "", mapWorkflowError(workflow.CanGenerateReport(evaluation, actor))
	}

	text, err := s.generator.Generate(ctx, evaluation)
	if err != nil {
		s.metrics.RecordReport(trigger, false)
		s.logger.Warn("report generation failed",
			zap.Int64("evaluation_id", id),
			zap.String("trigger", trigger),
			zap.Error(err))
		return "", apperrors.NewUpstreamError("REPORT_GENERATION_FAILED", "Report generation failed", err)
	}

	staged := evaluation.Clone()
	if err := workflow.AttachReport(staged, actor, text); err != nil {
		s.metrics.RecordReport(trigger, false)
		return "", mapWorkflowError(err)
	}
	if err := s.evaluations.SetReport(ctx, id, *staged.Report); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			if latest, loadErr := s.load(ctx, id); loadErr == nil && latest.HasReport() {
				return *latest.Report, nil
			}
			return "", apperrors.NewInvalidState("Invalid workflow state", map[string]any{"evaluation_id": id})
		}
		return "", err
	}
	s.metrics.RecordReport(trigger, true)

	publish(ctx, s.dispatcher, events.New(events.EventReportGenerated, id, actor, events.ReportGeneratedPayload{
		Trigger: trigger,
		Length:  len(*staged.Report),
	}))
	return *staged.Report, nil
}

func (s *EvaluationService) load(ctx context.Context, id int64) (*domain.Evaluation, error) {
	evaluation, err := s.evaluations.GetByID(ctx, id)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("Evaluation", map[string]any{"evaluation_id": id})
	}
	if err != nil {
		return nil, err
	}
	return evaluation, nil
}

func (s *EvaluationService) persistTransition(ctx context.Context, next *domain.Evaluation, from domain.EvaluationStatus) error {
	if err := s.evaluations.Transition(ctx, next, from); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return apperrors.NewInvalidState("Invalid workflow state", map[string]any{"evaluation_id": next.ID})
		}
		return err
	}
	return nil
}

func (s *EvaluationService) list(ctx context.Context, filter repository.EvaluationFilter) (*ListResult, error) {
	items, total, err := s.evaluations.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &ListResult{Evaluations: items, Total: total}, nil
}

func pageFilter(q ListQuery) (repository.EvaluationFilter, error) {
	if q.Skip < 0 {
		return repository.EvaluationFilter{}, apperrors.NewValidationError("skip must not be negative", map[string]any{"skip": q.Skip})
	}
	limit := q.Limit
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < 1 || limit > MaxPageLimit {
		return repository.EvaluationFilter{}, apperrors.NewValidationError("limit must be between 1 and 100", map[string]any{"limit": q.Limit})
	}
	filter := repository.EvaluationFilter{Limit: limit, Offset: q.Skip}
	if search := strings.TrimSpace(q.Search); search != "" {
		filter.SearchTerm = &search
	}
	return filter, nil
}

// mapWorkflowError converts engine violations into API errors.
func mapWorkflowError(err error) error {
	if err == nil {
		return nil
	}
	var v *workflow.Violation
	if !errors.As(err, &v) {
		return err
	}
	details := map[string]any{}
	if v.Field != "" {
		details["field"] = v.Field
	}
	switch {
	case errors.Is(v, workflow.ErrValidation):
		return apperrors.NewValidationError(v.Message, details)
	case errors.Is(v, workflow.ErrForbidden):
		return apperrors.NewForbidden(v.Message)
	case errors.Is(v, workflow.ErrInvalidState):
		return apperrors.NewInvalidState(v.Message, details)
	default:
		return err
	}
}

func publish(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	_ = dispatcher.Publish(ctx, event)
}
