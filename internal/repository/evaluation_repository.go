package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/evaluation-service/internal/domain"
)

// ErrStaleStatus is returned when a conditional update finds the row in a different status.
var ErrStaleStatus = errors.New("evaluation status changed")

// Search columns accepted by EvaluationFilter.SearchColumns.
const (
	ColumnInternID  = "intern_id"
	ColumnManagerID = "manager_id"
)

// EvaluationFilter captures dashboard list parameters.
type EvaluationFilter struct {
	InternID      *string
	ManagerID     *string
	Statuses      []domain.EvaluationStatus
	SearchTerm    *string
	SearchColumns []string
	Limit         int
	Offset        int
}

// EvaluationRepository encapsulates evaluation persistence.
type EvaluationRepository interface {
	Create(ctx context.Context, evaluation *domain.Evaluation) error
	GetByID(ctx context.Context, id int64) (*domain.Evaluation, error)
	List(ctx context.Context, filter EvaluationFilter) ([]domain.Evaluation, int, error)
	Transition(ctx context.Context, evaluation *domain.Evaluation, from domain.EvaluationStatus) error
	SetReport(ctx context.Context, id int64, report string) error
}

type evaluationRepository struct {
	pool *pgxpool.Pool
}

// NewEvaluationRepository instantiates repository.
func NewEvaluationRepository(pool *pgxpool.Pool) EvaluationRepository {
	return &evaluationRepository{pool: pool}
}

const evaluationColumns = `id, intern_id, manager_id, rating, manager_comment, months_worked,
               intern_comment, hr_comment, hr_rating_adjustment, ai_report, status, created_at`

func (r *evaluationRepository) Create(ctx context.Context, evaluation *domain.Evaluation) error {
	const query = `
        INSERT INTO evaluations (intern_id, manager_id, rating, manager_comment, months_worked, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		evaluation.InternID,
		evaluation.ManagerID,
		evaluation.Rating,
		evaluation.ManagerComment,
		evaluation.MonthsWorked,
		evaluation.Status,
	).Scan(&evaluation.ID, &evaluation.CreatedAt)
}

func (r *evaluationRepository) GetByID(ctx context.Context, id int64) (*domain.Evaluation, error) {
	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE id=$1`
	return scanEvaluation(r.pool.QueryRow(ctx, query, id))
}

func (r *evaluationRepository) List(ctx context.Context, filter EvaluationFilter) ([]domain.Evaluation, int, error) {
	where, args := BuildEvaluationWhere(filter)

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM evaluations WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count evaluations: %w", err)
	}

	query := `SELECT ` + evaluationColumns + ` FROM evaluations WHERE ` + where + ` ORDER BY id`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list evaluations: %w", err)
	}
	defer rows.Close()

	evaluations := []domain.Evaluation{}
	for rows.Next() {
		e, err := scanEvaluation(rows)
		if err != nil {
			return nil, 0, err
		}
		evaluations = append(evaluations, *e)
	}
	return evaluations, total, rows.Err()
}

// Transition persists the stage fields of evaluation only if the stored status still equals from.
func (r *evaluationRepository) Transition(ctx context.Context, evaluation *domain.Evaluation, from domain.EvaluationStatus) error {
	const query = `
        UPDATE evaluations SET intern_comment=$1, hr_comment=$2, hr_rating_adjustment=$3, status=$4
        WHERE id=$5 AND status=$6`
	cmd, err := r.pool.Exec(ctx, query,
		evaluation.InternComment,
		evaluation.HRComment,
		evaluation.HRRatingAdjustment,
		evaluation.Status,
		evaluation.ID,
		from,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

// SetReport attaches a report to a completed evaluation that has none yet.
func (r *evaluationRepository) SetReport(ctx context.Context, id int64, report string) error {
	const query = `
        UPDATE evaluations SET ai_report=$1
        WHERE id=$2 AND status=$3 AND (ai_report IS NULL OR ai_report = '')`
	cmd, err := r.pool.Exec(ctx, query, report, id, domain.StatusCompleted)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrStaleStatus
	}
	return nil
}

// BuildEvaluationWhere renders filter as a WHERE clause with positional arguments.
// Limit and Offset are not part of the clause so the same clause serves the count query.
func BuildEvaluationWhere(filter EvaluationFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.InternID != nil {
		args = append(args, strings.ToLower(*filter.InternID))
		clauses = append(clauses, fmt.Sprintf("LOWER(intern_id)=$%d", len(args)))
	}
	if filter.ManagerID != nil {
		args = append(args, strings.ToLower(*filter.ManagerID))
		clauses = append(clauses, fmt.Sprintf("LOWER(manager_id)=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		columns := filter.SearchColumns
		if len(columns) == 0 {
			columns = []string{ColumnInternID}
		}
		args = append(args, "%"+strings.ToLower(strings.TrimSpace(*filter.SearchTerm))+"%")
		ors := make([]string, 0, len(columns))
		for _, col := range columns {
			if col != ColumnInternID && col != ColumnManagerID {
				continue
			}
			ors = append(ors, fmt.Sprintf("LOWER(%s) LIKE $%d", col, len(args)))
		}
		if len(ors) == 0 {
			args = args[:len(args)-1]
		} else {
			clauses = append(clauses, "("+strings.Join(ors, " OR ")+")")
		}
	}

	return strings.Join(clauses, " AND "), args
}

func scanEvaluation(row pgx.Row) (*domain.Evaluation, error) {
	var e domain.Evaluation
	if err := row.Scan(
		&e.ID,
		&e.InternID,
		&e.ManagerID,
		&e.Rating,
		&e.ManagerComment,
		&e.MonthsWorked,
		&e.InternComment,
		&e.HRComment,
		&e.HRRatingAdjustment,
		&e.Report,
		&e.Status,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
