package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/persistence"
)

func strPtr(s string) *string { return &s }

func TestBuildEvaluationWhereEmpty(t *testing.T) {
	where, args := BuildEvaluationWhere(EvaluationFilter{Limit: 10, Offset: 20})
	assert.Equal(t, "1=1", where)
	assert.Empty(t, args)
}

func TestBuildEvaluationWhereManagerScope(t *testing.T) {
	where, args := BuildEvaluationWhere(EvaluationFilter{
		ManagerID:  strPtr("Boss@Example.com"),
		Statuses:   []domain.EvaluationStatus{domain.StatusCompleted},
		SearchTerm: strPtr("  Alice "),
	})
	assert.Equal(t, "1=1 AND LOWER(manager_id)=$1 AND status IN ($2) AND (LOWER(intern_id) LIKE $3)", where)
	assert.Equal(t, []any{"boss@example.com", domain.StatusCompleted, "%alice%"}, args)
}

func TestBuildEvaluationWhereHRSearchesBothColumns(t *testing.T) {
	where, args := BuildEvaluationWhere(EvaluationFilter{
		Statuses:      []domain.EvaluationStatus{domain.StatusPendingHR, domain.StatusCompleted},
		SearchTerm:    strPtr("bob"),
		SearchColumns: []string{ColumnInternID, ColumnManagerID},
	})
	assert.Equal(t, "1=1 AND status IN ($1,$2) AND (LOWER(intern_id) LIKE $3 OR LOWER(manager_id) LIKE $3)", where)
	assert.Len(t, args, 3)
}

func TestBuildEvaluationWhereIgnoresBlankSearchAndUnknownColumns(t *testing.T) {
	where, args := BuildEvaluationWhere(EvaluationFilter{
		InternID:   strPtr("intern@example.com"),
		SearchTerm: strPtr("   "),
	})
	assert.Equal(t, "1=1 AND LOWER(intern_id)=$1", where)
	assert.Len(t, args, 1)

	where, args = BuildEvaluationWhere(EvaluationFilter{
		SearchTerm:    strPtr("x"),
		SearchColumns: []string{"password_hash; DROP TABLE users"},
	})
	assert.Equal(t, "1=1", where)
	assert.Empty(t, args)
}

var (
	pgOnce      sync.Once
	pgContainer *postgres.PostgresContainer
	pgPool      *pgxpool.Pool
	pgErr       error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if pgPool != nil {
		pgPool.Close()
	}
	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

func startPostgres(ctx context.Context) (*pgxpool.Pool, error) {
	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:16-alpine"),
		postgres.WithDatabase("evaluations"),
		postgres.WithUsername("eval"),
		postgres.WithPassword("eval"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, fmt.Errorf("start postgres container: %w", err)
	}
	pgContainer = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := persistence.RunMigrations(ctx, pool, filepath.Join("..", "..", "migrations"), zap.NewNop()); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// databaseRepo returns a repository over a migrated, emptied evaluations table.
func databaseRepo(t *testing.T) EvaluationRepository {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres container tests skipped in -short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	pgOnce.Do(func() { pgPool, pgErr = startPostgres(context.Background()) })
	require.NoError(t, pgErr)

	_, err := pgPool.Exec(context.Background(), `TRUNCATE evaluations RESTART IDENTITY`)
	require.NoError(t, err)
	return NewEvaluationRepository(pgPool)
}

func seed(t *testing.T, repo EvaluationRepository, manager string, n int) []int64 {
	t.Helper()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		e := &domain.Evaluation{
			InternID:       fmt.Sprintf("intern%02d@example.com", i),
			ManagerID:      manager,
			Rating:         1 + i%5,
			ManagerComment: "steady progress",
			MonthsWorked:   1 + i%6,
			Status:         domain.StatusPendingIntern,
		}
		require.NoError(t, repo.Create(context.Background(), e))
		ids = append(ids, e.ID)
	}
	return ids
}

func TestListPagesCoverEveryMatchOnce(t *testing.T) {
	repo := databaseRepo(t)
	ctx := context.Background()
	mine := seed(t, repo, "boss@example.com", 13)
	seed(t, repo, "other@example.com", 4)

	const limit = 5
	seen := map[int64]bool{}
	var order []int64
	for offset := 0; offset < 20; offset += limit {
		page, total, err := repo.List(ctx, EvaluationFilter{
			ManagerID: strPtr("Boss@Example.com"),
			Limit:     limit,
			Offset:    offset,
		})
		require.NoError(t, err)
		assert.Equal(t, 13, total, "offset %d", offset)
		assert.LessOrEqual(t, len(page), limit)
		for _, e := range page {
			assert.False(t, seen[e.ID], "id %d repeated", e.ID)
			seen[e.ID] = true
			order = append(order, e.ID)
		}
	}
	assert.Len(t, seen, 13)
	assert.Equal(t, mine, order)

	all, total, err := repo.List(ctx, EvaluationFilter{})
	require.NoError(t, err)
	assert.Equal(t, 17, total)
	assert.Len(t, all, 17)
}

func TestListFiltersMatchCount(t *testing.T) {
	repo := databaseRepo(t)
	ctx := context.Background()
	ids := seed(t, repo, "boss@example.com", 6)

	e, err := repo.GetByID(ctx, ids[0])
	require.NoError(t, err)
	comment := "learned a lot"
	e.InternComment = &comment
	e.Status = domain.StatusPendingHR
	require.NoError(t, repo.Transition(ctx, e, domain.StatusPendingIntern))

	page, total, err := repo.List(ctx, EvaluationFilter{
		Statuses:      []domain.EvaluationStatus{domain.StatusPendingHR, domain.StatusCompleted},
		SearchTerm:    strPtr("INTERN00"),
		SearchColumns: []string{ColumnInternID, ColumnManagerID},
		Limit:         1,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, page, 1)
	assert.Equal(t, ids[0], page[0].ID)

	_, total, err = repo.List(ctx, EvaluationFilter{SearchTerm: strPtr("boss"), SearchColumns: []string{ColumnManagerID}, Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.Equal(t, 6, total)
}

func TestTransitionAppliesOnce(t *testing.T) {
	repo := databaseRepo(t)
	ctx := context.Background()
	id := seed(t, repo, "boss@example.com", 1)[0]

	first, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	comment := "first submission"
	first.InternComment = &comment
	first.Status = domain.StatusPendingHR
	require.NoError(t, repo.Transition(ctx, first, domain.StatusPendingIntern))

	replay, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	other := "second submission"
	replay.InternComment = &other
	replay.Status = domain.StatusPendingHR
	assert.ErrorIs(t, repo.Transition(ctx, replay, domain.StatusPendingIntern), ErrStaleStatus)

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPendingHR, stored.Status)
	require.NotNil(t, stored.InternComment)
	assert.Equal(t, "first submission", *stored.InternComment)
}

func TestSetReportOnlyOnCompletedWithoutReport(t *testing.T) {
	repo := databaseRepo(t)
	ctx := context.Background()
	id := seed(t, repo, "boss@example.com", 1)[0]

	assert.ErrorIs(t, repo.SetReport(ctx, id, "too early"), ErrStaleStatus)

	e, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	feedback, review, adj := "thanks", "solid work", 1
	e.InternComment = &feedback
	e.Status = domain.StatusPendingHR
	require.NoError(t, repo.Transition(ctx, e, domain.StatusPendingIntern))
	e.HRComment = &review
	e.HRRatingAdjustment = &adj
	e.Status = domain.StatusCompleted
	require.NoError(t, repo.Transition(ctx, e, domain.StatusPendingHR))

	require.NoError(t, repo.SetReport(ctx, id, "Strong quarter."))
	assert.ErrorIs(t, repo.SetReport(ctx, id, "Overwrite attempt."), ErrStaleStatus)
	assert.ErrorIs(t, repo.SetReport(ctx, id+100, "Missing row."), ErrStaleStatus)

	stored, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, stored.Report)
	assert.Equal(t, "Strong quarter.", *stored.Report)
	require.NotNil(t, stored.HRRatingAdjustment)
	assert.Equal(t, 1, *stored.HRRatingAdjustment)
}
