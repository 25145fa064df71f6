package service

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/events"
	"github.com/spec-kit/evaluation-service/internal/report"
	"github.com/spec-kit/evaluation-service/internal/repository"
)

type MockEvaluationRepository struct {
	mock.Mock
}

func (m *MockEvaluationRepository) Create(ctx context.Context, e *domain.Evaluation) error {
	return m.Called(ctx, e).Error(0)
}

func (m *MockEvaluationRepository) GetByID(ctx context.Context, id int64) (*domain.Evaluation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out copies so staged mutations never leak into the fixture.
	return args.Get(0).(*domain.Evaluation).Clone(), args.Error(1)
}

func (m *MockEvaluationRepository) List(ctx context.Context, filter repository.EvaluationFilter) ([]domain.Evaluation, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.Evaluation), args.Int(1), args.Error(2)
}

func (m *MockEvaluationRepository) Transition(ctx context.Context, e *domain.Evaluation, from domain.EvaluationStatus) error {
	return m.Called(ctx, e, from).Error(0)
}

func (m *MockEvaluationRepository) SetReport(ctx context.Context, id int64, text string) error {
	return m.Called(ctx, id, text).Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *MockUserRepository) SetActive(ctx context.Context, email string, active bool) error {
	return m.Called(ctx, email, active).Error(0)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, e *domain.Evaluation) (string, error) {
	args := m.Called(ctx, e)
	return args.String(0), args.Error(1)
}

type lockerFunc func() (report.ReleaseFunc, error)

func (f lockerFunc) Obtain(context.Context, int64, time.Duration) (report.ReleaseFunc, error) {
	return f()
}

type recordingQueue struct {
	ids    []int64
	accept bool
}

func (q *recordingQueue) Enqueue(id int64) bool {
	q.ids = append(q.ids, id)
	return q.accept
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, e events.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) types() []events.EventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]events.EventType, len(d.events))
	for i, e := range d.events {
		out[i] = e.Type
	}
	return out
}
