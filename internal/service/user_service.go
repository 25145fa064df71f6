package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/events"
	"github.com/spec-kit/evaluation-service/internal/repository"
	apperrors "github.com/spec-kit/evaluation-service/pkg/util"
)

// UserService backs the HR user administration view.
type UserService struct {
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// UserDependencies bundles user service collaborators.
type UserDependencies struct {
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{users: deps.UserRepo, dispatcher: deps.Dispatcher}
}

// List returns every account.
func (s *UserService) List(ctx context.Context, actor domain.Actor) ([]domain.User, error) {
	if actor.Role != domain.RoleHR {
		return nil, apperrors.NewForbidden("only HR can list users")
	}
	return s.users.List(ctx)
}

// ToggleActive flips the account's active flag. HR cannot deactivate itself.
func (s *UserService) ToggleActive(ctx context.Context, actor domain.Actor, email string) (*domain.User, error) {
	if actor.Role != domain.RoleHR {
		return nil, apperrors.NewForbidden("only HR can change account status")
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperrors.NewValidationError("email is required", map[string]any{"field": "email"})
	}
	if strings.EqualFold(email, actor.Email) {
		return nil, apperrors.NewValidationError("You cannot change your own account status", map[string]any{"field": "email"})
	}

	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
	}
	if err != nil {
		return nil, err
	}

	next := !user.IsActive
	if err := s.users.SetActive(ctx, user.Email, next); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"email": email})
		}
		return nil, err
	}
	user.IsActive = next

	publish(ctx, s.dispatcher, events.New(events.EventUserStatusToggled, 0, actor, events.UserStatusToggledPayload{
		Email:    user.Email,
		IsActive: user.IsActive,
	}))
	return user, nil
}
