package service

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/evaluation-service/internal/auth"
	"github.com/spec-kit/evaluation-service/internal/config"
	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/events"
)

func testConfig() config.Config {
	return config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            4,
		RegistrationKey:       "ALGO8_2025",
	}}
}

func TestRegister(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewAuthService(testConfig(), AuthDependencies{UserRepo: users, Logger: zap.NewNop()})

	users.On("GetByEmail", mock.Anything, "new@example.com").Return(nil, pgx.ErrNoRows)
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "new@example.com" && u.Role == domain.RoleIntern && u.IsActive && u.PasswordHash != "pw"
	})).Return(nil)

	user, err := svc.Register(context.Background(), RegisterInput{Name: "New", Email: " New@Example.com ", Password: "pw", Role: domain.RoleIntern})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", user.Email)
	users.AssertExpectations(t)
}

func TestRegisterPrivilegedNeedsInviteCode(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewAuthService(testConfig(), AuthDependencies{UserRepo: users})

	_, err := svc.Register(context.Background(), RegisterInput{Email: "m@example.com", Password: "pw", Role: domain.RoleManager, InviteCode: "wrong"})
	code, _ := domainCode(t, err)
	assert.Equal(t, "UNAUTHORIZED", code)

	_, err = svc.Register(context.Background(), RegisterInput{Email: "m@example.com", Password: "pw", Role: "admin"})
	code, _ = domainCode(t, err)
	assert.Equal(t, "VALIDATION_FAILED", code)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewAuthService(testConfig(), AuthDependencies{UserRepo: users})
	users.On("GetByEmail", mock.Anything, "hr@example.com").Return(&domain.User{Email: "hr@example.com"}, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "hr@example.com", Password: "pw", Role: domain.RoleHR, InviteCode: "ALGO8_2025"})
	code, _ := domainCode(t, err)
	assert.Equal(t, "CONFLICT", code)
}

func TestRegisterRejectsMalformedEmail(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewAuthService(testConfig(), AuthDependencies{UserRepo: users})

	_, err := svc.Register(context.Background(), RegisterInput{Name: "X", Email: "x@", Password: "pw", Role: domain.RoleIntern})
	code, _ := domainCode(t, err)
	assert.Equal(t, "VALIDATION_FAILED", code)
	users.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	hash, err := auth.HashPassword("pw", 4)
	require.NoError(t, err)

	users := new(MockUserRepository)
	svc := NewAuthService(testConfig(), AuthDependencies{UserRepo: users})
	users.On("GetByEmail", mock.Anything, "hr@example.com").Return(&domain.User{Email: "hr@example.com", Role: domain.RoleHR, PasswordHash: hash, IsActive: true}, nil)
	users.On("GetByEmail", mock.Anything, "off@example.com").Return(&domain.User{Email: "off@example.com", Role: domain.RoleIntern, PasswordHash: hash}, nil)
	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, pgx.ErrNoRows)

	_, token, _, err := svc.Login(context.Background(), "hr@example.com", "pw")
	require.NoError(t, err)
	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHR, claims.Role)
	assert.Equal(t, "hr@example.com", claims.Subject)

	_, _, _, err = svc.Login(context.Background(), "hr@example.com", "nope")
	code, _ := domainCode(t, err)
	assert.Equal(t, "UNAUTHORIZED", code)

	_, _, _, err = svc.Login(context.Background(), "off@example.com", "pw")
	code, status := domainCode(t, err)
	assert.Equal(t, "FORBIDDEN", code)
	assert.Equal(t, 403, status)
	assert.ErrorContains(t, err, "Account is deactivated. Contact HR.")

	_, _, _, err = svc.Login(context.Background(), "ghost@example.com", "pw")
	code, _ = domainCode(t, err)
	assert.Equal(t, "UNAUTHORIZED", code)
}

func TestToggleActive(t *testing.T) {
	users := new(MockUserRepository)
	dispatcher := &recordingDispatcher{}
	svc := NewUserService(UserDependencies{UserRepo: users, Dispatcher: dispatcher})

	users.On("GetByEmail", mock.Anything, "intern@example.com").Return(&domain.User{Email: "intern@example.com", IsActive: true}, nil)
	users.On("SetActive", mock.Anything, "intern@example.com", false).Return(nil)

	user, err := svc.ToggleActive(context.Background(), hrActor, "intern@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsActive)
	assert.Equal(t, []events.EventType{events.EventUserStatusToggled}, dispatcher.types())

	_, err = svc.ToggleActive(context.Background(), hrActor, "HR@example.com")
	code, _ := domainCode(t, err)
	assert.Equal(t, "VALIDATION_FAILED", code)

	_, err = svc.ToggleActive(context.Background(), managerActor, "intern@example.com")
	code, _ = domainCode(t, err)
	assert.Equal(t, "FORBIDDEN", code)

	users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, pgx.ErrNoRows)
	_, err = svc.ToggleActive(context.Background(), hrActor, "ghost@example.com")
	code, _ = domainCode(t, err)
	assert.Equal(t, "NOT_FOUND", code)
}

func TestListUsersRequiresHR(t *testing.T) {
	users := new(MockUserRepository)
	svc := NewUserService(UserDependencies{UserRepo: users})
	users.On("List", mock.Anything).Return([]domain.User{{Email: "a@example.com"}}, nil)

	list, err := svc.List(context.Background(), hrActor)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.List(context.Background(), internActor)
	code, _ := domainCode(t, err)
	assert.Equal(t, "FORBIDDEN", code)
}
