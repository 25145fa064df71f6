package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/evaluation-service/internal/domain"
)

func signed(t *testing.T, email string, role domain.Role, exp time.Time) string {
	t.Helper()
	c := claims{Role: role, RegisteredClaims: jwt.RegisteredClaims{Subject: email, ExpiresAt: jwt.NewNumericDate(exp)}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("server-only-secret"))
	require.NoError(t, err)
	return token
}

func TestDecodeWithoutSecret(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s, err := Decode(signed(t, "intern@example.com", domain.RoleIntern, exp))
	require.NoError(t, err)
	assert.Equal(t, "intern@example.com", s.Email)
	assert.Equal(t, domain.RoleIntern, s.Role)
	assert.True(t, s.ExpiresAt.Equal(exp))
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	_, err = Decode("not.a.jwt")
	assert.Error(t, err)
}

func TestGuard(t *testing.T) {
	now := time.Now()
	hr := &Session{Token: "t", Email: "hr@example.com", Role: domain.RoleHR, ExpiresAt: now.Add(time.Hour)}

	assert.NoError(t, guardAt(hr, domain.RoleHR, now))
	assert.ErrorIs(t, guardAt(hr, domain.RoleManager, now), ErrRoleMismatch)
	assert.ErrorIs(t, guardAt(nil, domain.RoleHR, now), ErrUnauthenticated)
	assert.ErrorIs(t, guardAt(hr, domain.RoleHR, now.Add(2*time.Hour)), ErrUnauthenticated)
}

func TestContextProvision(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	s := &Session{Token: "t", Email: "m@example.com", Role: domain.RoleManager}
	got, ok := FromContext(WithSession(context.Background(), s))
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestFileStoreLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store, err := NewFileStore(path)
	require.NoError(t, err)

	_, err = store.Load()
	assert.ErrorIs(t, err, ErrUnauthenticated)

	s, err := Decode(signed(t, "boss@example.com", domain.RoleManager, time.Now().Add(time.Hour)))
	require.NoError(t, err)
	require.NoError(t, store.Save(s))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, s.Email, loaded.Email)
	assert.Equal(t, s.Role, loaded.Role)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())
	_, err = store.Load()
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
