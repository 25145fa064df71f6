package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/evaluation-service/internal/auth"
	"github.com/spec-kit/evaluation-service/internal/domain"
	"github.com/spec-kit/evaluation-service/internal/session"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func storeSession(t *testing.T, email string, role domain.Role) string {
	t.Helper()
	token, _, err := auth.NewTokenManager("cli-test", 60).GenerateToken(email, role)
	require.NoError(t, err)
	s, err := session.Decode(token)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, (&session.FileStore{Path: path}).Save(s))
	return path
}

func jsonServer(t *testing.T, payload any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRoleViewsRequireSession(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "none.json")

	_, err := run(t, "intern", "list", "--session", missing)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)

	managerSession := storeSession(t, "boss@example.com", domain.RoleManager)
	_, err = run(t, "hr", "users", "--session", managerSession)
	assert.ErrorIs(t, err, session.ErrRoleMismatch)
}

func TestLoginSavesSession(t *testing.T) {
	token, _, err := auth.NewTokenManager("cli-test", 60).GenerateToken("hr@example.com", domain.RoleHR)
	require.NoError(t, err)
	srv := jsonServer(t, map[string]any{"data": map[string]any{
		"user": map[string]any{"email": "hr@example.com", "role": "hr", "is_active": true},
		"auth": map[string]any{"access_token": token, "token_type": "bearer"},
	}})
	path := filepath.Join(t.TempDir(), "session.json")

	out, err := run(t, "login", "--email", "hr@example.com", "--password", "pw", "--api", srv.URL, "--session", path)
	require.NoError(t, err)
	assert.Contains(t, out, "hr@example.com (hr)")

	out, err = run(t, "whoami", "--session", path)
	require.NoError(t, err)
	assert.Contains(t, out, "hr@example.com (hr)")

	_, err = run(t, "logout", "--session", path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestLoginRequiresFields(t *testing.T) {
	_, err := run(t, "login", "--email", "", "--session", filepath.Join(t.TempDir(), "s.json"))
	assert.Error(t, err)
}

func TestExportWritesPDF(t *testing.T) {
	srv := jsonServer(t, map[string]any{"data": map[string]any{
		"id": 12, "intern_id": "intern@example.com", "manager_id": "boss@example.com",
		"rating": 4, "manager_comment": "great", "months_worked": 3,
		"intern_comment": "thanks", "hr_comment": "agreed", "hr_rating_adjustment": 1,
		"report": "A strong quarter.", "status": "completed",
	}})
	path := storeSession(t, "boss@example.com", domain.RoleManager)
	dir := t.TempDir()

	out, err := run(t, "export", "12", "--api", srv.URL, "--session", path, "--dir", dir, "--org", "Algo8.ai")
	require.NoError(t, err)
	assert.Contains(t, out, "Algo8_Report_Eval_12.pdf")

	raw, err := os.ReadFile(filepath.Join(dir, "Algo8_Report_Eval_12.pdf"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("%PDF-")))
}

func TestExportRefusesWithoutReport(t *testing.T) {
	srv := jsonServer(t, map[string]any{"data": map[string]any{
		"id": 3, "intern_id": "intern@example.com", "manager_id": "boss@example.com", "status": "pending_hr",
	}})
	path := storeSession(t, "intern@example.com", domain.RoleIntern)

	_, err := run(t, "export", "3", "--api", srv.URL, "--session", path, "--dir", t.TempDir())
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseID("0")
	assert.Error(t, err)
	_, err = parseID("x")
	assert.Error(t, err)
}
