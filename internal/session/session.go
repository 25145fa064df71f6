// Package session resolves the dashboard session from a stored bearer token.
// Claims are decoded without verifying the signature: the role is a display
// hint used to pick a view, and the API authorizes every call on its own.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/evaluation-service/internal/domain"
)

var (
	// ErrUnauthenticated means no usable credential is stored.
	ErrUnauthenticated = errors.New("not logged in")
	// ErrRoleMismatch means the stored credential belongs to another role's view.
	ErrRoleMismatch = errors.New("role does not match this view")
)

// Session is the decoded credential of the person using the dashboard.
type Session struct {
	Token     string      `json:"token"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	ExpiresAt time.Time   `json:"expires_at,omitempty"`
}

// Actor converts the session for workflow checks.
func (s *Session) Actor() domain.Actor {
	return domain.Actor{Email: s.Email, Role: s.Role}
}

// Expired reports whether the credential's expiry has passed at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

type claims struct {
	Role domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Decode reads the email and role embedded in token.
func Decode(token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrUnauthenticated
	}
	var c claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return nil, fmt.Errorf("decode token: %w", err)
	}
	if c.Subject == "" || !c.Role.Valid() {
		return nil, fmt.Errorf("decode token: missing subject or role")
	}
	s := &Session{Token: token, Email: c.Subject, Role: c.Role}
	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}
	return s, nil
}

// Guard admits s into a view that requires role. A missing or expired
// session is reported as ErrUnauthenticated.
func Guard(s *Session, required domain.Role) error {
	return guardAt(s, required, time.Now())
}

func guardAt(s *Session, required domain.Role, now time.Time) error {
	if s == nil || s.Token == "" || s.Expired(now) {
		return ErrUnauthenticated
	}
	if s.Role != required {
		return ErrRoleMismatch
	}
	return nil
}

type ctxKey struct{}

// WithSession returns a context carrying s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(*Session)
	return s, ok && s != nil
}

// Store persists the session between CLI invocations.
type Store interface {
	Load() (*Session, error)
	Save(s *Session) error
	Clear() error
}

// FileStore keeps the session as JSON in a single file readable only by its owner.
type FileStore struct {
	Path string
}

// NewFileStore uses path, or $HOME/.evalctl/session.json when empty.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home: %w", err)
		}
		path = filepath.Join(home, ".evalctl", "session.json")
	}
	return &FileStore{Path: path}, nil
}

// Load returns ErrUnauthenticated when nothing is stored.
func (f *FileStore) Load() (*Session, error) {
	raw, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	var stored Session
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	// The token is the source of truth; the other fields are a cache.
	return Decode(stored.Token)
}

func (f *FileStore) Save(s *Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, raw, 0o600)
}

// Clear removes the stored session; clearing an empty store is not an error.
func (f *FileStore) Clear() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
