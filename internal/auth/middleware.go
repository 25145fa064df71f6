package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/evaluation-service/internal/domain"
	apperrors "github.com/spec-kit/evaluation-service/pkg/util"
)

const principalKey = "auth_principal"

// DeactivatedMessage is shown to accounts HR has switched off.
const DeactivatedMessage = "Account is deactivated. Contact HR."

// Principal represents the authenticated caller.
type Principal struct {
	Email string
	Role  domain.Role
}

// Actor converts the principal for workflow checks.
func (p *Principal) Actor() domain.Actor {
	return domain.Actor{Email: p.Email, Role: p.Role}
}

// UserLookup resolves the account behind a token.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens *TokenManager
	users  UserLookup
}

// NewAuthMiddleware constructs middleware. users may be nil, in which case only the token is checked.
func NewAuthMiddleware(tokens *TokenManager, users UserLookup) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, users: users}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{Email: claims.Subject, Role: claims.Role}

	if m.users != nil {
		user, err := m.users.GetByEmail(c.UserContext(), claims.Subject)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewUnauthorized("user not found")
			}
			return apperrors.MapError(err)
		}
		if !user.IsActive {
			return apperrors.NewForbidden(DeactivatedMessage)
		}
		// Role changes take effect without waiting for the token to expire.
		principal.Role = user.Role
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
