package auth

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/solve-chamados/internal/domain"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	ID          int64
	Name        string
	Email       string
	Role        domain.RoleName
	Permissions domain.PermissionSet
	GroupID     *int64
	GroupName   *string
	SessionID   int64
	ExpiresAt   time.Time
}

// NewPrincipal builds the request identity from a resolved session.
func NewPrincipal(id *domain.SessionIdentity) *Principal {
	return &Principal{
		ID:          id.User.ID,
		Name:        id.User.Name,
		Email:       id.User.Email,
		Role:        id.User.Role,
		Permissions: domain.NewPermissionSet(id.Permissions),
		GroupID:     id.User.GroupID,
		GroupName:   id.User.GroupName,
		SessionID:   id.SessionID,
		ExpiresAt:   id.ExpiresAt,
	}
}

// IsAdmin reports whether the caller holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == domain.RoleAdmin
}

// Can reports whether the caller holds perm. Admin can do everything.
func (p *Principal) Can(perm domain.Permission) bool {
	if p == nil {
		return false
	}
	return p.IsAdmin() || p.Permissions.Has(perm)
}

// SessionValidator resolves a raw bearer token into an identity.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*domain.SessionIdentity, error)
}

// ExpiredSessionPurger removes sessions past their expiry.
type ExpiredSessionPurger interface {
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	sessions SessionValidator
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(sessions SessionValidator) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token, ok := BearerToken(c)
	if !ok {
		return apperrors.NewSessionInvalid()
	}

	identity, err := m.sessions.ValidateSession(c.UserContext(), token)
	if err != nil {
		return err
	}

	c.Locals(principalKey, NewPrincipal(identity))
	return c.Next()
}

// Optional loads the principal when a valid bearer token is present and lets
// anonymous or stale-token requests through without one.
func (m *AuthMiddleware) Optional(c *fiber.Ctx) error {
	token, ok := BearerToken(c)
	if !ok {
		return c.Next()
	}
	identity, err := m.sessions.ValidateSession(c.UserContext(), token)
	if err == nil {
		c.Locals(principalKey, NewPrincipal(identity))
	}
	return c.Next()
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// PurgeExpired sweeps expired sessions before the request continues.
// Failures are logged and never block the request.
func PurgeExpired(purger ExpiredSessionPurger, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if n, err := purger.PurgeExpiredSessions(c.UserContext()); err != nil {
			logger.Warn("expired session sweep failed", zap.Error(err))
		} else if n > 0 {
			logger.Debug("expired sessions removed", zap.Int64("count", n))
		}
		return c.Next()
	}
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

// WithPrincipal stores p on the request context.
func WithPrincipal(c *fiber.Ctx, p *Principal) {
	c.Locals(principalKey, p)
}
