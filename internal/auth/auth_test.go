package auth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/solve-chamados/internal/domain"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

func TestTokenManager_GenerateToken(t *testing.T) {
	tm := NewTokenManager()
	token, hash, err := tm.GenerateToken()
	require.NoError(t, err)
	assert.Len(t, token, 64)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, token, hash)
	assert.Equal(t, hash, HashToken(token))

	other, _, err := tm.GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret!", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotContains(t, hash, "s3cret!")
	assert.NoError(t, ComparePassword(hash, "s3cret!"))
	assert.Error(t, ComparePassword(hash, "wrong"))
}

type stubValidator struct {
	identity *domain.SessionIdentity
	err      error
	gotToken string
}

func (s *stubValidator) ValidateSession(_ context.Context, token string) (*domain.SessionIdentity, error) {
	s.gotToken = token
	return s.identity, s.err
}

func errorStatus(c *fiber.Ctx, err error) error {
	de := apperrors.ToDomainError(err)
	return c.Status(de.HTTPStatus).SendString(de.Code)
}

func newGateApp(v SessionValidator, gates ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errorStatus})
	mw := NewAuthMiddleware(v)
	handlers := append([]fiber.Handler{mw.Handle}, gates...)
	handlers = append(handlers, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.SendString(p.Name)
	})
	app.Get("/", handlers...)
	return app
}

func identity(role domain.RoleName, perms ...domain.Permission) *domain.SessionIdentity {
	return &domain.SessionIdentity{
		SessionID:   9,
		User:        domain.User{ID: 1, Name: "Ana", Role: role, IsActive: true},
		Permissions: perms,
	}
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("missing header", func(t *testing.T) {
		app := newGateApp(&stubValidator{})
		resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("validator rejects", func(t *testing.T) {
		app := newGateApp(&stubValidator{err: apperrors.NewSessionInvalid()})
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer abc")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token", func(t *testing.T) {
		v := &stubValidator{identity: identity(domain.RoleUser)}
		app := newGateApp(v)
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "bearer  tok123 ")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "tok123", v.gotToken)
	})
}

func TestGates(t *testing.T) {
	tests := []struct {
		name     string
		identity *domain.SessionIdentity
		gate     fiber.Handler
		want     int
	}{
		{"permission granted", identity(domain.RoleTechnician, domain.PermManageAssets), RequirePermission(domain.PermManageAssets), fiber.StatusOK},
		{"permission missing", identity(domain.RoleUser, domain.PermCreateTicket), RequirePermission(domain.PermManageAssets), fiber.StatusForbidden},
		{"admin bypasses permission", identity(domain.RoleAdmin), RequirePermission(domain.PermDeleteTickets), fiber.StatusOK},
		{"role allowed", identity(domain.RoleTechnician), RequireRole(domain.RoleTechnician), fiber.StatusOK},
		{"role denied", identity(domain.RoleUser), RequireRole(domain.RoleAdmin), fiber.StatusForbidden},
		{"admin satisfies any role", identity(domain.RoleAdmin), RequireRole(domain.RoleTechnician), fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newGateApp(&stubValidator{identity: tt.identity}, tt.gate)
			req := httptest.NewRequest("GET", "/", nil)
			req.Header.Set("Authorization", "Bearer tok")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

type stubPurger struct {
	calls int
	err   error
}

func (s *stubPurger) PurgeExpiredSessions(context.Context) (int64, error) {
	s.calls++
	return 2, s.err
}

func TestPurgeExpired_NeverBlocks(t *testing.T) {
	purger := &stubPurger{err: errors.New("db down")}
	app := fiber.New()
	app.Use(PurgeExpired(purger, zap.NewNop()))
	app.Get("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 1, purger.calls)
}
