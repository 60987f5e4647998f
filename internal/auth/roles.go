package auth

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/solve-chamados/internal/domain"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

// RequireRole ensures the caller holds one of the allowed roles. Admin always passes.
func RequireRole(allowed ...domain.RoleName) fiber.Handler {
	allowedSet := make(map[domain.RoleName]struct{}, len(allowed))
	names := make([]string, 0, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
		names = append(names, string(role))
	}
	message := fmt.Sprintf("role required: %s", strings.Join(names, ", "))

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewSessionInvalid()
		}
		if principal.IsAdmin() {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Role]; !exists {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}

// RequirePermission ensures the caller's role grants perm.
func RequirePermission(perm domain.Permission) fiber.Handler {
	message := fmt.Sprintf("permission required: %s", perm)
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewSessionInvalid()
		}
		if !principal.Can(perm) {
			return apperrors.NewForbidden(message)
		}
		return c.Next()
	}
}

