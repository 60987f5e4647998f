package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/solve-chamados/internal/api/dto"
	"github.com/spec-kit/solve-chamados/internal/auth"
	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/service"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

// AuthHandler exposes login and session endpoints.
type AuthHandler struct {
	service *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Login POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	result, err := h.service.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      userResponse(result.User),
	})
}

// Register POST /auth/register. Administrators may pick role and group.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	caller, _ := auth.PrincipalFromContext(c)
	input := service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		GroupID:  req.GroupID,
	}
	if req.Role != nil {
		role := domain.RoleName(strings.TrimSpace(*req.Role))
		input.Role = &role
	}
	user, err := h.service.Register(c.UserContext(), caller, input)
	if err != nil {
		return apperrors.MapError(err)
	}
	return created(c, userResponse(user))
}

// Logout POST /auth/logout. Missing or unknown tokens still succeed.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token, _ := auth.BearerToken(c)
	if err := h.service.Logout(c.UserContext(), token); err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, fiber.Map{"logged_out": true})
}

// Validate GET /auth/validate.
func (h *AuthHandler) Validate(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	perms := make([]string, 0, len(principal.Permissions))
	for _, p := range domain.AllPermissions {
		if principal.Can(p) {
			perms = append(perms, string(p))
		}
	}
	return ok(c, dto.SessionResponse{
		ID:          principal.ID,
		Name:        principal.Name,
		Email:       principal.Email,
		Role:        string(principal.Role),
		Permissions: perms,
		GroupID:     principal.GroupID,
		GroupName:   principal.GroupName,
		ExpiresAt:   principal.ExpiresAt,
	})
}

// Profile GET /auth/profile.
func (h *AuthHandler) Profile(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.service.Profile(c.UserContext(), principal.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, userResponse(user))
}

// Diagnose GET /auth/diagnose?email=.
func (h *AuthHandler) Diagnose(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		return apperrors.NewValidationError("email is required", map[string]any{"field": "email"})
	}
	diagnosis, err := h.service.Diagnose(c.UserContext(), email)
	if err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, diagnosis)
}

// Health GET /auth/health.
func (h *AuthHandler) Health(c *fiber.Ctx) error {
	return ok(c, fiber.Map{"status": "ok", "component": "auth"})
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		Role:                string(u.Role),
		GroupID:             u.GroupID,
		GroupName:           u.GroupName,
		IsActive:            u.IsActive,
		FailedLoginAttempts: u.FailedLoginAttempts,
		LockoutUntil:        u.LockoutUntil,
		LastLogin:           u.LastLogin,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}
