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

// UsersHandler exposes account administration.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// List GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return ok(c, items)
}

// Stats GET /users/stats.
func (h *UsersHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.service.Stats(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, stats)
}

// Get GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, userResponse(user))
}

// Create POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	user, err := h.service.Create(c.UserContext(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     roleName(req.Role),
		GroupID:  req.GroupID,
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	return created(c, userResponse(user))
}

// Update PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	patch := service.UserPatch{
		Name:     req.Name,
		Email:    req.Email,
		Role:     roleName(req.Role),
		IsActive: req.IsActive,
	}
	if req.GroupID != nil {
		if *req.GroupID == 0 {
			patch.ClearGroup = true
		} else {
			patch.GroupID = req.GroupID
		}
	}
	user, err := h.service.Update(c.UserContext(), id, patch)
	if err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, userResponse(user))
}

// ChangePassword PUT /users/:id/password.
func (h *UsersHandler) ChangePassword(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := h.service.ChangePassword(c.UserContext(), id, req.NewPassword, req.ConfirmPassword); err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, fiber.Map{"password_changed": true})
}

// Delete DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	principal, _ := auth.PrincipalFromContext(c)
	if err := h.service.Delete(c.UserContext(), principal, id); err != nil {
		return apperrors.MapError(err)
	}
	return noContent(c)
}

func roleName(raw *string) *domain.RoleName {
	if raw == nil {
		return nil
	}
	role := domain.RoleName(strings.TrimSpace(*raw))
	return &role
}
