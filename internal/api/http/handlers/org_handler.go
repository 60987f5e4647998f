package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/solve-chamados/internal/api/dto"
	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/service"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

// OrgHandler serves groups and roles.
type OrgHandler struct {
	service *service.OrgService
}

// NewOrgHandler constructs handler.
func NewOrgHandler(orgService *service.OrgService) *OrgHandler {
	return &OrgHandler{service: orgService}
}

// ListGroups GET /groups.
func (h *OrgHandler) ListGroups(c *fiber.Ctx) error {
	groups, err := h.service.ListGroups(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.GroupResponse, 0, len(groups))
	for i := range groups {
		items = append(items, groupResponse(&groups[i]))
	}
	return ok(c, items)
}

// CreateGroup POST /groups.
func (h *OrgHandler) CreateGroup(c *fiber.Ctx) error {
	var req dto.GroupRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	group, err := h.service.CreateGroup(c.UserContext(), req.Name, req.Description)
	if err != nil {
		return apperrors.MapError(err)
	}
	return created(c, groupResponse(group))
}

// DeleteGroup DELETE /groups/:id.
func (h *OrgHandler) DeleteGroup(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteGroup(c.UserContext(), id); err != nil {
		return apperrors.MapError(err)
	}
	return noContent(c)
}

// ListRoles GET /roles.
func (h *OrgHandler) ListRoles(c *fiber.Ctx) error {
	roles, err := h.service.ListRoles(c.UserContext())
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		items = append(items, roleResponse(&roles[i]))
	}
	return ok(c, items)
}

// CreateRole POST /roles.
func (h *OrgHandler) CreateRole(c *fiber.Ctx) error {
	var req dto.RoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := h.service.CreateRole(c.UserContext(), roleInput(req))
	if err != nil {
		return apperrors.MapError(err)
	}
	return created(c, roleResponse(role))
}

// UpdateRole PUT /roles/:id.
func (h *OrgHandler) UpdateRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	role, err := h.service.UpdateRole(c.UserContext(), id, roleInput(req))
	if err != nil {
		return apperrors.MapError(err)
	}
	return ok(c, roleResponse(role))
}

// DeleteRole DELETE /roles/:id.
func (h *OrgHandler) DeleteRole(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteRole(c.UserContext(), id); err != nil {
		return apperrors.MapError(err)
	}
	return noContent(c)
}

func roleInput(req dto.RoleRequest) service.RoleInput {
	return service.RoleInput{
		Name:        req.Name,
		Label:       req.Label,
		Description: req.Description,
		Permissions: req.Permissions,
	}
}

func groupResponse(g *domain.Group) dto.GroupResponse {
	return dto.GroupResponse{ID: g.ID, Name: g.Name, Description: g.Description, CreatedAt: g.CreatedAt}
}

func roleResponse(r *domain.Role) dto.RoleResponse {
	perms := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		perms = append(perms, string(p))
	}
	return dto.RoleResponse{
		ID:          r.ID,
		Name:        string(r.Name),
		Label:       r.Label,
		Description: r.Description,
		Permissions: perms,
		CreatedAt:   r.CreatedAt,
	}
}
