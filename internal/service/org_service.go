package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/repository"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
	"github.com/spec-kit/solve-chamados/pkg/util/textutil"
)

// OrgService manages groups and roles.
type OrgService struct {
	groups repository.GroupRepository
	roles  repository.RoleRepository
	logger *zap.Logger
}

// NewOrgService builds the service.
func NewOrgService(groups repository.GroupRepository, roles repository.RoleRepository, logger *zap.Logger) *OrgService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrgService{groups: groups, roles: roles, logger: logger}
}

func (s *OrgService) ListGroups(ctx context.Context) ([]domain.Group, error) {
	return s.groups.List(ctx)
}

// CreateGroup adds a group. Duplicate names surface as a unique violation.
func (s *OrgService) CreateGroup(ctx context.Context, name string, description *string) (*domain.Group, error) {
	group := &domain.Group{
		Name:        textutil.StripHTML(name),
		Description: textutil.StripHTMLPtr(description),
	}
	if group.Name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes a group that no user belongs to.
func (s *OrgService) DeleteGroup(ctx context.Context, id int64) error {
	return s.groups.Delete(ctx, id)
}

// ListRoles returns admin first, then the rest by id.
func (s *OrgService) ListRoles(ctx context.Context) ([]domain.Role, error) {
	return s.roles.List(ctx)
}

// RoleInput describes a role create or update.
type RoleInput struct {
	Name        string
	Label       string
	Description string
	Permissions []string
}

func (s *OrgService) buildRole(in RoleInput) (*domain.Role, error) {
	label := textutil.StripHTML(in.Label)
	source := in.Name
	if source == "" {
		source = label
	}
	name := domain.RoleName(textutil.MachineName(source))
	if name == "" {
		return nil, apperrors.NewValidationError("role name is required", map[string]any{"field": "name"})
	}
	if label == "" {
		label = string(name)
	}

	perms := make([]domain.Permission, 0, len(in.Permissions))
	seen := make(map[domain.Permission]struct{}, len(in.Permissions))
	for _, raw := range in.Permissions {
		p := domain.Permission(raw)
		if !p.Valid() {
			return nil, apperrors.NewValidationError(fmt.Sprintf("unknown permission %q", raw), map[string]any{"field": "permissions"})
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		perms = append(perms, p)
	}

	return &domain.Role{
		Name:        name,
		Label:       label,
		Description: textutil.StripHTML(in.Description),
		Permissions: perms,
	}, nil
}

// CreateRole adds a custom role.
func (s *OrgService) CreateRole(ctx context.Context, in RoleInput) (*domain.Role, error) {
	role, err := s.buildRole(in)
	if err != nil {
		return nil, err
	}
	if err := s.roles.Create(ctx, role); err != nil {
		return nil, err
	}
	s.logger.Info("role created", zap.String("role", string(role.Name)))
	return role, nil
}

// UpdateRole replaces a role's fields. The admin role keeps its name.
func (s *OrgService) UpdateRole(ctx context.Context, id int64, in RoleInput) (*domain.Role, error) {
	current, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	role, err := s.buildRole(in)
	if err != nil {
		return nil, err
	}
	if current.Name == domain.RoleAdmin && role.Name != domain.RoleAdmin {
		return nil, apperrors.NewValidationError("the admin role cannot be renamed", nil)
	}
	role.ID = current.ID
	role.CreatedAt = current.CreatedAt
	if err := s.roles.Update(ctx, role); err != nil {
		return nil, err
	}
	return role, nil
}

// DeleteRole removes a custom role that no user holds.
func (s *OrgService) DeleteRole(ctx context.Context, id int64) error {
	role, err := s.roles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if role.Name == domain.RoleAdmin {
		return apperrors.NewValidationError("the admin role cannot be deleted", nil)
	}
	return s.roles.Delete(ctx, id)
}
