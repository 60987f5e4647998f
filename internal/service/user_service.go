package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/solve-chamados/internal/auth"
	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/repository"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
	"github.com/spec-kit/solve-chamados/pkg/util/textutil"
)

// UserService implements account administration.
type UserService struct {
	users    repository.UserRepository
	roles    repository.RoleRepository
	sessions repository.SessionRepository
	auth     *AuthService
	logger   *zap.Logger
}

// NewUserService builds the service on top of the auth service's account creation.
func NewUserService(authSvc *AuthService) *UserService {
	return &UserService{
		users:    authSvc.users,
		roles:    authSvc.roles,
		sessions: authSvc.sessions,
		auth:     authSvc,
		logger:   authSvc.logger,
	}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

func (s *UserService) Stats(ctx context.Context) (*domain.UserStats, error) {
	return s.users.Stats(ctx)
}

func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create adds an account with an explicit role, defaulting like registration.
func (s *UserService) Create(ctx context.Context, in RegisterInput) (*domain.User, error) {
	role := s.auth.settings.DefaultRole
	if in.Role != nil && *in.Role != "" {
		role = *in.Role
	}
	return s.auth.createUser(ctx, in, role, in.GroupID)
}

// UserPatch lists the fields to change; nil leaves a field untouched.
type UserPatch struct {
	Name       *string
	Email      *string
	Role       *domain.RoleName
	GroupID    *int64
	ClearGroup bool
	IsActive   *bool
}

// Update applies a partial change. Deactivating an account revokes its sessions.
func (s *UserService) Update(ctx context.Context, id int64, patch UserPatch) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	wasActive := user.IsActive

	if patch.Name != nil {
		name := textutil.StripHTML(*patch.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
		}
		user.Name = name
	}
	if patch.Email != nil {
		user.Email = normalizeEmail(*patch.Email)
	}
	if patch.Role != nil && *patch.Role != user.Role {
		if _, err := s.roles.GetByName(ctx, *patch.Role); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": *patch.Role})
			}
			return nil, err
		}
		user.Role = *patch.Role
	}
	if patch.ClearGroup {
		user.GroupID = nil
	} else if patch.GroupID != nil {
		user.GroupID = patch.GroupID
	}
	if patch.IsActive != nil {
		user.IsActive = *patch.IsActive
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	if wasActive && !user.IsActive {
		if err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("revoke sessions: %w", err)
		}
		s.logger.Info("user deactivated", zap.Int64("user_id", user.ID))
	}
	return s.users.GetByID(ctx, id)
}

// ChangePassword sets a new password, clears the lockout state and signs the
// user out everywhere.
func (s *UserService) ChangePassword(ctx context.Context, id int64, newPassword, confirm string) error {
	if newPassword != confirm {
		return apperrors.NewValidationError("passwords do not match", map[string]any{"field": "confirm_password"})
	}
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError(
			fmt.Sprintf("password must be at least %d characters", minPasswordLength),
			map[string]any{"field": "new_password"})
	}
	hash, err := auth.HashPassword(newPassword, s.auth.settings.BcryptCost)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, id, hash); err != nil {
		return err
	}
	if err := s.sessions.DeleteByUser(ctx, id); err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	s.logger.Info("password changed", zap.Int64("user_id", id))
	return nil
}

// Delete removes an account. Callers cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, caller *auth.Principal, id int64) error {
	if caller != nil && caller.ID == id {
		return apperrors.NewValidationError("you cannot delete your own account", nil)
	}
	return s.users.Delete(ctx, id)
}
