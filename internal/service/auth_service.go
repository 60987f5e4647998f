package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/solve-chamados/internal/auth"
	"github.com/spec-kit/solve-chamados/internal/config"
	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/repository"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
	"github.com/spec-kit/solve-chamados/pkg/util/textutil"
)

// AuthSettings carries the tunables of the login flow.
type AuthSettings struct {
	BcryptCost  int
	SessionTTL  time.Duration
	Lockout     domain.LockoutPolicy
	DefaultRole domain.RoleName
}

// AuthSettingsFromConfig maps env configuration onto AuthSettings.
func AuthSettingsFromConfig(cfg config.AuthConfig) AuthSettings {
	return AuthSettings{
		BcryptCost: cfg.BcryptCost,
		SessionTTL: cfg.SessionTTL(),
		Lockout: domain.LockoutPolicy{
			MaxFailedAttempts: cfg.MaxFailedAttempts,
			LockoutDuration:   cfg.LockoutDuration(),
		},
		DefaultRole: domain.RoleName(cfg.DefaultRole),
	}
}

// AuthService coordinates registration, login and session flows.
type AuthService struct {
	users    repository.UserRepository
	roles    repository.RoleRepository
	sessions repository.SessionRepository
	tokenMgr *auth.TokenManager
	settings AuthSettings
	clock    Clock
	logger   *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo    repository.UserRepository
	RoleRepo    repository.RoleRepository
	SessionRepo repository.SessionRepository
	Clock       Clock
	Logger      *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(settings AuthSettings, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.DefaultRole == "" {
		settings.DefaultRole = domain.RoleTechnician
	}
	return &AuthService{
		users:    deps.UserRepo,
		roles:    deps.RoleRepo,
		sessions: deps.SessionRepo,
		tokenMgr: auth.NewTokenManager(),
		settings: settings,
		clock:    deps.Clock,
		logger:   logger,
	}
}

// LoginResult is returned by a successful login. Token is shown once.
type LoginResult struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Login checks credentials and opens a session. The order of checks is
// lookup, lockout, active flag, password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	now := s.clock.now()

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			auth.CompareDummy(password, s.settings.BcryptCost)
			return nil, apperrors.NewInvalidCredentials(nil)
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.IsLocked(now) {
		return nil, apperrors.NewAccountLocked(user.LockoutRemaining(now))
	}
	if !user.IsActive {
		return nil, apperrors.NewAccountInactive()
	}

	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, s.loginFailed(ctx, user, now)
	}

	if err := s.users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("record login: %w", err)
	}
	user.FailedLoginAttempts = 0
	user.LockoutUntil = nil
	user.LastLogin = &now

	token, expiresAt, err := s.openSession(ctx, user.ID, now)
	if err != nil {
		return nil, err
	}
	s.logger.Info("login succeeded", zap.Int64("user_id", user.ID))
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

func (s *AuthService) loginFailed(ctx context.Context, user *domain.User, now time.Time) error {
	attempts, lockoutUntil, err := s.users.RecordLoginFailure(ctx, user.ID, now, s.settings.Lockout)
	if errors.Is(err, pgx.ErrNoRows) {
		// A concurrent failure locked the account after it was read.
		current, getErr := s.users.GetByID(ctx, user.ID)
		if getErr == nil && current.IsLocked(now) {
			return apperrors.NewAccountLocked(current.LockoutRemaining(now))
		}
		return apperrors.NewInvalidCredentials(nil)
	}
	if err != nil {
		return fmt.Errorf("record login failure: %w", err)
	}

	s.logger.Warn("login failed",
		zap.Int64("user_id", user.ID),
		zap.Int("failed_attempts", attempts),
		zap.Bool("locked", lockoutUntil != nil))

	if lockoutUntil != nil {
		user.LockoutUntil = lockoutUntil
		return apperrors.NewAccountLocked(user.LockoutRemaining(now))
	}
	remaining := s.settings.Lockout.MaxFailedAttempts - attempts
	return apperrors.NewInvalidCredentials(map[string]any{"attempts_remaining": remaining})
}

func (s *AuthService) openSession(ctx context.Context, userID int64, now time.Time) (string, time.Time, error) {
	token, hash, err := s.tokenMgr.GenerateToken()
	if err != nil {
		return "", time.Time{}, err
	}
	session := &domain.Session{
		UserID:    userID,
		TokenHash: hash,
		ExpiresAt: now.Add(s.settings.SessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", time.Time{}, fmt.Errorf("create session: %w", err)
	}
	return token, session.ExpiresAt, nil
}

// ValidateSession resolves a bearer token into the caller's identity.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (*domain.SessionIdentity, error) {
	if strings.TrimSpace(token) == "" {
		return nil, apperrors.NewSessionInvalid()
	}
	identity, err := s.sessions.FindIdentity(ctx, auth.HashToken(token), s.clock.now())
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewSessionInvalid()
		}
		return nil, fmt.Errorf("validate session: %w", err)
	}
	if !identity.User.IsActive {
		return nil, apperrors.NewAccountInactive()
	}
	return identity, nil
}

// Logout removes the session behind token. Unknown tokens are not an error.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return s.sessions.DeleteByTokenHash(ctx, auth.HashToken(token))
}

// PurgeExpiredSessions deletes every session past its expiry.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.clock.now())
}

// RegisterInput is a new account request.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     *domain.RoleName
	GroupID  *int64
}

// Register creates an account. Role and group are honoured only when the
// caller is an administrator; everyone else gets the default role.
func (s *AuthService) Register(ctx context.Context, caller *auth.Principal, in RegisterInput) (*domain.User, error) {
	role := s.settings.DefaultRole
	var groupID *int64
	if caller.IsAdmin() {
		if in.Role != nil && *in.Role != "" {
			role = *in.Role
		}
		groupID = in.GroupID
	}
	return s.createUser(ctx, in, role, groupID)
}

func (s *AuthService) createUser(ctx context.Context, in RegisterInput, role domain.RoleName, groupID *int64) (*domain.User, error) {
	name := textutil.StripHTML(in.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", map[string]any{"field": "name"})
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("password must be at least %d characters", minPasswordLength),
			map[string]any{"field": "password"})
	}
	if _, err := s.roles.GetByName(ctx, role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
		}
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.settings.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		Role:         role,
		GroupID:      groupID,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(role)))
	return user, nil
}

// Profile returns the caller's account.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// Diagnosis summarises the login state of an email for administrators.
type Diagnosis struct {
	Exists         bool       `json:"exists"`
	HasPassword    bool       `json:"has_password"`
	IsActive       bool       `json:"is_active"`
	IsLocked       bool       `json:"is_locked"`
	FailedAttempts int        `json:"failed_attempts"`
	LockoutUntil   *time.Time `json:"lockout_until,omitempty"`
}

// Diagnose reports why an account may be unable to sign in.
func (s *AuthService) Diagnose(ctx context.Context, email string) (*Diagnosis, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Diagnosis{}, nil
		}
		return nil, err
	}
	now := s.clock.now()
	return &Diagnosis{
		Exists:         true,
		HasPassword:    user.PasswordHash != "",
		IsActive:       user.IsActive,
		IsLocked:       user.IsLocked(now),
		FailedAttempts: user.FailedLoginAttempts,
		LockoutUntil:   user.LockoutUntil,
	}, nil
}

const minPasswordLength = 6

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
