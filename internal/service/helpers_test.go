package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/solve-chamados/internal/auth"
	"github.com/spec-kit/solve-chamados/internal/domain"
	"github.com/spec-kit/solve-chamados/internal/events"
	"github.com/spec-kit/solve-chamados/internal/testutil"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

type fixture struct {
	store      *testutil.Store
	now        time.Time
	dispatcher events.Dispatcher
	auth       *AuthService
	users      *UserService
	org        *OrgService
	tickets    *TicketService
	assets     *AssetService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:      testutil.NewStore(),
		now:        time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		dispatcher: events.NewInMemoryDispatcher(nil),
	}
	clock := Clock(func() time.Time { return f.now })

	f.auth = NewAuthService(AuthSettings{
		BcryptCost:  bcrypt.MinCost,
		SessionTTL:  24 * time.Hour,
		Lockout:     domain.DefaultLockoutPolicy,
		DefaultRole: domain.RoleTechnician,
	}, AuthDependencies{
		UserRepo:    f.store.Users(),
		RoleRepo:    f.store.Roles(),
		SessionRepo: f.store.Sessions(),
		Clock:       clock,
	})
	f.users = NewUserService(f.auth)
	f.org = NewOrgService(f.store.Groups(), f.store.Roles(), nil)
	f.tickets = NewTicketService(TicketDependencies{
		TicketRepo: f.store.Tickets(),
		Dispatcher: f.dispatcher,
		Clock:      clock,
	})
	f.assets = NewAssetService(f.store.Assets(), nil)
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func (f *fixture) createUser(t *testing.T, email string, role domain.RoleName) *domain.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), RegisterInput{
		Name:     "User " + email,
		Email:    email,
		Password: "secret123",
		Role:     &role,
	})
	require.NoError(t, err)
	return u
}

func principal(id int64, name string, role domain.RoleName, perms ...domain.Permission) *auth.Principal {
	return &auth.Principal{
		ID:          id,
		Name:        name,
		Role:        role,
		Permissions: domain.NewPermissionSet(perms),
	}
}

func requireCode(t *testing.T, err error, code string) *apperrors.DomainError {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.Equal(t, code, de.Code, "error: %v", err)
	return de
}

var errBroker = errors.New("broker down")
