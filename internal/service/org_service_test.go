package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/solve-chamados/internal/domain"
	apperrors "github.com/spec-kit/solve-chamados/pkg/util/errorutil"
)

func TestGroupLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	desc := "  <i>Second floor</i> "
	g, err := f.org.CreateGroup(ctx, "Help Desk", &desc)
	require.NoError(t, err)
	require.NotNil(t, g.Description)
	assert.Equal(t, "Second floor", *g.Description)

	_, err = f.org.CreateGroup(ctx, "Help Desk", nil)
	de := requireCode(t, err, apperrors.CodeConflict)
	assert.Equal(t, 400, de.HTTPStatus)

	_, err = f.org.CreateGroup(ctx, "<p> </p>", nil)
	requireCode(t, err, apperrors.CodeValidation)

	u := f.createUser(t, "member@example.com", domain.RoleUser)
	_, err = f.users.Update(ctx, u.ID, UserPatch{GroupID: &g.ID})
	require.NoError(t, err)

	err = f.org.DeleteGroup(ctx, g.ID)
	requireCode(t, err, apperrors.CodeReferentialIntegrity)

	_, err = f.users.Update(ctx, u.ID, UserPatch{ClearGroup: true})
	require.NoError(t, err)
	require.NoError(t, f.org.DeleteGroup(ctx, g.ID))

	groups, err := f.org.ListGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestListRolesAdminFirst(t *testing.T) {
	f := newFixture(t)
	roles, err := f.org.ListRoles(context.Background())
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, domain.RoleAdmin, roles[0].Name)
}

func TestCreateRoleDerivesMachineName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	role, err := f.org.CreateRole(ctx, RoleInput{
		Label:       "Técnico Sênior",
		Permissions: []string{"manage_tickets", "assign_tickets", "manage_tickets"},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleName("tecnico_senior"), role.Name)
	assert.Equal(t, "Técnico Sênior", role.Label)
	assert.Equal(t, []domain.Permission{domain.PermManageTickets, domain.PermAssignTickets}, role.Permissions)

	_, err = f.org.CreateRole(ctx, RoleInput{Label: "tecnico senior"})
	requireCode(t, err, apperrors.CodeConflict)

	_, err = f.org.CreateRole(ctx, RoleInput{Label: "Bad", Permissions: []string{"fly"}})
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.org.CreateRole(ctx, RoleInput{Label: "!!!"})
	requireCode(t, err, apperrors.CodeValidation)
}

func TestAdminRoleIsProtected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin, err := f.store.Roles().GetByName(ctx, domain.RoleAdmin)
	require.NoError(t, err)

	err = f.org.DeleteRole(ctx, admin.ID)
	requireCode(t, err, apperrors.CodeValidation)

	_, err = f.org.UpdateRole(ctx, admin.ID, RoleInput{Name: "superuser", Label: "Super"})
	requireCode(t, err, apperrors.CodeValidation)

	updated, err := f.org.UpdateRole(ctx, admin.ID, RoleInput{
		Name: "admin", Label: "Administrators", Permissions: []string{"manage_users"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Administrators", updated.Label)
}

func TestDeleteRoleInUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role, err := f.org.CreateRole(ctx, RoleInput{Name: "auditor", Label: "Auditor"})
	require.NoError(t, err)
	f.createUser(t, "audit@example.com", role.Name)

	err = f.org.DeleteRole(ctx, role.ID)
	requireCode(t, err, apperrors.CodeReferentialIntegrity)

	err = f.org.DeleteRole(ctx, 9999)
	requireCode(t, err, apperrors.CodeNotFound)
}

func TestRenameRoleCascadesToUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	role, err := f.org.CreateRole(ctx, RoleInput{Name: "viewer", Label: "Viewer"})
	require.NoError(t, err)
	u := f.createUser(t, "view@example.com", role.Name)

	_, err = f.org.UpdateRole(ctx, role.ID, RoleInput{Name: "reader", Label: "Reader"})
	require.NoError(t, err)

	got, err := f.users.Get(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleName("reader"), got.Role)
}
