package domain

import "time"

// RoleName is the machine name of a role. The built-in roles below are always
// present; any other valid name refers to a custom role.
type RoleName string

const (
	RoleAdmin      RoleName = "admin"
	RoleTechnician RoleName = "technician"
	RoleUser       RoleName = "user"
)

// Permission is a capability granted by a role.
type Permission string

const (
	PermViewDashboard Permission = "view_dashboard"
	PermManageTickets Permission = "manage_tickets"
	PermCreateTicket  Permission = "create_ticket"
	PermAssignTickets Permission = "assign_tickets"
	PermDeleteTickets Permission = "delete_tickets"
	PermManageAssets  Permission = "manage_assets"
	PermManageUsers   Permission = "manage_users"
	PermManageGroups  Permission = "manage_groups"
	PermManageRoles   Permission = "manage_roles"
)

// AllPermissions lists every known capability.
var AllPermissions = []Permission{
	PermViewDashboard,
	PermManageTickets,
	PermCreateTicket,
	PermAssignTickets,
	PermDeleteTickets,
	PermManageAssets,
	PermManageUsers,
	PermManageGroups,
	PermManageRoles,
}

// Valid reports whether p is a known capability.
func (p Permission) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// Role groups a set of permissions under a machine name.
type Role struct {
	ID          int64
	Name        RoleName
	Label       string
	Description string
	Permissions []Permission
	CreatedAt   time.Time
}

// PermissionSet is a lookup view over a role's permissions.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from a list.
func NewPermissionSet(perms []Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}
