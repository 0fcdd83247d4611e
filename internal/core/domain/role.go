package domain

import "sort"

// Role is a named set of permissions assigned to a user.
type Role string

// Available roles.
const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEngineer Role = "engineer"
	RoleViewer   Role = "viewer"
)

// AllRoles lists every recognised role in descending privilege order.
var AllRoles = []Role{RoleAdmin, RoleManager, RoleEngineer, RoleViewer}

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEngineer, RoleViewer:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// Permission gates a single capability of the application.
type Permission string

// Available permissions.
const (
	PermViewDailyPlan Permission = "daily_plan:view"
	PermEditDailyPlan Permission = "daily_plan:edit"
	PermViewHuawei    Permission = "huawei:view"
	PermEditHuawei    Permission = "huawei:edit"
	PermViewPO        Permission = "po:view"
	PermEditPO        Permission = "po:edit"
	PermViewFiles     Permission = "files:view"
	PermUploadFiles   Permission = "files:upload"
	PermManageUsers   Permission = "users:manage"
	PermManageCache   Permission = "cache:manage"
)

// AllPermissions lists every recognised permission.
var AllPermissions = []Permission{
	PermViewDailyPlan, PermEditDailyPlan,
	PermViewHuawei, PermEditHuawei,
	PermViewPO, PermEditPO,
	PermViewFiles, PermUploadFiles,
	PermManageUsers, PermManageCache,
}

// IsValid returns true if the permission is recognised.
func (p Permission) IsValid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// RolePermissions maps each role to the permissions it grants.
type RolePermissions map[Role][]Permission

// DefaultRolePermissions returns the built-in role to permission mapping.
func DefaultRolePermissions() RolePermissions {
	views := []Permission{PermViewDailyPlan, PermViewHuawei, PermViewPO, PermViewFiles}

	manager := append([]Permission{}, views...)
	manager = append(manager, PermEditDailyPlan, PermEditHuawei, PermEditPO, PermUploadFiles, PermManageCache)

	engineer := append([]Permission{}, views...)
	engineer = append(engineer, PermEditDailyPlan, PermEditHuawei, PermUploadFiles)

	return RolePermissions{
		RoleAdmin:    append([]Permission{}, AllPermissions...),
		RoleManager:  manager,
		RoleEngineer: engineer,
		RoleViewer:   append([]Permission{}, views...),
	}
}

// Allows reports whether the role grants the permission.
// Unknown roles grant nothing.
func (rp RolePermissions) Allows(role Role, perm Permission) bool {
	for _, p := range rp[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// For returns a sorted copy of the permissions granted to the role.
func (rp RolePermissions) For(role Role) []Permission {
	perms := append([]Permission{}, rp[role]...)
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

// Override replaces the permission list of a role, ignoring unknown permissions.
// Unknown roles are ignored entirely.
func (rp RolePermissions) Override(role Role, perms []string) {
	if !role.IsValid() {
		return
	}
	list := make([]Permission, 0, len(perms))
	for _, raw := range perms {
		p := Permission(raw)
		if p.IsValid() {
			list = append(list, p)
		}
	}
	rp[role] = list
}

// Clone returns a deep copy of the mapping.
func (rp RolePermissions) Clone() RolePermissions {
	out := make(RolePermissions, len(rp))
	for role, perms := range rp {
		out[role] = append([]Permission{}, perms...)
	}
	return out
}
