package models

import "sort"

// Permission names a capability an authenticated user may exercise.
type Permission string

const (
	PermSessionsOwn     Permission = "sessions:own"
	PermSessionsAll     Permission = "sessions:all"
	PermUsersRead       Permission = "users:read"
	PermUsersManage     Permission = "users:manage"
	PermEnvironmentsOwn Permission = "environments:own"
	PermFormTypesRead   Permission = "form-types:read"
	PermFormTypesManage Permission = "form-types:manage"
	PermReportsOwn      Permission = "reports:own"
	PermReportsAll      Permission = "reports:all"
)

// PermissionSet is the resolved capability set for a role.
type PermissionSet map[Permission]struct{}

// Has reports whether the capability is present.
func (p PermissionSet) Has(perm Permission) bool {
	_, ok := p[perm]
	return ok
}

// List returns the capabilities in sorted order for API responses.
func (p PermissionSet) List() []Permission {
	perms := make([]Permission, 0, len(p))
	for perm := range p {
		perms = append(perms, perm)
	}
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}

// PermissionsFor resolves the capability set for a role. All role-based
// authorization flows through this single function rather than ad-hoc role
// comparisons scattered across handlers.
func PermissionsFor(role UserRole) PermissionSet {
	set := PermissionSet{
		PermSessionsOwn:     {},
		PermEnvironmentsOwn: {},
		PermFormTypesRead:   {},
		PermReportsOwn:      {},
	}
	switch role {
	case RoleSuperAdmin:
		set[PermSessionsAll] = struct{}{}
		set[PermUsersRead] = struct{}{}
		set[PermUsersManage] = struct{}{}
		set[PermFormTypesManage] = struct{}{}
		set[PermReportsAll] = struct{}{}
	case RoleSupportCenter:
		set[PermSessionsAll] = struct{}{}
		set[PermUsersRead] = struct{}{}
		set[PermReportsAll] = struct{}{}
	}
	return set
}
