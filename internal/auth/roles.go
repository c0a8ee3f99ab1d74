package auth

import (
	"sort"

	"github.com/ghaythalijarad/entralized-delivery-platform/internal/domain"
)

// Coarse role sets used by route policies.
var (
	AdminOnly      = []domain.Role{domain.RoleAdmin}
	AdminOrManager = []domain.Role{domain.RoleAdmin, domain.RoleManager}
	AnyRole        = []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleViewer}
)

var rolePermissions = map[domain.Role][]domain.Permission{
	domain.RoleAdmin: {
		domain.PermUsersCreate, domain.PermUsersRead, domain.PermUsersUpdate, domain.PermUsersDelete,
		domain.PermOrdersRead, domain.PermOrdersUpdate,
		domain.PermMerchantsRead, domain.PermMerchantsUpdate,
		domain.PermDriversRead, domain.PermDriversUpdate,
		domain.PermCustomersRead, domain.PermAnalyticsRead,
		domain.PermSettingsRead, domain.PermSettingsUpdate,
	},
	domain.RoleManager: {
		domain.PermUsersRead,
		domain.PermOrdersRead, domain.PermOrdersUpdate,
		domain.PermMerchantsRead, domain.PermMerchantsUpdate,
		domain.PermDriversRead, domain.PermDriversUpdate,
		domain.PermCustomersRead, domain.PermAnalyticsRead,
	},
	domain.RoleViewer: {
		domain.PermOrdersRead, domain.PermMerchantsRead, domain.PermDriversRead,
		domain.PermCustomersRead, domain.PermAnalyticsRead,
	},
}

// Resolver maps roles to permissions and provider groups to roles. Unknown
// roles and groups grant nothing.
type Resolver struct {
	table map[domain.Role]map[domain.Permission]struct{}
}

// NewResolver builds a resolver over the static permission table.
func NewResolver() *Resolver {
	table := make(map[domain.Role]map[domain.Permission]struct{}, len(rolePermissions))
	for role, perms := range rolePermissions {
		set := make(map[domain.Permission]struct{}, len(perms))
		for _, p := range perms {
			set[p] = struct{}{}
		}
		table[role] = set
	}
	return &Resolver{table: table}
}

// PermissionsFor returns the union of permissions granted to roles.
func (r *Resolver) PermissionsFor(roles ...domain.Role) map[domain.Permission]struct{} {
	out := make(map[domain.Permission]struct{})
	for _, role := range roles {
		for p := range r.table[role] {
			out[p] = struct{}{}
		}
	}
	return out
}

// PermissionList is PermissionsFor as a sorted slice.
func (r *Resolver) PermissionList(roles ...domain.Role) []string {
	set := r.PermissionsFor(roles...)
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

// HasPermission reports whether any of roles grants perm.
func (r *Resolver) HasPermission(roles []domain.Role, perm domain.Permission) bool {
	for _, role := range roles {
		if _, ok := r.table[role][perm]; ok {
			return true
		}
	}
	return false
}

// Allows reports whether roles and required share at least one member.
func (r *Resolver) Allows(roles []domain.Role, required []domain.Role) bool {
	for _, have := range roles {
		for _, want := range required {
			if have == want {
				return true
			}
		}
	}
	return false
}

// RolesForGroups maps provider group names to roles, dropping unknown groups.
func (r *Resolver) RolesForGroups(groups []string) []domain.Role {
	roles := make([]domain.Role, 0, len(groups))
	seen := make(map[domain.Role]struct{}, len(groups))
	for _, g := range groups {
		role, ok := domain.ParseRole(g)
		if !ok {
			continue
		}
		if _, dup := seen[role]; dup {
			continue
		}
		seen[role] = struct{}{}
		roles = append(roles, role)
	}
	return roles
}

// Policy is the access requirement of a route. The zero value admits any
// authenticated, active identity.
type Policy struct {
	Permission domain.Permission
	Roles      []domain.Role
}

// Authenticated admits any active identity.
var Authenticated = Policy{}

// RequirePermission builds a policy on a single permission.
func RequirePermission(perm domain.Permission) Policy {
	return Policy{Permission: perm}
}

// RequireRoles builds a policy on a role set.
func RequireRoles(roles ...domain.Role) Policy {
	return Policy{Roles: roles}
}

func (p Policy) admits(r *Resolver, roles []domain.Role) bool {
	if p.Permission != "" && !r.HasPermission(roles, p.Permission) {
		return false
	}
	if len(p.Roles) > 0 && !r.Allows(roles, p.Roles) {
		return false
	}
	return true
}
