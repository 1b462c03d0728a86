package model

type Permission string

const (
	PermTaskReadAll   Permission = "task:read:all"
	PermTaskUpdateAll Permission = "task:update:all"
	PermTaskCreateAll Permission = "task:create:all"
	PermTaskDeleteAll Permission = "task:delete:all"
	PermTaskAssign    Permission = "task:assign"

	PermTaskReadOwn   Permission = "task:read:own"
	PermTaskUpdateOwn Permission = "task:update:own"
	PermTaskCreate    Permission = "task:create"

	PermUserReadAll Permission = "user:read:all"
)

var rolePermissions = map[Role]map[Permission]bool{
	RoleUser: {
		PermTaskReadOwn:   true,
		PermTaskUpdateOwn: true,
		PermTaskCreate:    true,
		PermUserReadAll:   true,
	},
	RoleAdmin: {
		PermTaskReadAll:   true,
		PermTaskUpdateAll: true,
		PermTaskDeleteAll: true,
		PermTaskCreateAll: true,
		PermTaskAssign:    true,
		PermUserReadAll:   true,
	},
}

// Can reports whether the role grants p. Unknown roles grant nothing.
func (r Role) Can(p Permission) bool {
	return rolePermissions[r][p]
}

// CanAny reports whether the role grants at least one of perms.
func (r Role) CanAny(perms ...Permission) bool {
	for _, p := range perms {
		if r.Can(p) {
			return true
		}
	}
	return false
}
