package domain

import "fmt"

// Role is a user's role within one project.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
	RoleGuest     Role = "guest"
)

// Roles lists every valid role, most privileged first.
var Roles = []Role{RoleAdmin, RoleDeveloper, RoleGuest}

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleDeveloper, RoleGuest:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole accepts only the closed set of roles.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Resource is something a project role grants access to.
type Resource string

const (
	ResourceProject    Resource = "project"
	ResourceTask       Resource = "task"
	ResourceInvitation Resource = "invitation"
	ResourceHistory    Resource = "history"
)

// Action is an operation on a Resource.
type Action string

const (
	ActionView          Action = "view"
	ActionCreate        Action = "create"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionManageTags    Action = "manageTags"
	ActionViewMembers   Action = "viewMembers"
	ActionManageMembers Action = "manageMembers"
)
