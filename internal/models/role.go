package models

import "policybook/internal/common"

type Role string

const (
	RoleViewer  Role = "viewer"
	RoleManager Role = "manager"
	RoleAdmin   Role = "admin"
)

var roleRank = map[Role]int{
	RoleViewer:  1,
	RoleManager: 2,
	RoleAdmin:   3,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r ranks at or above required. Unknown roles rank
// below everything.
func (r Role) AtLeast(required Role) bool {
	return roleRank[r] > 0 && roleRank[r] >= roleRank[required]
}

type Operation string

const (
	OpRead    Operation = "read"
	OpCreate  Operation = "create"
	OpUpdate  Operation = "update"
	OpArchive Operation = "archive"
	OpDelete  Operation = "delete"
	OpImport  Operation = "import"
	OpUsers   Operation = "manage users"
)

var requiredRoles = map[Operation]Role{
	OpRead:    RoleViewer,
	OpCreate:  RoleManager,
	OpUpdate:  RoleManager,
	OpArchive: RoleManager,
	OpImport:  RoleManager,
	OpDelete:  RoleAdmin,
	OpUsers:   RoleAdmin,
}

// RequiredRole is the minimum role for op. Unlisted operations need admin.
func RequiredRole(op Operation) Role {
	if role, ok := requiredRoles[op]; ok {
		return role
	}
	return RoleAdmin
}

func Authorize(role Role, op Operation) error {
	required := RequiredRole(op)
	if role.AtLeast(required) {
		return nil
	}
	return &common.PermissionError{
		Operation: string(op),
		Role:      string(role),
		Required:  string(required),
	}
}

// Actor is the authenticated identity attached to a request.
type Actor struct {
	UserID *int   `json:"userId"`
	Login  string `json:"login"`
	Role   Role   `json:"role"`
}

// SystemActor is used by the command-line importer and the seeders.
func SystemActor() Actor {
	return Actor{Login: "system", Role: RoleAdmin}
}
