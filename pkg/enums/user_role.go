package enums

// UserRole gates privileged operations such as force-deleting a project.
type UserRole string

const (
	UserRoleAdmin  UserRole = "admin"
	UserRoleSeller UserRole = "seller"
	UserRoleViewer UserRole = "viewer"
)

var userRoles = newSet("user role", UserRoleAdmin, UserRoleSeller, UserRoleViewer)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool { return userRoles.has(r) }

func ParseUserRole(value string) (UserRole, error) {
	return userRoles.parse(value)
}
