package domain

import "time"

// Role enumerates coarse user roles. Fine-grained capability comes from
// the permission tokens, not the role.
type Role string

const (
	RoleAdmin      Role = "ROLE_ADMIN"
	RoleUser       Role = "ROLE_USER"
	RoleAgent      Role = "ROLE_AGENT"
	RoleSupervisor Role = "ROLE_SUPERVISOR"
)

// User is a principal known to the helpdesk. PasswordHash is only set
// for local accounts; SSO identities carry none.
type User struct {
	ID            int64
	Email         string
	FullName      string
	Role          Role
	DepartmentID  *int64
	PasswordHash  *string
	Permissions   []Permission
	Subscriptions []NotificationCategory
	IsActive      bool
	CreatedAt     time.Time
}

// PermissionSet materializes the user's tokens as a set.
func (u *User) PermissionSet() PermissionSet {
	return NewPermissionSet(u.Permissions...)
}

// Subscribes reports whether the user opted into the category.
func (u *User) Subscribes(category NotificationCategory) bool {
	for _, c := range u.Subscriptions {
		if c == category {
			return true
		}
	}
	return false
}
