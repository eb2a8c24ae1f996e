package models

import "slices"

// RoleAdmin is granted every permission regardless of the permission list.
const RoleAdmin = "admin"

// User is the authenticated principal a session is issued for. Sessions keep
// their own copy taken at creation time.
type User struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// IsAdmin reports whether the user holds the administrative role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasPermission reports whether the user is an admin or lists permission explicitly.
func (u User) HasPermission(permission string) bool {
	if u.IsAdmin() {
		return true
	}
	return slices.Contains(u.Permissions, permission)
}

// Clone returns a deep copy safe to hand out independently of the original.
func (u User) Clone() User {
	u.Permissions = slices.Clone(u.Permissions)
	return u
}
