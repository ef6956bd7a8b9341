package model

// Role determines what a user may see and do.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleEmployee Role = "EMPLOYEE"
)

// User is an account that can sign in on this device.
type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   Role   `json:"role"`
	Avatar string `json:"avatar"`

	// Password is stored and compared in plaintext.
	Password string `json:"password,omitempty"`
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// RoleLabel returns the display label for a role.
func RoleLabel(r Role) string {
	switch r {
	case RoleAdmin:
		return "管理员"
	case RoleEmployee:
		return "员工"
	default:
		return string(r)
	}
}
