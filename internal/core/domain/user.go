package domain

// Role is the coarse role marker carried in issued tokens.
// There is no role-based authorization; every account gets RoleUser.
type Role string

const (
	RoleUser Role = "ROLE_USER"
)

// User is the credential record owned by the user directory.
// The auth core only reads it, except for password updates.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"-"` // Never serialize
	Active       bool   `json:"active"`
}
