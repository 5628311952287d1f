package types

import "time"

// Role distinguishes librarians from members.
type Role string

// Known roles.
const (
	RoleLibrarian Role = "librarian"
	RoleMember    Role = "member"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleLibrarian || r == RoleMember
}

// User is a seeded account. Librarians sign in with a username and password,
// members with a card number and PIN. Secrets are stored as bcrypt hashes.
type User struct {
	Role         Role   `json:"role"`
	Username     string `json:"username,omitempty"`
	PasswordHash string `json:"passwordHash,omitempty"`
	CardNumber   string `json:"cardNumber,omitempty"`
	PINHash      string `json:"pinHash,omitempty"`
	Name         string `json:"name,omitempty"`
}

// Session marks the signed-in identity for one role.
type Session struct {
	Role       Role      `json:"role"`
	Username   string    `json:"username,omitempty"`
	Name       string    `json:"name,omitempty"`
	CardNumber string    `json:"cardNumber,omitempty"`
	LoggedInAt time.Time `json:"loggedInAt"`
}
