package auth

import (
	"strings"
	"time"

	"github.com/srssieam/DreamDwell-server/access"
)

// Identity is the domain representation of a registered user.
// It mirrors the users table and carries no JSON annotations so it can be
// reused by different presentation layers.
type Identity struct {
	ID        string
	Email     string
	Name      string
	PhotoURL  string
	Role      access.Role
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Principal projects the identity onto what the rule table needs.
func (i Identity) Principal() access.Principal {
	return access.Principal{Email: i.Email, Role: i.Role}
}

// RegisterRequest contains registration data supplied by callers. Any role
// sent by the client is ignored.
type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	PhotoURL string `json:"photoURL"`
}

// LoginRequest names the identity a session is issued for.
type LoginRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Claim is the identity carried inside a session credential.
type Claim struct {
	Email     string
	Name      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NormalizeEmail is the canonical form used for storage and comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
