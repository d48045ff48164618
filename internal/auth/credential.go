package auth

import (
	"errors"
	"time"
)

var ErrCredentialNotFound = errors.New("credential not found")

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleAgent   Role = "AGENT"
	RoleCashier Role = "CASHIER"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleCashier:
		return true
	}
	return false
}

// Credential is the persisted record binding a username to a password hash,
// active flag and role. It is read-only from the login flow's perspective;
// only the administrative user management operations mutate it.
type Credential struct {
	ID           int
	Username     string
	Name         string
	PasswordHash string
	IsActive     bool
	Role         Role
	CreatedAt    time.Time
}

// AuthenticatedUser is the reduced projection of a Credential handed out
// after a successful login. It deliberately carries no secret material.
type AuthenticatedUser struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (c *Credential) User() AuthenticatedUser {
	return AuthenticatedUser{
		ID:       c.ID,
		Name:     c.Name,
		Username: c.Username,
		Role:     c.Role,
	}
}
