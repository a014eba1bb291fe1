package users

import (
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

var (
	// ErrUserNotFound is returned for unknown users.
	ErrUserNotFound = shared.NotFound("user")
	// ErrEmailTaken reports a duplicate login email.
	ErrEmailTaken = shared.NewValidationError("email already registered", map[string]string{"email": "must be unique"})
)

// User represents an operator account.
type User struct {
	ID           int64       `json:"id"`
	Name         string      `json:"name"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         shared.Role `json:"role"`
	IsActive     bool        `json:"isActive"`
	LastLoginAt  *time.Time  `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Identity returns the request identity carried by a token for u.
func (u User) Identity() shared.Identity {
	return shared.Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// CreateInput carries a new account.
type CreateInput struct {
	Name     string
	Email    string
	Password string
	Role     shared.Role
}

// UpdateInput patches an account; nil fields are left unchanged.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *shared.Role
	IsActive *bool
}
