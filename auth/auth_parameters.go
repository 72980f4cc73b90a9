package auth

import "github.com/jrsteele09/go-session-audit/users"

// RegisterRequest is the body of a registration call. Role defaults to users.RoleUser.
type RegisterRequest struct {
	FullName string         `json:"fullName" validate:"required,max=100"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6,max=72"`
	Role     users.RoleType `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
}

// LoginRequest is the body of a login call. When Role is set it must match the
// identity's role or the login is refused.
type LoginRequest struct {
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required"`
	Role     users.RoleType `json:"role,omitempty" validate:"omitempty,oneof=admin user"`
}

// Result is returned by a successful Register or Authenticate.
type Result struct {
	Token string        `json:"token"`
	User  users.Summary `json:"user"`
}
