package users

import "context"

// UserRepo is the Identity Store. Missing identities are reported as errors.ErrNotFound.
type UserRepo interface {
	// Create stores a new user, assigning an ID when empty. Returns ErrUserExists for a duplicate email.
	Create(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	// GetByIDs returns the users found for ids keyed by ID. Unknown ids are absent from the map.
	GetByIDs(ctx context.Context, ids []string) (map[string]*User, error)
}
