package users

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

// RoleType is the application role an identity holds.
type RoleType string

const (
	RoleAdmin RoleType = "admin" // Can read and delete session audit history
	RoleUser  RoleType = "user"  // Regular authenticated user
)

// Valid reports whether r is a known role.
func (r RoleType) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

type User struct {
	ID           string    `json:"id,omitempty"`         // Unique identifier for the user
	FullName     string    `json:"fullName,omitempty"`   // Display name
	Email        string    `json:"email,omitempty"`      // Login identifier, unique
	PasswordHash string    `json:"-"`                    // bcrypt hash - never serialize
	Role         RoleType  `json:"role,omitempty"`       // Current role
	CreatedAt    time.Time `json:"created_at,omitempty"` // Registration time
}

// Summary is the minimal identity returned to a client after authentication.
type Summary struct {
	UserID   string   `json:"userId"`
	FullName string   `json:"fullName"`
	Email    string   `json:"email"`
	Role     RoleType `json:"role"`
}

func (u *User) Summary() Summary {
	return Summary{
		UserID:   u.ID,
		FullName: u.FullName,
		Email:    u.Email,
		Role:     u.Role,
	}
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NormaliseEmail is applied before every email lookup or insert.
func NormaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// dummyHash is compared against when the email is unknown so both failure paths cost a bcrypt round.
var dummyHash, _ = HashPassword("not-a-real-password")

// VerifyCredentials resolves an identity from email and password.
// Unknown email and wrong password both return ErrInvalidCredentials.
func VerifyCredentials(ctx context.Context, repo UserRepo, email, password string) (*User, error) {
	user, err := repo.GetByEmail(ctx, NormaliseEmail(email))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			_ = CheckPasswordHash(password, dummyHash)
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}
	return user, nil
}
