package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/users"
	"github.com/rs/zerolog/log"
)

// InitialiseSystem creates the configured administrator when it does not exist yet.
// Nothing happens without ADMIN_EMAIL. When ADMIN_PASSWORD is empty a password is
// generated and logged once.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	email := s.config.GetAdminEmail()
	if email == "" {
		return nil
	}

	generatedPassword, err := s.bootstrapAdmin(ctx, email, s.config.GetAdminPassword(), s.config.GetAdminName())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap admin: %w", err)
	}

	if generatedPassword != "" {
		log.Warn().
			Str("email", users.NormaliseEmail(email)).
			Str("password", generatedPassword).
			Msg("administrator created with a generated password, save it now, it will not be shown again")
	}
	return nil
}

// bootstrapAdmin returns the generated password, or "" when none was generated or the admin exists.
func (s *Server) bootstrapAdmin(ctx context.Context, email, password, name string) (generatedPassword string, err error) {
	existing, err := s.services.Users.GetByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			log.Warn().Str("email", existing.Email).Msg("bootstrap admin email belongs to a non-admin identity")
		}
		return "", nil
	}
	if !apperrors.Is(err, apperrors.ErrNotFound) {
		return "", fmt.Errorf("failed to check for existing admin: %w", err)
	}

	if password == "" {
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		password = base64.URLEncoding.EncodeToString(passwordBytes)
		generatedPassword = password
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &users.User{
		FullName:     name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         users.RoleAdmin,
	}
	if err := s.services.Users.Create(ctx, admin); err != nil {
		return "", fmt.Errorf("failed to create admin: %w", err)
	}

	log.Info().Str("email", admin.Email).Str("subject_id", admin.ID).Msg("created administrator")
	return generatedPassword, nil
}
