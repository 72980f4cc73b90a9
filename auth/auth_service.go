// Package auth binds the Identity Store, the token Issuer and the session audit
// lifecycle into the register, login and logout flows.
package auth

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-session-audit/audit"
	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/internal/metrics"
	"github.com/jrsteele09/go-session-audit/internal/validation"
	"github.com/jrsteele09/go-session-audit/token"
	"github.com/jrsteele09/go-session-audit/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Service provides the authentication flows. Audit recording on login is best effort:
// a failed write is logged and the caller still receives its token.
type Service struct {
	users    users.UserRepo
	issuer   *token.Issuer
	sessions *audit.Manager

	allowAdminSignup bool
}

type ServiceOption func(*Service)

// WithAdminSignup allows Register to create admin identities.
func WithAdminSignup(allow bool) ServiceOption {
	return func(s *Service) {
		s.allowAdminSignup = allow
	}
}

func NewService(userRepo users.UserRepo, issuer *token.Issuer, sessions *audit.Manager, options ...ServiceOption) (*Service, error) {
	if userRepo == nil {
		return nil, errors.New("[NewService] users repo is required")
	}
	if issuer == nil {
		return nil, errors.New("[NewService] token issuer is required")
	}
	if sessions == nil {
		return nil, errors.New("[NewService] session manager is required")
	}
	s := &Service{
		users:    userRepo,
		issuer:   issuer,
		sessions: sessions,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Register creates a new identity and logs it straight in.
func (s *Service) Register(ctx context.Context, req RegisterRequest, ipAddress string) (*Result, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.Role == "" {
		req.Role = users.RoleUser
	}
	if req.Role == users.RoleAdmin && !s.allowAdminSignup {
		return nil, fmt.Errorf("[Register] admin self-registration is disabled: %w", apperrors.ErrForbidden)
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Register] hash password")
	}

	user := &users.User{
		FullName:     req.FullName,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("[Register] %w", err)
	}
	log.Info().Str("subject_id", user.ID).Str("role", string(user.Role)).Msg("user registered")

	return s.startSession(ctx, user, ipAddress)
}

// Authenticate verifies credentials, issues a token and records the login.
// A role hint that differs from the identity's role fails with ErrRoleMismatch and
// leaves no audit entry.
func (s *Service) Authenticate(ctx context.Context, req LoginRequest, ipAddress string) (*Result, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, err
	}

	user, err := users.VerifyCredentials(ctx, s.users, req.Email, req.Password)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidCredentials) {
			metrics.RecordLogin(metrics.OutcomeRejected)
		}
		return nil, fmt.Errorf("[Authenticate] %w", err)
	}

	if req.Role != "" && req.Role != user.Role {
		metrics.RecordLogin(metrics.OutcomeRejected)
		log.Warn().Str("subject_id", user.ID).Str("requested_role", string(req.Role)).Msg("login refused, role mismatch")
		return nil, fmt.Errorf("[Authenticate] %w", apperrors.ErrRoleMismatch)
	}

	return s.startSession(ctx, user, ipAddress)
}

func (s *Service) startSession(ctx context.Context, user *users.User, ipAddress string) (*Result, error) {
	raw, err := s.issuer.Issue(user.ID, user.Role)
	if err != nil {
		return nil, errors.Wrap(err, "[startSession] issue token")
	}

	if _, err := s.sessions.RecordLogin(ctx, user.ID, user.Role, raw, ipAddress); err != nil {
		metrics.RecordAuditWriteFailure("login")
		log.Error().Err(err).Str("subject_id", user.ID).Msg("failed to record login audit entry")
	}
	metrics.RecordLogin(metrics.OutcomeSuccess)

	return &Result{Token: raw, User: user.Summary()}, nil
}

// Logout closes the newest open audit entry for the subject and token. A token
// with no open entry is not an error: logout is idempotent from the caller's side.
func (s *Service) Logout(ctx context.Context, subjectID, rawToken string) error {
	entry, err := s.sessions.RecordLogout(ctx, subjectID, rawToken)
	switch {
	case err == nil:
		metrics.RecordLogout(metrics.OutcomeSuccess)
		log.Debug().Str("subject_id", subjectID).Str("entry_id", entry.ID).Msg("session closed")
		return nil
	case apperrors.Is(err, apperrors.ErrNotFound):
		metrics.RecordLogout(metrics.OutcomeNoop)
		return nil
	default:
		metrics.RecordLogout(metrics.OutcomeError)
		metrics.RecordAuditWriteFailure("logout")
		return fmt.Errorf("[Logout] %w", err)
	}
}
