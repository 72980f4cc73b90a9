package server

import (
	"context"
	"net/http"
	"strings"

	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/users"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUserID stores the authenticated subject ID
	ContextKeyUserID ContextKey = "user_id"
	// ContextKeyRole stores the role carried by the token
	ContextKeyRole ContextKey = "role"
	// ContextKeyToken stores the raw bearer token, needed to close its audit entry
	ContextKeyToken ContextKey = "token"
)

// authError is an authorization rejection with the message shown to the client.
type authError struct {
	msg   string
	cause error
}

func (e *authError) Error() string { return e.msg }
func (e *authError) Unwrap() error { return e.cause }

var (
	errNoToken     = &authError{msg: "Not authorized, no token", cause: apperrors.ErrUnauthorized}
	errTokenFailed = &authError{msg: "Not authorized, token failed", cause: apperrors.ErrUnauthorized}
	errAdminsOnly  = &authError{msg: "Access denied: Admins only", cause: apperrors.ErrForbidden}
)

// Caller is the authenticated identity placed on the request context by Protect.
type Caller struct {
	UserID string
	Role   users.RoleType
	Token  string
}

// CallerFromContext returns the caller set by Protect.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	userID, ok := ctx.Value(ContextKeyUserID).(string)
	if !ok || userID == "" {
		return Caller{}, false
	}
	role, _ := ctx.Value(ContextKeyRole).(users.RoleType)
	token, _ := ctx.Value(ContextKeyToken).(string)
	return Caller{UserID: userID, Role: role, Token: token}, true
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Protect validates the bearer token and stores the caller on the request context.
func (s *Server) Protect(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			writeError(w, errNoToken)
			return
		}

		claims, err := s.services.Issuer.Parse(raw)
		if err != nil {
			log.Debug().Err(err).Msg("bearer token rejected")
			writeError(w, errTokenFailed)
			return
		}

		ctx := context.WithValue(r.Context(), ContextKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, ContextKeyRole, claims.Role)
		ctx = context.WithValue(ctx, ContextKeyToken, raw)
		next(w, r.WithContext(ctx))
	}
}

// AdminOnly must follow Protect. The identity's current role is read from the
// Identity Store, so a demoted or deleted admin loses access immediately.
func (s *Server) AdminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			writeError(w, errNoToken)
			return
		}

		user, err := s.services.Users.GetByID(r.Context(), caller.UserID)
		if err != nil && !apperrors.Is(err, apperrors.ErrNotFound) {
			writeError(w, err)
			return
		}
		if user == nil || !user.IsAdmin() {
			writeError(w, errAdminsOnly)
			return
		}
		next(w, r)
	}
}
