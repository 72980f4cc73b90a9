package server

import (
	"net/http"

	"github.com/jrsteele09/go-session-audit/audit"
	"github.com/jrsteele09/go-session-audit/auth"
	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/internal/metrics"
	"github.com/rs/zerolog/log"
)

func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.RegisterRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		res, err := s.services.Auth.Register(r.Context(), req, clientIP(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req auth.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		res, err := s.services.Auth.Authenticate(r.Context(), req, clientIP(r))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// LogoutHandler succeeds whether or not an open audit entry matched the token.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			writeMessage(w, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		if err := s.services.Auth.Logout(r.Context(), caller.UserID, caller.Token); err != nil {
			writeError(w, err)
			return
		}
		writeMessage(w, http.StatusOK, "Logged out successfully")
	}
}

// ListUserLogsHandler serves one page of audit entries, newest login first.
// Query parameters: page (default 1) and limit (default from config).
func (s *Server) ListUserLogsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		req, err := audit.ParsePageRequest(q.Get("page"), q.Get("limit"), s.config.GetDefaultPageSize())
		if err != nil {
			writeError(w, err)
			return
		}

		res, err := s.services.Query.ListEntries(r.Context(), req)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) DeleteUserLogHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue(RouteUserLogIDVar)

		err := s.services.Deletion.DeleteEntry(r.Context(), id)
		switch {
		case err == nil:
			metrics.RecordAuditDeletion()
			if caller, ok := CallerFromContext(r.Context()); ok {
				log.Info().Str("entry_id", id).Str("admin_id", caller.UserID).Msg("audit entry deleted")
			}
			writeMessage(w, http.StatusOK, "Log deleted")
		case apperrors.Is(err, apperrors.ErrNotFound):
			writeMessage(w, http.StatusNotFound, "Log not found")
		default:
			writeError(w, err)
		}
	}
}

// PreflightHandler answers OPTIONS requests that CorsMiddleware lets through.
func (s *Server) PreflightHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.services.Health != nil {
			if err := s.services.Health(r.Context()); err != nil {
				log.Error().Err(err).Msg("health check failed")
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
