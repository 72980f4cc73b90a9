package server

import (
	"net/http"

	"github.com/goccy/go-json"
	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/internal/validation"
	"github.com/rs/zerolog/log"
)

const (
	msgServerError  = "Server error"
	maxRequestBytes = 1 << 20
)

type messageResponse struct {
	Message string                  `json:"message"`
	Errors  []validation.FieldError `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

// writeError maps the error taxonomy onto HTTP statuses. Anything unrecognised is
// logged and reported as a generic server error.
func writeError(w http.ResponseWriter, err error) {
	var fieldErr *validation.RequestValidationError
	var authErr *authError
	switch {
	case apperrors.As(err, &authErr) && apperrors.Is(err, apperrors.ErrForbidden):
		writeMessage(w, http.StatusForbidden, authErr.msg)
	case apperrors.As(err, &authErr):
		writeMessage(w, http.StatusUnauthorized, authErr.msg)
	case apperrors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: fieldErr.Error(), Errors: fieldErr.Fields})
	case apperrors.Is(err, apperrors.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case apperrors.Is(err, apperrors.ErrInvalidCredentials):
		writeMessage(w, http.StatusBadRequest, "Invalid credentials")
	case apperrors.Is(err, apperrors.ErrUserExists):
		writeMessage(w, http.StatusBadRequest, "User already exists")
	case apperrors.Is(err, apperrors.ErrRoleMismatch):
		writeMessage(w, http.StatusForbidden, "Unauthorized login attempt")
	case apperrors.Is(err, apperrors.ErrUnauthorized), apperrors.Is(err, apperrors.ErrInvalidToken):
		writeMessage(w, http.StatusUnauthorized, "Not authorized")
	case apperrors.Is(err, apperrors.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "Access denied")
	case apperrors.Is(err, apperrors.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	default:
		log.Error().Err(err).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, msgServerError)
	}
}

// decodeJSON reads a JSON body into dst. Unknown fields are ignored.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
