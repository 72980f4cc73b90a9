package audit

import (
	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
)

// storeErr passes ErrNotFound through and marks everything else as a persistence failure.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if apperrors.Is(err, apperrors.ErrNotFound) || apperrors.Is(err, apperrors.ErrPersistence) {
		return apperrors.Wrapf(err, "%s", op)
	}
	return apperrors.Persistence(err, op)
}
