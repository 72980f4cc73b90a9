package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/users"
)

// Manager is the Session Lifecycle Manager: the only writer of entries.
type Manager struct {
	repo    Repo
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

// WithClock overrides time.Now, used by tests.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func NewManager(repo Repo, options ...ManagerOption) *Manager {
	m := &Manager{repo: repo}
	for _, opt := range options {
		opt(m)
	}
	if m.nowFunc == nil {
		m.nowFunc = time.Now
	}
	return m
}

// RecordLogin persists a new open entry for a successful authentication.
// Store failures are returned wrapping ErrPersistence; the authentication flow decides
// whether that is fatal.
func (m *Manager) RecordLogin(ctx context.Context, subjectID string, role users.RoleType, token, ipAddress string) (*Entry, error) {
	if strings.TrimSpace(subjectID) == "" {
		return nil, fmt.Errorf("Manager.RecordLogin: %w: subject is required", apperrors.ErrValidation)
	}
	if token == "" {
		return nil, fmt.Errorf("Manager.RecordLogin: %w: token is required", apperrors.ErrValidation)
	}

	e := &Entry{
		SubjectID: subjectID,
		Role:      role,
		LoginTime: m.nowFunc().UTC(),
		Token:     token,
		IPAddress: ipAddress,
	}
	if err := m.repo.Insert(ctx, e); err != nil {
		return nil, storeErr("Manager.RecordLogin", err)
	}
	return e, nil
}

// RecordLogout closes the newest open entry for (subjectID, token).
// ErrNotFound means there was nothing to close: already closed, never recorded or a
// mismatched token. Callers treat it as a successful no-op.
func (m *Manager) RecordLogout(ctx context.Context, subjectID, token string) (*Entry, error) {
	if subjectID == "" || token == "" {
		return nil, fmt.Errorf("Manager.RecordLogout: %w: subject and token are required", apperrors.ErrValidation)
	}

	e, err := m.repo.CloseLatestOpen(ctx, subjectID, token, m.nowFunc().UTC())
	if err != nil {
		return nil, storeErr("Manager.RecordLogout", err)
	}
	return e, nil
}
