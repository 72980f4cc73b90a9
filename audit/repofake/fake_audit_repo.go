package fakeauditrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-session-audit/audit"
	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/internal/utils"
)

var _ audit.Repo = (*FakeAuditRepo)(nil)

// FakeAuditRepo keeps entries in memory. Every operation holds the lock for its whole
// duration, which gives CloseLatestOpen and Delete the same single-record atomicity a
// real store provides.
type FakeAuditRepo struct {
	entries map[string]*audit.Entry
	lock    sync.RWMutex
	failure error
}

func NewFakeAuditRepo() *FakeAuditRepo {
	return &FakeAuditRepo{
		entries: make(map[string]*audit.Entry),
	}
}

// SetFailure makes every subsequent call return err until cleared with nil.
func (r *FakeAuditRepo) SetFailure(err error) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.failure = err
}

func (r *FakeAuditRepo) Insert(_ context.Context, e *audit.Entry) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.failure != nil {
		return r.failure
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	r.entries[e.ID] = copyEntry(e)
	return nil
}

func (r *FakeAuditRepo) CloseLatestOpen(_ context.Context, subjectID, token string, at time.Time) (*audit.Entry, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.failure != nil {
		return nil, r.failure
	}

	var latest *audit.Entry
	for _, e := range r.entries {
		if e.SubjectID != subjectID || e.Token != token || !e.IsOpen() {
			continue
		}
		if latest == nil || newerThan(e, latest) {
			latest = e
		}
	}
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}

	latest.LogoutTime = utils.Ptr(at)
	return copyEntry(latest), nil
}

func (r *FakeAuditRepo) List(_ context.Context, offset, limit int) ([]*audit.Entry, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.failure != nil {
		return nil, r.failure
	}

	all := make([]*audit.Entry, 0, len(r.entries))
	for _, e := range r.entries {
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool {
		return newerThan(all[i], all[j])
	})

	if offset < 0 || limit <= 0 || offset >= len(all) {
		return []*audit.Entry{}, nil
	}
	end := min(offset+limit, len(all))

	page := make([]*audit.Entry, 0, end-offset)
	for _, e := range all[offset:end] {
		page = append(page, copyEntry(e))
	}
	return page, nil
}

func (r *FakeAuditRepo) Count(_ context.Context) (int64, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	if r.failure != nil {
		return 0, r.failure
	}
	return int64(len(r.entries)), nil
}

func (r *FakeAuditRepo) Delete(_ context.Context, id string) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.failure != nil {
		return r.failure
	}
	if _, ok := r.entries[id]; !ok {
		return apperrors.ErrNotFound
	}
	delete(r.entries, id)
	return nil
}

// Get returns a copy of the stored entry, for assertions in tests.
func (r *FakeAuditRepo) Get(id string) (*audit.Entry, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return copyEntry(e), true
}

func newerThan(a, b *audit.Entry) bool {
	if !a.LoginTime.Equal(b.LoginTime) {
		return a.LoginTime.After(b.LoginTime)
	}
	return a.ID > b.ID
}

func copyEntry(e *audit.Entry) *audit.Entry {
	c := *e
	if e.LogoutTime != nil {
		c.LogoutTime = utils.Ptr(*e.LogoutTime)
	}
	return &c
}
