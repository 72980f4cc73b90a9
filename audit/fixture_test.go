package audit_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-session-audit/audit"
	fakeauditrepo "github.com/jrsteele09/go-session-audit/audit/repofake"
	"github.com/jrsteele09/go-session-audit/users"
	fakeuserrepo "github.com/jrsteele09/go-session-audit/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	testIP    = "10.0.0.1"
	testToken = "T1"
)

var baseTime = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// stepClock advances one second on every call so entries get distinct login times.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: baseTime}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type testFixture struct {
	clock    *stepClock
	repo     *fakeauditrepo.FakeAuditRepo
	userRepo *fakeuserrepo.FakeUserRepo
	manager  *audit.Manager
	query    *audit.QueryService
	deletion *audit.DeletionService
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	clock := newStepClock()
	repo := fakeauditrepo.NewFakeAuditRepo()
	ur := fakeuserrepo.NewFakeUserRepo()

	return &testFixture{
		clock:    clock,
		repo:     repo,
		userRepo: ur,
		manager:  audit.NewManager(repo, audit.WithClock(clock.Now)),
		query:    audit.NewQueryService(repo, audit.NewUserRepoResolver(ur), audit.WithMaxPageSize(100)),
		deletion: audit.NewDeletionService(repo),
	}
}

func (f *testFixture) createUser(t *testing.T, name string, role users.RoleType) *users.User {
	t.Helper()

	u := &users.User{FullName: name, Email: name + "@example.com", Role: role}
	require.NoError(t, f.userRepo.Create(context.Background(), u))
	return u
}

func (f *testFixture) login(t *testing.T, subjectID, token string) *audit.Entry {
	t.Helper()

	e, err := f.manager.RecordLogin(context.Background(), subjectID, users.RoleUser, token, testIP)
	require.NoError(t, err)
	return e
}
