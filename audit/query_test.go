package audit_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/jrsteele09/go-session-audit/audit"
	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/users"
	"github.com/stretchr/testify/require"
)

func seedEntries(t *testing.T, f *testFixture, subjectID string, n int) []*audit.Entry {
	t.Helper()

	entries := make([]*audit.Entry, 0, n)
	for i := range n {
		entries = append(entries, f.login(t, subjectID, fmt.Sprintf("token-%d", i)))
	}
	return entries
}

func TestListEntries_Pagination(t *testing.T) {
	f := setupTestFixture(t)
	u := f.createUser(t, "ada", users.RoleUser)
	seedEntries(t, f, u.ID, 25)
	ctx := context.Background()

	tests := []struct {
		page     int
		wantSize int
	}{
		{page: 1, wantSize: 20},
		{page: 2, wantSize: 5},
		{page: 3, wantSize: 0},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			res, err := f.query.ListEntries(ctx, audit.PageRequest{Page: tt.page, PageSize: 20})
			require.NoError(t, err)
			require.Len(t, res.Entries, tt.wantSize)
			require.NotNil(t, res.Entries)
			require.EqualValues(t, 25, res.Total)
		})
	}
}

func TestListEntries_AllPagesNoDuplicatesNoGaps(t *testing.T) {
	f := setupTestFixture(t)
	u := f.createUser(t, "ada", users.RoleUser)
	seeded := seedEntries(t, f, u.ID, 23)
	ctx := context.Background()

	seen := map[string]bool{}
	var ordered []*audit.EntryView
	for page := 1; ; page++ {
		res, err := f.query.ListEntries(ctx, audit.PageRequest{Page: page, PageSize: 4})
		require.NoError(t, err)
		if len(res.Entries) == 0 {
			break
		}
		for _, e := range res.Entries {
			require.False(t, seen[e.ID], "duplicate entry %s", e.ID)
			seen[e.ID] = true
			ordered = append(ordered, e)
		}
	}

	require.Len(t, ordered, len(seeded))
	for i := 1; i < len(ordered); i++ {
		require.False(t, ordered[i].LoginTime.After(ordered[i-1].LoginTime), "entries must be newest first")
	}
	require.Equal(t, seeded[len(seeded)-1].ID, ordered[0].ID)
}

func TestListEntries_IdentityJoin(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	admin := f.createUser(t, "grace", users.RoleAdmin)
	gone := f.createUser(t, "linus", users.RoleUser)

	f.login(t, gone.ID, "gone-token")
	f.login(t, admin.ID, "admin-token")
	require.NoError(t, f.userRepo.Delete(ctx, gone.ID))

	res, err := f.query.ListEntries(ctx, audit.PageRequest{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)

	newest := res.Entries[0]
	require.Equal(t, admin.ID, newest.SubjectID)
	require.Equal(t, "grace", *newest.FullName)
	require.Equal(t, users.RoleAdmin, *newest.Role)

	orphan := res.Entries[1]
	require.Equal(t, gone.ID, orphan.SubjectID)
	require.Nil(t, orphan.FullName)
	require.Nil(t, orphan.Role)
	require.Equal(t, users.RoleUser, orphan.Entry.Role, "login-time role snapshot survives")
}

func TestListEntries_Validation(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	for _, req := range []audit.PageRequest{
		{Page: 0, PageSize: 20},
		{Page: 1, PageSize: 0},
		{Page: -1, PageSize: 20},
		{Page: 1, PageSize: 101},
	} {
		_, err := f.query.ListEntries(ctx, req)
		require.ErrorIs(t, err, apperrors.ErrValidation, "%+v", req)
	}
}

func TestListEntries_StoreFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.repo.SetFailure(errors.New("timeout"))

	_, err := f.query.ListEntries(context.Background(), audit.PageRequest{Page: 1, PageSize: 20})
	require.ErrorIs(t, err, apperrors.ErrPersistence)
}

func TestListEntries_PageBeyondIntRange(t *testing.T) {
	f := setupTestFixture(t)
	u := f.createUser(t, "ada", users.RoleUser)
	seedEntries(t, f, u.ID, 3)

	for _, page := range []int{math.MaxInt / 50, math.MaxInt} {
		res, err := f.query.ListEntries(context.Background(), audit.PageRequest{Page: page, PageSize: 100})
		require.NoError(t, err)
		require.NotNil(t, res.Entries)
		require.Empty(t, res.Entries)
		require.EqualValues(t, 3, res.Total)
	}
}

// A login written between two page requests shifts every later entry by one position.
func TestListEntries_ConcurrentInsertShiftsPages(t *testing.T) {
	f := setupTestFixture(t)
	u := f.createUser(t, "ada", users.RoleUser)
	seedEntries(t, f, u.ID, 6)
	ctx := context.Background()

	first, err := f.query.ListEntries(ctx, audit.PageRequest{Page: 1, PageSize: 3})
	require.NoError(t, err)

	f.login(t, u.ID, "late-token")

	second, err := f.query.ListEntries(ctx, audit.PageRequest{Page: 2, PageSize: 3})
	require.NoError(t, err)
	require.EqualValues(t, 7, second.Total)
	require.Equal(t, first.Entries[2].ID, second.Entries[0].ID, "last entry of page 1 reappears on page 2")
}

// joinedRepo adds store-side join capability on top of the fake.
type joinedRepo struct {
	audit.Repo
	calls int
}

func (j *joinedRepo) ListJoined(ctx context.Context, offset, limit int) ([]*audit.EntryView, error) {
	j.calls++
	entries, err := j.List(ctx, offset, limit)
	if err != nil {
		return nil, err
	}
	views := make([]*audit.EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, audit.NewEntryView(e, nil))
	}
	return views, nil
}

func TestListEntries_PrefersStoreJoin(t *testing.T) {
	f := setupTestFixture(t)
	f.login(t, "user-a", testToken)

	repo := &joinedRepo{Repo: f.repo}
	q := audit.NewQueryService(repo, nil)

	res, err := q.ListEntries(context.Background(), audit.PageRequest{Page: 1, PageSize: 10})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	require.Equal(t, 1, repo.calls)
}

func TestParsePageRequest(t *testing.T) {
	req, err := audit.ParsePageRequest("", "", 20)
	require.NoError(t, err)
	require.Equal(t, audit.PageRequest{Page: 1, PageSize: 20}, req)
	offset, ok := req.Offset()
	require.True(t, ok)
	require.Equal(t, 0, offset)

	req, err = audit.ParsePageRequest("3", "25", 20)
	require.NoError(t, err)
	offset, ok = req.Offset()
	require.True(t, ok)
	require.Equal(t, 50, offset)

	_, ok = audit.PageRequest{Page: math.MaxInt, PageSize: 100}.Offset()
	require.False(t, ok)

	req, err = audit.ParsePageRequest("", "", 0)
	require.NoError(t, err)
	require.Equal(t, audit.DefaultPageSize, req.PageSize)

	_, err = audit.ParsePageRequest("two", "x", 20)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	require.Contains(t, err.Error(), "page must be an integer")
	require.Contains(t, err.Error(), "limit must be an integer")
}
