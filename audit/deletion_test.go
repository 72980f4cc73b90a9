package audit_test

import (
	"context"
	"testing"

	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestDeleteEntry_ThenAgain(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	e := f.login(t, "user-a", testToken)

	require.NoError(t, f.deletion.DeleteEntry(ctx, e.ID))
	require.ErrorIs(t, f.deletion.DeleteEntry(ctx, e.ID), apperrors.ErrNotFound)

	_, ok := f.repo.Get(e.ID)
	require.False(t, ok)
}

func TestDeleteEntry_OnlyTarget(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	keep := f.login(t, "user-a", "keep")
	drop := f.login(t, "user-a", "drop")

	require.NoError(t, f.deletion.DeleteEntry(ctx, drop.ID))

	count, err := f.repo.Count(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)
	_, ok := f.repo.Get(keep.ID)
	require.True(t, ok)
}

func TestDeleteEntry_NoCascadeOnLifecycle(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	e := f.login(t, "user-a", testToken)

	require.NoError(t, f.deletion.DeleteEntry(ctx, e.ID))

	// logout of the deleted session is a quiet no-op
	_, err := f.manager.RecordLogout(ctx, "user-a", testToken)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	// and the subject can still log in and out
	next := f.login(t, "user-a", "T2")
	closed, err := f.manager.RecordLogout(ctx, "user-a", "T2")
	require.NoError(t, err)
	require.Equal(t, next.ID, closed.ID)
}

func TestDeleteEntry_Validation(t *testing.T) {
	f := setupTestFixture(t)
	require.ErrorIs(t, f.deletion.DeleteEntry(context.Background(), " "), apperrors.ErrValidation)
}
