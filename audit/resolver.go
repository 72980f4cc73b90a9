package audit

import (
	"context"

	"github.com/jrsteele09/go-session-audit/users"
)

// IdentityResolver joins a page of entries with display identities.
// It behaves as an outer join: every input entry appears in the output, in order.
type IdentityResolver interface {
	Resolve(ctx context.Context, entries []*Entry) ([]*EntryView, error)
}

// UserRepoResolver resolves identities with one batched lookup against the Identity Store.
type UserRepoResolver struct {
	users users.UserRepo
}

var _ IdentityResolver = (*UserRepoResolver)(nil)

func NewUserRepoResolver(repo users.UserRepo) *UserRepoResolver {
	return &UserRepoResolver{users: repo}
}

func (r *UserRepoResolver) Resolve(ctx context.Context, entries []*Entry) ([]*EntryView, error) {
	views := make([]*EntryView, 0, len(entries))
	if len(entries) == 0 {
		return views, nil
	}

	seen := make(map[string]struct{}, len(entries))
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.SubjectID]; ok {
			continue
		}
		seen[e.SubjectID] = struct{}{}
		ids = append(ids, e.SubjectID)
	}

	found, err := r.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, storeErr("UserRepoResolver.Resolve", err)
	}

	for _, e := range entries {
		views = append(views, NewEntryView(e, found[e.SubjectID]))
	}
	return views, nil
}
