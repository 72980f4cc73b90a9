package audit

import (
	"context"
	"time"
)

// Repo is the Audit Record Store. Implementations report missing records with
// errors.ErrNotFound and every other failure as a plain error.
type Repo interface {
	// Insert persists e and assigns e.ID.
	Insert(ctx context.Context, e *Entry) error

	// CloseLatestOpen atomically finds the entry with the newest LoginTime matching
	// subjectID and token whose LogoutTime is nil, sets LogoutTime to at and returns
	// the updated entry. Only that one record is modified. Returns ErrNotFound when no
	// open entry matches.
	CloseLatestOpen(ctx context.Context, subjectID, token string, at time.Time) (*Entry, error)

	// List returns entries ordered by LoginTime descending, then ID descending.
	List(ctx context.Context, offset, limit int) ([]*Entry, error)

	// Count returns the number of stored entries. It may be an estimate.
	Count(ctx context.Context) (int64, error)

	// Delete removes exactly one entry. Returns ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error
}

// JoinedLister is implemented by stores that can join entries with identities
// themselves, such as a SQL LEFT JOIN or a Mongo $lookup. The join must be an outer
// join: entries whose identity is gone are returned with nil FullName and Role.
type JoinedLister interface {
	ListJoined(ctx context.Context, offset, limit int) ([]*EntryView, error)
}
