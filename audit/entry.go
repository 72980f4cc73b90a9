// Package audit records the login/logout lifecycle of issued tokens and serves the
// administrative view over that history.
//
// Entries are created by Manager.RecordLogin, closed once by Manager.RecordLogout and
// removed only through DeletionService. Consistency relies on the Repo's atomic
// single-record primitives; nothing in this package takes a lock.
package audit

import (
	"time"

	"github.com/jrsteele09/go-session-audit/users"
)

// Entry is one persisted session audit record.
type Entry struct {
	ID         string         `json:"id"`
	SubjectID  string         `json:"userId"`
	Role       users.RoleType `json:"sessionRole"` // role held at login, never re-resolved
	LoginTime  time.Time      `json:"loginTime"`
	LogoutTime *time.Time     `json:"logoutTime"` // nil while the session is open
	Token      string         `json:"token"`      // stored verbatim
	IPAddress  string         `json:"ipAddress"`
}

// IsOpen reports whether no logout has been recorded.
func (e *Entry) IsOpen() bool {
	return e.LogoutTime == nil
}

// EntryView is an Entry joined with the identity it references.
// FullName and Role are nil when the identity no longer exists.
type EntryView struct {
	Entry
	FullName *string         `json:"fullName"`
	Role     *users.RoleType `json:"role"`
}

// NewEntryView joins e with user, which may be nil.
func NewEntryView(e *Entry, user *users.User) *EntryView {
	v := &EntryView{Entry: *e}
	if user != nil {
		name := user.FullName
		role := user.Role
		v.FullName = &name
		v.Role = &role
	}
	return v
}
