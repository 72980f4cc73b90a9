package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jrsteele09/go-session-audit/audit"
	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/internal/utils"
	"github.com/jrsteele09/go-session-audit/users"
)

var (
	_ audit.Repo         = (*AuditRepo)(nil)
	_ audit.JoinedLister = (*AuditRepo)(nil)
)

type AuditRepo struct {
	db *sqlx.DB
}

type entryRow struct {
	ID         string       `db:"id"`
	SubjectID  string       `db:"subject_id"`
	Role       string       `db:"role"`
	LoginTime  time.Time    `db:"login_time"`
	LogoutTime sql.NullTime `db:"logout_time"`
	Token      string       `db:"token"`
	IPAddress  string       `db:"ip_address"`
}

func (r entryRow) toEntry() *audit.Entry {
	e := &audit.Entry{
		ID:        r.ID,
		SubjectID: r.SubjectID,
		Role:      users.RoleType(r.Role),
		LoginTime: r.LoginTime.UTC(),
		Token:     r.Token,
		IPAddress: r.IPAddress,
	}
	if r.LogoutTime.Valid {
		e.LogoutTime = utils.UTCPtr(&r.LogoutTime.Time)
	}
	return e
}

type joinedRow struct {
	entryRow
	FullName sql.NullString `db:"full_name"`
	UserRole sql.NullString `db:"user_role"`
}

func (r joinedRow) toView() *audit.EntryView {
	v := &audit.EntryView{Entry: *r.toEntry()}
	if r.FullName.Valid {
		v.FullName = utils.Ptr(r.FullName.String)
	}
	if r.UserRole.Valid {
		v.Role = utils.Ptr(users.RoleType(r.UserRole.String))
	}
	return v
}

const (
	entryColumns  = `id, subject_id, role, login_time, logout_time, token, ip_address`
	joinedColumns = `a.id, a.subject_id, a.role, a.login_time, a.logout_time, a.token, a.ip_address,
		u.full_name AS full_name, u.role AS user_role`
	entryOrder = `ORDER BY login_time DESC, id DESC`
)

func (ar *AuditRepo) Insert(ctx context.Context, e *audit.Entry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.LoginTime = e.LoginTime.UTC().Truncate(time.Microsecond)

	query := ar.db.Rebind(`INSERT INTO session_audit (` + entryColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := ar.db.ExecContext(ctx, query,
		e.ID, e.SubjectID, string(e.Role), e.LoginTime, nullTime(e.LogoutTime), e.Token, e.IPAddress)
	return err
}

// CloseLatestOpen is a single conditional UPDATE. The outer "logout_time IS NULL" is
// re-checked against the locked row, so a concurrent close of the same entry updates nothing.
func (ar *AuditRepo) CloseLatestOpen(ctx context.Context, subjectID, token string, at time.Time) (*audit.Entry, error) {
	tx, err := ar.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	update := tx.Rebind(`UPDATE session_audit SET logout_time = ?
		WHERE id = (
			SELECT id FROM session_audit
			WHERE subject_id = ? AND token = ? AND logout_time IS NULL
			ORDER BY login_time DESC, id DESC
			LIMIT 1
		) AND logout_time IS NULL
		RETURNING id`)

	var id string
	err = tx.GetContext(ctx, &id, update, at.UTC().Truncate(time.Microsecond), subjectID, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var row entryRow
	if err := tx.GetContext(ctx, &row, tx.Rebind(`SELECT `+entryColumns+` FROM session_audit WHERE id = ?`), id); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return row.toEntry(), nil
}

func (ar *AuditRepo) List(ctx context.Context, offset, limit int) ([]*audit.Entry, error) {
	if offset < 0 || limit <= 0 {
		return []*audit.Entry{}, nil
	}
	var rows []entryRow
	query := ar.db.Rebind(`SELECT ` + entryColumns + ` FROM session_audit ` + entryOrder + ` LIMIT ? OFFSET ?`)
	if err := ar.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, err
	}

	entries := make([]*audit.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}
	return entries, nil
}

// ListJoined is List with a LEFT JOIN on users, so entries of deleted identities are kept.
func (ar *AuditRepo) ListJoined(ctx context.Context, offset, limit int) ([]*audit.EntryView, error) {
	if offset < 0 || limit <= 0 {
		return []*audit.EntryView{}, nil
	}
	var rows []joinedRow
	query := ar.db.Rebind(`SELECT ` + joinedColumns + `
		FROM session_audit a
		LEFT JOIN users u ON u.id = a.subject_id
		ORDER BY a.login_time DESC, a.id DESC
		LIMIT ? OFFSET ?`)
	if err := ar.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, err
	}

	views := make([]*audit.EntryView, 0, len(rows))
	for _, row := range rows {
		views = append(views, row.toView())
	}
	return views, nil
}

func (ar *AuditRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := ar.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM session_audit`)
	return n, err
}

func (ar *AuditRepo) Delete(ctx context.Context, id string) error {
	res, err := ar.db.ExecContext(ctx, ar.db.Rebind(`DELETE FROM session_audit WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func nullTime(t *time.Time) sql.NullTime {
	return sql.NullTime{Time: utils.Value(t).UTC(), Valid: t != nil}
}
