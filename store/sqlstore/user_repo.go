package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	apperrors "github.com/jrsteele09/go-session-audit/internal/errors"
	"github.com/jrsteele09/go-session-audit/users"
)

var _ users.UserRepo = (*UserRepo)(nil)

type UserRepo struct {
	db *sqlx.DB
}

type userRow struct {
	ID           string    `db:"id"`
	FullName     string    `db:"full_name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

func (r userRow) toUser() *users.User {
	return &users.User{
		ID:           r.ID,
		FullName:     r.FullName,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         users.RoleType(r.Role),
		CreatedAt:    r.CreatedAt.UTC(),
	}
}

const userColumns = `id, full_name, email, password_hash, role, created_at`

func (ur *UserRepo) Create(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.CreatedAt = user.CreatedAt.UTC().Truncate(time.Microsecond)
	user.Email = users.NormaliseEmail(user.Email)

	query := ur.db.Rebind(`INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?)`)
	_, err := ur.db.ExecContext(ctx, query,
		user.ID, user.FullName, user.Email, user.PasswordHash, string(user.Role), user.CreatedAt)
	if isUniqueViolation(err) {
		return apperrors.ErrUserExists
	}
	return err
}

func (ur *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := ur.db.ExecContext(ctx, ur.db.Rebind(`DELETE FROM users WHERE id = ?`), id)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (ur *UserRepo) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	return ur.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, users.NormaliseEmail(email))
}

func (ur *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	return ur.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (ur *UserRepo) getOne(ctx context.Context, query string, arg any) (*users.User, error) {
	var row userRow
	err := ur.db.GetContext(ctx, &row, ur.db.Rebind(query), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toUser(), nil
}

func (ur *UserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*users.User, error) {
	found := make(map[string]*users.User, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	var rows []userRow
	if err := ur.db.SelectContext(ctx, &rows, ur.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	for _, row := range rows {
		found[row.ID] = row.toUser()
	}
	return found, nil
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
