package sqlite

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/juho05/paw-id/repos"
)

type userRepository struct {
	db *sqlx.DB
}

func (d *DB) NewUserRepository() repos.UserRepository {
	return &userRepository{
		db: d.db,
	}
}

type userRow struct {
	ID             string `db:"id"`
	CreatedAt      int64  `db:"created_at"`
	Name           string `db:"name"`
	Email          string `db:"email"`
	EmailConfirmed bool   `db:"email_confirmed"`
	PasswordHash   []byte `db:"password_hash"`
	Admin          bool   `db:"admin"`
}

func repoUser(row userRow) (*repos.UserModel, error) {
	id, err := ulid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	return &repos.UserModel{
		ID:             id,
		CreatedAt:      time.Unix(row.CreatedAt, 0),
		Name:           row.Name,
		Email:          row.Email,
		EmailConfirmed: row.EmailConfirmed,
		PasswordHash:   row.PasswordHash,
		Admin:          row.Admin,
	}, nil
}

func (u *userRepository) Find(ctx context.Context, id ulid.ULID) (*repos.UserModel, error) {
	var row userRow
	err := u.db.GetContext(ctx, &row, "SELECT * FROM users WHERE id = ?", id.String())
	if err != nil {
		return nil, repoErr("find user: %w", err)
	}
	return repoUser(row)
}

func (u *userRepository) FindByEmail(ctx context.Context, email string) (*repos.UserModel, error) {
	var row userRow
	err := u.db.GetContext(ctx, &row, "SELECT * FROM users WHERE email = ?", email)
	if err != nil {
		return nil, repoErr("find user by email: %w", err)
	}
	return repoUser(row)
}

func (u *userRepository) GetPasswordHash(ctx context.Context, userID ulid.ULID) ([]byte, error) {
	var hash []byte
	err := u.db.GetContext(ctx, &hash, "SELECT password_hash FROM users WHERE id = ?", userID.String())
	if err != nil {
		return nil, repoErr("get password hash: %w", err)
	}
	return hash, nil
}

func (u *userRepository) Create(ctx context.Context, name, email string, passwordHash []byte) (*repos.UserModel, error) {
	user := &repos.UserModel{
		ID:           ulid.MustNew(ulid.Now(), rand.Reader),
		CreatedAt:    time.Now(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	_, err := u.db.ExecContext(ctx, "INSERT INTO users (id, created_at, name, email, email_confirmed, password_hash, admin) VALUES (?, ?, ?, ?, ?, ?, ?)", user.ID.String(), user.CreatedAt.Unix(), user.Name, user.Email, user.EmailConfirmed, user.PasswordHash, user.Admin)
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE && strings.Contains(sqliteErr.Error(), "email") {
			err = repos.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (u *userRepository) UpdateEmailConfirmed(ctx context.Context, id ulid.ULID, confirmed bool) error {
	result, err := u.db.ExecContext(ctx, "UPDATE users SET email_confirmed = ? WHERE id = ?", confirmed, id.String())
	return repoErrResult("update email confirmed: %w", result, err)
}

func (u *userRepository) UpdateEmail(ctx context.Context, id ulid.ULID, email string) error {
	result, err := u.db.ExecContext(ctx, "UPDATE users SET email = ?, email_confirmed = 1 WHERE id = ?", email, id.String())
	if err != nil {
		var sqliteErr *sqlite.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE && strings.Contains(sqliteErr.Error(), "email") {
			err = repos.ErrDuplicateEmail
		}
		return fmt.Errorf("update email: %w", err)
	}
	return repoErrResult("update email: %w", result, nil)
}

func (u *userRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash []byte) error {
	result, err := u.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", passwordHash, id.String())
	return repoErrResult("update password: %w", result, err)
}

func (u *userRepository) UpdateAdminStatus(ctx context.Context, id ulid.ULID, admin bool) error {
	result, err := u.db.ExecContext(ctx, "UPDATE users SET admin = ? WHERE id = ?", admin, id.String())
	return repoErrResult("update admin status: %w", result, err)
}

func (u *userRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := u.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id.String())
	return repoErrResult("delete user: %w", result, err)
}
