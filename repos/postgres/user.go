package postgres

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/juho05/paw-id/repos"
)

type userRepository struct {
	db *pgxpool.Pool
}

func (d *DB) NewUserRepository() repos.UserRepository {
	return &userRepository{
		db: d.db,
	}
}

func scanUser(row interface{ Scan(...any) error }) (*repos.UserModel, error) {
	var user repos.UserModel
	var id string
	var createdAt int64
	err := row.Scan(&id, &createdAt, &user.Name, &user.Email, &user.EmailConfirmed, &user.PasswordHash, &user.Admin)
	if err != nil {
		return nil, err
	}
	user.ID, err = ulid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	user.CreatedAt = time.Unix(createdAt, 0)
	return &user, nil
}

func (u *userRepository) Find(ctx context.Context, id ulid.ULID) (*repos.UserModel, error) {
	row := u.db.QueryRow(ctx, "SELECT id, created_at, name, email, email_confirmed, password_hash, admin FROM users WHERE id = $1", id.String())
	user, err := scanUser(row)
	if err != nil {
		return nil, repoErr("find user: %w", err)
	}
	return user, nil
}

func (u *userRepository) FindByEmail(ctx context.Context, email string) (*repos.UserModel, error) {
	row := u.db.QueryRow(ctx, "SELECT id, created_at, name, email, email_confirmed, password_hash, admin FROM users WHERE email = $1", email)
	user, err := scanUser(row)
	if err != nil {
		return nil, repoErr("find user by email: %w", err)
	}
	return user, nil
}

func (u *userRepository) GetPasswordHash(ctx context.Context, userID ulid.ULID) ([]byte, error) {
	var hash []byte
	err := u.db.QueryRow(ctx, "SELECT password_hash FROM users WHERE id = $1", userID.String()).Scan(&hash)
	if err != nil {
		return nil, repoErr("get password hash: %w", err)
	}
	return hash, nil
}

func duplicateEmailErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && strings.Contains(pgErr.ConstraintName, "email") {
		return repos.ErrDuplicateEmail
	}
	return err
}

func (u *userRepository) Create(ctx context.Context, name, email string, passwordHash []byte) (*repos.UserModel, error) {
	user := &repos.UserModel{
		ID:           ulid.MustNew(ulid.Now(), rand.Reader),
		CreatedAt:    time.Now(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
	}
	_, err := u.db.Exec(ctx, "INSERT INTO users (id, created_at, name, email, email_confirmed, password_hash, admin) VALUES ($1, $2, $3, $4, $5, $6, $7)", user.ID.String(), user.CreatedAt.Unix(), user.Name, user.Email, user.EmailConfirmed, user.PasswordHash, user.Admin)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", duplicateEmailErr(err))
	}
	return user, nil
}

func (u *userRepository) UpdateEmailConfirmed(ctx context.Context, id ulid.ULID, confirmed bool) error {
	result, err := u.db.Exec(ctx, "UPDATE users SET email_confirmed = $1 WHERE id = $2", confirmed, id.String())
	return repoErrResult("update email confirmed: %w", result, err)
}

func (u *userRepository) UpdateEmail(ctx context.Context, id ulid.ULID, email string) error {
	result, err := u.db.Exec(ctx, "UPDATE users SET email = $1, email_confirmed = TRUE WHERE id = $2", email, id.String())
	if err != nil {
		return fmt.Errorf("update email: %w", duplicateEmailErr(err))
	}
	return repoErrResult("update email: %w", result, nil)
}

func (u *userRepository) UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash []byte) error {
	result, err := u.db.Exec(ctx, "UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, id.String())
	return repoErrResult("update password: %w", result, err)
}

func (u *userRepository) UpdateAdminStatus(ctx context.Context, id ulid.ULID, admin bool) error {
	result, err := u.db.Exec(ctx, "UPDATE users SET admin = $1 WHERE id = $2", admin, id.String())
	return repoErrResult("update admin status: %w", result, err)
}

func (u *userRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := u.db.Exec(ctx, "DELETE FROM users WHERE id = $1", id.String())
	return repoErrResult("delete user: %w", result, err)
}
