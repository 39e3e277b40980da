package repos

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

type UserModel struct {
	ID             ulid.ULID
	CreatedAt      time.Time
	Name           string
	Email          string
	EmailConfirmed bool
	PasswordHash   []byte
	Admin          bool
}

type UserRepository interface {
	Find(ctx context.Context, id ulid.ULID) (*UserModel, error)
	FindByEmail(ctx context.Context, email string) (*UserModel, error)
	GetPasswordHash(ctx context.Context, userID ulid.ULID) ([]byte, error)
	Create(ctx context.Context, name, email string, passwordHash []byte) (*UserModel, error)
	UpdateEmailConfirmed(ctx context.Context, id ulid.ULID, confirmed bool) error
	// UpdateEmail sets a new address and marks it confirmed in the same statement.
	UpdateEmail(ctx context.Context, id ulid.ULID, email string) error
	UpdatePassword(ctx context.Context, id ulid.ULID, passwordHash []byte) error
	UpdateAdminStatus(ctx context.Context, id ulid.ULID, admin bool) error
	Delete(ctx context.Context, id ulid.ULID) error
}
