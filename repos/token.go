package repos

import (
	"context"
	"time"
)

type TokenCategory string

var (
	TokenVerifyEmail   TokenCategory = "verify-email"
	TokenResetPassword TokenCategory = "reset-password"
	TokenChangeEmail   TokenCategory = "change-email"
)

// TokenModel is a pending proof-of-possession token. The token value itself is
// never stored, only its hash. Data carries category specific payload, e.g. the
// pending new address for change-email tokens.
type TokenModel struct {
	CreatedAt time.Time
	Category  TokenCategory
	Key       string
	ValueHash []byte
	Data      string
	Expires   time.Time
}

type TokenRepository interface {
	// Create replaces any existing token with the same category and key in a
	// single atomic statement, so at most one token per (category, key) exists
	// at any point in time.
	Create(ctx context.Context, category TokenCategory, key string, valueHash []byte, data string, lifetime time.Duration) (*TokenModel, error)
	// Find returns the token for (category, key) even if it is already
	// expired. Deciding between 'expired' and 'not found' is up to the caller.
	Find(ctx context.Context, category TokenCategory, key string) (*TokenModel, error)
	FindByValue(ctx context.Context, category TokenCategory, valueHash []byte) (*TokenModel, error)
	Delete(ctx context.Context, category TokenCategory, key string) error
}
