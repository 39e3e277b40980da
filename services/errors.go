package services

import (
	"errors"
	"time"
)

var (
	ErrInvalidCredentials = errors.New("invalid-credentials")

	// ErrInvalidToken covers both 'no such token' and 'value mismatch' so the
	// response does not reveal whether a pending token exists.
	ErrInvalidToken = errors.New("invalid-token")
	ErrTokenExpired = errors.New("token-expired")

	// ErrNotificationFailed reports that a token was issued and is valid but
	// the email carrying it could not be delivered.
	ErrNotificationFailed = errors.New("notification-failed")

	ErrInvalidCodeFormat  = errors.New("invalid-code-format")
	ErrCodeNotFound       = errors.New("code-not-found")
	ErrCodeAlreadyClaimed = errors.New("code-already-claimed")
	ErrCodeAlreadyOwned   = errors.New("code-already-owned")

	ErrInvalidBatchSize   = errors.New("invalid-batch-size")
	ErrCodeSpaceExhausted = errors.New("code-space-exhausted")
)

type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e RateLimitedError) Error() string {
	return "rate-limited"
}
