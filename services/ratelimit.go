package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/juho05/paw-id/repos"
)

const (
	rateLimitWindow      = 15 * time.Minute
	rateLimitMaxAttempts = 3
)

// RateLimitService throttles email-keyed operations such as password reset
// requests. Attempts are recorded durably so the limit survives restarts.
type RateLimitService interface {
	// CheckAndRecord counts an attempt for email and returns a
	// RateLimitedError if the attempt exceeds the allowance for the
	// current window. The attempt is recorded either way.
	CheckAndRecord(ctx context.Context, email string) error
}

type rateLimitService struct {
	rateLimitRepo repos.RateLimitRepository
	window        time.Duration
	maxAttempts   int
	now           func() time.Time
}

func NewRateLimitService(rateLimitRepo repos.RateLimitRepository) RateLimitService {
	return &rateLimitService{
		rateLimitRepo: rateLimitRepo,
		window:        rateLimitWindow,
		maxAttempts:   rateLimitMaxAttempts,
		now:           time.Now,
	}
}

func (r *rateLimitService) CheckAndRecord(ctx context.Context, email string) error {
	now := r.now()
	count, windowStart, err := r.rateLimitRepo.Increment(ctx, strings.ToLower(email), now, r.window)
	if err != nil {
		return fmt.Errorf("record rate limit attempt: %w", err)
	}
	if count > r.maxAttempts {
		retryAfter := windowStart.Add(r.window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		return RateLimitedError{RetryAfter: retryAfter}
	}
	return nil
}
