package repos

import (
	"context"
	"time"
)

// RateLimitRepository stores per-identity request counters durably so the
// limit holds across service instances.
type RateLimitRepository interface {
	// Increment atomically increments the counter for key and returns the new
	// count together with the start of the current window. If the stored
	// window started more than window before now, the counter is reset to 1
	// and a new window begins at now. Reset and increment happen in a single
	// conditional statement.
	Increment(ctx context.Context, key string, now time.Time, window time.Duration) (count int, windowStart time.Time, err error)
}
