package query

import (
	"context"
	"time"

	"github.com/satchel-kb/satchel/internal/apperr"
)

// Status is the lifecycle state of a cache entry.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FetchFunc loads fresh data for a key. It is the only asynchronous
// boundary in the engine; everything downstream of it is synchronous.
type FetchFunc func(ctx context.Context) (any, error)

// RetryPolicy controls how many times a failed fetch is reattempted.
// Validation and authz failures are never retried regardless of Count:
// retrying cannot change a policy or client-side validation outcome.
type RetryPolicy struct {
	Count int
	Delay time.Duration
}

// Options tunes one subscription.
type Options struct {
	// Disabled suspends fetching until the subscription is enabled. The
	// subscription still receives cache updates triggered by others.
	Disabled bool

	// StaleTime is how long a result stays fresh. A subscription arriving
	// after the window triggers a background refetch while the stale data
	// remains visible. Zero means always fresh until invalidated.
	StaleTime time.Duration

	// Retry is applied to failed fetches for this subscription.
	Retry RetryPolicy

	// Placeholder supplies data shown while the first fetch is pending,
	// without flipping the status to error.
	Placeholder func() any
}

// Result is a snapshot of a cache entry as seen by one subscriber.
type Result struct {
	Key         Key
	Data        any
	Err         error
	Status      Status
	FetchedAt   time.Time
	Placeholder bool
	Stale       bool
}

// Loading reports whether the consumer has nothing to render yet: pending
// with neither real nor placeholder data.
func (r Result) Loading() bool {
	return r.Status == StatusPending && r.Data == nil
}

// fetchWithRetry runs fetch up to 1+retry.Count times, stopping early on
// context cancellation or a non-retryable error class.
func fetchWithRetry(ctx context.Context, fetch FetchFunc, retry RetryPolicy) (any, error) {
	attempts := retry.Count + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && retry.Delay > 0 {
			select {
			case <-time.After(retry.Delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		data, err := fetch(ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !apperr.Classify(err).Retryable() {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}
