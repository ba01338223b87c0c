// Package poll runs a status check at a fixed interval with a bounded number
// of attempts.
package poll

import (
	"context"
	"errors"
	"time"
)

const (
	DefaultInterval    = time.Second
	DefaultMaxAttempts = 120
)

// ErrTimeout is returned when the attempts run out before the check reports done.
var ErrTimeout = errors.New("poll: attempts exhausted")

// CheckFunc reports whether polling is finished. A non-nil error stops
// polling immediately and is returned to the caller.
type CheckFunc func(ctx context.Context, attempt int) (done bool, err error)

// Until calls check once right away and then every interval until it reports
// done, fails, the context ends, or maxAttempts calls have been made.
func Until(ctx context.Context, interval time.Duration, maxAttempts int, check CheckFunc) error {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for attempt := 1; ; attempt++ {
		done, err := check(ctx, attempt)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if attempt >= maxAttempts {
			return ErrTimeout
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
