package acquire

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy retries a failing call a fixed number of times with a fixed delay.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// Do calls fn until it succeeds or the attempts run out.
// It returns the number of attempts made and the last error.
// Cancellation of ctx stops waiting immediately.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) (int, error) {
	attempts := max(1, p.Attempts)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return attempt - 1, ctxErr
		}
		if err = fn(ctx); err == nil {
			return attempt, nil
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return attempt, ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return attempts, fmt.Errorf("failed after %d attempts: %w", attempts, err)
}
