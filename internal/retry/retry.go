// Package retry provides the bounded-retry-with-backoff wrapper used by
// every outbound call to the search index and the message queue.
package retry

import (
	"context"
	"errors"
	"time"
)

// Do invokes fn up to attempts times. After a failed attempt it waits
// baseDelay * 2^(attempt-1) before trying again, then surfaces the last
// error when all attempts are exhausted. There is no jitter; callers are
// few enough that synchronized retries have not been a problem.
//
// The wait is context-aware: cancellation aborts the backoff and returns
// the last error joined with the context error, so a notification whose
// processing is interrupted stays retryable from the top.
func Do(ctx context.Context, fn func(ctx context.Context) error, attempts int, baseDelay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	delay := baseDelay
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := fn(ctx); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == attempts {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return errors.Join(lastErr, ctx.Err())
		}
		delay *= 2
	}
	return lastErr
}
