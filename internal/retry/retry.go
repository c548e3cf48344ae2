package retry

import (
	"context"
	"time"

	ai "github.com/spetersoncode/chartflow"
)

// effectiveDelay honors the server's Retry-After when it exceeds the backoff delay.
func effectiveDelay(configured time.Duration, err error) time.Duration {
	if server := ai.RetryAfterOf(err); server > configured {
		return server
	}
	return configured
}

// Do calls fn until it succeeds, returns a non-transient error, or the
// attempts run out. Context cancellation during a backoff wait returns ctx.Err().
func Do[T any](ctx context.Context, cfg Config, fn func() (T, error)) (T, error) {
	return DoWithEvents(ctx, cfg, nil, fn)
}

// DoWithEvents is like Do but reports each attempt on events.
// Events are sent non-blocking; a nil channel disables them.
func DoWithEvents[T any](ctx context.Context, cfg Config, events chan<- Event, fn func() (T, error)) (T, error) {
	var zero T
	var lastErr error
	maxAttempts := cfg.attempts()

	for attempt := 0; attempt < maxAttempts; attempt++ {
		emit(events, Event{Type: EventAttemptStart, Attempt: attempt + 1, MaxAttempts: maxAttempts})

		result, err := fn()
		if err == nil {
			emit(events, Event{Type: EventSuccess, Attempt: attempt + 1, MaxAttempts: maxAttempts})
			return result, nil
		}

		lastErr = err
		retryable := IsTransient(err)
		emit(events, Event{
			Type:        EventAttemptFailed,
			Attempt:     attempt + 1,
			MaxAttempts: maxAttempts,
			Error:       err,
			Retryable:   retryable,
		})
		if !retryable {
			return zero, err
		}

		if attempt == maxAttempts-1 {
			break
		}

		delay := effectiveDelay(cfg.Delay(attempt), err)
		emit(events, Event{Type: EventRetrying, Attempt: attempt + 1, MaxAttempts: maxAttempts, Delay: delay})

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}

	emit(events, Event{Type: EventExhausted, Attempt: maxAttempts, MaxAttempts: maxAttempts, Error: lastErr})
	return zero, lastErr
}
