package retry

import "time"

// EventType names a point in the retry loop. The client forwards these to
// its own event stream as EventRetry entries.
type EventType string

const (
	// EventAttemptStart is sent before every call to the provider.
	EventAttemptStart EventType = "attempt_start"

	// EventAttemptFailed is sent when a call fails, carrying the error and
	// whether it was judged transient.
	EventAttemptFailed EventType = "attempt_failed"

	// EventRetrying is sent just before the backoff sleep. Metrics count
	// these as provider retries.
	EventRetrying EventType = "retrying"

	// EventSuccess is sent once, for the attempt that succeeded.
	EventSuccess EventType = "success"

	// EventExhausted is sent when the last allowed attempt has failed.
	EventExhausted EventType = "exhausted"
)

// Event is one observation from DoWithEvents.
type Event struct {
	Type EventType

	// Attempt counts from 1.
	Attempt int

	// MaxAttempts is Config.MaxAttempts after defaults are applied.
	MaxAttempts int

	// Error is set on EventAttemptFailed and EventExhausted.
	Error error

	// Delay is the backoff about to be slept, including any Retry-After
	// hint. Only set on EventRetrying.
	Delay time.Duration

	// Retryable is false when the failure was permanent or a user input
	// error, which ends the loop early.
	Retryable bool

	Timestamp time.Time
}

// emit stamps event and hands it to ch, dropping it when ch is nil or full.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
	}
}
