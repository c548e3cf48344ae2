package client

import (
	"time"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/internal/retry"
)

// EventType identifies the kind of event occurring during client operations.
type EventType string

const (
	// EventRequestStart fires before an API request begins.
	EventRequestStart EventType = "request_start"

	// EventRequestComplete fires after an API request completes successfully.
	EventRequestComplete EventType = "request_complete"

	// EventRequestError fires when an API request fails after all retries.
	EventRequestError EventType = "request_error"

	// EventRetry wraps an event forwarded from the retry loop.
	EventRetry EventType = "retry"
)

// Event represents an observable occurrence during client operations.
type Event struct {
	Type EventType

	// Operation is "chat" or "search".
	Operation string

	Provider ai.Provider
	Model    string

	// Duration is the elapsed time for completed or failed requests.
	Duration time.Duration

	Usage *ai.Usage
	Error error

	// RetryEvent contains the underlying retry event for EventRetry.
	RetryEvent *retry.Event

	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
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

// forwardRetryEvents relays retry events until in is closed.
func (c *Client) forwardRetryEvents(in <-chan retry.Event, done chan<- struct{}, operation string, provider ai.Provider, model string) {
	defer close(done)
	for re := range in {
		emit(c.events, Event{
			Type:       EventRetry,
			Operation:  operation,
			Provider:   provider,
			Model:      model,
			Error:      re.Error,
			RetryEvent: &re,
		})
	}
}
