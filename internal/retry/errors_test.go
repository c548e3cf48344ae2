package retry

import (
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"

	ai "github.com/spetersoncode/chartflow"
)

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"categorized transient", ai.NewTransientError("slow down", 429, nil), true},
		{"categorized permanent wins over message", ai.NewPermanentError("timeout in auth", 401, nil), false},
		{"status 429", statusErr(429), true},
		{"status 503", statusErr(503), true},
		{"status 400", statusErr(400), false},
		{"net timeout", fmt.Errorf("dial: %w", timeoutErr{}), true},
		{"connection reset errno", fmt.Errorf("read: %w", syscall.ECONNRESET), true},
		{"rate limit message", errors.New("Rate limit reached"), true},
		{"plain error", errors.New("invalid model"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
