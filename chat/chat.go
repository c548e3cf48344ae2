// Package chat provides the chat client interface steps depend on.
//
// It exists so that the workflow steps can accept any chat backend without
// importing the concrete multi-provider client.
// The [github.com/spetersoncode/chartflow/client.Client] type implements it.
package chat

import (
	"context"

	ai "github.com/spetersoncode/chartflow"
)

// Client sends a conversation and returns a complete response.
type Client interface {
	Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error)

// Chat calls f.
func (f ClientFunc) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	return f(ctx, messages, opts...)
}
