package client

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/internal/provider/anthropic"
	"github.com/spetersoncode/chartflow/internal/provider/google"
	"github.com/spetersoncode/chartflow/internal/provider/openai"
	"github.com/spetersoncode/chartflow/internal/retry"
)

// Feature represents a capability that a provider may support.
type Feature string

const (
	FeatureChat      Feature = "chat"
	FeatureWebSearch Feature = "web_search"
)

// providerCapabilities defines which features each provider supports.
var providerCapabilities = map[ai.Provider]map[Feature]bool{
	ai.ProviderAnthropic: {FeatureChat: true, FeatureWebSearch: false},
	ai.ProviderOpenAI:    {FeatureChat: true, FeatureWebSearch: true},
	ai.ProviderGoogle:    {FeatureChat: true, FeatureWebSearch: true},
}

// SupportsFeature reports whether provider offers feature.
func SupportsFeature(provider ai.Provider, feature Feature) bool {
	return providerCapabilities[provider][feature]
}

// APIKeys holds API keys for different providers.
// Only configure keys for providers you intend to use.
type APIKeys struct {
	Anthropic string
	OpenAI    string
	Google    string
}

// Defaults holds default models for each capability.
type Defaults struct {
	Chat ai.Model
	// Search is the model used by Search. Falls back to Chat when nil.
	Search ai.Model
}

// Config holds configuration for creating a unified client.
type Config struct {
	APIKeys  APIKeys
	Defaults Defaults

	// RetryConfig configures retry behavior for transient errors.
	// If nil, retry.DefaultConfig is used.
	RetryConfig *retry.Config

	// Events is an optional channel for receiving client operation events.
	// Events are sent non-blocking; if the channel is full, events are dropped.
	Events chan<- Event
}

// ErrFeatureNotSupported is returned when a feature is unavailable for the provider.
type ErrFeatureNotSupported struct {
	Provider string
	Feature  string
}

func (e *ErrFeatureNotSupported) Error() string {
	return fmt.Sprintf("%s provider does not support %s", e.Provider, e.Feature)
}

// ErrMissingAPIKey is returned when a model is used but no API key
// is configured for that model's provider.
type ErrMissingAPIKey struct {
	Provider string
	Model    string
}

func (e *ErrMissingAPIKey) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("no API key configured for %s (required by model %q)", e.Provider, e.Model)
	}
	return fmt.Sprintf("no API key configured for %s", e.Provider)
}

// ErrNoModel is returned when no model is specified and no default is configured.
type ErrNoModel struct {
	Operation string
}

func (e *ErrNoModel) Error() string {
	return fmt.Sprintf("no model specified for %s and no default configured", e.Operation)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultChatOptions sets default options for all requests.
// Per-request options override these defaults.
func WithDefaultChatOptions(opts ...ai.Option) ClientOption {
	return func(c *Client) {
		c.defaultOpts = append(c.defaultOpts, opts...)
	}
}

// WithProvider installs a ready-made backend for a provider, bypassing
// lazy SDK construction and the API key check.
func WithProvider(provider ai.Provider, backend ai.ChatProvider) ClientOption {
	return func(c *Client) {
		c.providers[provider] = backend
	}
}

// Client is a unified interface to all provider chat capabilities.
// Provider clients are lazily initialized when first needed.
type Client struct {
	apiKeys     APIKeys
	defaults    Defaults
	retryConfig retry.Config
	events      chan<- Event
	defaultOpts []ai.Option

	mu            sync.RWMutex
	providers     map[ai.Provider]ai.ChatProvider
	googleInitErr error
}

// New creates a unified client with the given configuration.
func New(cfg Config, opts ...ClientOption) *Client {
	retryConfig := retry.DefaultConfig()
	if cfg.RetryConfig != nil {
		retryConfig = *cfg.RetryConfig
	}

	c := &Client{
		apiKeys:     cfg.APIKeys,
		defaults:    cfg.Defaults,
		retryConfig: retryConfig,
		events:      cfg.Events,
		providers:   make(map[ai.Provider]ai.ChatProvider),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// provider returns the backend for p, constructing it on first use.
func (c *Client) provider(ctx context.Context, model ai.Model) (ai.ChatProvider, error) {
	p := model.Provider()

	c.mu.RLock()
	backend, ok := c.providers[p]
	c.mu.RUnlock()
	if ok {
		return backend, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if backend, ok := c.providers[p]; ok {
		return backend, nil
	}

	missing := &ErrMissingAPIKey{Provider: p.String(), Model: model.String()}
	switch p {
	case ai.ProviderAnthropic:
		if c.apiKeys.Anthropic == "" {
			return nil, missing
		}
		backend = anthropic.New(c.apiKeys.Anthropic)
	case ai.ProviderOpenAI:
		if c.apiKeys.OpenAI == "" {
			return nil, missing
		}
		backend = openai.New(c.apiKeys.OpenAI)
	case ai.ProviderGoogle:
		if c.googleInitErr != nil {
			return nil, c.googleInitErr
		}
		if c.apiKeys.Google == "" {
			return nil, missing
		}
		g, err := google.New(ctx, c.apiKeys.Google)
		if err != nil {
			c.googleInitErr = fmt.Errorf("failed to initialize Google client: %w", err)
			return nil, c.googleInitErr
		}
		backend = g
	default:
		return nil, fmt.Errorf("unsupported provider: %s", p)
	}

	c.providers[p] = backend
	return backend, nil
}

// Chat sends a conversation and returns a complete response.
// The model comes from ai.WithModel or the configured default chat model.
// Transient errors are retried according to the client's retry configuration.
func (c *Client) Chat(ctx context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	return c.do(ctx, "chat", c.defaults.Chat, messages, opts)
}

// Search answers query with search-enabled generation, returning the
// grounded text and its citations.
func (c *Client) Search(ctx context.Context, query string, opts ...ai.Option) (*ai.Response, error) {
	fallback := c.defaults.Search
	if fallback == nil {
		fallback = c.defaults.Chat
	}
	// opts belongs to the caller and may be shared between runs
	opts = append(slices.Clone(opts), ai.WithWebSearch())
	return c.do(ctx, "search", fallback, []ai.Message{{Role: ai.RoleUser, Content: query}}, opts)
}

func (c *Client) do(ctx context.Context, operation string, fallback ai.Model, messages []ai.Message, opts []ai.Option) (*ai.Response, error) {
	// Default options go first so per-request options override them
	opts = append(append([]ai.Option{}, c.defaultOpts...), opts...)
	options := ai.ApplyOptions(opts...)

	model := options.Model
	if model == nil {
		model = fallback
	}
	if model == nil {
		return nil, &ErrNoModel{Operation: operation}
	}
	if options.WebSearch && !SupportsFeature(model.Provider(), FeatureWebSearch) {
		return nil, &ErrFeatureNotSupported{Provider: model.Provider().String(), Feature: string(FeatureWebSearch)}
	}

	backend, err := c.provider(ctx, model)
	if err != nil {
		return nil, err
	}
	if options.Model == nil {
		opts = append(opts, ai.WithModel(model))
	}

	provider := model.Provider()
	start := time.Now()
	emit(c.events, Event{Type: EventRequestStart, Operation: operation, Provider: provider, Model: model.String()})

	var retryEvents chan retry.Event
	var forwarded chan struct{}
	if c.events != nil {
		retryEvents = make(chan retry.Event, 10)
		forwarded = make(chan struct{})
		go c.forwardRetryEvents(retryEvents, forwarded, operation, provider, model.String())
	}

	resp, err := retry.DoWithEvents(ctx, c.retryConfig, retryEvents, func() (*ai.Response, error) {
		return backend.Chat(ctx, messages, opts...)
	})

	if retryEvents != nil {
		close(retryEvents)
		<-forwarded
	}

	if err != nil {
		emit(c.events, Event{
			Type:      EventRequestError,
			Operation: operation,
			Provider:  provider,
			Model:     model.String(),
			Duration:  time.Since(start),
			Error:     err,
		})
		return nil, err
	}

	emit(c.events, Event{
		Type:      EventRequestComplete,
		Operation: operation,
		Provider:  provider,
		Model:     model.String(),
		Duration:  time.Since(start),
		Usage:     &resp.Usage,
	})
	return resp, nil
}

var _ ai.ChatProvider = (*Client)(nil)
