package chartflow

// ResponseFormat selects the shape of the generated content.
type ResponseFormat string

const (
	// ResponseFormatText is free-form text (the provider default).
	ResponseFormatText ResponseFormat = "text"
	// ResponseFormatJSON asks the provider for a single JSON object.
	ResponseFormatJSON ResponseFormat = "json"
)

// Options contains configuration for a chat request.
type Options struct {
	Model          Model
	MaxTokens      int
	Temperature    *float64
	ResponseFormat ResponseFormat
	// WebSearch enables search-enabled generation on providers that support it.
	WebSearch bool
	// SystemPrompt is prepended as a system message when non-empty.
	SystemPrompt string
}

// Option is a functional option for configuring chat requests.
type Option func(*Options)

// WithModel sets the model to use for the request.
func WithModel(model Model) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithMaxTokens sets the maximum number of tokens to generate.
func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// WithTemperature sets the sampling temperature (0.0 to 2.0).
func WithTemperature(t float64) Option {
	return func(o *Options) {
		o.Temperature = &t
	}
}

// WithResponseFormat sets the response format.
func WithResponseFormat(f ResponseFormat) Option {
	return func(o *Options) {
		o.ResponseFormat = f
	}
}

// WithJSONMode is shorthand for WithResponseFormat(ResponseFormatJSON).
func WithJSONMode() Option {
	return WithResponseFormat(ResponseFormatJSON)
}

// WithWebSearch requests search-enabled generation.
func WithWebSearch() Option {
	return func(o *Options) {
		o.WebSearch = true
	}
}

// WithSystemPrompt prepends a system message to the conversation.
func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

// ApplyOptions applies functional options to an Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// PrependSystem returns messages with the configured system prompt in front.
// The input slice is never modified.
func (o *Options) PrependSystem(messages []Message) []Message {
	if o.SystemPrompt == "" {
		return messages
	}
	out := make([]Message, 0, len(messages)+1)
	out = append(out, Message{Role: RoleSystem, Content: o.SystemPrompt})
	return append(out, messages...)
}
