package model

import (
	"fmt"
	"strings"

	ai "github.com/spetersoncode/chartflow"
)

// ChatModel represents a chat/completion model from any provider.
type ChatModel struct {
	id       string
	provider ai.Provider
}

// New returns a model with an explicit provider.
func New(id string, provider ai.Provider) ChatModel {
	return ChatModel{id: id, provider: provider}
}

// String returns the API identifier for this model.
func (m ChatModel) String() string { return m.id }

// Provider returns which provider this model belongs to.
func (m ChatModel) Provider() ai.Provider { return m.provider }

// IsZero reports whether the model is unset.
func (m ChatModel) IsZero() bool { return m.id == "" }

var _ ai.Model = ChatModel{}

// Anthropic Claude models.
var (
	ClaudeSonnet45 = ChatModel{id: "claude-sonnet-4-5", provider: ai.ProviderAnthropic}
	ClaudeHaiku45  = ChatModel{id: "claude-haiku-4-5", provider: ai.ProviderAnthropic}
)

// OpenAI GPT models.
var (
	GPT41     = ChatModel{id: "gpt-4.1", provider: ai.ProviderOpenAI}
	GPT41Mini = ChatModel{id: "gpt-4.1-mini", provider: ai.ProviderOpenAI}
	GPT4o     = ChatModel{id: "gpt-4o", provider: ai.ProviderOpenAI}
	GPT4oMini = ChatModel{id: "gpt-4o-mini", provider: ai.ProviderOpenAI}
)

// Google Gemini models.
var (
	Gemini25Flash = ChatModel{id: "gemini-2.5-flash", provider: ai.ProviderGoogle}
	Gemini25Pro   = ChatModel{id: "gemini-2.5-pro", provider: ai.ProviderGoogle}
)

// Parse builds a model from an identifier, inferring the provider from
// well-known prefixes when provider is empty.
func Parse(id string, provider string) (ChatModel, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ChatModel{}, fmt.Errorf("model: empty model id")
	}
	if provider != "" {
		p, ok := ai.ParseProvider(provider)
		if !ok {
			return ChatModel{}, fmt.Errorf("model: unknown provider %q for %q", provider, id)
		}
		return New(id, p), nil
	}

	switch {
	case strings.HasPrefix(id, "claude"):
		return New(id, ai.ProviderAnthropic), nil
	case strings.HasPrefix(id, "gemini"):
		return New(id, ai.ProviderGoogle), nil
	case strings.HasPrefix(id, "gpt"), strings.HasPrefix(id, "o1"),
		strings.HasPrefix(id, "o3"), strings.HasPrefix(id, "o4"):
		return New(id, ai.ProviderOpenAI), nil
	}
	return ChatModel{}, fmt.Errorf("model: cannot infer provider for %q", id)
}
