package chartflow

// Provider identifies an AI provider.
type Provider string

// String returns the provider identifier.
func (p Provider) String() string { return string(p) }

// Supported providers.
const (
	ProviderAnthropic Provider = "anthropic"
	ProviderOpenAI    Provider = "openai"
	ProviderGoogle    Provider = "google"
)

// ParseProvider maps a provider name to a known Provider.
// The second return value is false for unknown names.
func ParseProvider(name string) (Provider, bool) {
	switch p := Provider(name); p {
	case ProviderAnthropic, ProviderOpenAI, ProviderGoogle:
		return p, true
	}
	return "", false
}
