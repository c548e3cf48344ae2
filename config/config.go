// Package config loads application settings from the environment and the
// model configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	ai "github.com/spetersoncode/chartflow"
)

// Environment variable names.
const (
	EnvProvider        = "LLM_PROVIDER"
	EnvModelConfig     = "CHARTFLOW_MODEL_CONFIG"
	EnvClassifierModel = "CHARTFLOW_CLASSIFIER_MODEL"
	EnvSearchModel     = "CHARTFLOW_SEARCH_MODEL"
	EnvPromptsDir      = "CHARTFLOW_PROMPTS_DIR"
	EnvLogLevel        = "CHARTFLOW_LOG_LEVEL"
	EnvTimeout         = "CHARTFLOW_TIMEOUT"
	EnvHTTPAddr        = "CHARTFLOW_HTTP_ADDR"
	EnvHistoryFile     = "CHARTFLOW_HISTORY_FILE"
	EnvHistorySize     = "CHARTFLOW_HISTORY_SIZE"
	EnvOpenAIKey       = "OPENAI_API_KEY"
	EnvAnthropicKey    = "ANTHROPIC_API_KEY"
	EnvGoogleKey       = "GOOGLE_API_KEY"
)

// ErrUnknownProvider indicates LLM_PROVIDER names no supported provider.
var ErrUnknownProvider = errors.New("config: unknown provider")

// Config holds the application configuration.
type Config struct {
	// Provider selects the chat model entry and the API key that must be set.
	Provider string

	// ModelConfigPath is the YAML model configuration file.
	ModelConfigPath string

	// ClassifierKey is the model entry used by the classification step.
	ClassifierKey string

	// SearchKey is the model entry used for web search. Empty means the
	// search model follows the chat model.
	SearchKey string

	PromptsDir string
	LogLevel   string // debug, info, warn, error

	// Timeout bounds one workflow run.
	Timeout time.Duration

	HTTPAddr string

	// HistoryPath persists finished runs as JSON. Empty keeps them in memory.
	HistoryPath string
	HistorySize int

	OpenAIKey    string
	AnthropicKey string
	GoogleKey    string
}

// Override adjusts a Config before validation, typically from flags.
type Override func(*Config)

// Load reads a .env file if present, then the environment, applies
// overrides and validates the result.
func Load(overrides ...Override) (*Config, error) {
	_ = godotenv.Load()

	cfg := FromEnv(os.Getenv)
	for _, o := range overrides {
		o(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv builds a Config from getenv without validating it.
func FromEnv(getenv func(string) string) *Config {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}
	return &Config{
		Provider:        env(EnvProvider, string(ai.ProviderOpenAI)),
		ModelConfigPath: env(EnvModelConfig, "llm_config.yaml"),
		ClassifierKey:   env(EnvClassifierModel, "gpt-mini"),
		SearchKey:       getenv(EnvSearchModel),
		PromptsDir:      env(EnvPromptsDir, "prompts"),
		LogLevel:        env(EnvLogLevel, "info"),
		Timeout:         durationOr(getenv(EnvTimeout), 2*time.Minute),
		HTTPAddr:        env(EnvHTTPAddr, ":8080"),
		HistoryPath:     getenv(EnvHistoryFile),
		HistorySize:     intOr(getenv(EnvHistorySize), 100),
		OpenAIKey:       getenv(EnvOpenAIKey),
		AnthropicKey:    getenv(EnvAnthropicKey),
		GoogleKey:       getenv(EnvGoogleKey),
	}
}

// Validate checks that the provider is known and its API key is present.
func (c *Config) Validate() error {
	p, ok := ai.ParseProvider(c.Provider)
	if !ok {
		return fmt.Errorf("%w: %q (must be openai, anthropic, or google)", ErrUnknownProvider, c.Provider)
	}
	if c.APIKey(p) == "" {
		return fmt.Errorf("config: %s is required for %s provider", keyEnv(p), p)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("config: %s must be positive", EnvTimeout)
	}
	return nil
}

// APIKey returns the configured key for p.
func (c *Config) APIKey(p ai.Provider) string {
	switch p {
	case ai.ProviderOpenAI:
		return c.OpenAIKey
	case ai.ProviderAnthropic:
		return c.AnthropicKey
	case ai.ProviderGoogle:
		return c.GoogleKey
	}
	return ""
}

func keyEnv(p ai.Provider) string {
	switch p {
	case ai.ProviderAnthropic:
		return EnvAnthropicKey
	case ai.ProviderGoogle:
		return EnvGoogleKey
	default:
		return EnvOpenAIKey
	}
}

func durationOr(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	// Bare numbers are seconds.
	if n, err := strconv.Atoi(value); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}

func intOr(value string, def int) int {
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return n
	}
	return def
}
