package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/model"
)

var (
	// ErrEmptyModelConfig indicates the model file has no entries.
	ErrEmptyModelConfig = errors.New("model config is empty or invalid")

	// ErrModelNotFound indicates a requested entry is missing.
	ErrModelNotFound = errors.New("model entry not found")
)

// ConfigError reports an unusable model configuration. It is fatal at
// startup.
type ConfigError struct {
	Path string
	Key  string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config: %s: entry %q: %v", e.Path, e.Key, e.Err)
	}
	return fmt.Sprintf("config: %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ModelEntry is one entry of the model configuration file.
//
//	openai:
//	  model_id: gpt-4.1
//	  model_kwargs:
//	    temperature: 0
type ModelEntry struct {
	ModelID     string         `yaml:"model_id"`
	Provider    string         `yaml:"provider"`
	ModelKwargs map[string]any `yaml:"model_kwargs"`
}

// Params are the generation parameters recognized in model_kwargs.
// Unrecognized keys are ignored.
type Params struct {
	Temperature *float64 `mapstructure:"temperature"`
	MaxTokens   int      `mapstructure:"max_tokens"`
}

// ModelSpec is a resolved entry.
type ModelSpec struct {
	Key    string
	Model  model.ChatModel
	Params Params
}

// Options converts the model entry into request options.
func (s ModelSpec) Options() []ai.Option {
	opts := []ai.Option{ai.WithModel(s.Model)}
	if s.Params.Temperature != nil {
		opts = append(opts, ai.WithTemperature(*s.Params.Temperature))
	}
	if s.Params.MaxTokens > 0 {
		opts = append(opts, ai.WithMaxTokens(s.Params.MaxTokens))
	}
	return opts
}

// Models is a parsed model configuration file.
type Models struct {
	path    string
	entries map[string]ModelEntry
}

// LoadModels reads and parses the YAML model configuration at path.
func LoadModels(path string) (*Models, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	return ParseModels(path, data)
}

// ParseModels parses YAML model configuration. path is used in errors.
func ParseModels(path string, data []byte) (*Models, error) {
	var entries map[string]ModelEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("%w: %v", ErrEmptyModelConfig, err)}
	}
	if len(entries) == 0 {
		return nil, &ConfigError{Path: path, Err: ErrEmptyModelConfig}
	}
	return &Models{path: path, entries: entries}, nil
}

// Keys returns the entry names in sorted order.
func (m *Models) Keys() []string {
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Resolve turns the named entry into a ModelSpec. The provider comes from
// the entry's provider field, then from the key when the key is a provider
// name, then from the model ID.
func (m *Models) Resolve(key string) (ModelSpec, error) {
	entry, ok := m.entries[key]
	if !ok {
		return ModelSpec{}, &ConfigError{Path: m.path, Key: key, Err: ErrModelNotFound}
	}
	if strings.TrimSpace(entry.ModelID) == "" {
		return ModelSpec{}, &ConfigError{Path: m.path, Key: key, Err: errors.New("model_id is required")}
	}

	provider := entry.Provider
	if provider == "" {
		if p, ok := ai.ParseProvider(key); ok {
			provider = string(p)
		}
	}
	cm, err := model.Parse(entry.ModelID, provider)
	if err != nil {
		return ModelSpec{}, &ConfigError{Path: m.path, Key: key, Err: err}
	}

	params, err := decodeParams(entry.ModelKwargs)
	if err != nil {
		return ModelSpec{}, &ConfigError{Path: m.path, Key: key, Err: err}
	}
	return ModelSpec{Key: key, Model: cm, Params: params}, nil
}

// ResolveOr resolves key, or fallback when key has no entry.
func (m *Models) ResolveOr(key, fallback string) (ModelSpec, error) {
	if _, ok := m.entries[key]; !ok {
		return m.Resolve(fallback)
	}
	return m.Resolve(key)
}

func decodeParams(kwargs map[string]any) (Params, error) {
	var p Params
	if len(kwargs) == 0 {
		return p, nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &p,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(kwargs); err != nil {
		return p, fmt.Errorf("model_kwargs: %w", err)
	}
	return p, nil
}
