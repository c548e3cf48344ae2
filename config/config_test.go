package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/chartflow"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv(envMap(nil))

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "llm_config.yaml", cfg.ModelConfigPath)
	assert.Equal(t, "gpt-mini", cfg.ClassifierKey)
	assert.Empty(t, cfg.SearchKey)
	assert.Equal(t, "prompts", cfg.PromptsDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Empty(t, cfg.HistoryPath)
	assert.Equal(t, 100, cfg.HistorySize)
}

func TestFromEnvOverrides(t *testing.T) {
	cfg := FromEnv(envMap(map[string]string{
		EnvProvider:        "anthropic",
		EnvClassifierModel: "haiku",
		EnvTimeout:         "45",
		EnvAnthropicKey:    "sk-ant",
		EnvHistoryFile:     "runs.json",
		EnvHistorySize:     "abc",
	}))

	assert.Equal(t, "runs.json", cfg.HistoryPath)
	assert.Equal(t, 100, cfg.HistorySize)

	assert.Equal(t, "anthropic", cfg.Provider)
	assert.Equal(t, "haiku", cfg.ClassifierKey)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.Equal(t, "sk-ant", cfg.APIKey(ai.ProviderAnthropic))
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"openai ok", map[string]string{EnvOpenAIKey: "k"}, ""},
		{"missing key", nil, "OPENAI_API_KEY is required"},
		{"google missing key", map[string]string{EnvProvider: "google", EnvOpenAIKey: "k"}, "GOOGLE_API_KEY is required"},
		{"unknown provider", map[string]string{EnvProvider: "mistral"}, "unknown provider"},
		{"bad timeout", map[string]string{EnvOpenAIKey: "k", EnvTimeout: "-5s"}, "must be positive"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromEnv(envMap(tt.env)).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	err := FromEnv(envMap(map[string]string{EnvProvider: "vertex"})).Validate()
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

const modelsYAML = `
openai:
  model_id: gpt-4.1
  model_kwargs:
    temperature: 0
    max_tokens: "512"
    top_p: 0.9
gpt-mini:
  model_id: gpt-4.1-mini
claude:
  model_id: claude-haiku-4-5
custom:
  model_id: my-finetune
  provider: openai
broken:
  model_kwargs:
    temperature: 1
`

func TestResolve(t *testing.T) {
	models, err := ParseModels("llm_config.yaml", []byte(modelsYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"broken", "claude", "custom", "gpt-mini", "openai"}, models.Keys())

	t.Run("provider from key", func(t *testing.T) {
		spec, err := models.Resolve("openai")
		require.NoError(t, err)
		assert.Equal(t, "gpt-4.1", spec.Model.String())
		assert.Equal(t, ai.ProviderOpenAI, spec.Model.Provider())
		require.NotNil(t, spec.Params.Temperature)
		assert.Equal(t, 0.0, *spec.Params.Temperature)
		assert.Equal(t, 512, spec.Params.MaxTokens)

		o := ai.ApplyOptions(spec.Options()...)
		assert.Equal(t, "gpt-4.1", o.Model.String())
		assert.Equal(t, 512, o.MaxTokens)
		require.NotNil(t, o.Temperature)
	})

	t.Run("provider from model id", func(t *testing.T) {
		spec, err := models.Resolve("claude")
		require.NoError(t, err)
		assert.Equal(t, ai.ProviderAnthropic, spec.Model.Provider())
		assert.Nil(t, spec.Params.Temperature)
		assert.Len(t, spec.Options(), 1)
	})

	t.Run("explicit provider", func(t *testing.T) {
		spec, err := models.Resolve("custom")
		require.NoError(t, err)
		assert.Equal(t, ai.ProviderOpenAI, spec.Model.Provider())
	})

	t.Run("missing entry", func(t *testing.T) {
		_, err := models.Resolve("anthropic")
		var ce *ConfigError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "anthropic", ce.Key)
		assert.ErrorIs(t, err, ErrModelNotFound)
	})

	t.Run("missing model id", func(t *testing.T) {
		_, err := models.Resolve("broken")
		assert.ErrorContains(t, err, "model_id is required")
	})

	t.Run("classifier falls back", func(t *testing.T) {
		spec, err := models.ResolveOr("gpt-nano", "openai")
		require.NoError(t, err)
		assert.Equal(t, "openai", spec.Key)

		spec, err = models.ResolveOr("gpt-mini", "openai")
		require.NoError(t, err)
		assert.Equal(t, "gpt-4.1-mini", spec.Model.String())
	})
}

func TestParseModelsEmpty(t *testing.T) {
	for name, data := range map[string]string{
		"empty":   "",
		"comment": "# nothing here\n",
		"scalar":  "just a string",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseModels("llm_config.yaml", []byte(data))
			var ce *ConfigError
			require.True(t, errors.As(err, &ce))
			assert.ErrorIs(t, err, ErrEmptyModelConfig)
		})
	}
}

func TestLoadModels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "llm_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(modelsYAML), 0o600))

	models, err := LoadModels(path)
	require.NoError(t, err)
	_, err = models.Resolve("gpt-mini")
	assert.NoError(t, err)

	_, err = LoadModels(filepath.Join(t.TempDir(), "missing.yaml"))
	var ce *ConfigError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRepositoryModelConfig(t *testing.T) {
	models, err := LoadModels(filepath.Join("..", "llm_config.yaml"))
	require.NoError(t, err)
	for _, key := range []string{"openai", "anthropic", "google", "gpt-mini"} {
		_, err := models.Resolve(key)
		assert.NoError(t, err, key)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	t.Setenv(EnvProvider, "google")
	t.Setenv(EnvGoogleKey, "")
	t.Setenv(EnvOpenAIKey, "")

	_, err := Load()
	require.Error(t, err)

	cfg, err := Load(func(c *Config) { c.GoogleKey = "g-key" })
	require.NoError(t, err)
	assert.Equal(t, "google", cfg.Provider)
	assert.Equal(t, "g-key", cfg.APIKey(ai.ProviderGoogle))
}
