package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearProviderEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PAPERDISTILL_CACHE_DIR", "HF_API_TOKEN", "HF_SUMMARIZER_URL", "OLLAMA_HOST",
		"OLLAMA_MODEL", "ANTHROPIC_API_KEY", "OPENAI_API_KEY", "OPENAI_BASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	clearProviderEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
debug: true
arxiv:
  max_results: 25
  request_interval: 5s
summarizer:
  provider: ollama
  model: llama3
generator:
  provider: anthropic
  api_key: from-file
server:
  port: 9000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 25, cfg.Arxiv.MaxResults)
	assert.Equal(t, 5*time.Second, cfg.Arxiv.RequestInterval)
	assert.Equal(t, ProviderOllama, cfg.Summarizer.Provider)
	assert.Equal(t, DefaultOllamaEndpoint, cfg.Summarizer.Endpoint)
	assert.Equal(t, "llama3", cfg.Summarizer.Model)
	assert.Equal(t, DefaultAnthropicModel, cfg.Generator.Model)
	assert.Equal(t, "from-file", cfg.Generator.APIKey)
	assert.Equal(t, "localhost:9000", cfg.Server.Addr())
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearProviderEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Arxiv.MaxResults)
	assert.Equal(t, 3*time.Second, cfg.Arxiv.RequestInterval)
	assert.Equal(t, ProviderHuggingFace, cfg.Summarizer.Provider)
	assert.Equal(t, DefaultHuggingFaceEndpoint, cfg.Summarizer.Endpoint)
	assert.Equal(t, ProviderOpenAI, cfg.Generator.Provider)
	assert.Equal(t, 500, cfg.Session.MaxQuestionChars)
	assert.Equal(t, 20, cfg.Session.DefaultPercent)
}

func TestLoadEnvironmentFillsBlanks(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/")
	t.Setenv("HF_API_TOKEN", "hf-env")
	t.Setenv("PAPERDISTILL_CACHE_DIR", "/tmp/pd-cache")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-env", cfg.Generator.APIKey)
	assert.Equal(t, "https://generativelanguage.googleapis.com/v1beta/openai/", cfg.Generator.Endpoint)
	assert.Equal(t, "hf-env", cfg.Summarizer.APIKey)
	assert.Equal(t, "/tmp/pd-cache", cfg.Arxiv.CacheDir)
}

func TestLoadFileBeatsEnvironment(t *testing.T) {
	clearProviderEnv(t)
	t.Setenv("OLLAMA_HOST", "http://gpu-box:11434/")
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("summarizer:\n  provider: ollama\n  model: from-file\n"), 0o600))
	t.Setenv("OLLAMA_MODEL", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Summarizer.Endpoint)
	assert.Equal(t, "from-file", cfg.Summarizer.Model)
}

func TestLoadRejectsInvalid(t *testing.T) {
	clearProviderEnv(t)
	tests := map[string]string{
		"summarizer provider": "summarizer:\n  provider: gpt-local\n",
		"generator provider":  "generator:\n  provider: bard\n",
		"percent":             "session:\n  default_percent: 150\n",
		"port":                "server:\n  port: 70000\n",
		"yaml":                "arxiv: [unterminated\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestApplyDefaultsNormalizesProvider(t *testing.T) {
	cfg := &Config{Generator: GeneratorConfig{Provider: " Anthropic "}}
	ApplyDefaults(cfg)
	assert.Equal(t, ProviderAnthropic, cfg.Generator.Provider)
	assert.Equal(t, 4096, cfg.Generator.MaxTokens)
	assert.Equal(t, 8080, cfg.Server.Port)
}
