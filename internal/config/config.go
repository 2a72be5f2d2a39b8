// Package config loads Paper Distill settings from YAML with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	LogFile    string           `yaml:"log_file"`
	Arxiv      ArxivConfig      `yaml:"arxiv"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Generator  GeneratorConfig  `yaml:"generator"`
	Session    SessionConfig    `yaml:"session"`
	Server     ServerConfig     `yaml:"server"`
}

// ArxivConfig controls search and full-text acquisition.
type ArxivConfig struct {
	Endpoint        string        `yaml:"endpoint"`
	MaxResults      int           `yaml:"max_results"`
	Timeout         time.Duration `yaml:"timeout"`
	RequestInterval time.Duration `yaml:"request_interval"`
	CacheDir        string        `yaml:"cache_dir"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	UserAgent       string        `yaml:"user_agent"`
}

// SummarizerConfig selects the local abstract summarization backend.
type SummarizerConfig struct {
	Provider string        `yaml:"provider"`
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// GeneratorConfig selects the hosted generation backend used for paper
// summaries and questions.
type GeneratorConfig struct {
	Provider  string        `yaml:"provider"`
	Endpoint  string        `yaml:"endpoint"`
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	MaxTokens int           `yaml:"max_tokens"`
	Timeout   time.Duration `yaml:"timeout"`
}

// SessionConfig holds per-session limits.
type SessionConfig struct {
	MaxQuestionChars int           `yaml:"max_question_chars"`
	DefaultPercent   int           `yaml:"default_percent"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr joins host and port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads the config file at path, fills blanks from the environment and
// applies defaults. An empty path or a missing file yields defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	ApplyEnv(&cfg)
	ApplyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv fills fields left empty by the config file from environment variables.
func ApplyEnv(cfg *Config) {
	setIfEmpty(&cfg.Arxiv.CacheDir, os.Getenv("PAPERDISTILL_CACHE_DIR"))

	switch normalizeProvider(cfg.Summarizer.Provider, DefaultSummarizerProvider) {
	case ProviderHuggingFace:
		setIfEmpty(&cfg.Summarizer.APIKey, os.Getenv("HF_API_TOKEN"))
		setIfEmpty(&cfg.Summarizer.Endpoint, os.Getenv("HF_SUMMARIZER_URL"))
	case ProviderOllama:
		setIfEmpty(&cfg.Summarizer.Endpoint, strings.TrimRight(os.Getenv("OLLAMA_HOST"), "/"))
		setIfEmpty(&cfg.Summarizer.Model, os.Getenv("OLLAMA_MODEL"))
	}

	switch normalizeProvider(cfg.Generator.Provider, DefaultGeneratorProvider) {
	case ProviderAnthropic:
		setIfEmpty(&cfg.Generator.APIKey, os.Getenv("ANTHROPIC_API_KEY"))
	case ProviderOpenAI:
		setIfEmpty(&cfg.Generator.APIKey, os.Getenv("OPENAI_API_KEY"))
		setIfEmpty(&cfg.Generator.Endpoint, os.Getenv("OPENAI_BASE_URL"))
	case ProviderOllama:
		setIfEmpty(&cfg.Generator.Endpoint, strings.TrimRight(os.Getenv("OLLAMA_HOST"), "/"))
		setIfEmpty(&cfg.Generator.Model, os.Getenv("OLLAMA_MODEL"))
	}
}

// Validate rejects unknown providers and non-positive limits.
func (c *Config) Validate() error {
	switch c.Summarizer.Provider {
	case ProviderHuggingFace, ProviderOllama:
	default:
		return fmt.Errorf("unknown summarizer provider %q", c.Summarizer.Provider)
	}
	switch c.Generator.Provider {
	case ProviderAnthropic, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unknown generator provider %q", c.Generator.Provider)
	}
	if c.Arxiv.MaxResults <= 0 {
		return fmt.Errorf("arxiv.max_results must be positive, got %d", c.Arxiv.MaxResults)
	}
	if c.Session.MaxQuestionChars <= 0 {
		return fmt.Errorf("session.max_question_chars must be positive, got %d", c.Session.MaxQuestionChars)
	}
	if c.Session.DefaultPercent < 1 || c.Session.DefaultPercent > 100 {
		return fmt.Errorf("session.default_percent must be within [1,100], got %d", c.Session.DefaultPercent)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

func setIfEmpty(field *string, value string) {
	if *field == "" && value != "" {
		*field = value
	}
}

func normalizeProvider(raw, fallback string) string {
	p := strings.ToLower(strings.TrimSpace(raw))
	p = strings.ReplaceAll(p, "_", "-")
	if p == "" {
		return fallback
	}
	return p
}
