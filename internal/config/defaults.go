package config

import "time"

const (
	ProviderHuggingFace = "huggingface"
	ProviderOllama      = "ollama"
	ProviderAnthropic   = "anthropic"
	ProviderOpenAI      = "openai"

	DefaultSummarizerProvider = ProviderHuggingFace
	DefaultGeneratorProvider  = ProviderOpenAI

	DefaultHuggingFaceEndpoint = "https://api-inference.huggingface.co/models/sshleifer/distilbart-cnn-12-6"
	DefaultOllamaEndpoint      = "http://localhost:11434"
	DefaultOllamaModel         = "ministral-3:latest"
	DefaultAnthropicModel      = "claude-sonnet-4-5-20250929"
	DefaultOpenAIModel         = "gpt-4o-mini"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Arxiv.Endpoint == "" {
		cfg.Arxiv.Endpoint = "https://export.arxiv.org/api/query"
	}
	if cfg.Arxiv.MaxResults == 0 {
		cfg.Arxiv.MaxResults = 10
	}
	if cfg.Arxiv.Timeout == 0 {
		cfg.Arxiv.Timeout = 30 * time.Second
	}
	if cfg.Arxiv.RequestInterval == 0 {
		cfg.Arxiv.RequestInterval = 3 * time.Second
	}
	if cfg.Arxiv.CacheTTL == 0 {
		cfg.Arxiv.CacheTTL = 24 * time.Hour
	}
	if cfg.Arxiv.UserAgent == "" {
		cfg.Arxiv.UserAgent = "paperdistill/1.0"
	}

	cfg.Summarizer.Provider = normalizeProvider(cfg.Summarizer.Provider, DefaultSummarizerProvider)
	switch cfg.Summarizer.Provider {
	case ProviderHuggingFace:
		if cfg.Summarizer.Endpoint == "" {
			cfg.Summarizer.Endpoint = DefaultHuggingFaceEndpoint
		}
	case ProviderOllama:
		if cfg.Summarizer.Endpoint == "" {
			cfg.Summarizer.Endpoint = DefaultOllamaEndpoint
		}
		if cfg.Summarizer.Model == "" {
			cfg.Summarizer.Model = DefaultOllamaModel
		}
	}
	if cfg.Summarizer.Timeout == 0 {
		cfg.Summarizer.Timeout = 2 * time.Minute
	}

	cfg.Generator.Provider = normalizeProvider(cfg.Generator.Provider, DefaultGeneratorProvider)
	if cfg.Generator.Model == "" {
		switch cfg.Generator.Provider {
		case ProviderAnthropic:
			cfg.Generator.Model = DefaultAnthropicModel
		case ProviderOpenAI:
			cfg.Generator.Model = DefaultOpenAIModel
		case ProviderOllama:
			cfg.Generator.Model = DefaultOllamaModel
		}
	}
	if cfg.Generator.Provider == ProviderOllama && cfg.Generator.Endpoint == "" {
		cfg.Generator.Endpoint = DefaultOllamaEndpoint
	}
	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 4096
	}
	if cfg.Generator.Timeout == 0 {
		cfg.Generator.Timeout = 3 * time.Minute
	}

	if cfg.Session.MaxQuestionChars == 0 {
		cfg.Session.MaxQuestionChars = 500
	}
	if cfg.Session.DefaultPercent == 0 {
		cfg.Session.DefaultPercent = 20
	}
	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = time.Hour
	}

	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
}
