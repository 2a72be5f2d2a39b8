// Package llm talks to the summarization and generation backends.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/csheth/paperdistill/internal/config"
	"github.com/csheth/paperdistill/internal/metrics"
	"github.com/csheth/paperdistill/internal/resilience/circuitbreaker"
)

const defaultLLMHTTPTimeout = 3 * time.Minute

var (
	// ErrBackendUnavailable wraps every transport, API, timeout or open-breaker failure.
	ErrBackendUnavailable = errors.New("backend unavailable")
	// ErrEmptyInput is returned before any request when there is nothing to send.
	ErrEmptyInput = errors.New("text empty; nothing to send")
)

// Summarizer produces an abstractive summary within a token window.
type Summarizer interface {
	Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error)
	Name() string
}

// Generator follows an instruction over one or more content parts.
type Generator interface {
	Generate(ctx context.Context, instruction string, content []string) (string, error)
	Name() string
}

// Options carries shared collaborators for backend construction.
type Options struct {
	HTTPClient *http.Client
	Logger     *zap.Logger
	Recorder   metrics.Recorder
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) recorder() metrics.Recorder {
	if o.Recorder == nil {
		return metrics.Nop{}
	}
	return o.Recorder
}

// NewSummarizer builds the configured local summarizer behind a breaker and timeout.
func NewSummarizer(cfg config.SummarizerConfig, opts Options) (Summarizer, error) {
	httpClient := pickHTTPClient(opts.HTTPClient)
	var inner Summarizer
	switch cfg.Provider {
	case config.ProviderHuggingFace:
		inner = &huggingFaceClient{endpoint: cfg.Endpoint, token: cfg.APIKey, client: httpClient}
	case config.ProviderOllama:
		inner = &ollamaClient{host: cfg.Endpoint, model: cfg.Model, client: httpClient}
	default:
		return nil, fmt.Errorf("unknown summarizer provider %q", cfg.Provider)
	}
	g := newGuard(inner.Name(), cfg.Timeout, circuitbreaker.LocalModelConfig(cfg.Provider+"-summarizer"), opts)
	return &guardedSummarizer{inner: inner, guard: g}, nil
}

// NewGenerator builds the configured hosted generator behind a breaker and timeout.
// Hosted providers require an API key.
func NewGenerator(cfg config.GeneratorConfig, opts Options) (Generator, error) {
	httpClient := pickHTTPClient(opts.HTTPClient)
	var inner Generator
	switch cfg.Provider {
	case config.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY not set")
		}
		inner = newAnthropicClient(cfg, httpClient)
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("OPENAI_API_KEY not set")
		}
		inner = newOpenAIClient(cfg, httpClient)
	case config.ProviderOllama:
		inner = &ollamaClient{host: cfg.Endpoint, model: cfg.Model, client: httpClient}
	default:
		return nil, fmt.Errorf("unknown generator provider %q", cfg.Provider)
	}
	g := newGuard(inner.Name(), cfg.Timeout, circuitbreaker.DefaultConfig(cfg.Provider+"-generator"), opts)
	return &guardedGenerator{inner: inner, guard: g}, nil
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Local models often need more than a minute; per-call contexts still bound each request.
	return &http.Client{Timeout: defaultLLMHTTPTimeout}
}
