package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/csheth/paperdistill/internal/metrics"
	"github.com/csheth/paperdistill/internal/resilience/circuitbreaker"
)

// guard applies a per-call timeout and a circuit breaker, records metrics and
// maps failures to ErrBackendUnavailable. It never retries.
type guard struct {
	backend  string
	timeout  time.Duration
	breaker  *circuitbreaker.CircuitBreaker
	logger   *zap.Logger
	recorder metrics.Recorder
}

func newGuard(backend string, timeout time.Duration, cb circuitbreaker.Config, opts Options) *guard {
	return &guard{
		backend:  backend,
		timeout:  timeout,
		breaker:  circuitbreaker.New(cb, opts.logger()),
		logger:   opts.logger(),
		recorder: opts.recorder(),
	}
}

func (g *guard) run(ctx context.Context, operation string, fn func(context.Context) (string, error)) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := g.breaker.Execute(func() (string, error) {
		return fn(ctx)
	})
	duration := time.Since(start)

	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		outcome = metrics.OutcomeCircuitOpen
	case errors.Is(err, context.DeadlineExceeded):
		outcome = metrics.OutcomeTimeout
	default:
		outcome = metrics.OutcomeError
	}
	g.recorder.ObserveBackend(g.backend, operation, outcome, duration)

	if err != nil {
		g.logger.Warn("backend call failed",
			zap.String("backend", g.backend),
			zap.String("operation", operation),
			zap.String("outcome", outcome),
			zap.Duration("duration", duration),
			zap.Error(err))
		return "", fmt.Errorf("%w: %s: %w", ErrBackendUnavailable, g.backend, err)
	}
	g.logger.Debug("backend call completed",
		zap.String("backend", g.backend),
		zap.String("operation", operation),
		zap.Duration("duration", duration),
		zap.Int("chars", len(out)))
	return out, nil
}

type guardedSummarizer struct {
	inner Summarizer
	guard *guard
}

func (s *guardedSummarizer) Name() string { return s.inner.Name() }

func (s *guardedSummarizer) Summarize(ctx context.Context, text string, minLength, maxLength int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyInput
	}
	return s.guard.run(ctx, "summarize", func(ctx context.Context) (string, error) {
		return s.inner.Summarize(ctx, text, minLength, maxLength)
	})
}

type guardedGenerator struct {
	inner Generator
	guard *guard
}

func (g *guardedGenerator) Name() string { return g.inner.Name() }

func (g *guardedGenerator) Generate(ctx context.Context, instruction string, content []string) (string, error) {
	if len(content) == 0 || strings.TrimSpace(content[0]) == "" {
		return "", ErrEmptyInput
	}
	return g.guard.run(ctx, "generate", func(ctx context.Context) (string, error) {
		return g.inner.Generate(ctx, instruction, content)
	})
}
