package llm

import (
	"context"
	"fmt"
)

// Unavailable stands in for a generator that could not be configured. Every
// call fails with ErrBackendUnavailable and the configuration error.
func Unavailable(provider string, reason error) Generator {
	return unavailableGenerator{provider: provider, reason: reason}
}

type unavailableGenerator struct {
	provider string
	reason   error
}

func (u unavailableGenerator) Name() string { return u.provider + " (not configured)" }

func (u unavailableGenerator) Generate(context.Context, string, []string) (string, error) {
	return "", fmt.Errorf("%w: %s: %v", ErrBackendUnavailable, u.provider, u.reason)
}
