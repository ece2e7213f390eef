// Package genai is the boundary to the external text-generation service.
// Each Generate call is one blocking round trip: no retries, no streaming.
package genai

import (
	"context"
	"errors"
	"fmt"

	"github.com/dom/jumbah-travel/internal/config"
)

var (
	// ErrUnavailable means no credential is configured for the provider.
	ErrUnavailable = errors.New("generation service unavailable")
	// ErrGenerationFailed matches every *GenerationError.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrEmptyResponse is wrapped when the provider answers without text.
	ErrEmptyResponse = errors.New("empty response from model")
)

// Generator produces text for a prompt.
type Generator interface {
	// Available reports whether a credential is configured.
	Available() bool
	Generate(ctx context.Context, prompt string) (string, error)
	// Provider names the backing service for logs, metrics and health.
	Provider() string
}

// GenerationError carries the underlying network, auth or service error.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s generation failed: %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool {
	return target == ErrGenerationFailed
}

func wrap(provider string, err error) error {
	if err == nil {
		return nil
	}
	return &GenerationError{Provider: provider, Err: err}
}

// Unavailable is used when no credential is configured.
type Unavailable struct {
	Name string
}

func (u Unavailable) Available() bool { return false }

func (u Unavailable) Provider() string { return u.Name }

func (u Unavailable) Generate(context.Context, string) (string, error) {
	return "", ErrUnavailable
}

// Options selects and configures a provider.
type Options struct {
	Provider        string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	AnthropicAPIKey string
	AnthropicModel  string
}

// New returns the configured provider, or Unavailable when its key is empty.
func New(opts Options) Generator {
	switch opts.Provider {
	case ProviderAnthropic:
		if opts.AnthropicAPIKey == "" {
			return Unavailable{Name: ProviderAnthropic}
		}
		return NewAnthropic(opts.AnthropicAPIKey, opts.AnthropicModel)
	default:
		if opts.GeminiAPIKey == "" {
			return Unavailable{Name: ProviderGemini}
		}
		return NewGemini(opts.GeminiAPIKey, opts.GeminiBaseURL, opts.GeminiModel)
	}
}

// FromConfig builds the provider selected by cfg.
func FromConfig(cfg *config.Config) Generator {
	return New(Options{
		Provider:        cfg.GenerationProvider,
		GeminiAPIKey:    cfg.GeminiAPIKey,
		GeminiModel:     cfg.GeminiModel,
		GeminiBaseURL:   cfg.GeminiBaseURL,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		AnthropicModel:  cfg.AnthropicModel,
	})
}
