package genai

import (
	"context"
	"errors"
	"time"
)

// Observer receives one observation per Generate call.
type Observer interface {
	ObserveGeneration(provider, outcome string, elapsed time.Duration)
}

// Instrumented reports call outcomes and latency to an Observer.
type Instrumented struct {
	Generator
	observer Observer
}

func NewInstrumented(g Generator, observer Observer) *Instrumented {
	return &Instrumented{Generator: g, observer: observer}
}

func (i *Instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := i.Generator.Generate(ctx, prompt)
	i.observer.ObserveGeneration(i.Provider(), outcome(err), time.Since(start))
	return text, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "error"
	}
}
