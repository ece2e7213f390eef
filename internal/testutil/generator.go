package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/dom/jumbah-travel/internal/genai"
)

// FakeGenerator is a scriptable genai.Generator that records every prompt
type FakeGenerator struct {
	mu      sync.Mutex
	prompts []string

	Unavailable bool
	Reply       func(prompt string) (string, error)
}

// NewEchoGenerator answers with the last line of the prompt, which is the
// user's message for chat prompts.
func NewEchoGenerator() *FakeGenerator {
	return &FakeGenerator{
		Reply: func(prompt string) (string, error) {
			lines := strings.Split(strings.TrimSpace(prompt), "\n")
			last := strings.TrimPrefix(lines[len(lines)-1], "User: ")
			return "echo: " + last, nil
		},
	}
}

// NewFailingGenerator fails every call with a generation error
func NewFailingGenerator() *FakeGenerator {
	return &FakeGenerator{
		Reply: func(string) (string, error) {
			return "", &genai.GenerationError{Provider: "fake", Err: genai.ErrEmptyResponse}
		},
	}
}

// NewUnavailableGenerator behaves like a deployment with no credential
func NewUnavailableGenerator() *FakeGenerator {
	return &FakeGenerator{Unavailable: true}
}

func (g *FakeGenerator) Available() bool {
	return !g.Unavailable
}

func (g *FakeGenerator) Provider() string {
	return "fake"
}

func (g *FakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.Unavailable {
		return "", genai.ErrUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	return g.Reply(prompt)
}

// Prompts returns every prompt seen so far
func (g *FakeGenerator) Prompts() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.prompts...)
}

// LastPrompt returns the most recent prompt, or "" if none
func (g *FakeGenerator) LastPrompt() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.prompts) == 0 {
		return ""
	}
	return g.prompts[len(g.prompts)-1]
}
