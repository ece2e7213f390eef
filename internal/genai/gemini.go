package genai

import (
	"context"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	ProviderGemini     = "gemini"
	defaultGeminiModel = "gemini-1.5-flash"
)

// Gemini calls Google's Gemini models through their OpenAI-compatible
// chat completions endpoint.
type Gemini struct {
	client openai.Client
	model  string
}

func NewGemini(apiKey, baseURL, model string, extra ...option.RequestOption) *Gemini {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)

	if model == "" {
		model = defaultGeminiModel
	}

	return &Gemini{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (g *Gemini) Available() bool { return true }

func (g *Gemini) Provider() string { return ProviderGemini }

func (g *Gemini) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", wrap(ProviderGemini, err)
	}
	if len(completion.Choices) == 0 {
		return "", wrap(ProviderGemini, ErrEmptyResponse)
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", wrap(ProviderGemini, ErrEmptyResponse)
	}
	return text, nil
}
