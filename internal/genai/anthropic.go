package genai

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
)

const (
	ProviderAnthropic     = "anthropic"
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	anthropicMaxTokens    = 2048
)

// Anthropic calls the Anthropic Messages API with the whole prompt as a
// single user message.
type Anthropic struct {
	client anthropic.Client
	model  string
}

func NewAnthropic(apiKey, model string, extra ...anthropicoption.RequestOption) *Anthropic {
	opts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(apiKey),
		anthropicoption.WithMaxRetries(0),
	}
	opts = append(opts, extra...)

	if model == "" {
		model = defaultAnthropicModel
	}

	return &Anthropic{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

func (a *Anthropic) Available() bool { return true }

func (a *Anthropic) Provider() string { return ProviderAnthropic }

func (a *Anthropic) Generate(ctx context.Context, prompt string) (string, error) {
	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", wrap(ProviderAnthropic, err)
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", wrap(ProviderAnthropic, ErrEmptyResponse)
	}
	return text, nil
}
