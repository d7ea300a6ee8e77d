package agentcore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const (
	defaultAnthropicModel = "claude-3-5-haiku-latest"
	anthropicMaxTokens    = 1024
)

// AnthropicInvoker answers prompts with the Anthropic Messages API.
type AnthropicInvoker struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicInvoker(apiKey, model, baseURL string, extra ...option.RequestOption) *AnthropicInvoker {
	if strings.TrimSpace(model) == "" {
		model = defaultAnthropicModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)
	client := anthropic.NewClient(opts...)
	return &AnthropicInvoker{client: &client, model: model}
}

func (a *AnthropicInvoker) Name() string { return ModeAnthropic }

func (a *AnthropicInvoker) Invoke(ctx context.Context, req InvokeRequest) (InvokeResult, error) {
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: systemPreamble(req)}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return InvokeResult{}, fmt.Errorf("anthropic request failed: %w", err)
	}

	var b strings.Builder
	for _, block := range message.Content {
		b.WriteString(block.Text)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return InvokeResult{}, errors.New("anthropic returned empty content")
	}
	return InvokeResult{
		Text:      text,
		SessionID: req.SessionID,
		Trace:     []map[string]any{{"provider": ModeAnthropic, "model": string(message.Model), "id": message.ID}},
	}, nil
}
