package agentcore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const defaultOpenAIModel = "gpt-4o-mini"

// OpenAIInvoker answers prompts with an OpenAI chat completion.
type OpenAIInvoker struct {
	client *openai.Client
	model  string
}

func NewOpenAIInvoker(apiKey, model, baseURL string, extra ...option.RequestOption) *OpenAIInvoker {
	if strings.TrimSpace(model) == "" {
		model = defaultOpenAIModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	opts = append(opts, extra...)
	client := openai.NewClient(opts...)
	return &OpenAIInvoker{client: &client, model: model}
}

func (o *OpenAIInvoker) Name() string { return ModeOpenAI }

func (o *OpenAIInvoker) Invoke(ctx context.Context, req InvokeRequest) (InvokeResult, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPreamble(req)),
			openai.UserMessage(req.Prompt),
		},
	})
	if err != nil {
		return InvokeResult{}, fmt.Errorf("openai request failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return InvokeResult{}, errors.New("openai returned no choices")
	}
	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return InvokeResult{}, errors.New("openai returned empty content")
	}
	return InvokeResult{
		Text:      text,
		SessionID: req.SessionID,
		Trace:     []map[string]any{{"provider": ModeOpenAI, "model": completion.Model, "id": completion.ID}},
	}, nil
}
