// Package agentcore is the client side of the remote "invoke agent"
// capability: send a prompt with a session id and attributes, get text back.
package agentcore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

var ErrDisabled = errors.New("remote agent disabled")

// InvokeRequest is one delegated call.
type InvokeRequest struct {
	Prompt     string            `json:"prompt"`
	SessionID  string            `json:"sessionId"`
	Attributes map[string]string `json:"sessionAttributes,omitempty"`
}

// InvokeResult is the agent's answer.
type InvokeResult struct {
	Text      string           `json:"responseText"`
	Citations []map[string]any `json:"citations,omitempty"`
	Trace     []map[string]any `json:"trace,omitempty"`
	SessionID string           `json:"sessionId"`
}

// Invoker calls the remote agent.
type Invoker interface {
	Name() string
	Invoke(ctx context.Context, req InvokeRequest) (InvokeResult, error)
}

// StatusError is a non-2xx answer from an HTTP agent.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("agent http status %d: %s", e.StatusCode, e.Body)
}

const (
	ModeAuto      = "auto"
	ModeHTTP      = "http"
	ModeOpenAI    = "openai"
	ModeAnthropic = "anthropic"
	ModeMock      = "mock"
	ModeDisabled  = "disabled"
)

// Config controls invoker construction.
type Config struct {
	Mode           string
	HTTPURL        string
	Timeout        time.Duration
	OpenAIAPIKey   string
	OpenAIModel    string
	OpenAIBaseURL  string
	AnthropicKey   string
	AnthropicModel string
}

// NewInvoker builds the configured invoker. A nil Invoker with a nil error
// means no remote agent is available and callers should stay local.
func NewInvoker(cfg Config) (Invoker, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Mode))
	if mode == "" {
		mode = ModeAuto
	}

	switch mode {
	case ModeAuto:
		return newAutoInvoker(cfg), nil
	case ModeHTTP:
		if strings.TrimSpace(cfg.HTTPURL) == "" {
			return nil, errors.New("agent HTTP url is required for http mode")
		}
		return NewHTTPInvoker(cfg.HTTPURL, cfg.Timeout), nil
	case ModeOpenAI:
		if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
			return nil, errors.New("OPENAI_API_KEY is required for openai mode")
		}
		return NewOpenAIInvoker(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL), nil
	case ModeAnthropic:
		if strings.TrimSpace(cfg.AnthropicKey) == "" {
			return nil, errors.New("ANTHROPIC_API_KEY is required for anthropic mode")
		}
		return NewAnthropicInvoker(cfg.AnthropicKey, cfg.AnthropicModel, ""), nil
	case ModeMock:
		return NewMockInvoker(), nil
	case ModeDisabled:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported agent mode %q", cfg.Mode)
	}
}

// newAutoInvoker chains every configured backend in http, openai, anthropic
// order. It returns nil when none is configured.
func newAutoInvoker(cfg Config) Invoker {
	var chain []Invoker
	if strings.TrimSpace(cfg.HTTPURL) != "" {
		chain = append(chain, NewHTTPInvoker(cfg.HTTPURL, cfg.Timeout))
	}
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		chain = append(chain, NewOpenAIInvoker(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL))
	}
	if strings.TrimSpace(cfg.AnthropicKey) != "" {
		chain = append(chain, NewAnthropicInvoker(cfg.AnthropicKey, cfg.AnthropicModel, ""))
	}
	if len(chain) == 0 {
		return nil
	}
	inv := chain[len(chain)-1]
	for i := len(chain) - 2; i >= 0; i-- {
		inv = NewFallbackInvoker(chain[i], inv)
	}
	return inv
}

// systemPreamble renders the session attributes as context lines for chat
// model backends.
func systemPreamble(req InvokeRequest) string {
	var b strings.Builder
	b.WriteString("You are a customer-service agent for an automotive dealership. Answer briefly.\n")
	b.WriteString("session_id: ")
	b.WriteString(req.SessionID)
	b.WriteString("\n")

	keys := make([]string, 0, len(req.Attributes))
	for k := range req.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(req.Attributes[k])
		b.WriteString("\n")
	}
	return b.String()
}
