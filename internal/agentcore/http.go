package agentcore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPInvoker posts InvokeRequest as JSON to an agent endpoint.
type HTTPInvoker struct {
	url    string
	client *http.Client
}

func NewHTTPInvoker(url string, timeout time.Duration) *HTTPInvoker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPInvoker{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
	}
}

func (a *HTTPInvoker) Name() string { return ModeHTTP }

type httpAnswer struct {
	Citations []map[string]any `json:"citations"`
	Trace     []map[string]any `json:"trace"`
	SessionID string           `json:"sessionId"`
}

func (a *HTTPInvoker) Invoke(ctx context.Context, req InvokeRequest) (InvokeResult, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return InvokeResult{}, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.url, bytes.NewReader(payload))
	if err != nil {
		return InvokeResult{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := a.client.Do(httpReq)
	if err != nil {
		return InvokeResult{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 4<<10))
		return InvokeResult{}, &StatusError{StatusCode: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return InvokeResult{}, fmt.Errorf("read response: %w", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		text := strings.TrimSpace(string(body))
		if text == "" {
			return InvokeResult{}, errors.New("empty agent response")
		}
		return InvokeResult{Text: text, SessionID: req.SessionID}, nil
	}

	text := strings.TrimSpace(extractText(obj))
	if text == "" {
		return InvokeResult{}, errors.New("agent response has no text")
	}

	var extra httpAnswer
	if err := json.Unmarshal(body, &extra); err != nil {
		return InvokeResult{}, fmt.Errorf("decode response: %w", err)
	}
	if extra.SessionID == "" {
		extra.SessionID = req.SessionID
	}
	return InvokeResult{
		Text:      text,
		Citations: extra.Citations,
		Trace:     extra.Trace,
		SessionID: extra.SessionID,
	}, nil
}

func extractText(obj map[string]any) string {
	for _, k := range []string{"responseText", "text", "output", "message"} {
		if v, ok := obj[k]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
