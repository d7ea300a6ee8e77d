package agentcore

import (
	"context"
	"fmt"
	"strings"

	"github.com/ent0n29/contactcenter/internal/stages"
)

// Attribute keys understood by every invoker.
const (
	AttrStage      = "stage"
	AttrStrandID   = "strandId"
	AttrContext    = "context"
	AttrCategory   = "category"
	AttrLastIntent = "lastIntent"
	AttrSentiment  = "sentiment"
	AttrKnowledge  = "knowledge"
	// AttrMessage carries the bare customer message when the prompt wraps it.
	AttrMessage    = "message"
)

// MockInvoker answers locally and deterministically, keyed on the stage
// attribute. It is used for demos and tests.
type MockInvoker struct {
	intent    *stages.IntentAnalyzer
	knowledge stages.KnowledgeBase
}

func NewMockInvoker() *MockInvoker {
	return &MockInvoker{
		intent: stages.NewIntentAnalyzer(stages.IntentConfig{
			ConfidenceFloor: stages.DefaultConfidenceFloor,
			ContinuityBoost: stages.DefaultContinuityBoost,
		}),
		knowledge: stages.DefaultKnowledgeBase(),
	}
}

func (m *MockInvoker) Name() string { return ModeMock }

func (m *MockInvoker) Invoke(ctx context.Context, req InvokeRequest) (InvokeResult, error) {
	if err := ctx.Err(); err != nil {
		return InvokeResult{}, err
	}

	attrs := req.Attributes
	category, _ := stages.ParseCategory(attrs[AttrCategory])
	subject := attrs[AttrMessage]
	if subject == "" {
		subject = req.Prompt
	}

	var text string
	switch attrs[AttrStage] {
	case "intent":
		var last stages.Category
		if c, ok := stages.ParseCategory(attrs[AttrLastIntent]); ok {
			last = c
		}
		res := m.intent.Analyze(subject, last)
		text = fmt.Sprintf("Category: %s\nConfidence: %.2f", res.Category, res.Confidence)
	case "knowledge":
		items := m.knowledge.Retrieve(category, subject)
		if len(items) > 0 {
			text = items[0].Content
		} else {
			text = "No specific articles found."
		}
	case "personalization":
		text = "Personalize the answer for the customer's vehicle and history."
	case "response":
		text = fmt.Sprintf("Thanks for reaching out about %s. %s", category, strings.TrimSpace(attrs[AttrKnowledge]))
	case "health":
		text = "OK"
	default:
		text = fmt.Sprintf("I heard you: %s", req.Prompt)
	}

	return InvokeResult{
		Text:      strings.TrimSpace(text),
		SessionID: req.SessionID,
		Trace:     []map[string]any{{"provider": ModeMock, "stage": attrs[AttrStage]}},
	}, nil
}
