package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ent0n29/contactcenter/internal/agentcore"
	"github.com/ent0n29/contactcenter/internal/observability"
	"github.com/ent0n29/contactcenter/internal/policy"
	"github.com/ent0n29/contactcenter/internal/stages"
)

// Remote strand names, sent as the stage attribute.
const (
	strandIntent          = "intent"
	strandKnowledge       = "knowledge"
	strandPersonalization = "personalization"
	strandResponse        = "response"
)

const defaultContextTurns = 5

var categoryPattern = regexp.MustCompile(`(?i)category:\s*(\w+)`)

type RemoteConfig struct {
	// ContextTurns is how many trailing history entries are sent along.
	ContextTurns int
	Metrics      *observability.Metrics
	Now          func() time.Time
}

// RemoteStrategy delegates intent, knowledge, personalization and response
// generation to the remote agent, one call per strand. Sentiment is always
// computed locally.
type RemoteStrategy struct {
	invoker      agentcore.Invoker
	contextTurns int
	metrics      *observability.Metrics
	now          func() time.Time
}

func NewRemoteStrategy(inv agentcore.Invoker, cfg RemoteConfig) *RemoteStrategy {
	if cfg.ContextTurns <= 0 {
		cfg.ContextTurns = defaultContextTurns
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RemoteStrategy{
		invoker:      inv,
		contextTurns: cfg.ContextTurns,
		metrics:      cfg.Metrics,
		now:          cfg.Now,
	}
}

func (s *RemoteStrategy) Name() string { return "remote" }

func (s *RemoteStrategy) Process(ctx context.Context, turn Turn) (Result, error) {
	message := policy.Redact(turn.Message)
	history := recentContext(turn.History, s.contextTurns)
	sentiment := stages.AnalyzeSentiment(turn.Message)

	res := &RemoteResult{Sentiment: sentiment, Agent: s.invoker.Name()}
	record := func(strand string, out agentcore.InvokeResult, id string) {
		res.StrandIDs = append(res.StrandIDs, id)
		if len(out.Trace) > 0 {
			res.Trace = append(res.Trace, TraceEntry{
				Timestamp: s.now().UTC(),
				Type:      "strand_execution",
				Stage:     strand,
			})
		}
	}

	intentOut, id, err := s.call(ctx, turn.SessionID, strandIntent, intentPrompt(message, history), map[string]string{
		agentcore.AttrMessage:    message,
		agentcore.AttrContext:    history,
		agentcore.AttrLastIntent: string(turn.LastIntent),
	})
	if err != nil {
		return nil, err
	}
	record(strandIntent, intentOut, id)
	res.Category = extractCategory(intentOut.Text)

	knowledgeOut, id, err := s.call(ctx, turn.SessionID, strandKnowledge, knowledgePrompt(message, intentOut.Text), map[string]string{
		agentcore.AttrMessage:  message,
		agentcore.AttrCategory: string(res.Category),
	})
	if err != nil {
		return nil, err
	}
	record(strandKnowledge, knowledgeOut, id)

	personalOut, id, err := s.call(ctx, turn.SessionID, strandPersonalization, personalizationPrompt(turn.Profile, res.Category, knowledgeOut.Text), map[string]string{
		agentcore.AttrCategory: string(res.Category),
	})
	if err != nil {
		return nil, err
	}
	record(strandPersonalization, personalOut, id)

	responseOut, id, err := s.call(ctx, turn.SessionID, strandResponse, responsePrompt(message, intentOut.Text, sentiment, knowledgeOut.Text, personalOut.Text), map[string]string{
		agentcore.AttrMessage:   message,
		agentcore.AttrCategory:  string(res.Category),
		agentcore.AttrSentiment: string(sentiment.Sentiment),
		agentcore.AttrKnowledge: policy.Redact(knowledgeOut.Text),
	})
	if err != nil {
		return nil, err
	}
	record(strandResponse, responseOut, id)

	res.Text = responseOut.Text
	res.Citations = responseOut.Citations
	return res, nil
}

// call runs one strand and returns the answer with the strand id it used.
func (s *RemoteStrategy) call(ctx context.Context, sessionID, strand, prompt string, attrs map[string]string) (agentcore.InvokeResult, string, error) {
	id := uuid.NewString()
	attrs[agentcore.AttrStage] = strand
	attrs[agentcore.AttrStrandID] = id

	start := s.now()
	out, err := s.invoker.Invoke(ctx, agentcore.InvokeRequest{
		Prompt:     prompt,
		SessionID:  sessionID,
		Attributes: attrs,
	})
	s.metrics.ObserveStage("remote_"+strand, s.now().Sub(start))
	if err != nil {
		return agentcore.InvokeResult{}, "", &RemoteCapabilityError{Stage: strand, Err: err}
	}
	out.Text = strings.TrimSpace(out.Text)
	if out.Text == "" {
		return agentcore.InvokeResult{}, "", &RemoteCapabilityError{Stage: strand, Err: errors.New("empty answer")}
	}
	return out, id, nil
}

// extractCategory reads "Category: <label>" out of a free-text answer and
// defaults to general.
func extractCategory(text string) stages.Category {
	m := categoryPattern.FindStringSubmatch(text)
	if m == nil {
		return stages.CategoryGeneral
	}
	c, _ := stages.ParseCategory(m[1])
	return c
}

// recentContext renders the trailing turns as redacted JSON.
func recentContext(history []stages.Turn, n int) string {
	start := max(len(history)-n, 0)
	turns := make([]stages.Turn, 0, len(history)-start)
	for _, t := range history[start:] {
		turns = append(turns, stages.Turn{Role: t.Role, Content: policy.Redact(t.Content)})
	}
	raw, err := json.Marshal(turns)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func intentPrompt(message, history string) string {
	return fmt.Sprintf(`Analyze the intent of this automotive customer message: %q

Previous conversation context: %s

Classify into one of these categories:
- service_appointment
- technical_issue
- sales_inquiry
- warranty_question
- general_information

Answer with a line "Category: <category>", a confidence score and extracted entities.`, message, history)
}

func knowledgePrompt(message, intent string) string {
	return fmt.Sprintf(`Search automotive knowledge base for: %q

Intent context: %s

Provide relevant information with citations and confidence scores.
Focus on automotive service, sales, warranty, and technical information.`, message, intent)
}

func personalizationPrompt(profile stages.Profile, category stages.Category, knowledge string) string {
	raw, err := json.Marshal(profile)
	if err != nil {
		raw = []byte("{}")
	}
	return fmt.Sprintf(`Personalize guidance for this automotive customer.

Customer Profile: %s
Intent: %s
Knowledge: %s

List short recommendations that fit the customer's vehicle, warranty and service history.`,
		policy.Redact(string(raw)), category, policy.Redact(knowledge))
}

func responsePrompt(message, intent string, sentiment stages.SentimentResult, knowledge, personal string) string {
	return fmt.Sprintf(`Generate a helpful automotive customer service response based on:

Customer Message: %s
Intent: %s
Sentiment: %s (score %.2f, urgency %s)
Knowledge: %s
Customer Context: %s

Provide a professional, helpful response with suggested quick actions.`,
		message, intent, sentiment.Sentiment, sentiment.Score, sentiment.Urgency,
		policy.Redact(knowledge), policy.Redact(personal))
}
