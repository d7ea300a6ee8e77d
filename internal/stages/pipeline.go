package stages

import (
	"context"
	"fmt"
	"time"
)

const (
	StageSentiment       = "sentiment"
	StageIntent          = "intent"
	StageRouting         = "routing"
	StageKnowledge       = "knowledge"
	StagePersonalization = "personalization"
	StageResponse        = "response"
)

// StageObserver receives the wall time spent in each stage.
type StageObserver interface {
	ObserveStage(stage string, d time.Duration)
}

type PipelineConfig struct {
	Intent       IntentConfig
	Personalizer PersonalizerConfig
	Knowledge    KnowledgeBase
	Rand         Rand
	Observer     StageObserver
}

// Pipeline runs every local stage in strict sequence.
type Pipeline struct {
	intent       *IntentAnalyzer
	knowledge    KnowledgeBase
	personalizer *Personalizer
	responder    *Responder
	observer     StageObserver
}

func NewPipeline(cfg PipelineConfig) *Pipeline {
	kb := cfg.Knowledge
	if len(kb) == 0 {
		kb = DefaultKnowledgeBase()
	}
	return &Pipeline{
		intent:       NewIntentAnalyzer(cfg.Intent),
		knowledge:    kb,
		personalizer: NewPersonalizer(cfg.Personalizer),
		responder:    NewResponder(cfg.Rand),
		observer:     cfg.Observer,
	}
}

// Intent exposes the analyzer so other paths classify with the same tables.
func (p *Pipeline) Intent() *IntentAnalyzer { return p.intent }

func (p *Pipeline) Knowledge() KnowledgeBase { return p.knowledge }

type PipelineInput struct {
	Message    string
	LastIntent Category
	Profile    Profile
	// History includes the current user message.
	History []Turn
}

type PipelineOutput struct {
	Sentiment SentimentResult
	Intent    IntentResult
	Route     Route
	Knowledge []KnowledgeItem
	Personal  PersonalContext
	Reply     Reply
}

// Run executes Sentiment, Intent, Routing, Knowledge, Personalization and
// Response. It stops early only when ctx is done.
func (p *Pipeline) Run(ctx context.Context, in PipelineInput) (PipelineOutput, error) {
	var out PipelineOutput

	steps := []struct {
		name string
		fn   func()
	}{
		{StageSentiment, func() { out.Sentiment = AnalyzeSentiment(in.Message) }},
		{StageIntent, func() { out.Intent = p.intent.Analyze(in.Message, in.LastIntent) }},
		{StageRouting, func() { out.Route = RouteMessage(out.Intent, out.Sentiment) }},
		{StageKnowledge, func() { out.Knowledge = p.knowledge.Retrieve(out.Intent.Category, in.Message) }},
		{StagePersonalization, func() { out.Personal = p.personalizer.Personalize(in.Profile, out.Intent, out.Knowledge) }},
		{StageResponse, func() {
			out.Reply = p.responder.Compose(out.Intent, out.Sentiment, out.Knowledge, out.Personal, in.History)
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return PipelineOutput{}, fmt.Errorf("%s stage: %w", step.name, err)
		}
		start := time.Now()
		step.fn()
		if p.observer != nil {
			p.observer.ObserveStage(step.name, time.Since(start))
		}
	}
	return out, nil
}
