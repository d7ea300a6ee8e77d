package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ent0n29/contactcenter/internal/agentcore"
	"github.com/ent0n29/contactcenter/internal/config"
	"github.com/ent0n29/contactcenter/internal/fixtures"
	"github.com/ent0n29/contactcenter/internal/httpapi"
	"github.com/ent0n29/contactcenter/internal/observability"
	"github.com/ent0n29/contactcenter/internal/orchestrator"
	"github.com/ent0n29/contactcenter/internal/session"
	"github.com/ent0n29/contactcenter/internal/stages"
	"github.com/ent0n29/contactcenter/internal/tools"
)

type AgentInfo struct {
	Mode string
	// Backend is the resolved invoker chain, e.g. "http+openai", or "local".
	Backend string
}

type BuildResult struct {
	Config     config.Config
	API        *httpapi.Server
	Sessions   *session.Manager
	Supervisor *orchestrator.Supervisor
	Metrics    *observability.Metrics
	Agent      AgentInfo
}

// Build wires fixtures, the session store, the stage pipeline, the remote
// agent and the supervisor behind the HTTP API.
func Build(cfg config.Config, logger *zap.Logger) (*BuildResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	bundle, err := fixtures.Load()
	if err != nil {
		return nil, fmt.Errorf("fixtures load failed: %w", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)
	rnd := stages.NewRand(cfg.RandomSeed)

	sessions := session.NewManager(session.Options{
		MaxEntries: cfg.SessionMaxEntries,
		IdleTTL:    cfg.SessionIdleTTL,
		Profiles:   bundle.Customers,
		Rand:       rnd,
	})
	sessions.SetEvictHook(func(s *session.Session, reason session.EvictReason) {
		metrics.ObserveEviction(string(reason))
		metrics.SetActiveSessions(sessions.Len())
		logger.Debug("session evicted",
			zap.String("session_id", s.ID),
			zap.String("reason", string(reason)),
			zap.Int("turns", len(s.History)),
		)
	})

	pipeline := stages.NewPipeline(stages.PipelineConfig{
		Intent: stages.IntentConfig{
			ConfidenceFloor: cfg.IntentConfidenceFloor,
			ContinuityBoost: cfg.IntentContinuityBoost,
		},
		Personalizer: stages.PersonalizerConfig{
			MajorServiceMileage: cfg.ServiceMajorMileage,
			SoonServiceMileage:  cfg.ServiceSoonMileage,
			OverdueMonths:       cfg.ServiceOverdueMonths,
		},
		Knowledge: bundle.Knowledge,
		Rand:      rnd,
		Observer:  metrics,
	})

	invoker, err := agentcore.NewInvoker(agentcore.Config{
		Mode:           cfg.AgentMode,
		HTTPURL:        cfg.AgentHTTPURL,
		Timeout:        cfg.AgentTimeout,
		OpenAIAPIKey:   cfg.OpenAIAPIKey,
		OpenAIModel:    cfg.OpenAIModel,
		OpenAIBaseURL:  cfg.OpenAIBaseURL,
		AnthropicKey:   cfg.AnthropicAPIKey,
		AnthropicModel: cfg.AnthropicModel,
	})
	if err != nil {
		return nil, fmt.Errorf("agent init failed: %w", err)
	}
	agent := AgentInfo{Mode: cfg.AgentMode, Backend: "local"}
	if invoker != nil {
		agent.Backend = invoker.Name()
	}

	supervisor, err := orchestrator.New(orchestrator.Config{
		Sessions:     sessions,
		Pipeline:     pipeline,
		Invoker:      invoker,
		AgentMode:    cfg.AgentMode,
		AgentTimeout: cfg.AgentTimeout,
		ContextTurns: cfg.SessionContextTurns,
		Recommender:  tools.NewRecommender(bundle.Catalog),
		Servicer:     tools.NewServicer(bundle.ServiceMenu, nil),
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &BuildResult{
		Config:     cfg,
		API:        httpapi.New(cfg, supervisor, metrics, logger),
		Sessions:   sessions,
		Supervisor: supervisor,
		Metrics:    metrics,
		Agent:      agent,
	}, nil
}
