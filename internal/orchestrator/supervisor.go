// Package orchestrator sequences the processing of each chat message: it
// resolves the session, picks the remote or local strategy, updates the
// session and aggregates running metrics.
package orchestrator

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/ent0n29/contactcenter/internal/agentcore"
	"github.com/ent0n29/contactcenter/internal/observability"
	"github.com/ent0n29/contactcenter/internal/policy"
	"github.com/ent0n29/contactcenter/internal/reliability"
	"github.com/ent0n29/contactcenter/internal/session"
	"github.com/ent0n29/contactcenter/internal/stages"
	"github.com/ent0n29/contactcenter/internal/tools"
)

const healthProbeTimeout = 3 * time.Second

type Config struct {
	Sessions session.Store
	Pipeline *stages.Pipeline
	// Invoker is the remote agent. Nil keeps every turn local.
	Invoker      agentcore.Invoker
	AgentMode    string
	AgentTimeout time.Duration
	ContextTurns int

	Recommender *tools.Recommender
	Servicer    *tools.Servicer

	Metrics *observability.Metrics
	Logger  *zap.Logger
	Now     func() time.Time
}

// Supervisor owns the session store and runs every chat turn.
type Supervisor struct {
	sessions    session.Store
	selector    *Selector
	invoker     agentcore.Invoker
	agentMode   string
	recommender *tools.Recommender
	servicer    *tools.Servicer
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
	stats       *statsTracker
}

func New(cfg Config) (*Supervisor, error) {
	if cfg.Sessions == nil {
		return nil, errors.New("orchestrator: session store is required")
	}
	if cfg.Pipeline == nil {
		return nil, errors.New("orchestrator: pipeline is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.AgentMode == "" {
		cfg.AgentMode = agentcore.ModeDisabled
		if cfg.Invoker != nil {
			cfg.AgentMode = cfg.Invoker.Name()
		}
	}

	var primary Strategy
	if cfg.Invoker != nil {
		primary = NewRemoteStrategy(cfg.Invoker, RemoteConfig{
			ContextTurns: cfg.ContextTurns,
			Metrics:      cfg.Metrics,
			Now:          cfg.Now,
		})
	}

	return &Supervisor{
		sessions:    cfg.Sessions,
		selector:    NewSelector(primary, NewLocalStrategy(cfg.Pipeline), cfg.AgentTimeout),
		invoker:     cfg.Invoker,
		agentMode:   cfg.AgentMode,
		recommender: cfg.Recommender,
		servicer:    cfg.Servicer,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger.Named("supervisor"),
		now:         cfg.Now,
		stats:       newStatsTracker(),
	}, nil
}

// ProcessMessage runs one chat turn. It never returns an error: remote
// failures degrade to the local pipeline and local failures produce an
// apology with metadata.error set.
func (s *Supervisor) ProcessMessage(ctx context.Context, sessionID, message string) Response {
	start := s.now()

	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	snap, created := s.sessions.GetOrCreate(sessionID)
	if created {
		s.metrics.SetActiveSessions(s.sessions.Len())
		s.logger.Debug("session created",
			zap.String("session_id", sessionID),
			zap.String("customer_id", snap.Profile.ID),
		)
	}

	userTurn := stages.Turn{Role: stages.RoleUser, Content: message}
	snap.Append(userTurn)
	if err := s.sessions.Update(sessionID, func(sess *session.Session) {
		sess.Append(userTurn)
	}); err != nil {
		s.logger.Warn("append user turn", zap.String("session_id", sessionID), zap.Error(err))
	}

	outcome, err := s.selector.Process(ctx, Turn{
		SessionID:  sessionID,
		Message:    message,
		LastIntent: snap.LastIntent,
		Profile:    snap.Profile,
		History:    snap.History,
	})
	if outcome.PrimaryErr != nil {
		s.observeRemoteFailure(sessionID, outcome.PrimaryErr)
	}

	elapsed := s.now().Sub(start)
	var resp Response
	switch {
	case err != nil:
		s.logger.Error("local pipeline failed",
			zap.String("session_id", sessionID),
			zap.String("message", policy.Redact(message)),
			zap.Error(err),
		)
		resp = errorResponse(sessionID, elapsed.Milliseconds())
		s.finishTurn(sessionID, resp.Message, nil)
	default:
		switch r := outcome.Result.(type) {
		case *RemoteResult:
			resp = remoteResponse(sessionID, r, elapsed.Milliseconds())
		case *LocalResult:
			resp = localResponse(sessionID, r, elapsed.Milliseconds())
		}
		s.finishTurn(sessionID, resp.Message, outcome.Result)
	}

	s.stats.recordTurn(resp.Metadata.Path, elapsed)
	s.metrics.ObserveFeature(FeatureChat)
	s.metrics.ObserveTurn(resp.Metadata.Path, elapsed)
	return resp
}

// finishTurn appends the assistant reply and, when res is set, stores the
// resolved intent.
func (s *Supervisor) finishTurn(sessionID, reply string, res Result) {
	err := s.sessions.Update(sessionID, func(sess *session.Session) {
		sess.Append(stages.Turn{Role: stages.RoleAssistant, Content: reply})
		if res == nil {
			return
		}
		sess.LastIntent = res.Intent()
		if remote, ok := res.(*RemoteResult); ok {
			for _, id := range remote.StrandIDs {
				sess.AddTaskRef(id)
			}
		}
	})
	if err != nil {
		s.logger.Warn("append assistant turn", zap.String("session_id", sessionID), zap.Error(err))
	}
}

func (s *Supervisor) observeRemoteFailure(sessionID string, err error) {
	stage := "unknown"
	var remoteErr *RemoteCapabilityError
	if errors.As(err, &remoteErr) {
		stage = remoteErr.Stage
	}
	cause := reliability.Classify(err)
	s.metrics.ObserveRemoteError(stage, string(cause))
	s.logger.Warn("remote agent failed, using local pipeline",
		zap.String("stage", stage),
		zap.String("cause", string(cause)),
		zap.Bool("transient", reliability.Transient(cause)),
		zap.String("session_id", sessionID),
		zap.Error(err),
	)
}

// Session returns a copy of the stored session.
func (s *Supervisor) Session(id string) (*session.Session, error) {
	return s.sessions.Get(id)
}

func (s *Supervisor) Stats() Stats {
	return s.stats.snapshot()
}

// RemoteStatus describes the configured remote agent.
type RemoteStatus struct {
	Mode    string `json:"mode"`
	Status  string `json:"status"`
	Latency int64  `json:"latencyMs,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Status is the orchestration health report.
type Status struct {
	Stats
	ActiveSessions int          `json:"activeSessions"`
	Remote         RemoteStatus `json:"remote"`
}

// Status reports running counters and, when a remote agent is configured,
// probes it with a short health-check prompt.
func (s *Supervisor) Status(ctx context.Context) Status {
	st := Status{
		Stats:          s.stats.snapshot(),
		ActiveSessions: s.sessions.Len(),
		Remote:         RemoteStatus{Mode: s.agentMode, Status: "disabled"},
	}
	if s.invoker == nil {
		return st
	}

	ctx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()
	start := s.now()
	_, err := s.invoker.Invoke(ctx, agentcore.InvokeRequest{
		Prompt:     "Health check",
		SessionID:  "health-check",
		Attributes: map[string]string{agentcore.AttrStage: "health"},
	})
	st.Remote.Latency = s.now().Sub(start).Milliseconds()
	if err != nil {
		st.Remote.Status = "unhealthy"
		st.Remote.Error = err.Error()
		return st
	}
	st.Remote.Status = "healthy"
	return st
}
