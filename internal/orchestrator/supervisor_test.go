package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ent0n29/contactcenter/internal/agentcore"
	"github.com/ent0n29/contactcenter/internal/reliability"
	"github.com/ent0n29/contactcenter/internal/session"
	"github.com/ent0n29/contactcenter/internal/stages"
	"github.com/ent0n29/contactcenter/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func newTestPipeline() *stages.Pipeline {
	return stages.NewPipeline(stages.PipelineConfig{
		Intent: stages.IntentConfig{
			ConfidenceFloor: stages.DefaultConfidenceFloor,
			ContinuityBoost: stages.DefaultContinuityBoost,
		},
		Personalizer: stages.PersonalizerConfig{Now: fixedNow},
		Rand:         stages.FixedRand(0),
	})
}

func newTestSupervisor(t *testing.T, inv agentcore.Invoker, timeout time.Duration) (*Supervisor, *session.Manager) {
	t.Helper()
	sessions := session.NewManager(session.Options{Rand: stages.FixedRand(0)})
	sup, err := New(Config{
		Sessions:     sessions,
		Pipeline:     newTestPipeline(),
		Invoker:      inv,
		AgentTimeout: timeout,
		Recommender: tools.NewRecommender(tools.Catalog{
			Vehicles: []tools.CatalogVehicle{
				{ID: "v1", Name: "Compact Hybrid", Type: "sedan", Price: 28000, Features: []string{"hybrid"}},
			},
		}),
		Servicer: tools.NewServicer(tools.ServiceMenu{
			Routine: []tools.ServiceItem{{ID: "oil_change", Name: "Oil Change", Interval: 5000, Price: 49.99}},
		}, fixedNow),
	})
	require.NoError(t, err)
	return sup, sessions
}

func TestNewRequiresStoreAndPipeline(t *testing.T) {
	_, err := New(Config{Pipeline: newTestPipeline()})
	require.Error(t, err)
	_, err = New(Config{Sessions: session.NewManager(session.Options{})})
	require.Error(t, err)
}

func TestScenarioOilChange(t *testing.T) {
	sup, _ := newTestSupervisor(t, nil, 0)

	resp := sup.ProcessMessage(context.Background(), "s1", "I need to schedule an oil change for my Toyota Camry")

	assert.Equal(t, TypeChatResponse, resp.Type)
	assert.Equal(t, stages.CategoryService, resp.Metadata.Intent)
	require.NotNil(t, resp.Metadata.LocalDetails)
	assert.Equal(t, "Service Department", resp.Metadata.Route)
	assert.True(t, resp.Metadata.Fallback)
	assert.Equal(t, PathFallback, resp.Metadata.Path)
	assert.Contains(t, strings.ToLower(resp.Message), "service")
	assert.Contains(t, strings.ToLower(resp.Message), "oil change")
}

func TestScenarioUrgentCheckEngine(t *testing.T) {
	sup, _ := newTestSupervisor(t, nil, 0)

	resp := sup.ProcessMessage(context.Background(), "s2",
		"My check engine light is on and the car is making a strange noise - this is urgent!")

	assert.Equal(t, stages.CategoryTechnical, resp.Metadata.Intent)
	assert.Equal(t, stages.UrgencyHigh, resp.Metadata.Sentiment.Urgency)
	require.NotNil(t, resp.Metadata.LocalDetails)
	assert.Equal(t, stages.PriorityUrgent, resp.Metadata.Routing.Priority)
}

func TestScenarioPricingFollowsSales(t *testing.T) {
	sup, _ := newTestSupervisor(t, nil, 0)
	ctx := context.Background()

	first := sup.ProcessMessage(ctx, "s3", "What SUVs are available?")
	require.Equal(t, stages.CategorySales, first.Metadata.Intent)

	second := sup.ProcessMessage(ctx, "s3", "What about pricing?")
	assert.Equal(t, stages.CategorySales, second.Metadata.Intent)
}

func TestScenarioRemoteAlwaysFails(t *testing.T) {
	sup, _ := newTestSupervisor(t, failingInvoker{}, time.Second)

	resp := sup.ProcessMessage(context.Background(), "s4", "Is my transmission covered under warranty?")

	assert.Equal(t, TypeChatResponse, resp.Type)
	assert.NotEmpty(t, resp.Message)
	assert.True(t, resp.Metadata.Fallback)
	assert.False(t, resp.Metadata.Error)
	assert.True(t, resp.Metadata.Intent.Valid())
	assert.Nil(t, resp.Metadata.RemoteDetails)

	st := sup.Stats()
	assert.EqualValues(t, 1, st.PathCounts[PathFallback])
}

func TestHistoryAccumulatesPairs(t *testing.T) {
	sup, _ := newTestSupervisor(t, nil, 0)
	ctx := context.Background()
	messages := []string{
		"What SUVs are available?",
		"What about pricing?",
		"Is my warranty still valid?",
		"My engine makes a strange noise",
	}

	var last Response
	for _, m := range messages {
		last = sup.ProcessMessage(ctx, "hist", m)
	}

	snap, err := sup.Session("hist")
	require.NoError(t, err)
	require.Len(t, snap.History, 2*len(messages))
	for i, turn := range snap.History {
		want := stages.RoleUser
		if i%2 == 1 {
			want = stages.RoleAssistant
		}
		assert.Equal(t, want, turn.Role, "turn %d", i)
	}
	assert.Equal(t, messages[len(messages)-1], snap.History[len(snap.History)-2].Content)
	assert.Equal(t, last.Message, snap.History[len(snap.History)-1].Content)
	assert.Equal(t, last.Metadata.Intent, snap.LastIntent)
}

func TestRemotePathWithMockAgent(t *testing.T) {
	sup, _ := newTestSupervisor(t, agentcore.NewMockInvoker(), time.Second)

	resp := sup.ProcessMessage(context.Background(), "remote", "I need to schedule an oil change for my Toyota Camry")

	assert.Equal(t, PathRemote, resp.Metadata.Path)
	assert.False(t, resp.Metadata.Fallback)
	assert.Equal(t, stages.CategoryService, resp.Metadata.Intent)
	assert.Nil(t, resp.Metadata.LocalDetails)
	require.NotNil(t, resp.Metadata.RemoteDetails)
	assert.Equal(t, 4, resp.Metadata.StrandsUsed)
	assert.Len(t, resp.Metadata.Trace, 4)
	assert.Equal(t, "strand_execution", resp.Metadata.Trace[0].Type)
	assert.True(t, strings.HasPrefix(resp.Message, "Thanks for reaching out about service."), resp.Message)

	snap, err := sup.Session("remote")
	require.NoError(t, err)
	assert.Len(t, snap.ActiveTaskRefs, 4)
	assert.Equal(t, stages.CategoryService, snap.LastIntent)
}

func TestRemotePromptsAreRedacted(t *testing.T) {
	rec := &recordingInvoker{inner: agentcore.NewMockInvoker()}
	sup, _ := newTestSupervisor(t, rec, time.Second)

	sup.ProcessMessage(context.Background(), "pii", "Email me at jane.doe@example.com about my oil change")

	reqs := rec.requests()
	require.Len(t, reqs, 4)
	for _, req := range reqs {
		assert.NotContains(t, req.Prompt, "jane.doe@example.com")
		for k, v := range req.Attributes {
			assert.NotContains(t, v, "jane.doe@example.com", k)
		}
		assert.Equal(t, "pii", req.SessionID)
	}
	assert.Equal(t, "intent", reqs[0].Attributes[agentcore.AttrStage])
	assert.Equal(t, "response", reqs[3].Attributes[agentcore.AttrStage])
}

func TestRemoteTimeoutFallsBack(t *testing.T) {
	sup, _ := newTestSupervisor(t, blockingInvoker{}, 20*time.Millisecond)

	resp := sup.ProcessMessage(context.Background(), "slow", "What about pricing?")

	assert.True(t, resp.Metadata.Fallback)
	assert.False(t, resp.Metadata.Error)
	assert.NotEmpty(t, resp.Message)
}

func TestRemoteTimeoutIsClassified(t *testing.T) {
	sel := NewSelector(
		NewRemoteStrategy(blockingInvoker{}, RemoteConfig{}),
		NewLocalStrategy(newTestPipeline()),
		20*time.Millisecond,
	)

	out, err := sel.Process(context.Background(), Turn{SessionID: "slow", Message: "hello"})
	require.NoError(t, err)

	var remoteErr *RemoteCapabilityError
	require.ErrorAs(t, out.PrimaryErr, &remoteErr)
	assert.Equal(t, strandIntent, remoteErr.Stage)
	assert.Equal(t, reliability.CauseTimeout, reliability.Classify(out.PrimaryErr))
}

func TestRemotePanicFallsBack(t *testing.T) {
	sup, _ := newTestSupervisor(t, panickingInvoker{}, time.Second)

	var resp Response
	require.NotPanics(t, func() {
		resp = sup.ProcessMessage(context.Background(), "panic", "I need to schedule an oil change")
	})
	assert.True(t, resp.Metadata.Fallback)
	assert.False(t, resp.Metadata.Error)
	assert.Equal(t, PathFallback, resp.Metadata.Path)
	assert.Equal(t, stages.CategoryService, resp.Metadata.Intent)

	snap, err := sup.Session("panic")
	require.NoError(t, err)
	assert.Len(t, snap.History, 2)

	sel := NewSelector(NewRemoteStrategy(panickingInvoker{}, RemoteConfig{}), NewLocalStrategy(newTestPipeline()), time.Second)
	out, err := sel.Process(context.Background(), Turn{Message: "hello"})
	require.NoError(t, err)
	var remoteErr *RemoteCapabilityError
	require.ErrorAs(t, out.PrimaryErr, &remoteErr)
	assert.Equal(t, "remote", remoteErr.Stage)
	assert.Contains(t, remoteErr.Error(), "panic")
}

func TestSessionSurvivesEvictionDuringTurn(t *testing.T) {
	gate := &gatedInvoker{
		inner:   agentcore.NewMockInvoker(),
		session: "a",
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	sup, err := New(Config{
		Sessions:     session.NewManager(session.Options{MaxEntries: 1, Rand: stages.FixedRand(0)}),
		Pipeline:     newTestPipeline(),
		Invoker:      gate,
		AgentTimeout: 5 * time.Second,
	})
	require.NoError(t, err)

	done := make(chan Response, 1)
	go func() {
		done <- sup.ProcessMessage(context.Background(), "a", "I need to schedule an oil change")
	}()
	<-gate.entered
	sup.ProcessMessage(context.Background(), "b", "What SUVs are available?")
	close(gate.release)
	<-done

	sup.ProcessMessage(context.Background(), "a", "What about pricing?")

	snap, err := sup.Session("a")
	require.NoError(t, err)
	assert.Len(t, snap.History, 4)
}

func TestLocalFailureProducesApology(t *testing.T) {
	sup, _ := newTestSupervisor(t, nil, 0)
	sup.ProcessMessage(context.Background(), "err", "What SUVs are available?")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := sup.ProcessMessage(ctx, "err", "What about pricing?")

	assert.True(t, resp.Metadata.Error)
	assert.Equal(t, PathError, resp.Metadata.Path)
	assert.Equal(t, apologyText, resp.Message)
	assert.Equal(t, stages.CategoryGeneral, resp.Metadata.Intent)

	snap, err := sup.Session("err")
	require.NoError(t, err)
	assert.Len(t, snap.History, 4)
	assert.Equal(t, stages.CategorySales, snap.LastIntent, "failed turn must not move lastIntent")
}

func TestLocalStrategyRecoversPanic(t *testing.T) {
	_, err := NewLocalStrategy(nil).Process(context.Background(), Turn{Message: "hi"})

	var localErr *LocalPipelineError
	require.ErrorAs(t, err, &localErr)
	assert.Contains(t, localErr.Error(), "panic")
}

func TestSelectorWrapsPrimaryError(t *testing.T) {
	boom := errors.New("boom")
	sel := NewSelector(stubStrategy{name: "remote", err: boom}, stubStrategy{name: "local", res: &LocalResult{}}, time.Second)

	out, err := sel.Process(context.Background(), Turn{})
	require.NoError(t, err)
	assert.True(t, out.Fallback)

	var remoteErr *RemoteCapabilityError
	require.ErrorAs(t, out.PrimaryErr, &remoteErr)
	assert.Equal(t, "remote", remoteErr.Stage)
	assert.ErrorIs(t, out.PrimaryErr, boom)
}

func TestSelectorRejectsNilResult(t *testing.T) {
	sel := NewSelector(nil, stubStrategy{name: "local"}, time.Second)
	_, err := sel.Process(context.Background(), Turn{})

	var localErr *LocalPipelineError
	require.ErrorAs(t, err, &localErr)
}

func TestResponseJSONCarriesOnlyOnePath(t *testing.T) {
	local, _ := newTestSupervisor(t, nil, 0)
	raw, err := json.Marshal(local.ProcessMessage(context.Background(), "j1", "Is my warranty still valid?"))
	require.NoError(t, err)

	var decoded struct {
		Metadata map[string]any `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded.Metadata, "quickActions")
	assert.Contains(t, decoded.Metadata, "route")
	assert.NotContains(t, decoded.Metadata, "citations")
	assert.NotContains(t, decoded.Metadata, "error")

	remote, _ := newTestSupervisor(t, agentcore.NewMockInvoker(), time.Second)
	raw, err = json.Marshal(remote.ProcessMessage(context.Background(), "j2", "Is my warranty still valid?"))
	require.NoError(t, err)
	decoded.Metadata = nil
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded.Metadata, "citations")
	assert.Contains(t, decoded.Metadata, "trace")
	assert.NotContains(t, decoded.Metadata, "quickActions")
}

func TestStatsRunningAverage(t *testing.T) {
	st := newStatsTracker()
	st.recordTurn(PathFallback, 10*time.Millisecond)
	st.recordTurn(PathFallback, 20*time.Millisecond)
	st.recordTurn(PathRemote, 30*time.Millisecond)
	st.recordFeature(FeatureRecommendations)

	snap := st.snapshot()
	assert.EqualValues(t, 3, snap.TotalRequests)
	assert.InDelta(t, 20.0, snap.AverageResponseTimeMS, 1e-9)
	assert.EqualValues(t, 3, snap.PerFeatureCounts[FeatureChat])
	assert.EqualValues(t, 1, snap.PerFeatureCounts[FeatureRecommendations])
	assert.EqualValues(t, 2, snap.PathCounts[PathFallback])
	assert.EqualValues(t, 1, snap.PathCounts[PathRemote])
}

func TestStatusProbesRemote(t *testing.T) {
	local, _ := newTestSupervisor(t, nil, 0)
	st := local.Status(context.Background())
	assert.Equal(t, "disabled", st.Remote.Status)

	healthy, _ := newTestSupervisor(t, agentcore.NewMockInvoker(), time.Second)
	healthy.ProcessMessage(context.Background(), "a", "hello")
	st = healthy.Status(context.Background())
	assert.Equal(t, "healthy", st.Remote.Status)
	assert.Equal(t, agentcore.ModeMock, st.Remote.Mode)
	assert.Equal(t, 1, st.ActiveSessions)
	assert.EqualValues(t, 1, st.TotalRequests)

	broken, _ := newTestSupervisor(t, failingInvoker{}, time.Second)
	st = broken.Status(context.Background())
	assert.Equal(t, "unhealthy", st.Remote.Status)
	assert.NotEmpty(t, st.Remote.Error)
}

func TestConcurrentSessionsDoNotInterfere(t *testing.T) {
	sup, sessions := newTestSupervisor(t, nil, 0)
	ids := []string{"a", "b", "c", "d"}

	var wg sync.WaitGroup
	for _, id := range ids {
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sup.ProcessMessage(context.Background(), id, "When is my next oil change due?")
			}()
		}
	}
	wg.Wait()

	assert.Equal(t, len(ids), sessions.Len())
	for _, id := range ids {
		snap, err := sup.Session(id)
		require.NoError(t, err)
		assert.Len(t, snap.History, 10, id)
	}
	assert.EqualValues(t, 20, sup.Stats().TotalRequests)
}

func TestSideTools(t *testing.T) {
	sup, _ := newTestSupervisor(t, nil, 0)
	sup.ProcessMessage(context.Background(), "shop", "What SUVs are available?")

	recs, err := sup.Recommend(RecommendationRequest{SessionID: "shop", Preferences: tools.Preferences{Budget: 30000, Lifestyle: "eco-conscious"}})
	require.NoError(t, err)
	assert.Equal(t, TypeRecommendations, recs.Type)
	assert.Equal(t, 0.85, recs.Confidence)
	require.NotEmpty(t, recs.Recommendations.Vehicles)

	booking, err := sup.BookService(ServiceBookingRequest{SessionID: "shop", CheckEngine: true})
	require.NoError(t, err)
	assert.Equal(t, TypeServiceBooking, booking.Type)
	assert.True(t, strings.HasPrefix(booking.Session.ID, "service_"))
	assert.NotEmpty(t, booking.UrgentAlerts)

	snap, err := sup.Session("shop")
	require.NoError(t, err)
	assert.Contains(t, snap.ActiveTaskRefs, booking.Session.ID)

	details, err := sup.ServiceDetails("oil_change")
	require.NoError(t, err)
	assert.Equal(t, TypeServiceDetails, details.Type)

	_, err = sup.ServiceDetails("warp_drive")
	assert.ErrorIs(t, err, tools.ErrUnknownService)

	st := sup.Stats()
	assert.EqualValues(t, 1, st.PerFeatureCounts[FeatureRecommendations])
	assert.EqualValues(t, 2, st.PerFeatureCounts[FeatureServiceBooking])
	assert.EqualValues(t, 1, st.TotalRequests)
}

type failingInvoker struct{}

func (failingInvoker) Name() string { return "failing" }
func (failingInvoker) Invoke(context.Context, agentcore.InvokeRequest) (agentcore.InvokeResult, error) {
	return agentcore.InvokeResult{}, &agentcore.StatusError{StatusCode: 502, Body: "bad gateway"}
}

type panickingInvoker struct{}

func (panickingInvoker) Name() string { return "panicking" }
func (panickingInvoker) Invoke(context.Context, agentcore.InvokeRequest) (agentcore.InvokeResult, error) {
	var attrs map[string]string
	attrs["stage"] = "intent"
	return agentcore.InvokeResult{}, nil
}

// gatedInvoker parks the first call for session until release is closed.
type gatedInvoker struct {
	inner   agentcore.Invoker
	session string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedInvoker) Name() string { return "gated" }
func (g *gatedInvoker) Invoke(ctx context.Context, req agentcore.InvokeRequest) (agentcore.InvokeResult, error) {
	if req.SessionID == g.session {
		g.once.Do(func() {
			close(g.entered)
			<-g.release
		})
	}
	return g.inner.Invoke(ctx, req)
}

type blockingInvoker struct{}

func (blockingInvoker) Name() string { return "blocking" }
func (blockingInvoker) Invoke(ctx context.Context, _ agentcore.InvokeRequest) (agentcore.InvokeResult, error) {
	<-ctx.Done()
	return agentcore.InvokeResult{}, ctx.Err()
}

type recordingInvoker struct {
	mu    sync.Mutex
	inner agentcore.Invoker
	seen  []agentcore.InvokeRequest
}

func (r *recordingInvoker) Name() string { return "recording" }
func (r *recordingInvoker) Invoke(ctx context.Context, req agentcore.InvokeRequest) (agentcore.InvokeResult, error) {
	r.mu.Lock()
	r.seen = append(r.seen, req)
	r.mu.Unlock()
	return r.inner.Invoke(ctx, req)
}

func (r *recordingInvoker) requests() []agentcore.InvokeRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]agentcore.InvokeRequest(nil), r.seen...)
}

type stubStrategy struct {
	name string
	res  Result
	err  error
}

func (s stubStrategy) Name() string { return s.name }
func (s stubStrategy) Process(context.Context, Turn) (Result, error) {
	return s.res, s.err
}
