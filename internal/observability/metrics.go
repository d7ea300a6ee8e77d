package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service. Each
// instance owns its registry so several can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	ActiveSessions   prometheus.Gauge
	SessionEvictions *prometheus.CounterVec
	ChatTurns        *prometheus.CounterVec
	FeatureRequests  *prometheus.CounterVec
	RemoteErrors     *prometheus.CounterVec
	WSMessages       *prometheus.CounterVec
	TurnLatency      *prometheus.HistogramVec
	StageLatency     *prometheus.HistogramVec

	Stages *StageWindow
}

func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ActiveSessions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_sessions",
			Help:      "Number of sessions held in memory.",
		}),
		SessionEvictions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_evictions_total",
			Help:      "Sessions removed from memory by reason.",
		}, []string{"reason"}),
		ChatTurns: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_turns_total",
			Help:      "Chat turns by processing path (remote, fallback, error).",
		}, []string{"path"}),
		FeatureRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feature_requests_total",
			Help:      "Requests by feature.",
		}, []string{"feature"}),
		RemoteErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_agent_errors_total",
			Help:      "Remote agent failures by stage and cause.",
		}, []string{"stage", "cause"}),
		WSMessages: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ws_messages_total",
			Help:      "WebSocket messages by direction and type.",
		}, []string{"direction", "type"}),
		TurnLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "End-to-end chat turn latency in milliseconds.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000},
		}, []string{"path"}),
		StageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_latency_ms",
			Help:      "Per-stage processing latency in milliseconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 50, 250, 1000, 5000},
		}, []string{"stage"}),
		Stages: NewStageWindow(256),
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// ObserveStage records one stage run. It satisfies stages.StageObserver.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageLatency.WithLabelValues(stage).Observe(ms(d))
	m.Stages.Observe(stage, ms(d))
}

// ObserveTurn records a finished chat turn under its path label.
func (m *Metrics) ObserveTurn(path string, d time.Duration) {
	if m == nil {
		return
	}
	m.ChatTurns.WithLabelValues(path).Inc()
	m.TurnLatency.WithLabelValues(path).Observe(ms(d))
	m.Stages.Observe("turn_"+path, ms(d))
}

func (m *Metrics) ObserveRemoteError(stage, cause string) {
	if m == nil {
		return
	}
	m.RemoteErrors.WithLabelValues(stage, cause).Inc()
	m.Stages.ObserveIndicator("remote_error_" + stage)
}

func (m *Metrics) ObserveFeature(feature string) {
	if m == nil {
		return
	}
	m.FeatureRequests.WithLabelValues(feature).Inc()
}

func (m *Metrics) ObserveEviction(reason string) {
	if m == nil {
		return
	}
	m.SessionEvictions.WithLabelValues(reason).Inc()
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

func (m *Metrics) ObserveWS(direction, msgType string) {
	if m == nil {
		return
	}
	m.WSMessages.WithLabelValues(direction, msgType).Inc()
}

// Handler serves this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
