package orchestrator

import (
	"maps"
	"sync"
	"time"
)

// Feature labels counted by the supervisor.
const (
	FeatureChat            = "chat"
	FeatureRecommendations = "recommendations"
	FeatureServiceBooking  = "service_booking"
)

// Stats is a point-in-time copy of the running counters.
type Stats struct {
	TotalRequests         int64            `json:"totalRequests"`
	AverageResponseTimeMS float64          `json:"averageResponseTimeMs"`
	PerFeatureCounts      map[string]int64 `json:"perFeatureCounts"`
	PathCounts            map[string]int64 `json:"pathCounts"`
}

type statsTracker struct {
	mu       sync.Mutex
	total    int64
	avgMS    float64
	features map[string]int64
	paths    map[string]int64
}

func newStatsTracker() *statsTracker {
	return &statsTracker{
		features: make(map[string]int64),
		paths:    make(map[string]int64),
	}
}

// recordTurn counts a chat turn and folds its latency into the running mean.
func (t *statsTracker) recordTurn(path string, elapsed time.Duration) {
	ms := float64(elapsed) / float64(time.Millisecond)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.total++
	t.avgMS = (t.avgMS*float64(t.total-1) + ms) / float64(t.total)
	t.features[FeatureChat]++
	t.paths[path]++
}

func (t *statsTracker) recordFeature(feature string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.features[feature]++
}

func (t *statsTracker) snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Stats{
		TotalRequests:         t.total,
		AverageResponseTimeMS: t.avgMS,
		PerFeatureCounts:      maps.Clone(t.features),
		PathCounts:            maps.Clone(t.paths),
	}
}
