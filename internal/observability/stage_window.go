package observability

import (
	"math"
	"slices"
	"strings"
	"sync"
	"time"
)

// Stage groups shown by the perf snapshot.
const (
	GroupLocal  = "local"
	GroupRemote = "remote"
	GroupTurn   = "turn"
	GroupOther  = "other"
)

type stageProfile struct {
	name        string
	group       string
	targetP95MS float64
}

// stageProfiles lists known stages in the order a turn runs them: the
// local pipeline, the remote strands, then whole turns per path.
var stageProfiles = []stageProfile{
	{"sentiment", GroupLocal, 2},
	{"intent", GroupLocal, 2},
	{"routing", GroupLocal, 2},
	{"knowledge", GroupLocal, 5},
	{"personalization", GroupLocal, 2},
	{"response", GroupLocal, 5},
	{"remote_intent", GroupRemote, 5000},
	{"remote_knowledge", GroupRemote, 5000},
	{"remote_personalization", GroupRemote, 5000},
	{"remote_response", GroupRemote, 5000},
	{"turn_remote", GroupTurn, 15000},
	{"turn_fallback", GroupTurn, 50},
	{"turn_error", GroupTurn, 50},
}

func profileFor(stage string) (stageProfile, int) {
	for i, p := range stageProfiles {
		if p.name == stage {
			return p, i
		}
	}
	return stageProfile{name: stage, group: GroupOther}, len(stageProfiles)
}

type StageStats struct {
	Stage       string  `json:"stage"`
	Group       string  `json:"group"`
	Samples     int     `json:"samples"`
	LastMS      float64 `json:"last_ms"`
	AvgMS       float64 `json:"avg_ms"`
	P50MS       float64 `json:"p50_ms"`
	P95MS       float64 `json:"p95_ms"`
	P99MS       float64 `json:"p99_ms"`
	TargetP95MS float64 `json:"target_p95_ms,omitempty"`
	// OverBudget is set when p95 exceeds the stage target.
	OverBudget bool `json:"over_budget,omitempty"`
}

type Indicator struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type StageSnapshot struct {
	GeneratedAt time.Time    `json:"generated_at"`
	WindowSize  int          `json:"window_size"`
	Stages      []StageStats `json:"stages"`
	Indicators  []Indicator  `json:"indicators,omitempty"`
}

// StageWindow keeps the most recent latency samples per stage, plus
// counters for notable events such as remote failures.
type StageWindow struct {
	mu         sync.RWMutex
	size       int
	samples    map[string]*sampleRing
	indicators map[string]int
	now        func() time.Time
}

// sampleRing overwrites its oldest value once full.
type sampleRing struct {
	values []float64
	count  int
	last   float64
}

func (r *sampleRing) add(v float64) {
	r.values[r.count%len(r.values)] = v
	r.count++
	r.last = v
}

func (r *sampleRing) sorted() []float64 {
	out := slices.Clone(r.values[:min(r.count, len(r.values))])
	slices.Sort(out)
	return out
}

func NewStageWindow(size int) *StageWindow {
	if size <= 0 {
		size = 256
	}
	return &StageWindow{
		size:       size,
		samples:    make(map[string]*sampleRing),
		indicators: make(map[string]int),
		now:        time.Now,
	}
}

func (w *StageWindow) Observe(stage string, ms float64) {
	if w == nil || stage == "" || ms < 0 {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	r, ok := w.samples[stage]
	if !ok {
		r = &sampleRing{values: make([]float64, w.size)}
		w.samples[stage] = r
	}
	r.add(ms)
}

func (w *StageWindow) ObserveIndicator(name string) {
	if w == nil {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.indicators[name]++
}

// Snapshot returns stats in run order; stages without a profile follow
// in name order.
func (w *StageWindow) Snapshot() StageSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stats := make([]StageStats, 0, len(w.samples))
	for stage, r := range w.samples {
		values := r.sorted()
		if len(values) == 0 {
			continue
		}
		sum := 0.0
		for _, v := range values {
			sum += v
		}
		profile, _ := profileFor(stage)
		p95 := round2(quantile(values, 0.95))
		stats = append(stats, StageStats{
			Stage:       stage,
			Group:       profile.group,
			Samples:     len(values),
			LastMS:      round2(r.last),
			AvgMS:       round2(sum / float64(len(values))),
			P50MS:       round2(quantile(values, 0.50)),
			P95MS:       p95,
			P99MS:       round2(quantile(values, 0.99)),
			TargetP95MS: profile.targetP95MS,
			OverBudget:  profile.targetP95MS > 0 && p95 > profile.targetP95MS,
		})
	}
	slices.SortFunc(stats, func(a, b StageStats) int {
		_, ai := profileFor(a.Stage)
		_, bi := profileFor(b.Stage)
		if ai != bi {
			return ai - bi
		}
		return strings.Compare(a.Stage, b.Stage)
	})

	indicators := make([]Indicator, 0, len(w.indicators))
	for name, count := range w.indicators {
		if count > 0 {
			indicators = append(indicators, Indicator{Name: name, Count: count})
		}
	}
	slices.SortFunc(indicators, func(a, b Indicator) int { return strings.Compare(a.Name, b.Name) })

	return StageSnapshot{
		GeneratedAt: w.now().UTC(),
		WindowSize:  w.size,
		Stages:      stats,
		Indicators:  indicators,
	}
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	idx := q * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
