package stages

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Rand picks among equally valid outputs (templates, sample customers).
type Rand interface {
	IntN(n int) int
}

// LockedRand is a seedable Rand that is safe for concurrent use.
type LockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewRand returns a Rand seeded with seed, or with the wall clock when seed is 0.
func NewRand(seed uint64) *LockedRand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &LockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// IntN returns a value in [0, n). It returns 0 when n <= 0.
func (l *LockedRand) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// FixedRand always returns the same index, clamped to n-1.
type FixedRand int

func (f FixedRand) IntN(n int) int {
	if n <= 0 || int(f) < 0 {
		return 0
	}
	if int(f) >= n {
		return n - 1
	}
	return int(f)
}
