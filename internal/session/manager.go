package session

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/ent0n29/contactcenter/internal/stages"
)

const (
	defaultMaxEntries = 10000
	defaultIdleTTL    = 30 * time.Minute
)

type Options struct {
	MaxEntries int
	IdleTTL    time.Duration
	// Profiles are sample customers; one is assigned to each new session.
	Profiles []stages.Profile
	Rand     stages.Rand
	Now      func() time.Time
}

// Manager is a bounded in-memory Store. Sessions are kept in recency order
// and dropped when the store is full or when idle longer than IdleTTL.
type Manager struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front is most recently used
	maxEntries int
	idleTTL    time.Duration
	profiles   []stages.Profile
	rand       stages.Rand
	now        func() time.Time
	onEvict    func(*Session, EvictReason)

	turns keyedMutex
}

var _ Store = (*Manager)(nil)

func NewManager(opts Options) *Manager {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = defaultMaxEntries
	}
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	if opts.Rand == nil {
		opts.Rand = stages.NewRand(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Manager{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: opts.MaxEntries,
		idleTTL:    opts.IdleTTL,
		profiles:   opts.Profiles,
		rand:       opts.Rand,
		now:        opts.Now,
		turns:      keyedMutex{locks: make(map[string]*refLock)},
	}
}

func (m *Manager) SetEvictHook(hook func(*Session, EvictReason)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onEvict = hook
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(el.Value.(*Session)), nil
}

func (m *Manager) GetOrCreate(id string) (*Session, bool) {
	now := m.now().UTC()

	m.mu.Lock()
	if el, ok := m.entries[id]; ok {
		s := el.Value.(*Session)
		s.LastActivityAt = now
		m.order.MoveToFront(el)
		out := clone(s)
		m.mu.Unlock()
		return out, false
	}

	s := &Session{
		ID:             id,
		History:        []stages.Turn{},
		Profile:        m.pickProfile(),
		ActiveTaskRefs: []string{},
		CreatedAt:      now,
		LastActivityAt: now,
	}
	m.entries[id] = m.order.PushFront(s)

	// Sessions with a turn in progress stay; the store may run over
	// capacity until they finish.
	var evicted []*Session
	for el := m.order.Back(); el != nil && m.order.Len() > m.maxEntries; {
		prev := el.Prev()
		if victim := el.Value.(*Session); victim.ID != id && !m.turns.held(victim.ID) {
			evicted = append(evicted, m.removeElement(el))
		}
		el = prev
	}
	out := clone(s)
	hook := m.onEvict
	m.mu.Unlock()

	notify(hook, evicted, EvictCapacity)
	return out, true
}

func (m *Manager) Touch(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[id]
	if !ok {
		return ErrNotFound
	}
	el.Value.(*Session).LastActivityAt = m.now().UTC()
	m.order.MoveToFront(el)
	return nil
}

func (m *Manager) Update(id string, fn func(*Session)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.entries[id]
	if !ok {
		return ErrNotFound
	}
	s := el.Value.(*Session)
	fn(s)
	s.ID = id
	s.LastActivityAt = m.now().UTC()
	m.order.MoveToFront(el)
	return nil
}

func (m *Manager) Lock(id string) func() {
	return m.turns.lock(id)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// StartJanitor expires idle sessions every interval until ctx is done. The
// returned channel is closed once the janitor goroutine has exited.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) <-chan struct{} {
	if interval <= 0 {
		interval = time.Minute
	}
	done := make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer close(done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.ExpireIdle()
			}
		}
	}()
	return done
}

// ExpireIdle drops every session idle for at least IdleTTL and returns how
// many were removed.
func (m *Manager) ExpireIdle() int {
	now := m.now().UTC()
	var expired []*Session

	m.mu.Lock()
	for el := m.order.Back(); el != nil; {
		prev := el.Prev()
		s := el.Value.(*Session)
		if now.Sub(s.LastActivityAt) < m.idleTTL {
			break
		}
		if !m.turns.held(s.ID) {
			expired = append(expired, m.removeElement(el))
		}
		el = prev
	}
	hook := m.onEvict
	m.mu.Unlock()

	notify(hook, expired, EvictIdle)
	return len(expired)
}

func (m *Manager) removeElement(el *list.Element) *Session {
	s := m.order.Remove(el).(*Session)
	delete(m.entries, s.ID)
	return s
}

func (m *Manager) pickProfile() stages.Profile {
	if len(m.profiles) == 0 {
		return stages.DefaultProfile()
	}
	return m.profiles[m.rand.IntN(len(m.profiles))].Clone()
}

func notify(hook func(*Session, EvictReason), sessions []*Session, reason EvictReason) {
	if hook == nil {
		return
	}
	for _, s := range sessions {
		hook(s, reason)
	}
}

// keyedMutex hands out one mutex per key and forgets keys nobody holds.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	mu   sync.Mutex
	refs int
}

// held reports whether a turn holds or waits for key.
func (k *keyedMutex) held(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[key]
	return ok && l.refs > 0
}

func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
