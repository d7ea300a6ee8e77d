package session

import (
	"errors"
	"slices"
	"time"

	"github.com/ent0n29/contactcenter/internal/stages"
)

var ErrNotFound = errors.New("session not found")

// Session is the conversational state kept for one client-supplied id.
type Session struct {
	ID             string          `json:"sessionId"`
	History        []stages.Turn   `json:"history"`
	Profile        stages.Profile  `json:"customerProfile"`
	LastIntent     stages.Category `json:"lastIntent"`
	ActiveTaskRefs []string        `json:"activeTaskRefs"`
	CreatedAt      time.Time       `json:"createdAt"`
	LastActivityAt time.Time       `json:"lastActivityAt"`
}

// Append adds turns to the end of the history.
func (s *Session) Append(turns ...stages.Turn) {
	s.History = append(s.History, turns...)
}

// AddTaskRef records id once.
func (s *Session) AddTaskRef(id string) {
	if id == "" || slices.Contains(s.ActiveTaskRefs, id) {
		return
	}
	s.ActiveTaskRefs = append(s.ActiveTaskRefs, id)
}

// RecentTurns returns up to n trailing history entries.
func (s *Session) RecentTurns(n int) []stages.Turn {
	if n <= 0 || len(s.History) == 0 {
		return nil
	}
	start := max(len(s.History)-n, 0)
	return slices.Clone(s.History[start:])
}

func clone(s *Session) *Session {
	c := *s
	c.History = slices.Clone(s.History)
	c.Profile = s.Profile.Clone()
	c.ActiveTaskRefs = slices.Clone(s.ActiveTaskRefs)
	return &c
}

// Store is the session registry used by the orchestrator.
type Store interface {
	// Get returns a copy of the session.
	Get(id string) (*Session, error)
	// GetOrCreate returns a copy of the session, creating it when absent.
	GetOrCreate(id string) (s *Session, created bool)
	Touch(id string) error
	// Update applies fn to the stored session under the store lock.
	Update(id string, fn func(*Session)) error
	// Lock serialises turns of one session. The returned func releases it.
	Lock(id string) (unlock func())
	Len() int
}

// EvictReason explains why a session left the store.
type EvictReason string

const (
	EvictCapacity EvictReason = "capacity"
	EvictIdle     EvictReason = "idle"
)
