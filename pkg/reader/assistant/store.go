package assistant

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ArionMiles/voxpense/pkg/voice"
)

// Status is where an assistant expense is in its lifecycle.
type Status string

const (
	// StatusPending waits for the user to confirm.
	StatusPending Status = "pending"
	// StatusSubmitted has been handed to the writer.
	StatusSubmitted Status = "submitted"
	// StatusSaved has been acknowledged by the writer.
	StatusSaved Status = "saved"
)

type entry struct {
	parsed  voice.ParsedExpense
	status  Status
	expires time.Time
}

// store tracks recent expenses by ID. Entries expire after ttl; a pending
// entry that expires is dropped without being saved.
type store struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[uuid.UUID]*entry
}

func newStore(ttl time.Duration, now func() time.Time) *store {
	return &store{
		ttl:     ttl,
		now:     now,
		entries: make(map[uuid.UUID]*entry),
	}
}

func (s *store) put(id uuid.UUID, parsed voice.ParsedExpense, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &entry{parsed: parsed, status: status, expires: s.now().Add(s.ttl)}
}

func (s *store) get(id uuid.UUID) (entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok {
		return entry{}, false
	}
	return *e, true
}

// transition moves id from one status to another. It reports false when the
// entry is missing, expired or not in status from.
func (s *store) transition(id uuid.UUID, from, to Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok || e.status != from {
		return false
	}
	e.status = to
	e.expires = s.now().Add(s.ttl)
	return true
}

// submit records the confirmed parse and moves a pending entry to submitted.
func (s *store) submit(id uuid.UUID, parsed voice.ParsedExpense) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok || e.status != StatusPending {
		return false
	}
	e.parsed = parsed
	e.status = StatusSubmitted
	e.expires = s.now().Add(s.ttl)
	return true
}

// remove deletes a pending entry.
func (s *store) remove(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.live(id)
	if !ok || e.status != StatusPending {
		return false
	}
	delete(s.entries, id)
	return true
}

// purge drops expired entries and returns how many pending ones remain.
func (s *store) purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	pending := 0
	for id, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, id)
			continue
		}
		if e.status == StatusPending {
			pending++
		}
	}
	return pending
}

func (s *store) live(id uuid.UUID) (*entry, bool) {
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expires) {
		delete(s.entries, id)
		return nil, false
	}
	return e, true
}
