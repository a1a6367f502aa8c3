// Package session holds the observable per-client authentication state.
//
// A Store is the single source of truth for whether a client is authenticated and which
// profile is loaded. Every transition is published exactly once to subscribers, in order.
// An epoch counter guards profile writes so that a response arriving after a logout
// cannot resurrect the cleared session.
package session

import (
	"sync"

	domainauth "github.com/aulaweb/aula-admin/internal/domain/auth"
)

// Listener observes published snapshots. Listeners run synchronously on the
// transitioning goroutine and must not mutate the store.
type Listener func(domainauth.Snapshot)

// Store is a mutex-guarded session state container.
type Store struct {
	mu        sync.Mutex
	snap      domainauth.Snapshot
	epoch     uint64
	listeners map[uint64]Listener
	nextID    uint64

	// pub serializes delivery so subscribers observe transitions in commit order.
	pub sync.Mutex
}

// NewStore creates a store. authenticated seeds the state from token presence.
func NewStore(authenticated bool) *Store {
	return &Store{
		snap:      domainauth.Snapshot{Authenticated: authenticated},
		epoch:     1,
		listeners: make(map[uint64]Listener),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domainauth.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySnapshot(s.snap)
}

// State returns the derived lifecycle state.
func (s *Store) State() domainauth.State {
	return s.Snapshot().State()
}

// Epoch returns the current session epoch. It changes on every authentication
// boundary (login, logout, invalidation).
func (s *Store) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Subscribe registers fn and immediately delivers the current snapshot to it.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn Listener) func() {
	s.pub.Lock()
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	snap := copySnapshot(s.snap)
	s.mu.Unlock()
	fn(snap)
	s.pub.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

// MarkAuthenticated starts a fresh authenticated session without a profile and
// returns its epoch.
func (s *Store) MarkAuthenticated() uint64 {
	var epoch uint64
	s.transition(func() bool {
		s.epoch++
		s.snap = domainauth.Snapshot{Authenticated: true}
		epoch = s.epoch
		return true
	})
	return epoch
}

// Rehydrate marks the store authenticated when a token is known to exist but the
// in-memory state was lost. It keeps any loaded profile and returns the current epoch.
func (s *Store) Rehydrate() uint64 {
	var epoch uint64
	s.transition(func() bool {
		if s.snap.Authenticated {
			epoch = s.epoch
			return false
		}
		s.epoch++
		s.snap = domainauth.Snapshot{Authenticated: true}
		epoch = s.epoch
		return true
	})
	return epoch
}

// SetUser attaches a profile, but only while the session that requested it is still
// current and authenticated. It reports whether the profile was applied.
func (s *Store) SetUser(epoch uint64, user domainauth.CurrentUser) bool {
	applied := false
	s.transition(func() bool {
		if epoch != s.epoch || !s.snap.Authenticated {
			return false
		}
		u := user
		s.snap.User = &u
		applied = true
		return true
	})
	return applied
}

// Reset clears the session in a single transition: authenticated=false and user=nil
// are published together.
func (s *Store) Reset() {
	s.transition(func() bool {
		s.epoch++
		s.snap = domainauth.Snapshot{}
		return true
	})
}

// Invalidate resets the session only if epoch is still current. It reports whether
// a reset happened.
func (s *Store) Invalidate(epoch uint64) bool {
	reset := false
	s.transition(func() bool {
		if epoch != s.epoch {
			return false
		}
		s.epoch++
		s.snap = domainauth.Snapshot{}
		reset = true
		return true
	})
	return reset
}

// transition applies mutate under the state lock and publishes the result when
// mutate reports a change.
func (s *Store) transition(mutate func() bool) {
	s.pub.Lock()
	defer s.pub.Unlock()

	s.mu.Lock()
	changed := mutate()
	if !changed {
		s.mu.Unlock()
		return
	}
	snap := copySnapshot(s.snap)
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap)
	}
}

func copySnapshot(in domainauth.Snapshot) domainauth.Snapshot {
	out := domainauth.Snapshot{Authenticated: in.Authenticated}
	if in.User != nil {
		u := *in.User
		out.User = &u
	}
	return out
}
