// Package state holds the per-console authentication state container.
package state

import (
	"sync"
	"time"

	"github.com/claudemarjean/Ivony/internal/core/domain"
)

// Patch mutates a working copy of the state during a transition.
type Patch func(*domain.AuthState)

// Listener receives a snapshot after every transition.
type Listener func(domain.AuthState)

type subscription struct {
	id int
	fn Listener
}

// Store is an observable AuthState container. The zero value is not usable; call New.
type Store struct {
	mu        sync.Mutex
	state     domain.AuthState
	listeners []subscription
	nextID    int
}

// New returns a store holding the unauthenticated default state.
func New() *Store {
	return &Store{state: domain.InitialAuthState()}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domain.AuthState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Set applies patches in order, normalizes the result and notifies every listener once,
// in subscription order, with the new snapshot.
func (s *Store) Set(patches ...Patch) {
	s.mu.Lock()
	next := s.state.Clone()
	for _, p := range patches {
		if p != nil {
			p(&next)
		}
	}
	normalize(&next)
	s.state = next
	snapshot := next.Clone()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, sub := range s.listeners {
		listeners = append(listeners, sub.fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snapshot.Clone())
	}
}

// Reset clears identity and session while keeping the login attempt bookkeeping.
func (s *Store) Reset() {
	s.Set(func(st *domain.AuthState) {
		st.User = nil
		st.Session = nil
		st.Profile = nil
		st.Role = domain.RoleVisitor
		st.IsAuthenticated = false
	})
}

// Subscribe registers fn and returns a function removing it. Calling the returned
// function more than once is harmless.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func normalize(st *domain.AuthState) {
	st.IsAuthenticated = st.Session != nil
	if !st.IsAuthenticated {
		st.Role = domain.RoleVisitor
		return
	}
	if st.Role == "" || st.Role == domain.RoleVisitor {
		st.Role = domain.RoleViewer
	}
}

// SignedIn stores session, user and role.
func SignedIn(session *domain.Session, role domain.Role) Patch {
	return func(st *domain.AuthState) {
		st.Session = session.Clone()
		if session != nil {
			u := session.User.Clone()
			st.User = &u
		}
		st.Role = role
	}
}

// Attempts records the login attempt counter and its timestamp.
func Attempts(count int, at time.Time) Patch {
	return func(st *domain.AuthState) {
		st.AuthAttemptCount = count
		st.LastAuthAttempt = at
	}
}

// AttemptCount overwrites the counter and leaves the timestamp untouched.
func AttemptCount(count int) Patch {
	return func(st *domain.AuthState) {
		st.AuthAttemptCount = count
	}
}

// WithProfile stores the console profile.
func WithProfile(p *domain.Profile) Patch {
	return func(st *domain.AuthState) {
		if p == nil {
			st.Profile = nil
			return
		}
		cp := *p
		st.Profile = &cp
	}
}

// Activity records the last console activity.
func Activity(at time.Time) Patch {
	return func(st *domain.AuthState) {
		st.LastActivity = at
	}
}
