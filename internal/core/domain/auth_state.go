package domain

import "time"

// AuthState is the per-console authentication state.
//
// IsAuthenticated is true exactly when Session is non-nil, and Role is RoleVisitor whenever the
// console is unauthenticated. The state store enforces both after every transition.
type AuthState struct {
	User             *User
	Session          *Session
	Profile          *Profile
	Role             Role
	IsAuthenticated  bool
	AuthAttemptCount int
	LastAuthAttempt  time.Time
	LastActivity     time.Time
}

// InitialAuthState returns the unauthenticated default.
func InitialAuthState() AuthState {
	return AuthState{Role: RoleVisitor}
}

// Clone returns a deep copy so callers cannot mutate shared state through a snapshot.
func (s AuthState) Clone() AuthState {
	cp := s
	if s.User != nil {
		u := s.User.Clone()
		cp.User = &u
	}
	cp.Session = s.Session.Clone()
	if s.Profile != nil {
		p := *s.Profile
		cp.Profile = &p
	}
	return cp
}
