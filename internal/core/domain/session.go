package domain

import "time"

// Session is the credential bundle issued by the backend auth service.
type Session struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresAt    time.Time
	User         User
}

// IsActive reports whether the access token is still valid at the supplied moment.
func (s Session) IsActive(at time.Time) bool {
	return s.ExpiresAt.After(at)
}

// ExpiresWithin reports whether the access token expires inside the given margin.
func (s Session) ExpiresWithin(at time.Time, margin time.Duration) bool {
	return !s.ExpiresAt.After(at.Add(margin))
}

// Clone returns a deep copy of the session so snapshots never share metadata maps.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	cp.User = s.User.Clone()
	return &cp
}

// AuthEvent names a session change emitted by the auth service.
type AuthEvent string

const (
	AuthEventInitialSession AuthEvent = "INITIAL_SESSION"
	AuthEventSignedIn       AuthEvent = "SIGNED_IN"
	AuthEventSignedOut      AuthEvent = "SIGNED_OUT"
	AuthEventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
	AuthEventUserUpdated    AuthEvent = "USER_UPDATED"
)

// AuthChangeFunc receives session change notifications. The session is nil on sign-out.
type AuthChangeFunc func(event AuthEvent, session *Session)
