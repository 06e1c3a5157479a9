package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/claudemarjean/Ivony/internal/core/domain"
)

func testSession(role string) *domain.Session {
	return &domain.Session{
		AccessToken: "access",
		ExpiresAt:   time.Now().Add(time.Hour),
		User: domain.User{
			ID:           "u-1",
			Email:        "admin@ivony.io",
			UserMetadata: map[string]any{"role": role},
		},
	}
}

func TestNewStoreStartsUnauthenticated(t *testing.T) {
	s := New()
	snap := s.Snapshot()

	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.Session)
	assert.Equal(t, domain.RoleVisitor, snap.Role)
	assert.Zero(t, snap.AuthAttemptCount)
}

func TestSetKeepsAuthenticationInvariant(t *testing.T) {
	s := New()

	s.Set(func(st *domain.AuthState) { st.IsAuthenticated = true; st.Role = domain.RoleAdmin })
	snap := s.Snapshot()
	assert.False(t, snap.IsAuthenticated, "no session means unauthenticated")
	assert.Equal(t, domain.RoleVisitor, snap.Role)

	s.Set(SignedIn(testSession("manager"), domain.RoleManager))
	snap = s.Snapshot()
	assert.True(t, snap.IsAuthenticated)
	assert.Equal(t, domain.RoleManager, snap.Role)
	require.NotNil(t, snap.User)
	assert.Equal(t, "u-1", snap.User.ID)

	s.Set(func(st *domain.AuthState) { st.Session = nil })
	snap = s.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Equal(t, domain.RoleVisitor, snap.Role)
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New()
	s.Set(SignedIn(testSession("admin"), domain.RoleAdmin))

	snap := s.Snapshot()
	snap.Session.AccessToken = "tampered"
	snap.User.UserMetadata["role"] = "viewer"
	snap.Role = domain.RoleViewer

	again := s.Snapshot()
	assert.Equal(t, "access", again.Session.AccessToken)
	assert.Equal(t, "admin", again.User.UserMetadata["role"])
	assert.Equal(t, domain.RoleAdmin, again.Role)
}

func TestSubscribersNotifiedInOrderOncePerSet(t *testing.T) {
	s := New()

	var calls []string
	unsubA := s.Subscribe(func(st domain.AuthState) { calls = append(calls, "a") })
	s.Subscribe(func(st domain.AuthState) {
		calls = append(calls, "b")
		assert.Equal(t, 3, st.AuthAttemptCount)
	})

	s.Set(AttemptCount(1), AttemptCount(2), AttemptCount(3))
	assert.Equal(t, []string{"a", "b"}, calls)

	unsubA()
	unsubA()
	calls = nil
	s.Set(AttemptCount(3))
	assert.Equal(t, []string{"b"}, calls)
}

func TestListenerMayReadStore(t *testing.T) {
	s := New()
	var seen domain.AuthState
	s.Subscribe(func(domain.AuthState) { seen = s.Snapshot() })

	s.Set(Activity(time.Unix(100, 0)))
	assert.Equal(t, time.Unix(100, 0), seen.LastActivity)
}

func TestResetKeepsAttemptCounters(t *testing.T) {
	s := New()
	at := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	s.Set(SignedIn(testSession("admin"), domain.RoleAdmin), Attempts(2, at), WithProfile(&domain.Profile{ID: "u-1"}))
	s.Reset()

	snap := s.Snapshot()
	assert.False(t, snap.IsAuthenticated)
	assert.Nil(t, snap.User)
	assert.Nil(t, snap.Profile)
	assert.Equal(t, domain.RoleVisitor, snap.Role)
	assert.Equal(t, 2, snap.AuthAttemptCount)
	assert.Equal(t, at, snap.LastAuthAttempt)
}
