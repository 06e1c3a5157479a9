package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/infra/config"
)

func TestLoginLimiterEvaluate(t *testing.T) {
	now := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	limiter := NewLoginLimiter(DefaultLimiterPolicy(), func() time.Time { return now })

	cases := []struct {
		name      string
		count     int
		last      time.Time
		wantState LimiterState
		wantCount int
		wantReset bool
	}{
		{name: "fresh console", count: 0, wantState: LimiterOpen},
		{name: "below max", count: 4, last: now.Add(-10 * time.Second), wantState: LimiterOpen, wantCount: 4},
		{name: "locked", count: 5, last: now.Add(-30 * time.Second), wantState: LimiterLocked, wantCount: 5},
		{name: "lockout elapsed inside window", count: 5, last: now.Add(-6 * time.Minute), wantState: LimiterOpen, wantCount: 5},
		{name: "window expired", count: 7, last: now.Add(-16 * time.Minute), wantState: LimiterOpen, wantCount: 0, wantReset: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := limiter.Evaluate(domain.AuthState{AuthAttemptCount: tc.count, LastAuthAttempt: tc.last})
			if d.State != tc.wantState {
				t.Fatalf("expected state %v, got %v", tc.wantState, d.State)
			}
			if d.Count != tc.wantCount {
				t.Fatalf("expected count %d, got %d", tc.wantCount, d.Count)
			}
			if d.WindowReset != tc.wantReset {
				t.Fatalf("expected window reset %v, got %v", tc.wantReset, d.WindowReset)
			}
			if (d.Err != nil) != (tc.wantState == LimiterLocked) {
				t.Fatalf("unexpected error %v for state %v", d.Err, d.State)
			}
		})
	}
}

func TestLockoutErrorMessage(t *testing.T) {
	cases := []struct {
		remaining time.Duration
		want      string
	}{
		{remaining: 4*time.Minute + 30*time.Second, want: "Too many failed attempts. Please try again in 5 minutes."},
		{remaining: 2 * time.Minute, want: "Too many failed attempts. Please try again in 2 minutes."},
		{remaining: 59 * time.Second, want: "Too many failed attempts. Please try again in 1 minute."},
		{remaining: time.Millisecond, want: "Too many failed attempts. Please try again in 1 minute."},
	}

	for _, tc := range cases {
		err := &LockoutError{Remaining: tc.remaining}
		if err.Error() != tc.want {
			t.Fatalf("remaining %v: expected %q, got %q", tc.remaining, tc.want, err.Error())
		}
		if !errors.Is(err, ErrLockedOut) {
			t.Fatalf("expected lockout error to match ErrLockedOut")
		}
	}
}

func TestLimiterPolicyFromConfig(t *testing.T) {
	p := LimiterPolicyFromConfig(config.AuthSettings{MaxAttempts: 3})
	if p.MaxAttempts != 3 || p.LockoutDuration != LockoutDuration || p.AttemptWindow != AttemptWindow {
		t.Fatalf("unexpected policy %+v", p)
	}
}
