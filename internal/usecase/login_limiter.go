package usecase

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/infra/config"
)

const (
	MaxAttempts     = 5
	LockoutDuration = 5 * time.Minute
	AttemptWindow   = 15 * time.Minute
)

// ErrLockedOut matches every lockout rejection.
var ErrLockedOut = errors.New("login locked out")

// LockoutError rejects a login locally while the console is locked out.
type LockoutError struct {
	Remaining time.Duration
}

// Minutes is the remaining lockout rounded up to whole minutes, at least 1.
func (e *LockoutError) Minutes() int {
	minutes := int(math.Ceil(e.Remaining.Minutes()))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func (e *LockoutError) Error() string {
	n := e.Minutes()
	unit := "minute"
	if n > 1 {
		unit = "minutes"
	}
	return fmt.Sprintf("Too many failed attempts. Please try again in %d %s.", n, unit)
}

func (e *LockoutError) Is(target error) bool { return target == ErrLockedOut }

// LimiterState is the state of the login limiter.
type LimiterState int

const (
	LimiterOpen LimiterState = iota
	LimiterLocked
)

func (s LimiterState) String() string {
	if s == LimiterLocked {
		return "locked"
	}
	return "open"
}

// LimiterPolicy holds the limiter thresholds.
type LimiterPolicy struct {
	MaxAttempts     int
	LockoutDuration time.Duration
	AttemptWindow   time.Duration
}

// DefaultLimiterPolicy returns 5 attempts, a 5 minute lockout and a 15 minute window.
func DefaultLimiterPolicy() LimiterPolicy {
	return LimiterPolicy{MaxAttempts: MaxAttempts, LockoutDuration: LockoutDuration, AttemptWindow: AttemptWindow}
}

// LimiterPolicyFromConfig reads the auth settings, falling back to the defaults for unset values.
func LimiterPolicyFromConfig(cfg config.AuthSettings) LimiterPolicy {
	p := DefaultLimiterPolicy()
	if cfg.MaxAttempts > 0 {
		p.MaxAttempts = cfg.MaxAttempts
	}
	if cfg.LockoutDuration > 0 {
		p.LockoutDuration = cfg.LockoutDuration
	}
	if cfg.AttemptWindow > 0 {
		p.AttemptWindow = cfg.AttemptWindow
	}
	return p
}

// LoginLimiter decides whether a login attempt may reach the auth service. It keeps no state of
// its own: counters live in the console's AuthState.
type LoginLimiter struct {
	policy LimiterPolicy
	now    func() time.Time
}

func NewLoginLimiter(policy LimiterPolicy, now func() time.Time) *LoginLimiter {
	if now == nil {
		now = time.Now
	}
	return &LoginLimiter{policy: policy, now: now}
}

// LimiterDecision is the outcome of evaluating a pending attempt.
type LimiterDecision struct {
	State LimiterState
	// Count is the attempt count after the window reset, before this attempt.
	Count int
	// WindowReset is true when the stored counter expired and must be cleared.
	WindowReset bool
	At          time.Time
	Err         error
}

// Evaluate inspects the counters of st at the limiter's current time.
func (l *LoginLimiter) Evaluate(st domain.AuthState) LimiterDecision {
	now := l.now()
	d := LimiterDecision{State: LimiterOpen, Count: st.AuthAttemptCount, At: now}

	if st.LastAuthAttempt.IsZero() {
		if d.Count != 0 {
			d.Count = 0
			d.WindowReset = true
		}
		return d
	}

	elapsed := now.Sub(st.LastAuthAttempt)
	if elapsed > l.policy.AttemptWindow && d.Count != 0 {
		d.Count = 0
		d.WindowReset = true
	}

	if d.Count >= l.policy.MaxAttempts && elapsed < l.policy.LockoutDuration {
		d.State = LimiterLocked
		d.Err = &LockoutError{Remaining: l.policy.LockoutDuration - elapsed}
	}
	return d
}

// Policy returns the configured thresholds.
func (l *LoginLimiter) Policy() LimiterPolicy { return l.policy }
