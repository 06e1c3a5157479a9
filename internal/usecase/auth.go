package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"sync"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/backend"
	"github.com/claudemarjean/Ivony/internal/infra/logger"
	"github.com/claudemarjean/Ivony/internal/infra/telemetry"
	"github.com/claudemarjean/Ivony/internal/state"
)

const (
	MinPasswordLength     = 8
	DefaultProfileTimeout = 3 * time.Second
	DefaultSessionTimeout = 24 * time.Hour
)

var (
	// ErrNotAuthenticated is returned by operations that need a signed-in console.
	ErrNotAuthenticated = errors.New("authentication required")
	// ErrSessionExpired indicates the console was idle past the session timeout and was signed out.
	ErrSessionExpired = errors.New("session expired")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether email looks like local@domain.tld.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// AuthService binds one console's state store to the remote auth capability.
type AuthService struct {
	consoleID string
	store     *state.Store
	backend   port.AuthBackend
	profiles  port.ProfileRepository
	events    port.EventPublisher
	metrics   port.ConsoleMetrics
	limiter   *LoginLimiter
	logger    *zap.Logger
	now       func() time.Time

	sessionTimeout time.Duration
	profileTimeout time.Duration

	// loginMu serialises logins of one console so the attempt counter is read and written
	// by one attempt at a time.
	loginMu sync.Mutex
}

// AuthDeps groups the collaborators of an AuthService.
type AuthDeps struct {
	ConsoleID string
	Store     *state.Store
	Backend   port.AuthBackend
	Profiles  port.ProfileRepository
	Events    port.EventPublisher
	Metrics   port.ConsoleMetrics
	Limiter   *LoginLimiter
	Logger    *zap.Logger
	Now       func() time.Time

	SessionTimeout time.Duration
	ProfileTimeout time.Duration
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(deps AuthDeps) (*AuthService, error) {
	if deps.Store == nil {
		return nil, errors.New("auth service: state store is required")
	}
	if deps.Backend == nil {
		return nil, errors.New("auth service: auth backend is required")
	}

	s := &AuthService{
		consoleID:      deps.ConsoleID,
		store:          deps.Store,
		backend:        deps.Backend,
		profiles:       deps.Profiles,
		events:         deps.Events,
		metrics:        deps.Metrics,
		limiter:        deps.Limiter,
		logger:         deps.Logger,
		now:            deps.Now,
		sessionTimeout: deps.SessionTimeout,
		profileTimeout: deps.ProfileTimeout,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.limiter == nil {
		s.limiter = NewLoginLimiter(DefaultLimiterPolicy(), s.now)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.metrics == nil {
		s.metrics = telemetry.NopMetrics{}
	}
	if s.sessionTimeout <= 0 {
		s.sessionTimeout = DefaultSessionTimeout
	}
	if s.profileTimeout <= 0 {
		s.profileTimeout = DefaultProfileTimeout
	}
	return s, nil
}

// State returns a snapshot of the console state.
func (s *AuthService) State() domain.AuthState {
	return s.store.Snapshot()
}

// RestoreSession loads the stored session into the state. Failures are logged and reported as
// a nil session.
func (s *AuthService) RestoreSession(ctx context.Context) *domain.Session {
	session, err := s.backend.GetSession(ctx)
	if err != nil {
		s.logger.Warn("failed to restore session",
			zap.String("console_id", s.consoleID),
			zap.String("reason", backend.Redact(err)),
			zap.Error(err),
		)
		return nil
	}
	if session == nil {
		return nil
	}

	role := domain.RoleFromMetadata(session.User.UserMetadata)
	s.store.Set(state.SignedIn(session, role), state.Activity(s.now()))
	s.logger.Info("session restored",
		zap.String("console_id", s.consoleID),
		zap.String("email", logger.MaskEmail(session.User.Email)),
	)
	return session
}

// Login validates the credentials locally, applies the attempt limiter and signs in. Validation
// and lockout errors carry user-facing messages; remote failures are redacted.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	if err := validateCredentials(email, password); err != nil {
		s.metrics.ObserveLogin(telemetry.LoginRejected)
		return nil, err
	}
	normalized := strings.ToLower(strings.TrimSpace(email))

	s.loginMu.Lock()
	defer s.loginMu.Unlock()

	decision := s.limiter.Evaluate(s.store.Snapshot())
	if decision.WindowReset {
		s.store.Set(state.AttemptCount(0))
	}
	if decision.State == LimiterLocked {
		var lockout *LockoutError
		errors.As(decision.Err, &lockout)
		s.metrics.ObserveLogin(telemetry.LoginLocked)
		s.metrics.ObserveLockout()
		s.publishLocked(ctx, normalized, decision, lockout)
		s.logger.Warn("login rejected by lockout",
			zap.String("console_id", s.consoleID),
			zap.String("email", logger.MaskEmail(normalized)),
			zap.Int("attempts", decision.Count),
		)
		return nil, decision.Err
	}

	// The attempt counts before the outcome is known, so a timed-out call still consumes one.
	attempt := decision.Count + 1
	s.store.Set(state.Attempts(attempt, decision.At))

	session, err := s.backend.SignInWithPassword(ctx, normalized, password)
	if err != nil {
		s.metrics.ObserveLogin(telemetry.LoginFailed)
		s.publishAttempt(ctx, normalized, "", attempt, decision.At, false, backend.Redact(err))
		s.logger.Warn("login failed",
			zap.String("console_id", s.consoleID),
			zap.String("email", logger.MaskEmail(normalized)),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return nil, &PublicError{Message: backend.Redact(err), Err: err}
	}
	if session == nil {
		s.metrics.ObserveLogin(telemetry.LoginFailed)
		return nil, &PublicError{Message: backend.MessageGeneric, Err: errors.New("sign in returned no session")}
	}

	role := domain.RoleFromMetadata(session.User.UserMetadata)
	s.store.Set(state.SignedIn(session, role), state.AttemptCount(0), state.Activity(s.now()))
	s.metrics.ObserveLogin(telemetry.LoginSucceeded)
	s.publishAttempt(ctx, normalized, session.User.ID, attempt, decision.At, true, "")
	s.logger.Info("login successful",
		zap.String("console_id", s.consoleID),
		zap.String("email", logger.MaskEmail(normalized)),
		zap.String("role", string(role)),
	)
	return session, nil
}

func validateCredentials(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return &ValidationError{Message: "Email and password are required"}
	}
	if !IsValidEmail(strings.TrimSpace(email)) {
		return &ValidationError{Message: "Invalid email format"}
	}
	if len(password) < MinPasswordLength {
		return &ValidationError{Message: "Password must be at least 8 characters"}
	}
	return nil
}

// Logout signs out remotely on a best-effort basis and always resets the console state.
func (s *AuthService) Logout(ctx context.Context) {
	s.signOut(ctx, "user_logout")
}

func (s *AuthService) signOut(ctx context.Context, reason string) {
	snap := s.store.Snapshot()

	if err := s.backend.SignOut(ctx); err != nil {
		s.logger.Warn("logout error",
			zap.String("console_id", s.consoleID),
			zap.String("reason", backend.Redact(err)),
			zap.Error(err),
		)
	}
	s.store.Reset()

	userID := ""
	if snap.User != nil {
		userID = snap.User.ID
	}
	if s.events != nil && userID != "" {
		event := domain.SignedOutEvent{
			EventID:     uuid.NewString(),
			ConsoleID:   s.consoleID,
			UserID:      userID,
			SignedOutAt: s.now(),
			Reason:      reason,
		}
		if err := s.events.PublishSignedOut(ctx, event); err != nil {
			s.logger.Warn("failed to publish signed out event", zap.Error(err))
		}
	}
	s.logger.Info("user logged out", zap.String("console_id", s.consoleID), zap.String("reason", reason))
}

// OnAuthStateChange mirrors remote session changes into the console state and forwards every
// event to cb. The returned function detaches the subscription.
func (s *AuthService) OnAuthStateChange(cb domain.AuthChangeFunc) func() {
	return s.backend.OnAuthStateChange(func(event domain.AuthEvent, session *domain.Session) {
		s.logger.Debug("auth event", zap.String("console_id", s.consoleID), zap.String("event", string(event)))

		if session != nil {
			role := domain.RoleFromMetadata(session.User.UserMetadata)
			s.store.Set(state.SignedIn(session, role))
		}
		if event == domain.AuthEventSignedOut {
			s.store.Reset()
		}
		if cb != nil {
			cb(event, session)
		}
	})
}

// RequireRole reports whether the console's role is one of roles.
func (s *AuthService) RequireRole(roles ...domain.Role) bool {
	return domain.HasAnyRole(s.store.Snapshot().Role, roles)
}

// AssertAuthenticated returns ErrNotAuthenticated for an anonymous console.
func (s *AuthService) AssertAuthenticated() error {
	if !s.store.Snapshot().IsAuthenticated {
		return ErrNotAuthenticated
	}
	return nil
}

// SessionToken returns the current access token, refreshing it when needed, or "".
func (s *AuthService) SessionToken(ctx context.Context) string {
	session, err := s.backend.GetSession(ctx)
	if err != nil || session == nil {
		return ""
	}
	if current := s.store.Snapshot().Session; current == nil || current.AccessToken != session.AccessToken {
		s.store.Set(state.SignedIn(session, domain.RoleFromMetadata(session.User.UserMetadata)))
	}
	return session.AccessToken
}

// AuthorizedContext returns ctx carrying the console's access token for backend calls.
func (s *AuthService) AuthorizedContext(ctx context.Context) (context.Context, error) {
	if err := s.AssertAuthenticated(); err != nil {
		return ctx, err
	}
	token := s.SessionToken(ctx)
	if token == "" {
		s.store.Reset()
		return ctx, ErrNotAuthenticated
	}
	return backend.WithAccessToken(ctx, token), nil
}

// Touch enforces the idle timeout and records activity. An idle console is signed out and
// ErrSessionExpired returned.
func (s *AuthService) Touch(ctx context.Context) error {
	snap := s.store.Snapshot()
	now := s.now()
	if !snap.IsAuthenticated {
		return nil
	}
	if !snap.LastActivity.IsZero() && now.Sub(snap.LastActivity) > s.sessionTimeout {
		s.signOut(ctx, "idle_timeout")
		return ErrSessionExpired
	}
	s.store.Set(state.Activity(now))
	return nil
}

// Profile looks up the signed-in user's profile, giving up after the profile timeout. A missing
// profile, a failure or a timeout all yield nil.
func (s *AuthService) Profile(ctx context.Context) *domain.Profile {
	snap := s.store.Snapshot()
	if s.profiles == nil || snap.User == nil {
		return nil
	}
	if snap.Profile != nil {
		return snap.Profile
	}

	authCtx, err := s.AuthorizedContext(ctx)
	if err != nil {
		return nil
	}

	lookupCtx, cancel := context.WithTimeout(authCtx, s.profileTimeout)
	defer cancel()

	type outcome struct {
		profile *domain.Profile
		err     error
	}
	done := make(chan outcome, 1)
	go func() {
		p, err := s.profiles.Get(lookupCtx, snap.User.ID)
		done <- outcome{profile: p, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			s.logger.Debug("profile lookup failed", zap.String("console_id", s.consoleID), zap.Error(res.err))
			return nil
		}
		if res.profile != nil {
			s.store.Set(state.WithProfile(res.profile))
		}
		return res.profile
	case <-lookupCtx.Done():
		s.logger.Warn("profile lookup timed out", zap.String("console_id", s.consoleID), zap.Duration("timeout", s.profileTimeout))
		return nil
	}
}

func (s *AuthService) publishAttempt(ctx context.Context, email, userID string, attempt int, at time.Time, ok bool, reason string) {
	if s.events == nil {
		return
	}
	event := domain.LoginAttemptedEvent{
		EventID:     uuid.NewString(),
		ConsoleID:   s.consoleID,
		Email:       email,
		UserID:      userID,
		Succeeded:   ok,
		Attempt:     attempt,
		AttemptedAt: at,
		IPAddress:   ClientIPFromContext(ctx),
		Reason:      reason,
	}
	if err := s.events.PublishLoginAttempted(ctx, event); err != nil {
		s.logger.Warn("failed to publish login attempt", zap.Error(err))
	}
}

func (s *AuthService) publishLocked(ctx context.Context, email string, decision LimiterDecision, lockout *LockoutError) {
	if s.events == nil {
		return
	}
	until := decision.At
	if lockout != nil {
		until = decision.At.Add(lockout.Remaining)
	}
	event := domain.LoginLockedEvent{
		EventID:     uuid.NewString(),
		ConsoleID:   s.consoleID,
		Email:       email,
		Attempts:    decision.Count,
		LockedUntil: until,
		IPAddress:   ClientIPFromContext(ctx),
	}
	if err := s.events.PublishLoginLocked(ctx, event); err != nil {
		s.logger.Warn("failed to publish lockout", zap.Error(err))
	}
}
