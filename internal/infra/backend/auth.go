package backend

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
)

// AuthClient is the auth-service binding of one console. It owns the console's token storage
// and the session change listeners.
type AuthClient struct {
	client        *Client
	refreshMargin time.Duration
	now           func() time.Time
	logger        *zap.Logger

	mu        sync.Mutex
	session   *domain.Session
	listeners []authListener
	nextID    int
}

type authListener struct {
	id int
	fn domain.AuthChangeFunc
}

// AuthOption customises an AuthClient.
type AuthOption func(*AuthClient)

// WithRefreshMargin refreshes sessions that expire within margin.
func WithRefreshMargin(margin time.Duration) AuthOption {
	return func(a *AuthClient) {
		if margin >= 0 {
			a.refreshMargin = margin
		}
	}
}

// WithAuthClock injects the clock used for expiry checks.
func WithAuthClock(now func() time.Time) AuthOption {
	return func(a *AuthClient) {
		if now != nil {
			a.now = now
		}
	}
}

// NewAuth creates an auth binding with empty token storage.
func (c *Client) NewAuth(opts ...AuthOption) *AuthClient {
	a := &AuthClient{
		client:        c,
		refreshMargin: time.Minute,
		now:           time.Now,
		logger:        c.logger.Named("auth"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	ExpiresAt    int64        `json:"expires_at"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	CreatedAt    time.Time      `json:"created_at"`
	LastSignInAt *time.Time     `json:"last_sign_in_at"`
}

func (a *AuthClient) toSession(tr tokenResponse) *domain.Session {
	expiresAt := time.Time{}
	switch {
	case tr.ExpiresAt > 0:
		expiresAt = time.Unix(tr.ExpiresAt, 0)
	case tr.ExpiresIn > 0:
		expiresAt = a.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	default:
		if exp, err := expiryOf(tr.AccessToken); err == nil {
			expiresAt = exp
		}
	}

	return &domain.Session{
		AccessToken:  tr.AccessToken,
		RefreshToken: tr.RefreshToken,
		TokenType:    tr.TokenType,
		ExpiresAt:    expiresAt,
		User: domain.User{
			ID:           tr.User.ID,
			Email:        tr.User.Email,
			Role:         domain.RoleFromMetadata(tr.User.UserMetadata),
			UserMetadata: tr.User.UserMetadata,
			CreatedAt:    tr.User.CreatedAt,
			LastSignInAt: tr.User.LastSignInAt,
		},
	}
}

// SignInWithPassword exchanges credentials for a session and stores it.
func (a *AuthClient) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	res := decodeJSON[tokenResponse]("sign in", a.client.send(ctx, request{
		op:     "sign in",
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   map[string]string{"email": email, "password": password},
		bearer: a.client.anonKey,
	}))
	tr, err := res.Unwrap()
	if err != nil {
		return nil, err
	}

	session := a.toSession(tr)
	a.store(session)
	a.emit(domain.AuthEventSignedIn, session)
	return session.Clone(), nil
}

// GetSession returns the stored session, refreshing it first when it is close to expiry.
// A failed refresh clears the storage and reports the failure.
func (a *AuthClient) GetSession(ctx context.Context) (*domain.Session, error) {
	a.mu.Lock()
	current := a.session.Clone()
	a.mu.Unlock()

	if current == nil {
		return nil, nil
	}
	if !current.ExpiresWithin(a.now(), a.refreshMargin) {
		return current, nil
	}
	return a.Refresh(ctx)
}

// Refresh trades the stored refresh token for a new session.
func (a *AuthClient) Refresh(ctx context.Context) (*domain.Session, error) {
	a.mu.Lock()
	current := a.session.Clone()
	a.mu.Unlock()

	if current == nil || current.RefreshToken == "" {
		return nil, nil
	}

	res := decodeJSON[tokenResponse]("refresh session", a.client.send(ctx, request{
		op:     "refresh session",
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"refresh_token"}},
		body:   map[string]string{"refresh_token": current.RefreshToken},
		bearer: a.client.anonKey,
	}))
	tr, err := res.Unwrap()
	if err != nil {
		if res.Error().Kind != KindNetwork {
			a.store(nil)
			a.emit(domain.AuthEventSignedOut, nil)
		}
		return nil, err
	}

	session := a.toSession(tr)
	a.store(session)
	a.emit(domain.AuthEventTokenRefreshed, session)
	return session.Clone(), nil
}

// SignOut revokes the session remotely and always clears the local storage.
func (a *AuthClient) SignOut(ctx context.Context) error {
	a.mu.Lock()
	current := a.session.Clone()
	a.mu.Unlock()

	var err error
	if current != nil {
		_, err = a.client.send(ctx, request{
			op:     "sign out",
			method: http.MethodPost,
			path:   "/auth/v1/logout",
			query:  url.Values{"scope": {"local"}},
			bearer: current.AccessToken,
		}).Unwrap()
	}

	a.store(nil)
	a.emit(domain.AuthEventSignedOut, nil)
	return err
}

// OnAuthStateChange registers fn and immediately delivers INITIAL_SESSION with the stored
// session.
func (a *AuthClient) OnAuthStateChange(fn domain.AuthChangeFunc) func() {
	if fn == nil {
		return func() {}
	}

	a.mu.Lock()
	a.nextID++
	id := a.nextID
	a.listeners = append(a.listeners, authListener{id: id, fn: fn})
	initial := a.session.Clone()
	a.mu.Unlock()

	fn(domain.AuthEventInitialSession, initial)

	var once sync.Once
	return func() {
		once.Do(func() {
			a.mu.Lock()
			defer a.mu.Unlock()
			for i, l := range a.listeners {
				if l.id == id {
					a.listeners = append(a.listeners[:i:i], a.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

func (a *AuthClient) store(session *domain.Session) {
	a.mu.Lock()
	a.session = session.Clone()
	a.mu.Unlock()
}

func (a *AuthClient) emit(event domain.AuthEvent, session *domain.Session) {
	a.mu.Lock()
	fns := make([]domain.AuthChangeFunc, 0, len(a.listeners))
	for _, l := range a.listeners {
		fns = append(fns, l.fn)
	}
	a.mu.Unlock()

	a.logger.Debug("auth state change", zap.String("event", string(event)), zap.Int("listeners", len(fns)))
	for _, fn := range fns {
		fn(event, session.Clone())
	}
}

var _ port.AuthBackend = (*AuthClient)(nil)
