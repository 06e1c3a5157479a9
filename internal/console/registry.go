package console

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	uuid "github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/telemetry"
	"github.com/claudemarjean/Ivony/internal/navigation"
	"github.com/claudemarjean/Ivony/internal/state"
	"github.com/claudemarjean/Ivony/internal/usecase"
)

const (
	DefaultMaxSessions  = 1024
	DefaultMaxAnonymous = 1024
	DefaultKPIRefresh   = 30 * time.Second
)

// ErrUnknownSession is returned for a console id the registry does not hold.
var ErrUnknownSession = errors.New("console: unknown session")

// AuthFactory creates the auth binding of a new console.
type AuthFactory func() port.AuthBackend

// Services are the stateless use cases shared by every console.
type Services struct {
	Admin         *usecase.AdminService
	Consultations *usecase.ConsultationService
	IPAccess      *usecase.IPAccessService
}

// Options configures a Registry.
type Options struct {
	// MaxSessions bounds the signed-in consoles, MaxAnonymous the ones nobody has signed in to.
	MaxSessions    int
	MaxAnonymous   int
	KPIRefresh     time.Duration
	Limiter        usecase.LimiterPolicy
	SessionTimeout time.Duration
	ProfileTimeout time.Duration
	Profiles       port.ProfileRepository
	Events         port.EventPublisher
	Metrics        port.ConsoleMetrics
	Logger         *zap.Logger
	Now            func() time.Time
}

// Registry holds the live console sessions in two pools: anonymous consoles and signed-in
// ones. A console moves between pools when its state changes, and each pool closes its least
// recently used console when full, so opening anonymous consoles never evicts a signed-in one.
type Registry struct {
	mu        sync.Mutex
	closing   []*Session
	anonymous *lru.Cache[string, *Session]
	signedIn  *lru.Cache[string, *Session]
	newAuth   AuthFactory
	services  Services
	opts      Options
}

func NewRegistry(newAuth AuthFactory, services Services, opts Options) (*Registry, error) {
	if newAuth == nil {
		return nil, errors.New("console: auth factory is required")
	}
	if services.Admin == nil || services.Consultations == nil {
		return nil, errors.New("console: admin and consultation services are required")
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.MaxAnonymous <= 0 {
		opts.MaxAnonymous = DefaultMaxAnonymous
	}
	if opts.KPIRefresh <= 0 {
		opts.KPIRefresh = DefaultKPIRefresh
	}
	if opts.Limiter.MaxAttempts <= 0 {
		opts.Limiter = usecase.DefaultLimiterPolicy()
	}
	if opts.Metrics == nil {
		opts.Metrics = telemetry.NopMetrics{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	r := &Registry{newAuth: newAuth, services: services, opts: opts}
	anonymous, err := lru.NewWithEvict[string, *Session](opts.MaxAnonymous, r.evict(false))
	if err != nil {
		return nil, fmt.Errorf("console: create anonymous pool: %w", err)
	}
	signedIn, err := lru.NewWithEvict[string, *Session](opts.MaxSessions, r.evict(true))
	if err != nil {
		return nil, fmt.Errorf("console: create signed-in pool: %w", err)
	}
	r.anonymous = anonymous
	r.signedIn = signedIn
	return r, nil
}

// evict queues sessions dropped by the pool for closing. A session that was only moved to the
// other pool stays open. Pools are only mutated under r.mu.
func (r *Registry) evict(signedIn bool) func(string, *Session) {
	return func(_ string, s *Session) {
		if s.signedIn.Load() != signedIn {
			return
		}
		r.closing = append(r.closing, s)
	}
}

// unlock releases r.mu and then closes the evicted sessions. Closing waits for the mounted
// view's goroutines, which may call back into place.
func (r *Registry) unlock() {
	closing := r.closing
	r.closing = nil
	r.mu.Unlock()

	for _, s := range closing {
		s.Close()
	}
}

func (r *Registry) pool(signedIn bool) *lru.Cache[string, *Session] {
	if signedIn {
		return r.signedIn
	}
	return r.anonymous
}

// place moves s to the pool matching its authentication state.
func (r *Registry) place(s *Session, authenticated bool) {
	r.mu.Lock()
	defer r.unlock()

	if s.signedIn.Load() == authenticated {
		return
	}
	from, to := r.pool(!authenticated), r.pool(authenticated)
	if _, ok := from.Peek(s.ID); !ok {
		return
	}
	s.signedIn.Store(authenticated)
	from.Remove(s.ID)
	to.Add(s.ID, s)
	r.opts.Metrics.SetActiveConsoles(r.size())
}

// Get returns the session with id and marks it recently used.
func (r *Registry) Get(id string) (*Session, error) {
	if id == "" {
		return nil, ErrUnknownSession
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.signedIn.Get(id); ok {
		return s, nil
	}
	if s, ok := r.anonymous.Get(id); ok {
		return s, nil
	}
	return nil, ErrUnknownSession
}

// Create opens a new console, restores nothing and returns it.
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	log := r.opts.Logger.With(zap.String("console_id", id))

	store := state.New()
	auth, err := usecase.NewAuthService(usecase.AuthDeps{
		ConsoleID:      id,
		Store:          store,
		Backend:        r.newAuth(),
		Profiles:       r.opts.Profiles,
		Events:         r.opts.Events,
		Metrics:        r.opts.Metrics,
		Limiter:        usecase.NewLoginLimiter(r.opts.Limiter, r.opts.Now),
		Logger:         r.opts.Logger,
		Now:            r.opts.Now,
		SessionTimeout: r.opts.SessionTimeout,
		ProfileTimeout: r.opts.ProfileTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("console: %w", err)
	}

	s := &Session{
		ID:        id,
		CreatedAt: r.opts.Now(),
		Auth:      auth,
		services:  r.services,
		logger:    log,
	}

	table, err := navigation.Bind(r.renderers(s))
	if err != nil {
		return nil, fmt.Errorf("console: %w", err)
	}
	s.Navigator = navigation.NewNavigator(table, auth.State, log)

	detachAuth := auth.OnAuthStateChange(func(event domain.AuthEvent, _ *domain.Session) {
		if event == domain.AuthEventSignedOut {
			s.SetDataset(nil)
		}
	})
	unsubscribe := store.Subscribe(func(st domain.AuthState) {
		r.place(s, st.IsAuthenticated)
	})
	s.detach = func() {
		unsubscribe()
		detachAuth()
	}

	r.mu.Lock()
	r.anonymous.Add(id, s)
	r.opts.Metrics.SetActiveConsoles(r.size())
	r.unlock()

	log.Info("console opened")
	return s, nil
}

// Remove closes and forgets the session with id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.unlock()

	removed := r.signedIn.Remove(id)
	if r.anonymous.Remove(id) {
		removed = true
	}
	if removed {
		r.opts.Metrics.SetActiveConsoles(r.size())
	}
}

// Len returns the number of open consoles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.size()
}

func (r *Registry) size() int {
	return r.anonymous.Len() + r.signedIn.Len()
}

// Close closes every console.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.unlock()

	r.anonymous.Purge()
	r.signedIn.Purge()
	r.opts.Metrics.SetActiveConsoles(0)
}
