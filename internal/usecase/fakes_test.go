package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
)

type fakeAuthBackend struct {
	mu         sync.Mutex
	session    *domain.Session
	signInErr  error
	getErr     error
	signOutErr error
	signIns    int
	signOuts   int
	lastEmail  string
	listeners  []domain.AuthChangeFunc
	// onSignIn runs while the remote call is in flight.
	onSignIn func()
}

func (f *fakeAuthBackend) GetSession(ctx context.Context) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session.Clone(), nil
}

func (f *fakeAuthBackend) SignInWithPassword(ctx context.Context, email, password string) (*domain.Session, error) {
	f.mu.Lock()
	f.signIns++
	f.lastEmail = email
	hook := f.onSignIn
	err := f.signInErr
	f.mu.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		AccessToken:  "access-" + email,
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour),
		User: domain.User{
			ID:           "user-1",
			Email:        email,
			UserMetadata: map[string]any{"role": "manager"},
		},
	}
	f.mu.Lock()
	f.session = session
	f.mu.Unlock()
	f.emit(domain.AuthEventSignedIn, session)
	return session.Clone(), nil
}

func (f *fakeAuthBackend) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOuts++
	f.session = nil
	err := f.signOutErr
	f.mu.Unlock()
	f.emit(domain.AuthEventSignedOut, nil)
	return err
}

func (f *fakeAuthBackend) OnAuthStateChange(fn domain.AuthChangeFunc) func() {
	f.mu.Lock()
	f.listeners = append(f.listeners, fn)
	idx := len(f.listeners) - 1
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.listeners[idx] = nil
		f.mu.Unlock()
	}
}

func (f *fakeAuthBackend) emit(event domain.AuthEvent, session *domain.Session) {
	f.mu.Lock()
	fns := append([]domain.AuthChangeFunc(nil), f.listeners...)
	f.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn(event, session.Clone())
		}
	}
}

type recordingPublisher struct {
	mu        sync.Mutex
	attempts  []domain.LoginAttemptedEvent
	locked    []domain.LoginLockedEvent
	signedOut []domain.SignedOutEvent
	deleted   []domain.ConsultationsDeletedEvent
	ipChanges []domain.IPStatusChangedEvent
	admin     []domain.UserAdministeredEvent
	visits    []domain.VisitTrackedEvent
}

func (p *recordingPublisher) PublishLoginAttempted(ctx context.Context, e domain.LoginAttemptedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.attempts = append(p.attempts, e)
	return nil
}

func (p *recordingPublisher) PublishLoginLocked(ctx context.Context, e domain.LoginLockedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.locked = append(p.locked, e)
	return nil
}

func (p *recordingPublisher) PublishSignedOut(ctx context.Context, e domain.SignedOutEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signedOut = append(p.signedOut, e)
	return nil
}

func (p *recordingPublisher) PublishConsultationsDeleted(ctx context.Context, e domain.ConsultationsDeletedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleted = append(p.deleted, e)
	return nil
}

func (p *recordingPublisher) PublishIPStatusChanged(ctx context.Context, e domain.IPStatusChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ipChanges = append(p.ipChanges, e)
	return nil
}

func (p *recordingPublisher) PublishUserAdministered(ctx context.Context, e domain.UserAdministeredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.admin = append(p.admin, e)
	return nil
}

func (p *recordingPublisher) PublishVisitTracked(ctx context.Context, e domain.VisitTrackedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.visits = append(p.visits, e)
	return nil
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fakeIPRepo struct {
	mu      sync.Mutex
	records map[string]domain.IPAccess
	gets    int
	err     error
}

func newFakeIPRepo(records ...domain.IPAccess) *fakeIPRepo {
	r := &fakeIPRepo{records: make(map[string]domain.IPAccess)}
	for _, rec := range records {
		r.records[rec.IPAddress] = rec
	}
	return r
}

func (r *fakeIPRepo) List(ctx context.Context) ([]domain.IPAccess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]domain.IPAccess, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	return out, nil
}

func (r *fakeIPRepo) Get(ctx context.Context, ip string) (*domain.IPAccess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gets++
	if r.err != nil {
		return nil, r.err
	}
	rec, ok := r.records[ip]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *fakeIPRepo) Upsert(ctx context.Context, record domain.IPAccess) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records[record.IPAddress] = record
	return nil
}

type fakeConsultationRepo struct {
	mu       sync.Mutex
	records  []domain.Consultation
	lastIDs  []string
	lastCap  int
	deleted  [][]string
	listErr  error
	markErr  error
	listRuns int
}

func (r *fakeConsultationRepo) ListRecent(ctx context.Context, applicationIDs []string, limit int) ([]domain.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listRuns++
	r.lastIDs = append([]string(nil), applicationIDs...)
	r.lastCap = limit
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]domain.Consultation, 0, len(r.records))
	for _, rec := range r.records {
		if !rec.IsDeleted {
			out = append(out, rec)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeConsultationRepo) ListByApplication(ctx context.Context, applicationID string) ([]domain.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Consultation
	for _, rec := range r.records {
		if rec.ApplicationID == applicationID && !rec.IsDeleted {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeConsultationRepo) MarkDeleted(ctx context.Context, ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.markErr != nil {
		return r.markErr
	}
	r.deleted = append(r.deleted, append([]string(nil), ids...))
	for i := range r.records {
		for _, id := range ids {
			if r.records[i].ID == id {
				r.records[i].IsDeleted = true
			}
		}
	}
	return nil
}

type fakeApplicationRepo struct {
	mu         sync.Mutex
	apps       []domain.Application
	lastFilter port.ApplicationFilter
	created    map[string]any
	updated    map[string]any
	deletedID  string
	err        error
}

func (r *fakeApplicationRepo) List(ctx context.Context, filter port.ApplicationFilter) ([]domain.Application, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	if r.err != nil {
		return nil, 0, r.err
	}
	return r.apps, len(r.apps), nil
}

func (r *fakeApplicationRepo) ListRefs(ctx context.Context) ([]domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.apps, nil
}

func (r *fakeApplicationRepo) Create(ctx context.Context, fields map[string]any) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.created = fields
	name, _ := fields["name"].(string)
	status, _ := fields["status"].(string)
	return &domain.Application{ID: "11111111-1111-4111-8111-111111111111", Name: name, Status: status}, nil
}

func (r *fakeApplicationRepo) Update(ctx context.Context, id string, fields map[string]any) (*domain.Application, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.updated = fields
	return &domain.Application{ID: id}, nil
}

func (r *fakeApplicationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.deletedID = id
	return nil
}

type fakeUserDirectory struct {
	users                 []domain.DirectoryUser
	lastOffset, lastLimit int
}

func (d *fakeUserDirectory) List(ctx context.Context, offset, limit int) ([]domain.DirectoryUser, int, error) {
	d.lastOffset, d.lastLimit = offset, limit
	return d.users, len(d.users), nil
}

type fakeAuditLogs struct {
	lastFilter port.AuditLogFilter
}

func (a *fakeAuditLogs) List(ctx context.Context, filter port.AuditLogFilter) ([]domain.AuditLog, int, error) {
	a.lastFilter = filter
	return nil, 0, nil
}

type fakeProcedures struct {
	roles      map[string]domain.Role
	statuses   map[string]domain.UserStatus
	kpis       *domain.DashboardKPIs
	start, end time.Time
	err        error
}

func (p *fakeProcedures) UpdateUserRole(ctx context.Context, userID string, role domain.Role) error {
	if p.err != nil {
		return p.err
	}
	if p.roles == nil {
		p.roles = make(map[string]domain.Role)
	}
	p.roles[userID] = role
	return nil
}

func (p *fakeProcedures) UpdateUserStatus(ctx context.Context, userID string, status domain.UserStatus) error {
	if p.err != nil {
		return p.err
	}
	if p.statuses == nil {
		p.statuses = make(map[string]domain.UserStatus)
	}
	p.statuses[userID] = status
	return nil
}

func (p *fakeProcedures) DashboardKPIs(ctx context.Context) (*domain.DashboardKPIs, error) {
	return p.kpis, p.err
}

func (p *fakeProcedures) AnalyticsSummary(ctx context.Context, start, end time.Time) (domain.AnalyticsSummary, error) {
	p.start, p.end = start, end
	return domain.AnalyticsSummary{"total_visits": float64(3)}, p.err
}

type fakeVisitStore struct {
	mu        sync.Mutex
	apps      map[string]bool
	visits    []domain.Consultation
	lastSince time.Time
}

func (s *fakeVisitStore) ApplicationExists(ctx context.Context, applicationID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.apps[applicationID], nil
}

func (s *fakeVisitStore) HasVisitSince(ctx context.Context, applicationID, ip string, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSince = since
	for _, v := range s.visits {
		if v.ApplicationID == applicationID && v.IPAddress == ip && !v.VisitedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeVisitStore) Insert(ctx context.Context, visit domain.Consultation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.visits = append(s.visits, visit)
	return nil
}

type countingMetrics struct {
	mu      sync.Mutex
	logins  map[string]int
	lockout int
	deleted int
	visits  map[bool]int
	active  int
}

func (m *countingMetrics) ObserveLogin(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logins == nil {
		m.logins = make(map[string]int)
	}
	m.logins[outcome]++
}

func (m *countingMetrics) ObserveLockout() {
	m.mu.Lock()
	m.lockout++
	m.mu.Unlock()
}

func (m *countingMetrics) SetActiveConsoles(n int) {
	m.mu.Lock()
	m.active = n
	m.mu.Unlock()
}

func (m *countingMetrics) ObserveSoftDelete(records int) {
	m.mu.Lock()
	m.deleted += records
	m.mu.Unlock()
}

func (m *countingMetrics) ObserveVisit(unique bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.visits == nil {
		m.visits = make(map[bool]int)
	}
	m.visits[unique]++
}
