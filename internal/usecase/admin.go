package usecase

import (
	"context"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/backend"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
	MaxPage         = 1000

	MinApplicationNameLength = 3
	DefaultAnalyticsRange    = 30 * 24 * time.Hour
)

// Paginate clamps page to 1..1000 and limit to 1..100; zero or negative values take the defaults.
func Paginate(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

// AdminService runs the console's management operations. Every call needs a context carrying
// the caller's access token.
type AdminService struct {
	users        port.UserDirectory
	applications port.ApplicationRepository
	auditLogs    port.AuditLogRepository
	procedures   port.Procedures
	events       port.EventPublisher
	logger       *zap.Logger
	now          func() time.Time
}

// AdminDeps groups the collaborators of an AdminService.
type AdminDeps struct {
	Users        port.UserDirectory
	Applications port.ApplicationRepository
	AuditLogs    port.AuditLogRepository
	Procedures   port.Procedures
	Events       port.EventPublisher
	Logger       *zap.Logger
	Now          func() time.Time
}

func NewAdminService(deps AdminDeps) *AdminService {
	s := &AdminService{
		users:        deps.Users,
		applications: deps.Applications,
		auditLogs:    deps.AuditLogs,
		procedures:   deps.Procedures,
		events:       deps.Events,
		logger:       deps.Logger,
		now:          deps.Now,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func requireToken(ctx context.Context) error {
	if backend.AccessTokenFromContext(ctx) == "" {
		return ErrNotAuthenticated
	}
	return nil
}

func (s *AdminService) remote(op string, err error) error {
	s.logger.Error(op+" error", zap.Error(err))
	return &PublicError{Message: backend.Redact(err), Err: err}
}

// ListUsers returns one page of the users view, newest first.
func (s *AdminService) ListUsers(ctx context.Context, page, limit int) (domain.Page[domain.DirectoryUser], error) {
	if err := requireToken(ctx); err != nil {
		return domain.Page[domain.DirectoryUser]{}, err
	}
	page, limit = Paginate(page, limit)

	items, total, err := s.users.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return domain.Page[domain.DirectoryUser]{}, s.remote("list users", err)
	}
	if items == nil {
		items = []domain.DirectoryUser{}
	}
	return domain.Page[domain.DirectoryUser]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// UpdateUserRole grants role to the user through the privileged procedure.
func (s *AdminService) UpdateUserRole(ctx context.Context, userID string, role domain.Role) error {
	if err := requireToken(ctx); err != nil {
		return err
	}
	if !IsValidUUID(userID) {
		return invalid("Invalid user ID")
	}
	if !role.Assignable() {
		return invalid("Invalid role")
	}
	if err := s.procedures.UpdateUserRole(ctx, userID, role); err != nil {
		return s.remote("update user role", err)
	}
	s.publishAdministered(ctx, userID, "role", string(role))
	return nil
}

// UpdateUserStatus activates or suspends an account.
func (s *AdminService) UpdateUserStatus(ctx context.Context, userID string, status domain.UserStatus) error {
	if err := requireToken(ctx); err != nil {
		return err
	}
	if !IsValidUUID(userID) {
		return invalid("Invalid user ID")
	}
	if !status.Valid() {
		return invalid("Invalid status")
	}
	if err := s.procedures.UpdateUserStatus(ctx, userID, status); err != nil {
		return s.remote("update user status", err)
	}
	s.publishAdministered(ctx, userID, "status", string(status))
	return nil
}

func (s *AdminService) publishAdministered(ctx context.Context, userID, field, value string) {
	if s.events == nil {
		return
	}
	event := domain.UserAdministeredEvent{
		EventID:  uuid.NewString(),
		ActorID:  actorFromContext(ctx),
		UserID:   userID,
		Field:    field,
		NewValue: value,
		At:       s.now(),
	}
	if err := s.events.PublishUserAdministered(ctx, event); err != nil {
		s.logger.Warn("failed to publish user administration", zap.Error(err))
	}
}

// ListApplications returns one page of applications, optionally narrowed to a status.
func (s *AdminService) ListApplications(ctx context.Context, page, limit int, status string) (domain.Page[domain.Application], error) {
	if err := requireToken(ctx); err != nil {
		return domain.Page[domain.Application]{}, err
	}
	page, limit = Paginate(page, limit)

	items, total, err := s.applications.List(ctx, port.ApplicationFilter{
		Status: strings.TrimSpace(status),
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		return domain.Page[domain.Application]{}, s.remote("list applications", err)
	}
	if items == nil {
		items = []domain.Application{}
	}
	return domain.Page[domain.Application]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// ApplicationInput is the editable part of an application.
type ApplicationInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Owner       *string `json:"owner"`
	Status      *string `json:"status"`
	URL         *string `json:"url"`
}

func (in ApplicationInput) fields() map[string]any {
	out := make(map[string]any)
	set := func(key string, v *string) {
		if v != nil {
			out[key] = strings.TrimSpace(*v)
		}
	}
	set("name", in.Name)
	set("description", in.Description)
	set("owner", in.Owner)
	set("status", in.Status)
	set("url", in.URL)
	return out
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

// CreateApplication stores a new application; it starts as a draft unless a status is given.
func (s *AdminService) CreateApplication(ctx context.Context, in ApplicationInput) (*domain.Application, error) {
	if err := requireToken(ctx); err != nil {
		return nil, err
	}
	name := deref(in.Name)
	if len(name) < MinApplicationNameLength {
		return nil, invalid("Application name must be at least 3 characters")
	}

	status := deref(in.Status)
	if status == "" {
		status = domain.ApplicationDraftStatus
	}
	fields := map[string]any{
		"name":        name,
		"description": deref(in.Description),
		"owner":       deref(in.Owner),
		"status":      status,
	}

	app, err := s.applications.Create(ctx, fields)
	if err != nil {
		return nil, s.remote("create application", err)
	}
	return app, nil
}

// UpdateApplication patches the provided fields.
func (s *AdminService) UpdateApplication(ctx context.Context, id string, in ApplicationInput) (*domain.Application, error) {
	if err := requireToken(ctx); err != nil {
		return nil, err
	}
	if !IsValidUUID(id) {
		return nil, invalid("Invalid application ID")
	}
	fields := in.fields()
	if name, ok := fields["name"].(string); ok && len(name) < MinApplicationNameLength {
		return nil, invalid("Application name must be at least 3 characters")
	}
	if len(fields) == 0 {
		return nil, invalid("Nothing to update")
	}

	app, err := s.applications.Update(ctx, id, fields)
	if err != nil {
		return nil, s.remote("update application", err)
	}
	return app, nil
}

// DeleteApplication removes an application.
func (s *AdminService) DeleteApplication(ctx context.Context, id string) error {
	if err := requireToken(ctx); err != nil {
		return err
	}
	if !IsValidUUID(id) {
		return invalid("Invalid application ID")
	}
	if err := s.applications.Delete(ctx, id); err != nil {
		return s.remote("delete application", err)
	}
	return nil
}

// ListAuditLogs returns one page of the audit trail. A malformed actor id is ignored.
func (s *AdminService) ListAuditLogs(ctx context.Context, page, limit int, action, actorID string) (domain.Page[domain.AuditLog], error) {
	if err := requireToken(ctx); err != nil {
		return domain.Page[domain.AuditLog]{}, err
	}
	page, limit = Paginate(page, limit)

	filter := port.AuditLogFilter{
		Action: strings.TrimSpace(action),
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	if IsValidUUID(actorID) {
		filter.ActorID = actorID
	}

	items, total, err := s.auditLogs.List(ctx, filter)
	if err != nil {
		return domain.Page[domain.AuditLog]{}, s.remote("list audit logs", err)
	}
	if items == nil {
		items = []domain.AuditLog{}
	}
	return domain.Page[domain.AuditLog]{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// Analytics returns the analytics summary between start and end, defaulting to the last 30 days.
func (s *AdminService) Analytics(ctx context.Context, start, end time.Time) (domain.AnalyticsSummary, error) {
	if err := requireToken(ctx); err != nil {
		return nil, err
	}
	now := s.now()
	if end.IsZero() {
		end = now
	}
	if start.IsZero() {
		start = now.Add(-DefaultAnalyticsRange)
	}
	if start.After(end) {
		return nil, invalid("Start date must be before end date")
	}

	summary, err := s.procedures.AnalyticsSummary(ctx, start, end)
	if err != nil {
		return nil, s.remote("analytics", err)
	}
	if summary == nil {
		summary = domain.AnalyticsSummary{}
	}
	return summary, nil
}

// DashboardKPIs returns the dashboard counters. An empty answer yields zeros.
func (s *AdminService) DashboardKPIs(ctx context.Context) (domain.DashboardKPIs, error) {
	if err := requireToken(ctx); err != nil {
		return domain.DashboardKPIs{}, err
	}
	kpis, err := s.procedures.DashboardKPIs(ctx)
	if err != nil {
		return domain.DashboardKPIs{}, s.remote("dashboard kpis", err)
	}
	if kpis == nil {
		return domain.DashboardKPIs{}, nil
	}
	return *kpis, nil
}
