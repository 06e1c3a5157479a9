package port

import (
	"context"
	"time"

	"github.com/claudemarjean/Ivony/internal/core/domain"
)

// ConsultationRepository reads and soft-deletes tracked visits.
type ConsultationRepository interface {
	// ListRecent returns non-deleted visits of the given applications, newest first.
	ListRecent(ctx context.Context, applicationIDs []string, limit int) ([]domain.Consultation, error)
	ListByApplication(ctx context.Context, applicationID string) ([]domain.Consultation, error)
	MarkDeleted(ctx context.Context, ids []string) error
}

// IPAccessRepository persists IP moderation records keyed by address.
type IPAccessRepository interface {
	List(ctx context.Context) ([]domain.IPAccess, error)
	Get(ctx context.Context, ip string) (*domain.IPAccess, error)
	Upsert(ctx context.Context, record domain.IPAccess) error
}

// ApplicationFilter narrows application listings.
type ApplicationFilter struct {
	Status string
	Offset int
	Limit  int
}

// ApplicationRepository manages published applications.
type ApplicationRepository interface {
	List(ctx context.Context, filter ApplicationFilter) ([]domain.Application, int, error)
	ListRefs(ctx context.Context) ([]domain.Application, error)
	Create(ctx context.Context, fields map[string]any) (*domain.Application, error)
	Update(ctx context.Context, id string, fields map[string]any) (*domain.Application, error)
	Delete(ctx context.Context, id string) error
}

// UserDirectory lists console users.
type UserDirectory interface {
	List(ctx context.Context, offset, limit int) ([]domain.DirectoryUser, int, error)
}

// AuditLogFilter narrows audit log listings.
type AuditLogFilter struct {
	Action  string
	ActorID string
	Offset  int
	Limit   int
}

// AuditLogRepository reads the audit trail.
type AuditLogRepository interface {
	List(ctx context.Context, filter AuditLogFilter) ([]domain.AuditLog, int, error)
}

// ProfileRepository reads console profiles.
type ProfileRepository interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

// Procedures exposes the privileged remote procedures.
type Procedures interface {
	UpdateUserRole(ctx context.Context, userID string, role domain.Role) error
	UpdateUserStatus(ctx context.Context, userID string, status domain.UserStatus) error
	DashboardKPIs(ctx context.Context) (*domain.DashboardKPIs, error)
	AnalyticsSummary(ctx context.Context, start, end time.Time) (domain.AnalyticsSummary, error)
}

// VisitStore records portal visits server-side.
type VisitStore interface {
	ApplicationExists(ctx context.Context, applicationID string) (bool, error)
	HasVisitSince(ctx context.Context, applicationID, ip string, since time.Time) (bool, error)
	Insert(ctx context.Context, visit domain.Consultation) error
}
