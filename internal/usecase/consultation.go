package usecase

import (
	"context"
	"time"

	uuid "github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/consultation"
	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/backend"
)

// Dataset is the bounded, newest-first set of visits a console works on.
type Dataset struct {
	Applications []domain.Application
	Records      []domain.Consultation
	LoadedAt     time.Time
}

// ConsultationView is what the consultations page renders for one filter selection.
type ConsultationView struct {
	Applications []domain.Application  `json:"applications"`
	Countries    []string              `json:"countries"`
	KPIs         consultation.KPIs     `json:"kpis"`
	Records      []consultation.Tagged `json:"records"`
	Filter       consultation.Filter   `json:"filter"`
	Loaded       int                   `json:"loaded"`
	LoadedAt     time.Time             `json:"loaded_at"`
}

// ConsultationService loads, filters and moderates tracked visits.
type ConsultationService struct {
	consultations port.ConsultationRepository
	applications  port.ApplicationRepository
	ipAccess      *IPAccessService
	events        port.EventPublisher
	metrics       port.ConsoleMetrics
	logger        *zap.Logger
	now           func() time.Time
	maxRecords    int
}

// ConsultationDeps groups the collaborators of a ConsultationService.
type ConsultationDeps struct {
	Consultations port.ConsultationRepository
	Applications  port.ApplicationRepository
	IPAccess      *IPAccessService
	Events        port.EventPublisher
	Metrics       port.ConsoleMetrics
	Logger        *zap.Logger
	Now           func() time.Time
	MaxRecords    int
}

func NewConsultationService(deps ConsultationDeps) *ConsultationService {
	s := &ConsultationService{
		consultations: deps.Consultations,
		applications:  deps.Applications,
		ipAccess:      deps.IPAccess,
		events:        deps.Events,
		metrics:       deps.Metrics,
		logger:        deps.Logger,
		now:           deps.Now,
		maxRecords:    deps.MaxRecords,
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxRecords <= 0 || s.maxRecords > domain.MaxConsultations {
		s.maxRecords = domain.MaxConsultations
	}
	return s
}

// Load fetches the applications and their most recent non-deleted visits.
func (s *ConsultationService) Load(ctx context.Context) (*Dataset, error) {
	apps, err := s.applications.ListRefs(ctx)
	if err != nil {
		s.logger.Error("failed to load applications", zap.Error(err))
		return nil, &PublicError{Message: backend.Redact(err), Err: err}
	}

	ds := &Dataset{Applications: apps, Records: []domain.Consultation{}, LoadedAt: s.now()}
	if len(apps) == 0 {
		return ds, nil
	}

	ids := make([]string, len(apps))
	for i, app := range apps {
		ids[i] = app.ID
	}

	records, err := s.consultations.ListRecent(ctx, ids, s.maxRecords)
	if err != nil {
		s.logger.Error("failed to load consultations", zap.Error(err))
		return nil, &PublicError{Message: backend.Redact(err), Err: err}
	}

	records = consultation.Visible(records)
	if len(records) > s.maxRecords {
		records = records[:s.maxRecords]
	}
	ds.Records = records

	s.logger.Debug("consultations loaded", zap.Int("applications", len(apps)), zap.Int("records", len(records)))
	return ds, nil
}

// View applies f to ds. IP statuses are resolved once per view; when they cannot be loaded every
// address counts as none.
func (s *ConsultationService) View(ctx context.Context, ds *Dataset, f consultation.Filter) ConsultationView {
	if ds == nil {
		ds = &Dataset{}
	}

	var lookup consultation.StatusLookup
	if s.ipAccess != nil {
		idx, err := s.ipAccess.Index(ctx)
		if err != nil {
			s.logger.Warn("ip statuses unavailable", zap.Error(err))
		} else {
			lookup = idx
		}
	}

	filtered := consultation.ApplyFilters(ds.Records, f, lookup, s.now())
	return ConsultationView{
		Applications: ds.Applications,
		Countries:    consultation.Countries(ds.Records),
		KPIs:         consultation.ComputeKPIs(filtered),
		Records:      consultation.Tag(filtered, lookup),
		Filter:       f,
		Loaded:       len(ds.Records),
		LoadedAt:     ds.LoadedAt,
	}
}

// SoftDelete flags ids as deleted and reloads the dataset. Flagging an already deleted record
// changes nothing.
func (s *ConsultationService) SoftDelete(ctx context.Context, ids []string) (*Dataset, error) {
	if len(ids) == 0 {
		return nil, invalid("No consultation selected")
	}
	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if !IsValidUUID(id) {
			return nil, invalid("Invalid consultation ID")
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	if err := s.consultations.MarkDeleted(ctx, unique); err != nil {
		s.logger.Error("failed to delete consultations", zap.Int("count", len(unique)), zap.Error(err))
		return nil, &PublicError{Message: backend.Redact(err), Err: err}
	}

	if s.metrics != nil {
		s.metrics.ObserveSoftDelete(len(unique))
	}
	if s.events != nil {
		event := domain.ConsultationsDeletedEvent{
			EventID:         uuid.NewString(),
			ActorID:         actorFromContext(ctx),
			ConsultationIDs: unique,
			DeletedAt:       s.now(),
		}
		if err := s.events.PublishConsultationsDeleted(ctx, event); err != nil {
			s.logger.Warn("failed to publish consultation deletion", zap.Error(err))
		}
	}

	return s.Load(ctx)
}

// Stats aggregates the visits of one application.
func (s *ConsultationService) Stats(ctx context.Context, applicationID string) (consultation.Stats, error) {
	if !IsValidUUID(applicationID) {
		return consultation.Stats{}, invalid("Invalid application ID")
	}
	records, err := s.consultations.ListByApplication(ctx, applicationID)
	if err != nil {
		return consultation.Stats{}, &PublicError{Message: backend.Redact(err), Err: err}
	}
	return consultation.ComputeStats(records), nil
}
