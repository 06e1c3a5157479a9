package usecase

import (
	"context"
	"net"
	"strings"
	"time"

	uuid "github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/consultation"
	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/backend"
	"github.com/claudemarjean/Ivony/internal/infra/logger"
)

// IPAccessService moderates IP addresses and answers status lookups through a bounded cache.
type IPAccessService struct {
	repo   port.IPAccessRepository
	cache  *expirable.LRU[string, domain.IPStatus]
	events port.EventPublisher
	logger *zap.Logger
	now    func() time.Time
}

// IPAccessOptions sizes the status cache.
type IPAccessOptions struct {
	CacheSize int
	CacheTTL  time.Duration
	Events    port.EventPublisher
	Logger    *zap.Logger
	Now       func() time.Time
}

func NewIPAccessService(repo port.IPAccessRepository, opts IPAccessOptions) *IPAccessService {
	size := opts.CacheSize
	if size <= 0 {
		size = 4096
	}
	ttl := opts.CacheTTL
	if ttl <= 0 {
		ttl = time.Minute
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &IPAccessService{
		repo:   repo,
		cache:  expirable.NewLRU[string, domain.IPStatus](size, nil, ttl),
		events: opts.Events,
		logger: log,
		now:    now,
	}
}

func normalizeIP(raw string) (string, error) {
	parsed := net.ParseIP(strings.TrimSpace(raw))
	if parsed == nil {
		return "", invalid("Invalid IP address")
	}
	return parsed.String(), nil
}

// SetStatus upserts the moderation record of ip.
func (s *IPAccessService) SetStatus(ctx context.Context, ip string, status domain.IPStatus, reason string) (*domain.IPAccess, error) {
	addr, err := normalizeIP(ip)
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, invalid("Invalid IP status")
	}

	now := s.now()
	record := domain.IPAccess{
		IPAddress: addr,
		Status:    status,
		Reason:    strings.TrimSpace(reason),
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, record); err != nil {
		s.logger.Error("failed to update ip status", zap.String("ip", logger.MaskIP(addr)), zap.Error(err))
		return nil, &PublicError{Message: backend.Redact(err), Err: err}
	}
	s.cache.Add(addr, status)

	if s.events != nil {
		event := domain.IPStatusChangedEvent{
			EventID:   uuid.NewString(),
			ActorID:   actorFromContext(ctx),
			IPAddress: addr,
			Status:    status,
			Reason:    record.Reason,
			ChangedAt: now,
		}
		if err := s.events.PublishIPStatusChanged(ctx, event); err != nil {
			s.logger.Warn("failed to publish ip status change", zap.Error(err))
		}
	}

	s.logger.Info("ip status updated", zap.String("ip", logger.MaskIP(addr)), zap.String("status", string(status)))
	return &record, nil
}

// Lookup returns the status of ip, none when unknown.
func (s *IPAccessService) Lookup(ctx context.Context, ip string) (domain.IPStatus, error) {
	addr, err := normalizeIP(ip)
	if err != nil {
		return domain.IPStatusNone, err
	}
	if status, ok := s.cache.Get(addr); ok {
		return status, nil
	}

	record, err := s.repo.Get(ctx, addr)
	if err != nil {
		return domain.IPStatusNone, &PublicError{Message: backend.Redact(err), Err: err}
	}
	status := domain.IPStatusNone
	if record != nil && record.Status.Valid() {
		status = record.Status
	}
	s.cache.Add(addr, status)
	return status, nil
}

// List returns every moderation record and refreshes the cache with them.
func (s *IPAccessService) List(ctx context.Context) ([]domain.IPAccess, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, &PublicError{Message: backend.Redact(err), Err: err}
	}
	for _, r := range records {
		s.cache.Add(r.IPAddress, r.Status)
	}
	return records, nil
}

// Index loads every record once and returns a lookup for the filter layer. Addresses without a
// record resolve to none.
func (s *IPAccessService) Index(ctx context.Context) (consultation.StatusLookup, error) {
	records, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make(map[string]domain.IPStatus, len(records))
	for _, r := range records {
		statuses[r.IPAddress] = r.Status
	}
	return func(ip string) domain.IPStatus {
		if status, ok := statuses[ip]; ok {
			return status
		}
		if parsed := net.ParseIP(ip); parsed != nil {
			if status, ok := statuses[parsed.String()]; ok {
				return status
			}
		}
		return domain.IPStatusNone
	}, nil
}

type actorKey struct{}

// WithActor records the acting user for audit events.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

func actorFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(actorKey{}).(string)
	return id
}
