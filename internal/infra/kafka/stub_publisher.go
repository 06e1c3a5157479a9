package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Used when kafka.enabled is false.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, subject string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		append([]zap.Field{
			zap.String("event_type", eventType),
			zap.String("subject", subject),
			zap.Time("timestamp", at.UTC()),
		}, fields...)...,
	)
}

func (p *StubPublisher) PublishLoginAttempted(_ context.Context, event domain.LoginAttemptedEvent) error {
	p.logEvent(EventLoginAttempted, event.ConsoleID, event.AttemptedAt,
		zap.String("email", logger.MaskEmail(event.Email)),
		zap.Bool("succeeded", event.Succeeded),
		zap.Int("attempt", event.Attempt),
		zap.String("reason", event.Reason),
	)
	return nil
}

func (p *StubPublisher) PublishLoginLocked(_ context.Context, event domain.LoginLockedEvent) error {
	p.logEvent(EventLoginLocked, event.ConsoleID, time.Time{},
		zap.String("email", logger.MaskEmail(event.Email)),
		zap.Int("attempts", event.Attempts),
		zap.Time("locked_until", event.LockedUntil),
	)
	return nil
}

func (p *StubPublisher) PublishSignedOut(_ context.Context, event domain.SignedOutEvent) error {
	p.logEvent(EventSignedOut, event.ConsoleID, event.SignedOutAt, zap.String("reason", event.Reason))
	return nil
}

func (p *StubPublisher) PublishConsultationsDeleted(_ context.Context, event domain.ConsultationsDeletedEvent) error {
	p.logEvent(EventConsultationsDeleted, event.ActorID, event.DeletedAt, zap.Strings("consultation_ids", event.ConsultationIDs))
	return nil
}

func (p *StubPublisher) PublishIPStatusChanged(_ context.Context, event domain.IPStatusChangedEvent) error {
	p.logEvent(EventIPStatusChanged, logger.MaskIP(event.IPAddress), event.ChangedAt, zap.String("status", string(event.Status)))
	return nil
}

func (p *StubPublisher) PublishUserAdministered(_ context.Context, event domain.UserAdministeredEvent) error {
	p.logEvent(EventUserAdministered, event.UserID, event.At,
		zap.String("field", event.Field),
		zap.String("new_value", event.NewValue),
	)
	return nil
}

func (p *StubPublisher) PublishVisitTracked(_ context.Context, event domain.VisitTrackedEvent) error {
	p.logEvent(EventVisitTracked, event.ApplicationID, event.VisitedAt, zap.Bool("unique", event.IsUnique))
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
