package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/config"
	"github.com/claudemarjean/Ivony/internal/infra/logger"
)

const schemaVersion = "1.0"

const (
	EventLoginAttempted       = "console.login.attempted"
	EventLoginLocked          = "console.login.locked"
	EventSignedOut            = "console.signed_out"
	EventConsultationsDeleted = "consultation.deleted"
	EventVisitTracked         = "consultation.tracked"
	EventIPStatusChanged      = "ip_access.changed"
	EventUserAdministered     = "user.administered"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type envelopeMetadata map[string]string

type eventEnvelope struct {
	EventID   string           `json:"event_id"`
	EventType string           `json:"event_type"`
	Subject   string           `json:"subject,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	Version   string           `json:"version"`
	Payload   any              `json:"payload"`
	Metadata  envelopeMetadata `json:"metadata,omitempty"`
}

// publish wraps payload in the common envelope. subject doubles as the partition key.
func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, subject string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	id := eventID
	if id == "" {
		id = uuid.NewString()
	}

	metadata := envelopeMetadata{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}

	if span := trace.SpanFromContext(ctx); span != nil {
		if sc := span.SpanContext(); sc.IsValid() {
			metadata["trace_id"] = sc.TraceID().String()
		}
	}

	envelope := eventEnvelope{
		EventID:   id,
		EventType: eventType,
		Subject:   subject,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}
	if subject != "" {
		message.Key = sarama.StringEncoder(subject)
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishLoginAttempted publishes ivony.console.login.attempted events. The email is masked.
func (p *EventPublisher) PublishLoginAttempted(ctx context.Context, event domain.LoginAttemptedEvent) error {
	payload := struct {
		ConsoleID   string    `json:"console_id"`
		Email       string    `json:"email"`
		UserID      string    `json:"user_id,omitempty"`
		Succeeded   bool      `json:"succeeded"`
		Attempt     int       `json:"attempt"`
		AttemptedAt time.Time `json:"attempted_at"`
		IPAddress   string    `json:"ip_address,omitempty"`
		Reason      string    `json:"reason,omitempty"`
	}{
		ConsoleID:   event.ConsoleID,
		Email:       logger.MaskEmail(event.Email),
		UserID:      event.UserID,
		Succeeded:   event.Succeeded,
		Attempt:     event.Attempt,
		AttemptedAt: event.AttemptedAt.UTC(),
		IPAddress:   logger.MaskIP(event.IPAddress),
		Reason:      event.Reason,
	}

	return p.publish(ctx, event.EventID, EventLoginAttempted, event.ConsoleID, event.AttemptedAt, payload)
}

// PublishLoginLocked publishes ivony.console.login.locked events.
func (p *EventPublisher) PublishLoginLocked(ctx context.Context, event domain.LoginLockedEvent) error {
	payload := struct {
		ConsoleID   string    `json:"console_id"`
		Email       string    `json:"email"`
		Attempts    int       `json:"attempts"`
		LockedUntil time.Time `json:"locked_until"`
		IPAddress   string    `json:"ip_address,omitempty"`
	}{
		ConsoleID:   event.ConsoleID,
		Email:       logger.MaskEmail(event.Email),
		Attempts:    event.Attempts,
		LockedUntil: event.LockedUntil.UTC(),
		IPAddress:   logger.MaskIP(event.IPAddress),
	}

	return p.publish(ctx, event.EventID, EventLoginLocked, event.ConsoleID, time.Time{}, payload)
}

// PublishSignedOut publishes ivony.console.signed_out events.
func (p *EventPublisher) PublishSignedOut(ctx context.Context, event domain.SignedOutEvent) error {
	payload := struct {
		ConsoleID   string    `json:"console_id"`
		UserID      string    `json:"user_id,omitempty"`
		SignedOutAt time.Time `json:"signed_out_at"`
		Reason      string    `json:"reason"`
	}{
		ConsoleID:   event.ConsoleID,
		UserID:      event.UserID,
		SignedOutAt: event.SignedOutAt.UTC(),
		Reason:      event.Reason,
	}

	return p.publish(ctx, event.EventID, EventSignedOut, event.ConsoleID, event.SignedOutAt, payload)
}

// PublishConsultationsDeleted publishes ivony.consultation.deleted events.
func (p *EventPublisher) PublishConsultationsDeleted(ctx context.Context, event domain.ConsultationsDeletedEvent) error {
	payload := struct {
		ActorID         string    `json:"actor_id,omitempty"`
		ConsultationIDs []string  `json:"consultation_ids"`
		DeletedAt       time.Time `json:"deleted_at"`
	}{
		ActorID:         event.ActorID,
		ConsultationIDs: event.ConsultationIDs,
		DeletedAt:       event.DeletedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventConsultationsDeleted, event.ActorID, event.DeletedAt, payload)
}

// PublishIPStatusChanged publishes ivony.ip_access.changed events.
func (p *EventPublisher) PublishIPStatusChanged(ctx context.Context, event domain.IPStatusChangedEvent) error {
	payload := struct {
		ActorID   string    `json:"actor_id,omitempty"`
		IPAddress string    `json:"ip_address"`
		Status    string    `json:"status"`
		Reason    string    `json:"reason,omitempty"`
		ChangedAt time.Time `json:"changed_at"`
	}{
		ActorID:   event.ActorID,
		IPAddress: event.IPAddress,
		Status:    string(event.Status),
		Reason:    event.Reason,
		ChangedAt: event.ChangedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventIPStatusChanged, event.IPAddress, event.ChangedAt, payload)
}

// PublishUserAdministered publishes ivony.user.administered events.
func (p *EventPublisher) PublishUserAdministered(ctx context.Context, event domain.UserAdministeredEvent) error {
	payload := struct {
		ActorID  string    `json:"actor_id,omitempty"`
		UserID   string    `json:"user_id"`
		Field    string    `json:"field"`
		NewValue string    `json:"new_value"`
		At       time.Time `json:"at"`
	}{
		ActorID:  event.ActorID,
		UserID:   event.UserID,
		Field:    event.Field,
		NewValue: event.NewValue,
		At:       event.At.UTC(),
	}

	return p.publish(ctx, event.EventID, EventUserAdministered, event.UserID, event.At, payload)
}

// PublishVisitTracked publishes ivony.consultation.tracked events.
func (p *EventPublisher) PublishVisitTracked(ctx context.Context, event domain.VisitTrackedEvent) error {
	payload := struct {
		ConsultationID string    `json:"consultation_id"`
		ApplicationID  string    `json:"application_id"`
		IsUnique       bool      `json:"is_unique"`
		Source         string    `json:"source,omitempty"`
		VisitedAt      time.Time `json:"visited_at"`
	}{
		ConsultationID: event.ConsultationID,
		ApplicationID:  event.ApplicationID,
		IsUnique:       event.IsUnique,
		Source:         event.Source,
		VisitedAt:      event.VisitedAt.UTC(),
	}

	return p.publish(ctx, event.EventID, EventVisitTracked, event.ApplicationID, event.VisitedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
