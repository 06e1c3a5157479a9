package port

import (
	"context"

	"github.com/claudemarjean/Ivony/internal/core/domain"
)

// EventPublisher publishes console audit events to the message bus.
type EventPublisher interface {
	PublishLoginAttempted(ctx context.Context, event domain.LoginAttemptedEvent) error
	PublishLoginLocked(ctx context.Context, event domain.LoginLockedEvent) error
	PublishSignedOut(ctx context.Context, event domain.SignedOutEvent) error
	PublishConsultationsDeleted(ctx context.Context, event domain.ConsultationsDeletedEvent) error
	PublishIPStatusChanged(ctx context.Context, event domain.IPStatusChangedEvent) error
	PublishUserAdministered(ctx context.Context, event domain.UserAdministeredEvent) error
	PublishVisitTracked(ctx context.Context, event domain.VisitTrackedEvent) error
}
