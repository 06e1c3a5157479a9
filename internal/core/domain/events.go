package domain

import "time"

// LoginAttemptedEvent represents the payload for ivony.console.login.attempted messages.
type LoginAttemptedEvent struct {
	EventID     string
	ConsoleID   string
	Email       string
	UserID      string
	Succeeded   bool
	Attempt     int
	AttemptedAt time.Time
	IPAddress   string
	Reason      string
}

// LoginLockedEvent represents the payload for ivony.console.login.locked messages.
type LoginLockedEvent struct {
	EventID     string
	ConsoleID   string
	Email       string
	Attempts    int
	LockedUntil time.Time
	IPAddress   string
}

// SignedOutEvent represents the payload for ivony.console.signed_out messages.
type SignedOutEvent struct {
	EventID     string
	ConsoleID   string
	UserID      string
	SignedOutAt time.Time
	Reason      string
}

// ConsultationsDeletedEvent represents the payload for ivony.consultation.deleted messages.
type ConsultationsDeletedEvent struct {
	EventID         string
	ActorID         string
	ConsultationIDs []string
	DeletedAt       time.Time
}

// IPStatusChangedEvent represents the payload for ivony.ip_access.changed messages.
type IPStatusChangedEvent struct {
	EventID   string
	ActorID   string
	IPAddress string
	Status    IPStatus
	Reason    string
	ChangedAt time.Time
}

// UserAdministeredEvent represents the payload for ivony.user.administered messages.
type UserAdministeredEvent struct {
	EventID  string
	ActorID  string
	UserID   string
	Field    string
	NewValue string
	At       time.Time
}

// VisitTrackedEvent represents the payload for ivony.consultation.tracked messages.
type VisitTrackedEvent struct {
	EventID        string
	ConsultationID string
	ApplicationID  string
	IsUnique       bool
	Source         string
	VisitedAt      time.Time
}
