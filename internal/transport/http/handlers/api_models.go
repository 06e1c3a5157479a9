package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/navigation"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// LoginRequest defines the payload for the console login endpoint. Field presence is checked
// by the auth service so its messages reach the caller verbatim.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserSummary describes the signed-in user.
type UserSummary struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

// ConsoleStateResponse is the public part of a console's AuthState.
type ConsoleStateResponse struct {
	IsAuthenticated bool               `json:"is_authenticated"`
	Role            domain.Role        `json:"role"`
	User            *UserSummary       `json:"user,omitempty"`
	Profile         *domain.Profile    `json:"profile,omitempty"`
	ExpiresAt       *time.Time         `json:"expires_at,omitempty"`
	Attempts        int                `json:"auth_attempt_count"`
	Location        string             `json:"location"`
	Page            *navigation.Result `json:"page,omitempty"`
	Dashboard       any                `json:"dashboard,omitempty"`
}

// LoginResponse is returned after a successful login together with the landing page.
type LoginResponse struct {
	User UserSummary       `json:"user"`
	Page navigation.Result `json:"page"`
}

// DeleteConsultationsRequest lists the consultations to soft delete.
type DeleteConsultationsRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// IPAccessRequest sets the moderation status of an address.
type IPAccessRequest struct {
	IP     string          `json:"ip" binding:"required"`
	Status domain.IPStatus `json:"status" binding:"required"`
	Reason string          `json:"reason"`
}

// UserRoleRequest changes a user's role.
type UserRoleRequest struct {
	Role domain.Role `json:"role" binding:"required"`
}

// UserStatusRequest changes a user's account status.
type UserStatusRequest struct {
	Status domain.UserStatus `json:"status" binding:"required"`
}

// PageQuery is the common pagination query.
type PageQuery struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// AuditLogQuery filters the audit trail.
type AuditLogQuery struct {
	PageQuery
	Action  string `form:"action"`
	ActorID string `form:"actor"`
}

// AnalyticsQuery bounds the analytics summary. Dates are RFC 3339 or YYYY-MM-DD.
type AnalyticsQuery struct {
	Start string `form:"start_date"`
	End   string `form:"end_date"`
}

// TrackRequest is sent by the public portal for each page view.
type TrackRequest struct {
	ApplicationID string `json:"application_id"`
	Source        string `json:"source"`
	URL           string `json:"url"`
	Authenticated bool   `json:"authenticated"`
	Country       string `json:"country"`
	Region        string `json:"region"`
	City          string `json:"city"`
}

// TrackResponse acknowledges a stored visit.
type TrackResponse struct {
	ID       string `json:"id"`
	IsUnique bool   `json:"is_unique"`
}

// HealthResponse describes the service health payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadyResponse describes readiness check results with dependency checks.
type ReadyResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

func newUserSummary(st domain.AuthState) *UserSummary {
	if st.User == nil {
		return nil
	}
	return &UserSummary{ID: st.User.ID, Email: st.User.Email, Role: st.Role}
}
