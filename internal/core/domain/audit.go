package domain

import "time"

// AuditLog is a read-only audit trail entry.
type AuditLog struct {
	ID         string         `json:"id"`
	Action     string         `json:"action"`
	Actor      string         `json:"actor,omitempty"`
	ActorEmail string         `json:"actor_email,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// DashboardKPIs are the pre-aggregated dashboard counters.
type DashboardKPIs struct {
	ActiveUsers       int64 `json:"active_users"`
	TotalApplications int64 `json:"total_applications"`
	TotalProjects     int64 `json:"total_projects"`
	Logs24h           int64 `json:"logs_24h"`
}

// AnalyticsSummary is the payload returned by the analytics procedure.
type AnalyticsSummary map[string]any

// Page is one page of a paginated listing with its exact total.
type Page[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}
