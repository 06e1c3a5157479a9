// Package rest implements the repository ports over the backend's REST gateway and remote
// procedures. Row-level security on the backend decides what the caller may see; the access
// token is taken from the request context.
package rest

import (
	"github.com/claudemarjean/Ivony/internal/infra/backend"
)

const (
	tableApplications  = "ivony_application"
	tableConsultations = "ivony_consultation"
	tableIPAccess      = "ivony_ip_access"
	tableProfiles      = "ivony_profiles"
	viewUsers          = "users_view"
	tableAuditLogs     = "audit_logs"
)

// Repositories groups the REST-backed repository implementations.
type Repositories struct {
	Consultations *ConsultationRepository
	IPAccess      *IPAccessRepository
	Applications  *ApplicationRepository
	Users         *UserDirectory
	AuditLogs     *AuditLogRepository
	Profiles      *ProfileRepository
	Procedures    *Procedures
	Visits        *VisitStore
}

// NewRepositories wires every repository to client.
func NewRepositories(client *backend.Client) *Repositories {
	return &Repositories{
		Consultations: NewConsultationRepository(client),
		IPAccess:      NewIPAccessRepository(client),
		Applications:  NewApplicationRepository(client),
		Users:         NewUserDirectory(client),
		AuditLogs:     NewAuditLogRepository(client),
		Profiles:      NewProfileRepository(client),
		Procedures:    NewProcedures(client),
		Visits:        NewVisitStore(client),
	}
}

func total(rows int, reported int) int {
	if reported < 0 {
		return rows
	}
	return reported
}
