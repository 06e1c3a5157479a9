package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/backend"
)

// VisitStore records portal visits through the REST gateway with the public key. It is used
// when no direct database connection is configured.
type VisitStore struct {
	client *backend.Client
}

var _ port.VisitStore = (*VisitStore)(nil)

func NewVisitStore(client *backend.Client) *VisitStore {
	return &VisitStore{client: client}
}

func (s *VisitStore) ApplicationExists(ctx context.Context, applicationID string) (bool, error) {
	q := s.client.From(tableApplications).Select("id").Eq("id", applicationID).Limit(1)
	rows, err := backend.Fetch[idRow](ctx, q).Unwrap()
	if err != nil {
		return false, fmt.Errorf("lookup application: %w", err)
	}
	return len(rows.Items) > 0, nil
}

func (s *VisitStore) HasVisitSince(ctx context.Context, applicationID, ip string, since time.Time) (bool, error) {
	q := s.client.From(tableConsultations).
		Select("id").
		Eq("application_id", applicationID).
		Eq("ip_address", ip).
		Eq("is_deleted", false).
		Gte("visited_at", since.UTC().Format(time.RFC3339Nano)).
		Limit(1)
	rows, err := backend.Fetch[idRow](ctx, q).Unwrap()
	if err != nil {
		return false, fmt.Errorf("lookup previous visit: %w", err)
	}
	return len(rows.Items) > 0, nil
}

func (s *VisitStore) Insert(ctx context.Context, visit domain.Consultation) error {
	q := s.client.From(tableConsultations).Select("id")
	if _, err := backend.Insert[idRow](ctx, q, []domain.Consultation{visit}).Unwrap(); err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}
