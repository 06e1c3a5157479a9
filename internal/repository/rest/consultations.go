package rest

import (
	"context"
	"fmt"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/backend"
)

type idRow struct {
	ID string `json:"id"`
}

// ConsultationRepository implements port.ConsultationRepository.
type ConsultationRepository struct {
	client *backend.Client
}

var _ port.ConsultationRepository = (*ConsultationRepository)(nil)

func NewConsultationRepository(client *backend.Client) *ConsultationRepository {
	return &ConsultationRepository{client: client}
}

// ListRecent returns at most limit non-deleted visits of applicationIDs, newest first.
func (r *ConsultationRepository) ListRecent(ctx context.Context, applicationIDs []string, limit int) ([]domain.Consultation, error) {
	if len(applicationIDs) == 0 {
		return []domain.Consultation{}, nil
	}
	q := r.client.From(tableConsultations).
		In("application_id", applicationIDs).
		Eq("is_deleted", false).
		Order("visited_at", false).
		Limit(limit)

	rows, err := backend.Fetch[domain.Consultation](ctx, q).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	return rows.Items, nil
}

// ListByApplication returns every non-deleted visit of one application.
func (r *ConsultationRepository) ListByApplication(ctx context.Context, applicationID string) ([]domain.Consultation, error) {
	q := r.client.From(tableConsultations).
		Eq("application_id", applicationID).
		Eq("is_deleted", false).
		Order("visited_at", false)

	rows, err := backend.Fetch[domain.Consultation](ctx, q).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("list application consultations: %w", err)
	}
	return rows.Items, nil
}

// MarkDeleted flags ids as deleted in one request.
func (r *ConsultationRepository) MarkDeleted(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	q := r.client.From(tableConsultations).Select("id").In("id", ids)
	if _, err := backend.Update[idRow](ctx, q, map[string]any{"is_deleted": true}).Unwrap(); err != nil {
		return fmt.Errorf("soft delete consultations: %w", err)
	}
	return nil
}
