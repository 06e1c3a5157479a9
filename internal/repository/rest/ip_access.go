package rest

import (
	"context"
	"errors"
	"fmt"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/backend"
)

// IPAccessRepository implements port.IPAccessRepository.
type IPAccessRepository struct {
	client *backend.Client
}

var _ port.IPAccessRepository = (*IPAccessRepository)(nil)

func NewIPAccessRepository(client *backend.Client) *IPAccessRepository {
	return &IPAccessRepository{client: client}
}

func (r *IPAccessRepository) List(ctx context.Context) ([]domain.IPAccess, error) {
	q := r.client.From(tableIPAccess).Order("updated_at", false)
	rows, err := backend.Fetch[domain.IPAccess](ctx, q).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("list ip access: %w", err)
	}
	return rows.Items, nil
}

// Get returns the record of ip, or nil when the address was never moderated.
func (r *IPAccessRepository) Get(ctx context.Context, ip string) (*domain.IPAccess, error) {
	q := r.client.From(tableIPAccess).Eq("ip_address", ip).Single()
	rows, err := backend.Fetch[domain.IPAccess](ctx, q).Unwrap()
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ip access: %w", err)
	}
	return &rows.Items[0], nil
}

// Upsert creates or replaces the record keyed by its address.
func (r *IPAccessRepository) Upsert(ctx context.Context, record domain.IPAccess) error {
	payload := map[string]any{
		"ip_address": record.IPAddress,
		"status":     record.Status,
		"reason":     record.Reason,
		"updated_at": record.UpdatedAt,
	}
	q := r.client.From(tableIPAccess)
	if _, err := backend.Upsert[domain.IPAccess](ctx, q, "ip_address", []map[string]any{payload}).Unwrap(); err != nil {
		return fmt.Errorf("upsert ip access: %w", err)
	}
	return nil
}
