package rest

import (
	"context"
	"fmt"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/backend"
)

// ApplicationRepository implements port.ApplicationRepository.
type ApplicationRepository struct {
	client *backend.Client
}

var _ port.ApplicationRepository = (*ApplicationRepository)(nil)

func NewApplicationRepository(client *backend.Client) *ApplicationRepository {
	return &ApplicationRepository{client: client}
}

// List returns one page of applications with the exact total.
func (r *ApplicationRepository) List(ctx context.Context, filter port.ApplicationFilter) ([]domain.Application, int, error) {
	q := r.client.From(tableApplications).
		CountExact().
		Order("created_at", false).
		Range(filter.Offset, filter.Offset+filter.Limit-1)
	if filter.Status != "" {
		q = q.Eq("status", filter.Status)
	}

	rows, err := backend.Fetch[domain.Application](ctx, q).Unwrap()
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	return rows.Items, total(len(rows.Items), rows.Total), nil
}

// ListRefs returns the id and name of every application visible to the caller.
func (r *ApplicationRepository) ListRefs(ctx context.Context) ([]domain.Application, error) {
	q := r.client.From(tableApplications).Select("id,name")
	rows, err := backend.Fetch[domain.Application](ctx, q).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("list application refs: %w", err)
	}
	return rows.Items, nil
}

func (r *ApplicationRepository) Create(ctx context.Context, fields map[string]any) (*domain.Application, error) {
	rows, err := backend.Insert[domain.Application](ctx, r.client.From(tableApplications), []map[string]any{fields}).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("create application: %w", backend.ErrNotFound)
	}
	return &rows[0], nil
}

func (r *ApplicationRepository) Update(ctx context.Context, id string, fields map[string]any) (*domain.Application, error) {
	q := r.client.From(tableApplications).Eq("id", id)
	rows, err := backend.Update[domain.Application](ctx, q, fields).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("update application: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("update application: %w", backend.ErrNotFound)
	}
	return &rows[0], nil
}

func (r *ApplicationRepository) Delete(ctx context.Context, id string) error {
	q := r.client.From(tableApplications).Eq("id", id)
	if _, err := backend.Delete(ctx, q).Unwrap(); err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	return nil
}
