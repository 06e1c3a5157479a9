package rest

import (
	"context"
	"errors"
	"fmt"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/backend"
)

// UserDirectory implements port.UserDirectory over the users view.
type UserDirectory struct {
	client *backend.Client
}

var _ port.UserDirectory = (*UserDirectory)(nil)

func NewUserDirectory(client *backend.Client) *UserDirectory {
	return &UserDirectory{client: client}
}

func (d *UserDirectory) List(ctx context.Context, offset, limit int) ([]domain.DirectoryUser, int, error) {
	q := d.client.From(viewUsers).
		Select("id,email,role,status,created_at").
		CountExact().
		Order("created_at", false).
		Range(offset, offset+limit-1)

	rows, err := backend.Fetch[domain.DirectoryUser](ctx, q).Unwrap()
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return rows.Items, total(len(rows.Items), rows.Total), nil
}

// AuditLogRepository implements port.AuditLogRepository.
type AuditLogRepository struct {
	client *backend.Client
}

var _ port.AuditLogRepository = (*AuditLogRepository)(nil)

func NewAuditLogRepository(client *backend.Client) *AuditLogRepository {
	return &AuditLogRepository{client: client}
}

func (r *AuditLogRepository) List(ctx context.Context, filter port.AuditLogFilter) ([]domain.AuditLog, int, error) {
	q := r.client.From(tableAuditLogs).
		Select("id,action,actor,actor_email,details,created_at").
		CountExact().
		Order("created_at", false).
		Range(filter.Offset, filter.Offset+filter.Limit-1)
	if filter.Action != "" {
		q = q.Eq("action", filter.Action)
	}
	if filter.ActorID != "" {
		q = q.Eq("actor", filter.ActorID)
	}

	rows, err := backend.Fetch[domain.AuditLog](ctx, q).Unwrap()
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	return rows.Items, total(len(rows.Items), rows.Total), nil
}

// ProfileRepository implements port.ProfileRepository.
type ProfileRepository struct {
	client *backend.Client
}

var _ port.ProfileRepository = (*ProfileRepository)(nil)

func NewProfileRepository(client *backend.Client) *ProfileRepository {
	return &ProfileRepository{client: client}
}

// Get returns the profile of userID, nil when it has none.
func (r *ProfileRepository) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	q := r.client.From(tableProfiles).Eq("id", userID).Single()
	rows, err := backend.Fetch[domain.Profile](ctx, q).Unwrap()
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &rows.Items[0], nil
}
