package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
)

const (
	applicationsTable  = "public.ivony_application"
	consultationsTable = "public.ivony_consultation"
)

// VisitStore implements port.VisitStore directly against the database behind the REST gateway.
type VisitStore struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

var _ port.VisitStore = (*VisitStore)(nil)

// NewVisitStore constructs a store backed by any executor that satisfies pgExecutor.
func NewVisitStore(exec pgExecutor) *VisitStore {
	return &VisitStore{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// ApplicationExists reports whether applicationID names a live application.
func (s *VisitStore) ApplicationExists(ctx context.Context, applicationID string) (bool, error) {
	query, args, err := s.builder.Select("1").
		From(applicationsTable).
		Where(squirrel.Eq{"id": applicationID}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build application lookup sql: %w", err)
	}

	var one int
	if err := s.exec.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup application: %w", err)
	}
	return true, nil
}

// HasVisitSince reports whether ip visited applicationID at or after since.
func (s *VisitStore) HasVisitSince(ctx context.Context, applicationID, ip string, since time.Time) (bool, error) {
	query, args, err := s.builder.Select("1").
		From(consultationsTable).
		Where(squirrel.Eq{"application_id": applicationID, "ip_address": ip, "is_deleted": false}).
		Where(squirrel.GtOrEq{"visited_at": since}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build visit lookup sql: %w", err)
	}

	var one int
	if err := s.exec.QueryRow(ctx, query, args...).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("lookup recent visit: %w", err)
	}
	return true, nil
}

// Insert stores one visit.
func (s *VisitStore) Insert(ctx context.Context, visit domain.Consultation) error {
	query, args, err := s.builder.Insert(consultationsTable).
		Columns(
			"id",
			"application_id",
			"visited_at",
			"country",
			"region",
			"city",
			"device_type",
			"browser",
			"os",
			"is_unique",
			"is_authenticated",
			"ip_address",
			"source",
			"url",
			"is_deleted",
		).
		Values(
			visit.ID,
			visit.ApplicationID,
			visit.VisitedAt,
			nullable(visit.Country),
			nullable(visit.Region),
			nullable(visit.City),
			nullable(visit.DeviceType),
			nullable(visit.Browser),
			nullable(visit.OS),
			visit.IsUnique,
			visit.IsAuthenticated,
			nullable(visit.IPAddress),
			nullable(visit.Source),
			nullable(visit.URL),
			false,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert visit sql: %w", err)
	}

	if _, err := s.exec.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert visit: %w", err)
	}
	return nil
}

// nullable stores empty strings as NULL.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
