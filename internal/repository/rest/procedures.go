package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/core/port"
	"github.com/claudemarjean/Ivony/internal/infra/backend"
)

const (
	rpcUpdateUserRole   = "update_user_role"
	rpcUpdateUserStatus = "update_user_status"
	rpcAnalyticsSummary = "get_analytics_summary"
	rpcDashboardKPIs    = "get_dashboard_kpis"
)

// Procedures implements port.Procedures over the backend's remote procedures.
type Procedures struct {
	client *backend.Client
}

var _ port.Procedures = (*Procedures)(nil)

func NewProcedures(client *backend.Client) *Procedures {
	return &Procedures{client: client}
}

func (p *Procedures) UpdateUserRole(ctx context.Context, userID string, role domain.Role) error {
	args := map[string]any{"target_user_id": userID, "new_role": role}
	if _, err := backend.RPC[json.RawMessage](ctx, p.client, rpcUpdateUserRole, args).Unwrap(); err != nil {
		return fmt.Errorf("update user role: %w", err)
	}
	return nil
}

func (p *Procedures) UpdateUserStatus(ctx context.Context, userID string, status domain.UserStatus) error {
	args := map[string]any{"target_user_id": userID, "new_status": status}
	if _, err := backend.RPC[json.RawMessage](ctx, p.client, rpcUpdateUserStatus, args).Unwrap(); err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	return nil
}

// DashboardKPIs accepts either a single row or a one-row set; an empty answer is nil.
func (p *Procedures) DashboardKPIs(ctx context.Context) (*domain.DashboardKPIs, error) {
	raw, err := backend.RPC[json.RawMessage](ctx, p.client, rpcDashboardKPIs, nil).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("dashboard kpis: %w", err)
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	if raw[0] == '[' {
		var rows []domain.DashboardKPIs
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode dashboard kpis: %w", err)
		}
		if len(rows) == 0 {
			return nil, nil
		}
		return &rows[0], nil
	}

	var kpis domain.DashboardKPIs
	if err := json.Unmarshal(raw, &kpis); err != nil {
		return nil, fmt.Errorf("decode dashboard kpis: %w", err)
	}
	return &kpis, nil
}

func (p *Procedures) AnalyticsSummary(ctx context.Context, start, end time.Time) (domain.AnalyticsSummary, error) {
	args := map[string]any{
		"start_date": start.UTC().Format(time.RFC3339),
		"end_date":   end.UTC().Format(time.RFC3339),
	}
	summary, err := backend.RPC[domain.AnalyticsSummary](ctx, p.client, rpcAnalyticsSummary, args).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("analytics summary: %w", err)
	}
	return summary, nil
}
