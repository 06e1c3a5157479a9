// Package console keeps the per-tab console sessions of the gateway. A session owns the tab's
// state store, its auth binding and its navigator.
package console

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/navigation"
	"github.com/claudemarjean/Ivony/internal/usecase"
)

// Session is one browser tab's console.
type Session struct {
	ID        string
	CreatedAt time.Time

	Auth      *usecase.AuthService
	Navigator *navigation.Navigator

	services Services
	logger   *zap.Logger
	detach   func()
	// signedIn names the registry pool holding the session.
	signedIn atomic.Bool

	mu        sync.Mutex
	dataset   *usecase.Dataset
	dashboard *DashboardView
	closed    bool
}

// State returns the console's authentication state.
func (s *Session) State() domain.AuthState {
	return s.Auth.State()
}

// Dataset returns the consultation dataset of the console, loading it on first use or when
// reload is set.
func (s *Session) Dataset(ctx context.Context, reload bool) (*usecase.Dataset, error) {
	s.mu.Lock()
	ds := s.dataset
	s.mu.Unlock()
	if ds != nil && !reload {
		return ds, nil
	}

	authCtx, err := s.Auth.AuthorizedContext(ctx)
	if err != nil {
		return nil, err
	}
	ds, err = s.services.Consultations.Load(authCtx)
	if err != nil {
		return nil, err
	}
	s.SetDataset(ds)
	return ds, nil
}

// SetDataset replaces the cached dataset.
func (s *Session) SetDataset(ds *usecase.Dataset) {
	s.mu.Lock()
	s.dataset = ds
	s.mu.Unlock()
}

// Dashboard returns the latest dashboard snapshot while the dashboard is mounted.
func (s *Session) Dashboard() *DashboardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dashboard == nil {
		return nil
	}
	cp := *s.dashboard
	return &cp
}

func (s *Session) setDashboard(v *DashboardView) {
	s.mu.Lock()
	s.dashboard = v
	s.mu.Unlock()
}

func (s *Session) updateKPIs(kpis domain.DashboardKPIs, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dashboard == nil {
		return
	}
	s.dashboard.KPIs = kpis
	s.dashboard.RefreshedAt = at
}

// Close disposes the mounted view and detaches the auth subscription. It is safe to call more
// than once.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.dataset = nil
	s.mu.Unlock()

	s.Navigator.Close()
	if s.detach != nil {
		s.detach()
	}
	s.logger.Debug("console closed")
}
