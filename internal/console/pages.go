package console

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/claudemarjean/Ivony/internal/consultation"
	"github.com/claudemarjean/Ivony/internal/core/domain"
	"github.com/claudemarjean/Ivony/internal/navigation"
	"github.com/claudemarjean/Ivony/internal/usecase"
)

// RecentActivityLimit is the number of audit entries shown on the dashboard.
const RecentActivityLimit = 5

// DashboardView is the dashboard page model. KPIs are refreshed while the page is mounted.
type DashboardView struct {
	KPIs           domain.DashboardKPIs `json:"kpis"`
	RecentActivity []domain.AuditLog    `json:"recent_activity"`
	RefreshedAt    time.Time            `json:"refreshed_at"`
}

// SettingsView is the settings page model.
type SettingsView struct {
	UserID  string          `json:"user_id"`
	Email   string          `json:"email"`
	Role    domain.Role     `json:"role"`
	Profile *domain.Profile `json:"profile,omitempty"`
}

func (r *Registry) renderers(s *Session) map[string]navigation.Renderer {
	return map[string]navigation.Renderer{
		"/":              r.dashboardPage(s),
		"/users":         usersPage(s),
		"/applications":  applicationsPage(s),
		"/projects":      applicationsPage(s),
		"/consultations": consultationsPage(s),
		"/analytics":     analyticsPage(s),
		"/logs":          logsPage(s),
		"/settings":      settingsPage(s),
	}
}

// dashboardPage degrades every fetch to zero values and starts the KPI refresh ticker. The
// disposer stops it.
func (r *Registry) dashboardPage(s *Session) navigation.Renderer {
	every := r.opts.KPIRefresh
	now := r.opts.Now
	return func(ctx context.Context) (navigation.View, error) {
		authCtx, err := s.Auth.AuthorizedContext(ctx)
		if err != nil {
			return navigation.View{}, err
		}

		view := &DashboardView{RecentActivity: []domain.AuditLog{}, RefreshedAt: now()}
		if kpis, err := s.services.Admin.DashboardKPIs(authCtx); err != nil {
			s.logger.Warn("dashboard kpis unavailable", zap.Error(err))
		} else {
			view.KPIs = kpis
		}
		if logs, err := s.services.Admin.ListAuditLogs(authCtx, 1, RecentActivityLimit, "", ""); err != nil {
			s.logger.Warn("recent activity unavailable", zap.Error(err))
		} else {
			view.RecentActivity = logs.Items
		}
		s.setDashboard(view)

		stop := make(chan struct{})
		done := make(chan struct{})
		go func() {
			defer close(done)
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			for {
				select {
				case <-stop:
					return
				case <-ticker.C:
					s.refreshKPIs(now)
				}
			}
		}()

		snapshot := *view
		return navigation.View{
			Data: &snapshot,
			Dispose: func() {
				close(stop)
				<-done
				s.setDashboard(nil)
			},
		}, nil
	}
}

func (s *Session) refreshKPIs(now func() time.Time) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	authCtx, err := s.Auth.AuthorizedContext(ctx)
	if err != nil {
		return
	}
	kpis, err := s.services.Admin.DashboardKPIs(authCtx)
	if err != nil {
		s.logger.Debug("kpi refresh failed", zap.Error(err))
		return
	}
	s.updateKPIs(kpis, now())
}

func usersPage(s *Session) navigation.Renderer {
	return func(ctx context.Context) (navigation.View, error) {
		authCtx, err := s.Auth.AuthorizedContext(ctx)
		if err != nil {
			return navigation.View{}, err
		}
		page, err := s.services.Admin.ListUsers(authCtx, 1, usecase.DefaultPageSize)
		if err != nil {
			return navigation.View{}, err
		}
		return navigation.View{Data: page}, nil
	}
}

func applicationsPage(s *Session) navigation.Renderer {
	return func(ctx context.Context) (navigation.View, error) {
		authCtx, err := s.Auth.AuthorizedContext(ctx)
		if err != nil {
			return navigation.View{}, err
		}
		page, err := s.services.Admin.ListApplications(authCtx, 1, usecase.DefaultPageSize, "")
		if err != nil {
			return navigation.View{}, err
		}
		return navigation.View{Data: page}, nil
	}
}

func consultationsPage(s *Session) navigation.Renderer {
	return func(ctx context.Context) (navigation.View, error) {
		ds, err := s.Dataset(ctx, true)
		if err != nil {
			return navigation.View{}, err
		}
		authCtx, err := s.Auth.AuthorizedContext(ctx)
		if err != nil {
			return navigation.View{}, err
		}
		view := s.services.Consultations.View(authCtx, ds, consultation.Filter{Period: consultation.PeriodAll})
		return navigation.View{Data: view}, nil
	}
}

func analyticsPage(s *Session) navigation.Renderer {
	return func(ctx context.Context) (navigation.View, error) {
		authCtx, err := s.Auth.AuthorizedContext(ctx)
		if err != nil {
			return navigation.View{}, err
		}
		summary, err := s.services.Admin.Analytics(authCtx, time.Time{}, time.Time{})
		if err != nil {
			return navigation.View{}, err
		}
		return navigation.View{Data: summary}, nil
	}
}

func logsPage(s *Session) navigation.Renderer {
	return func(ctx context.Context) (navigation.View, error) {
		authCtx, err := s.Auth.AuthorizedContext(ctx)
		if err != nil {
			return navigation.View{}, err
		}
		page, err := s.services.Admin.ListAuditLogs(authCtx, 1, usecase.DefaultPageSize, "", "")
		if err != nil {
			return navigation.View{}, err
		}
		return navigation.View{Data: page}, nil
	}
}

func settingsPage(s *Session) navigation.Renderer {
	return func(ctx context.Context) (navigation.View, error) {
		st := s.Auth.State()
		view := SettingsView{Role: st.Role}
		if st.User != nil {
			view.UserID = st.User.ID
			view.Email = st.User.Email
		}
		view.Profile = s.Auth.Profile(ctx)
		return navigation.View{Data: view}, nil
	}
}
