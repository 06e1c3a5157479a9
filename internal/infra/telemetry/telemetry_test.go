package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestConsoleMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConsoleMetrics(reg)

	m.ObserveLogin(LoginFailed)
	m.ObserveLogin(LoginFailed)
	m.ObserveLogin(LoginSucceeded)
	m.ObserveLockout()
	m.SetActiveConsoles(3)
	m.ObserveSoftDelete(4)
	m.ObserveSoftDelete(0)
	m.ObserveVisit(true)

	if got := testutil.ToFloat64(m.logins.WithLabelValues(LoginFailed)); got != 2 {
		t.Fatalf("expected 2 failed logins, got %v", got)
	}
	if got := testutil.ToFloat64(m.logins.WithLabelValues(LoginSucceeded)); got != 1 {
		t.Fatalf("expected 1 successful login, got %v", got)
	}
	if got := testutil.ToFloat64(m.lockouts); got != 1 {
		t.Fatalf("expected 1 lockout, got %v", got)
	}
	if got := testutil.ToFloat64(m.consoles); got != 3 {
		t.Fatalf("expected 3 consoles, got %v", got)
	}
	if got := testutil.ToFloat64(m.softDeletes); got != 4 {
		t.Fatalf("expected 4 soft deletes, got %v", got)
	}
	if got := testutil.ToFloat64(m.visits.WithLabelValues("true")); got != 1 {
		t.Fatalf("expected 1 unique visit, got %v", got)
	}
}

func TestNilConsoleMetricsIsSafe(t *testing.T) {
	var m *ConsoleMetrics
	m.ObserveLogin(LoginLocked)
	m.ObserveLockout()
	m.SetActiveConsoles(1)
	m.ObserveSoftDelete(1)
	m.ObserveVisit(false)
}
