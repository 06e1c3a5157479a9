package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/claudemarjean/Ivony/internal/core/port"
)

// Login outcomes reported through ObserveLogin.
const (
	LoginSucceeded = "succeeded"
	LoginFailed    = "failed"
	LoginRejected  = "rejected"
	LoginLocked    = "locked"
)

// ConsoleMetrics holds the console collectors.
type ConsoleMetrics struct {
	logins      *prometheus.CounterVec
	lockouts    prometheus.Counter
	consoles    prometheus.Gauge
	softDeletes prometheus.Counter
	visits      *prometheus.CounterVec
}

// NewConsoleMetrics registers the console collectors on reg, or on the default registerer when
// reg is nil.
func NewConsoleMetrics(reg prometheus.Registerer) *ConsoleMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &ConsoleMetrics{
		logins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ivony",
			Subsystem: "console",
			Name:      "login_attempts_total",
			Help:      "Console login attempts partitioned by outcome.",
		}, []string{"outcome"}),
		lockouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ivony",
			Subsystem: "console",
			Name:      "login_lockouts_total",
			Help:      "Login attempts rejected locally because the console is locked out.",
		}),
		consoles: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "ivony",
			Subsystem: "console",
			Name:      "active_sessions",
			Help:      "Console sessions currently held in the registry.",
		}),
		softDeletes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "ivony",
			Subsystem: "consultation",
			Name:      "soft_deleted_total",
			Help:      "Consultation records flagged as deleted.",
		}),
		visits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ivony",
			Subsystem: "portal",
			Name:      "visits_tracked_total",
			Help:      "Portal visits recorded, partitioned by uniqueness.",
		}, []string{"unique"}),
	}
}

func (m *ConsoleMetrics) ObserveLogin(outcome string) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(outcome).Inc()
}

func (m *ConsoleMetrics) ObserveLockout() {
	if m == nil {
		return
	}
	m.lockouts.Inc()
}

func (m *ConsoleMetrics) SetActiveConsoles(n int) {
	if m == nil {
		return
	}
	m.consoles.Set(float64(n))
}

func (m *ConsoleMetrics) ObserveSoftDelete(records int) {
	if m == nil || records <= 0 {
		return
	}
	m.softDeletes.Add(float64(records))
}

func (m *ConsoleMetrics) ObserveVisit(unique bool) {
	if m == nil {
		return
	}
	label := "false"
	if unique {
		label = "true"
	}
	m.visits.WithLabelValues(label).Inc()
}

// NopMetrics discards every observation.
type NopMetrics struct{}

func (NopMetrics) ObserveLogin(string)   {}
func (NopMetrics) ObserveLockout()       {}
func (NopMetrics) SetActiveConsoles(int) {}
func (NopMetrics) ObserveSoftDelete(int) {}
func (NopMetrics) ObserveVisit(bool)     {}

var (
	_ port.ConsoleMetrics = (*ConsoleMetrics)(nil)
	_ port.ConsoleMetrics = NopMetrics{}
)
