package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests          *prometheus.CounterVec
	CounterOTPSent           prometheus.Counter
	CounterMealPlans         *prometheus.CounterVec
	CounterWorkoutsCompleted prometheus.Counter

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistRequestDuration *prometheus.HistogramVec
}

func NewTestManager() *Manager {
	return NewManager("healthtrack", "test_server", prometheus.NewRegistry())
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterOTPSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "otp_sent",
			Help:      "The total number of password reset codes sent",
		}),
		CounterMealPlans: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "meal_plans_generated",
			Help:      "Generated meal plans by parse outcome",
		}, []string{"outcome"}),
		CounterWorkoutsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "workouts_completed",
			Help:      "The total number of completed workout sessions",
		}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Current number of requests served",
		}),
		HistRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Duration of requests in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"method"}),
	}
}

// The helpers below are nil safe so services can run without metrics.

func (m *Manager) IncOTPSent() {
	if m == nil {
		return
	}
	m.CounterOTPSent.Inc()
}

func (m *Manager) IncMealPlan(fallback bool) {
	if m == nil {
		return
	}
	outcome := "parsed"
	if fallback {
		outcome = "fallback"
	}
	m.CounterMealPlans.WithLabelValues(outcome).Inc()
}

func (m *Manager) IncWorkoutCompleted() {
	if m == nil {
		return
	}
	m.CounterWorkoutsCompleted.Inc()
}
