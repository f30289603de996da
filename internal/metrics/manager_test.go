package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestManagerDomainCounters(t *testing.T) {
	m := NewTestManager()

	m.IncOTPSent()
	m.IncOTPSent()
	m.IncMealPlan(false)
	m.IncMealPlan(true)
	m.IncMealPlan(true)
	m.IncWorkoutCompleted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterOTPSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterMealPlans.WithLabelValues("parsed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterMealPlans.WithLabelValues("fallback")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterWorkoutsCompleted))
}

func TestNilManagerIsSafe(t *testing.T) {
	var m *Manager
	assert.NotPanics(t, func() {
		m.IncOTPSent()
		m.IncMealPlan(true)
		m.IncWorkoutCompleted()
	})
}

func TestSetupPrometheusRegistersManager(t *testing.T) {
	reg := SetupPrometheus()
	m := NewManager("healthtrack", "main", reg)
	m.IncWorkoutCompleted()

	families, err := reg.Gather()
	assert.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, family := range families {
		names[family.GetName()] = true
	}
	assert.True(t, names["healthtrack_main_workouts_completed"])
	assert.True(t, names["go_goroutines"])
}
