package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBooking(reg)

	m.Attempt(OutcomeCreated)
	m.Attempt(OutcomeCreated)
	m.Attempt("already_booked")
	m.Conflict(ConflictStorage)
	m.Cancelled()
	m.StatusChanged("confirmed")
	m.ObserveResolve(ResolveAutoAssign, 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.attempts.WithLabelValues(OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues("already_booked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.conflicts.WithLabelValues(ConflictStorage)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cancelled))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.statuses.WithLabelValues("confirmed")))

	n, err := testutil.GatherAndCount(reg, "salonbook_staff_resolution_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNewBookingWithoutRegistry(t *testing.T) {
	m := NewBooking(nil)
	m.Attempt(OutcomeError)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attempts.WithLabelValues(OutcomeError)))
}
