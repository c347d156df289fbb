package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "salonbook"

// Outcome labels that are not a scheduling rejection reason.
const (
	OutcomeCreated    = "created"
	OutcomeReplayed   = "replayed"
	OutcomeConflict   = "storage_conflict"
	OutcomeInvalid    = "invalid_request"
	OutcomeError      = "error"
	ConflictCore      = "core"
	ConflictStorage   = "storage"
	ResolveExplicit   = "explicit"
	ResolveAutoAssign = "auto"
)

type Booking struct {
	attempts  *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	cancelled prometheus.Counter
	statuses  *prometheus.CounterVec
	resolve   *prometheus.HistogramVec
}

// NewBooking creates the booking metrics and registers them with reg.
func NewBooking(reg prometheus.Registerer) *Booking {
	m := &Booking{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_attempts_total",
				Help:      "Booking attempts by outcome.",
			},
			[]string{"outcome"},
		),
		conflicts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_conflicts_total",
				Help:      "Double-booking attempts by the layer that caught them.",
			},
			[]string{"source"},
		),
		cancelled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_cancelled_total",
				Help:      "Appointments cancelled.",
			},
		),
		statuses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "booking_status_changes_total",
				Help:      "Appointment status updates by new status.",
			},
			[]string{"status"},
		),
		resolve: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "staff_resolution_seconds",
				Help:      "Time spent resolving the staff member for a booking.",
				Buckets:   []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"mode"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.attempts, m.conflicts, m.cancelled, m.statuses, m.resolve)
	}
	return m
}

func (m *Booking) Attempt(outcome string) {
	m.attempts.WithLabelValues(outcome).Inc()
}

func (m *Booking) Conflict(source string) {
	m.conflicts.WithLabelValues(source).Inc()
}

func (m *Booking) Cancelled() {
	m.cancelled.Inc()
}

func (m *Booking) StatusChanged(status string) {
	m.statuses.WithLabelValues(status).Inc()
}

func (m *Booking) ObserveResolve(mode string, d time.Duration) {
	m.resolve.WithLabelValues(mode).Observe(d.Seconds())
}
