package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	availabilityResolved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slotbook",
			Name:      "availability_resolved_total",
			Help:      "Count of availability resolutions by basis source.",
		},
		[]string{"basis"},
	)

	bookingCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slotbook",
			Name:      "booking_created_total",
			Help:      "Count of bookings created.",
		},
	)

	bookingConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "slotbook",
			Name:      "booking_conflict_total",
			Help:      "Count of booking attempts rejected because the slot was taken.",
		},
	)

	bookingTransition = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "slotbook",
			Name:      "booking_transition_total",
			Help:      "Count of booking status transitions by target status.",
		},
		[]string{"status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(availabilityResolved, bookingCreated, bookingConflict, bookingTransition)
	})
}

func IncAvailabilityResolved(basis string) {
	availabilityResolved.WithLabelValues(basis).Inc()
}

func IncBookingCreated() {
	bookingCreated.Inc()
}

func IncBookingConflict() {
	bookingConflict.Inc()
}

func IncBookingTransition(status string) {
	bookingTransition.WithLabelValues(status).Inc()
}
