package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	tripPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "planner",
		Subsystem: "persistence",
		Name:      "last_trip_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent trip persisted to Postgres.",
	})
	notificationsQueuedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "planner",
		Subsystem: "persistence",
		Name:      "notifications_queued_total",
		Help:      "Number of notification events written to the outbox.",
	})
)

func init() {
	prometheus.MustRegister(tripPersistGauge, notificationsQueuedCounter)
}

// RecordTripPersisted updates the persistence watermark gauge.
func RecordTripPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	tripPersistGauge.Set(float64(ts.Unix()))
}

// RecordNotificationQueued counts an outbox insert.
func RecordNotificationQueued() {
	notificationsQueuedCounter.Inc()
}
