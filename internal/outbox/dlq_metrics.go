package outbox

import "github.com/prometheus/client_golang/prometheus"

var (
	requeuedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planner",
		Subsystem: "outbox_dlq",
		Name:      "events_requeued_total",
		Help:      "Number of DLQ entries successfully re-queued into the outbox.",
	}, []string{"topic"})

	quarantinedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planner",
		Subsystem: "outbox_dlq",
		Name:      "events_quarantined_total",
		Help:      "Number of DLQ entries quarantined after exhausting retries.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(requeuedCounter, quarantinedCounter)
}
