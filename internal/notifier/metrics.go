package notifier

import "github.com/prometheus/client_golang/prometheus"

var (
	processedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planner",
		Subsystem: "notifier",
		Name:      "messages_processed_total",
		Help:      "Number of Kafka messages successfully handled.",
	}, []string{"topic", "event_type"})

	handlerErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planner",
		Subsystem: "notifier",
		Name:      "handler_errors_total",
		Help:      "Number of handler errors grouped by topic and event type.",
	}, []string{"topic", "event_type"})

	decodeErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planner",
		Subsystem: "notifier",
		Name:      "decode_errors_total",
		Help:      "Number of decode failures per topic.",
	}, []string{"topic"})

	sendErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "planner",
		Subsystem: "notifier",
		Name:      "email_send_errors_total",
		Help:      "Number of SMTP delivery failures per topic.",
	}, []string{"topic"})

	lastMessageGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "planner",
		Subsystem: "notifier",
		Name:      "last_message_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successfully processed message per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(processedCounter, handlerErrorCounter, decodeErrorCounter, sendErrorCounter, lastMessageGauge)
}

func recordProcessed(event Event) {
	processedCounter.WithLabelValues(event.Topic, event.EventType).Inc()
	if !event.Timestamp.IsZero() {
		lastMessageGauge.WithLabelValues(event.Topic).Set(float64(event.Timestamp.Unix()))
	}
}

func recordHandlerError(event Event) {
	handlerErrorCounter.WithLabelValues(event.Topic, event.EventType).Inc()
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}

func recordSendError(topic string) {
	sendErrorCounter.WithLabelValues(topic).Inc()
}
