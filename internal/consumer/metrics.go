package consumer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	messagesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progress_service",
		Subsystem: "consumer",
		Name:      "messages_total",
		Help:      "Consumed progress events by topic, record kind and outcome.",
	}, []string{"topic", "kind", "outcome"})

	deliveryLag = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "progress_service",
		Subsystem: "consumer",
		Name:      "delivery_lag_seconds",
		Help:      "Delay between publishing an event and storing it in the event log.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(messagesCounter, deliveryLag)
}

func recordStored(msg Message, now time.Time) {
	messagesCounter.WithLabelValues(msg.Topic, msg.kindLabel(), "stored").Inc()
	if !msg.Timestamp.IsZero() {
		deliveryLag.WithLabelValues(msg.Topic).Observe(now.Sub(msg.Timestamp).Seconds())
	}
}

func recordHandlerError(msg Message) {
	messagesCounter.WithLabelValues(msg.Topic, msg.kindLabel(), "handler_error").Inc()
}

func recordDecodeError(topic string) {
	messagesCounter.WithLabelValues(topic, "unknown", "decode_error").Inc()
}
