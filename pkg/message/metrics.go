package message

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus metrics for one or more message factories.
// Attach with WithMetrics; factories without metrics skip instrumentation
// entirely.
type Metrics struct {
	messagesCreated    *prometheus.CounterVec
	messagesDestroyed  *prometheus.CounterVec
	allocationFailures *prometheus.CounterVec
	liveMessages       prometheus.Gauge
}

// NewMetrics creates a metrics instance registered with the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		messagesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netmsg_messages_created_total",
				Help: "Total number of messages created, by message type",
			},
			[]string{"type"},
		),
		messagesDestroyed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netmsg_messages_destroyed_total",
				Help: "Total number of messages destroyed, by message type",
			},
			[]string{"type"},
		),
		allocationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "netmsg_allocation_failures_total",
				Help: "Total number of message allocation failures, by requested message type",
			},
			[]string{"type"},
		),
		liveMessages: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "netmsg_live_messages",
				Help: "Number of messages currently live (created but not destroyed)",
			},
		),
	}
}

func (m *Metrics) created(messageType int) {
	m.messagesCreated.WithLabelValues(strconv.Itoa(messageType)).Inc()
	m.liveMessages.Inc()
}

func (m *Metrics) destroyed(messageType int) {
	m.messagesDestroyed.WithLabelValues(strconv.Itoa(messageType)).Inc()
	m.liveMessages.Dec()
}

func (m *Metrics) allocationFailed(messageType int) {
	m.allocationFailures.WithLabelValues(strconv.Itoa(messageType)).Inc()
}
