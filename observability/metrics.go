// Package observability provides metric instruments and tracing for Courier.
package observability

import (
	gu "github.com/xraph/go-utils/metrics"
)

// Metrics holds metric instruments for Courier, backed by any go-utils
// MetricFactory supplied by the host application.
type Metrics struct {
	DispatchesTotal gu.Counter
	DeliveriesTotal gu.Counter
	DeliveryLatency gu.Histogram
	DeadLetterSize  gu.Gauge
	RecipientsTotal gu.Counter
}

// NewMetrics creates Courier metric instruments using the supplied factory.
// Pass metrics.NewMetricsCollector() for standalone usage.
func NewMetrics(factory gu.MetricFactory) *Metrics {
	return &Metrics{
		DispatchesTotal:  factory.Counter("courier_dispatches_total"),
		DeliveriesTotal:  factory.Counter("courier_deliveries_total"),
		DeliveryLatency:  factory.Histogram("courier_delivery_latency_seconds"),
		DeadLetterSize:   factory.Gauge("courier_dead_letter_size"),
		RecipientsTotal:  factory.Counter("courier_recipients_total"),
	}
}

// RecordDelivery records a delivery run with the given final status and latency.
func (m *Metrics) RecordDelivery(status string, latencySeconds float64) {
	m.DeliveriesTotal.WithLabels(map[string]string{"status": status}).Inc()
	m.DeliveryLatency.Observe(latencySeconds)
}

// RecordDispatch records one dispatch call and its fan-out width.
func (m *Metrics) RecordDispatch(recipients int) {
	m.DispatchesTotal.Inc()
	m.RecipientsTotal.Add(float64(recipients))
}
