// Package metrics exposes prometheus counters for the payment pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	PaymentsProcessed *prometheus.CounterVec
	BankUnavailable   prometheus.Counter
}

func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		PaymentsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gateway_payments_processed_total",
			Help: "Payments processed, by final status.",
		}, []string{"status"}),
		BankUnavailable: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gateway_bank_unavailable_total",
			Help: "Processing attempts aborted because the bank was unavailable.",
		}),
	}

	registry.MustRegister(m.PaymentsProcessed, m.BankUnavailable)

	return m
}

// Handler returns the /metrics endpoint for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
