// Package metrics exposes storefront counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_active_sessions",
			Help: "Current number of live storefront sessions",
		},
	)

	sessionsExpired = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "storefront_sessions_expired_total",
			Help: "Sessions removed by the idle janitor",
		},
	)

	navigations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_navigations_total",
			Help: "Completed page transitions",
		},
		[]string{"page", "fallback"},
	)

	couponResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_coupon_attempts_total",
			Help: "Coupon applications by outcome",
		},
		[]string{"result"},
	)

	transactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_transactions_total",
			Help: "Transaction records assembled",
		},
		[]string{"event_id"},
	)

	ticketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_tickets_issued_total",
			Help: "Individual tickets issued",
		},
		[]string{"event_id"},
	)

	exports = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_ticket_exports_total",
			Help: "Ticket document exports by result",
		},
		[]string{"result"},
	)

	exportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "storefront_ticket_export_duration_seconds",
			Help:    "Time to render a ticket document",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
	)
)

// SessionOpened records a new live session.
func SessionOpened() { activeSessions.Inc() }

// SessionClosed records a removed session; expired marks janitor removals.
func SessionClosed(expired bool) {
	activeSessions.Dec()
	if expired {
		sessionsExpired.Inc()
	}
}

// Navigation records a completed transition.
func Navigation(page string, fallback bool) {
	f := "false"
	if fallback {
		f = "true"
	}
	navigations.WithLabelValues(page, f).Inc()
}

// Coupon records a coupon attempt; result is applied, invalid or empty.
func Coupon(result string) { couponResults.WithLabelValues(result).Inc() }

// Transaction records an assembled transaction and its ticket count.
func Transaction(eventID string, tickets int) {
	transactions.WithLabelValues(eventID).Inc()
	ticketsIssued.WithLabelValues(eventID).Add(float64(tickets))
}

// Export records a finished export attempt.
func Export(result string, took time.Duration) {
	exports.WithLabelValues(result).Inc()
	exportDuration.Observe(took.Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler { return promhttp.Handler() }
