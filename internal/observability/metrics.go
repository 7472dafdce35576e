// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ledger operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Registry metrics
	StarsCreated prometheus.Counter

	// Marketplace metrics
	ListingsCreated prometheus.Counter
	ListingsRemoved *prometheus.CounterVec
	SalesTotal      prometheus.Counter
	SaleVolume      prometheus.Counter
	RefundVolume    prometheus.Counter

	// Event stream metrics
	EventsPublished  *prometheus.CounterVec
	EventSubscribers prometheus.Gauge

	// Analytics sink metrics
	AnalyticsErrors prometheus.Counter

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "star_notary"
	}

	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total number of ledger operations by operation and result",
		}, []string{"operation", "result"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Ledger operation duration in seconds, including lock wait",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),

		StarsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "stars_created_total",
			Help:      "Total number of stars registered",
		}),

		ListingsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "listings_created_total",
			Help:      "Total number of put-up-for-sale calls that succeeded",
		}),
		ListingsRemoved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "listings_removed_total",
			Help:      "Total number of listings removed by reason",
		}, []string{"reason"}),
		SalesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "sales_total",
			Help:      "Total number of settled purchases",
		}),
		SaleVolume: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "sale_volume_lamports_total",
			Help:      "Total lamports credited to sellers",
		}),
		RefundVolume: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "refund_volume_lamports_total",
			Help:      "Total lamports refunded to buyers for overpayment",
		}),

		EventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "published_total",
			Help:      "Total number of ledger events published by type",
		}, []string{"type"}),
		EventSubscribers: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "subscribers",
			Help:      "Current number of event stream subscribers",
		}),

		AnalyticsErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "sink_errors_total",
			Help:      "Total number of sales that failed to reach the analytics store",
		}),

		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of API requests by route and status code",
		}, []string{"route", "code"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordOperation records one ledger operation and its outcome.
func RecordOperation(operation string, seconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	DefaultMetrics.OperationsTotal.WithLabelValues(operation, result).Inc()
	DefaultMetrics.OperationDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordStarCreated increments the stars created counter.
func RecordStarCreated() {
	DefaultMetrics.StarsCreated.Inc()
}

// RecordListing increments the listings created counter.
func RecordListing() {
	DefaultMetrics.ListingsCreated.Inc()
}

// RecordDelisting records a listing removed for reason ("owner", "sold", "transfer").
func RecordDelisting(reason string) {
	DefaultMetrics.ListingsRemoved.WithLabelValues(reason).Inc()
}

// RecordSale records a settled purchase.
func RecordSale(price, refund uint64) {
	DefaultMetrics.SalesTotal.Inc()
	DefaultMetrics.SaleVolume.Add(float64(price))
	DefaultMetrics.RefundVolume.Add(float64(refund))
}

// RecordEventPublished increments the published events counter.
func RecordEventPublished(eventType string) {
	DefaultMetrics.EventsPublished.WithLabelValues(eventType).Inc()
}

// UpdateSubscribers sets the event subscribers gauge.
func UpdateSubscribers(n int) {
	DefaultMetrics.EventSubscribers.Set(float64(n))
}

// RecordAnalyticsError increments the analytics sink error counter.
func RecordAnalyticsError() {
	DefaultMetrics.AnalyticsErrors.Inc()
}

// RecordHTTPRequest records an API request.
func RecordHTTPRequest(route, code string) {
	DefaultMetrics.HTTPRequests.WithLabelValues(route, code).Inc()
}
