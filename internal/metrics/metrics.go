// Package metrics exposes the storefront's Prometheus collectors. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
)

const namespace = "storefront"

type Metrics struct {
	registry *prometheus.Registry

	ordersPlaced     prometheus.Counter
	orderValue       prometheus.Histogram
	checkoutFailures *prometheus.CounterVec
	statusChanges    *prometheus.CounterVec
	courierBatches   *prometheus.CounterVec
	courierAssigned  prometheus.Counter
	invoicesRendered *prometheus.CounterVec
	realtimeViewers  prometheus.Gauge
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ordersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders successfully placed at checkout.",
		}),
		orderValue: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "order_value",
			Help:      "Total amount of placed orders.",
			Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		checkoutFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_failures_total",
			Help:      "Checkout attempts that failed, by error kind.",
		}, []string{"kind"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_status_changes_total",
			Help:      "Order status updates, by target status.",
		}, []string{"status"}),
		courierBatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "courier_batches_total",
			Help:      "Courier assignment batches applied, by result.",
		}, []string{"result"}),
		courierAssigned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "courier_numbers_assigned_total",
			Help:      "Courier numbers written to orders.",
		}),
		invoicesRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_pages_rendered_total",
			Help:      "Invoice pages rendered, by document kind.",
		}, []string{"document"}),
		realtimeViewers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "realtime_order_viewers",
			Help:      "Admin order views currently subscribed to changes.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	m.registry.MustRegister(
		m.ordersPlaced,
		m.orderValue,
		m.checkoutFailures,
		m.statusChanges,
		m.courierBatches,
		m.courierAssigned,
		m.invoicesRendered,
		m.realtimeViewers,
		m.httpRequests,
		m.httpDuration,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) OrderPlaced(total decimal.Decimal) {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
	m.orderValue.Observe(total.InexactFloat64())
}

func (m *Metrics) CheckoutFailed(kind string) {
	if m == nil {
		return
	}
	m.checkoutFailures.WithLabelValues(kind).Inc()
}

func (m *Metrics) StatusChanged(status string) {
	if m == nil {
		return
	}
	m.statusChanges.WithLabelValues(status).Inc()
}

// CourierBatch records an applied batch; assigned is the number of orders
// updated, zero on failure.
func (m *Metrics) CourierBatch(ok bool, assigned int) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.courierBatches.WithLabelValues(result).Inc()
	m.courierAssigned.Add(float64(assigned))
}

func (m *Metrics) InvoicePages(document string, pages int) {
	if m == nil {
		return
	}
	m.invoicesRendered.WithLabelValues(document).Add(float64(pages))
}

func (m *Metrics) ViewerJoined() {
	if m == nil {
		return
	}
	m.realtimeViewers.Inc()
}

func (m *Metrics) ViewerLeft() {
	if m == nil {
		return
	}
	m.realtimeViewers.Dec()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
