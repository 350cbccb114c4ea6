package observability

import (
	"time"

	"github.com/boddenberg/storefront-bff-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the storefront gateway.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	cartMutations   *prometheus.CounterVec
	checkouts       *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "storefront_request_duration_seconds",
				Help:    "Duration of operations by name.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_external_errors_total",
				Help: "Total errors from the commerce API by area.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		cartMutations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_cart_mutations_total",
				Help: "Cart mutations by operation and outcome.",
			},
			[]string{"op", "status"},
		),
		checkouts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "storefront_checkouts_total",
				Help: "Checkout attempts by terminal result.",
			},
			[]string{"result"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrCartMutation counts one cart mutation attempt.
// op is add/update/remove; status is success/error.
func (m *Metrics) IncrCartMutation(op, status string) {
	m.cartMutations.WithLabelValues(op, status).Inc()
}

// IncrCheckout counts one checkout attempt by terminal result
// (confirmed/rejected/validation_failed).
func (m *Metrics) IncrCheckout(result string) {
	m.checkouts.WithLabelValues(result).Inc()
}

// GetStorefrontSnapshot returns a snapshot of gateway metrics suitable for
// the GET /v1/metrics/storefront endpoint.
func (m *Metrics) GetStorefrontSnapshot() *domain.StorefrontMetrics {
	confirmed := getCounterValue(m.checkouts, "confirmed")
	rejected := getCounterValue(m.checkouts, "rejected") +
		getCounterValue(m.checkouts, "validation_failed")
	attempts := confirmed + rejected

	mutations := getCounterValue(m.cartMutations, "add", "success") +
		getCounterValue(m.cartMutations, "update", "success") +
		getCounterValue(m.cartMutations, "remove", "success")
	mutationErrors := getCounterValue(m.cartMutations, "add", "error") +
		getCounterValue(m.cartMutations, "update", "error") +
		getCounterValue(m.cartMutations, "remove", "error")

	cacheHits := getCounterValue(m.cacheHits, "session")
	cacheMisses := getCounterValue(m.cacheMisses, "session")

	errorRate := float64(0)
	if mutations+mutationErrors > 0 {
		errorRate = mutationErrors / (mutations + mutationErrors)
	}
	cacheHitRate := float64(0)
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.StorefrontMetrics{
		CheckoutAttempts:  int64(attempts),
		ConfirmedOrders:   int64(confirmed),
		RejectedCheckouts: int64(rejected),
		CartMutations:     int64(mutations),
		ErrorRate:         errorRate,
		CacheHitRate:      cacheHitRate,
		Period:            "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for the given labels.
func getCounterValue(cv *prometheus.CounterVec, labels ...string) float64 {
	counter := cv.WithLabelValues(labels...)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
