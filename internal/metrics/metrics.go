package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// namespace prefixes every metric name.
const namespace = "specscrape"

// shutdownTimeout bounds the graceful shutdown of the metrics server.
const shutdownTimeout = 5 * time.Second

// Outcome labels for brands and products.
const (
	OutcomeStored    = "stored"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
	OutcomeProcessed = "processed"
)

// Metrics holds the crawl counters.
type Metrics struct {
	registry *prometheus.Registry

	requests  *prometheus.CounterVec
	retries   prometheus.Counter
	brands    *prometheus.CounterVec
	products  *prometheus.CounterVec
	fetchTime prometheus.Histogram
}

// New creates a Metrics value with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests sent to the catalog, by response status code.",
		}, []string{"code"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_retries_total",
			Help:      "Requests scheduled for a retry after a failed attempt.",
		}),
		brands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "brands_total",
			Help:      "Brands processed, by outcome.",
		}, []string{"outcome"}),
		products: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_total",
			Help:      "Products processed, by outcome.",
		}, []string{"outcome"}),
		fetchTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of single HTTP requests, courtesy delay excluded.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(m.requests, m.retries, m.brands, m.products, m.fetchTime)
	return m
}

// Registry returns the registry holding the crawl counters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRequest records one HTTP request. A status of 0 records a
// transport error.
func (m *Metrics) ObserveRequest(status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := "error"
	if status > 0 {
		code = strconv.Itoa(status)
	}
	m.requests.WithLabelValues(code).Inc()
	m.fetchTime.Observe(elapsed.Seconds())
}

// IncRetry records a scheduled retry.
func (m *Metrics) IncRetry() {
	if m == nil {
		return
	}
	m.retries.Inc()
}

// IncBrand records a brand outcome.
func (m *Metrics) IncBrand(outcome string) {
	if m == nil {
		return
	}
	m.brands.WithLabelValues(outcome).Inc()
}

// IncProduct records a product outcome.
func (m *Metrics) IncProduct(outcome string) {
	if m == nil {
		return
	}
	m.products.WithLabelValues(outcome).Inc()
}

// Handler returns the HTTP handler serving the crawl counters.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes the counters on addr under /metrics until ctx is done.
// The listener is bound before Serve returns, so address errors surface
// immediately; serving happens in the background.
func (m *Metrics) Serve(ctx context.Context, addr string) (net.Addr, error) {
	ln, err := (&net.ListenConfig{}).Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx) //nolint:errcheck // best effort on exit
	}()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			_ = ln.Close() //nolint:errcheck // listener already failed
		}
	}()

	return ln.Addr(), nil
}
