package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRequest(http.StatusOK, 10*time.Millisecond)
	m.ObserveRequest(http.StatusTooManyRequests, time.Millisecond)
	m.ObserveRequest(0, time.Millisecond)
	m.IncRetry()
	m.IncRetry()
	m.IncBrand(OutcomeSkipped)
	m.IncProduct(OutcomeStored)
	m.IncProduct(OutcomeStored)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("200")); got != 1 {
		t.Errorf("requests{200} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("429")); got != 1 {
		t.Errorf("requests{429} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("error")); got != 1 {
		t.Errorf("requests{error} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.retries); got != 2 {
		t.Errorf("retries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.brands.WithLabelValues(OutcomeSkipped)); got != 1 {
		t.Errorf("brands{skipped} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.products.WithLabelValues(OutcomeStored)); got != 2 {
		t.Errorf("products{stored} = %v, want 2", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveRequest(http.StatusOK, time.Second)
	m.IncRetry()
	m.IncBrand(OutcomeFailed)
	m.IncProduct(OutcomeFailed)

	if m.Registry() != nil {
		t.Error("expected nil registry")
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := New()
	m.IncBrand(OutcomeStored)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `specscrape_brands_total{outcome="stored"} 1`) {
		t.Errorf("metrics output missing brand counter:\n%s", body)
	}
}

func TestMetrics_Serve(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := New()
	m.IncRetry()

	addr, err := m.Serve(ctx, "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Serve() error = %v", err)
	}

	resp, err := http.Get("http://" + addr.String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "specscrape_http_retries_total 1") {
		t.Errorf("metrics output missing retry counter:\n%s", body)
	}
}

func TestMetrics_ServeInvalidAddr(t *testing.T) {
	t.Parallel()

	if _, err := New().Serve(context.Background(), "not-an-address"); err == nil {
		t.Error("expected error for invalid address")
	}
}
