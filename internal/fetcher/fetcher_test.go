package fetcher

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/specscrape/internal/metrics"
)

// quickOptions removes every wait so tests run in milliseconds.
func quickOptions(extra ...Option) []Option {
	opts := []Option{
		WithDelay(0, 0),
		WithRetryPolicy(RetryPolicy{Wait: time.Millisecond, Multiplier: 1}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return append(opts, extra...)
}

func newTestFetcher(t *testing.T, extra ...Option) *Fetcher {
	t.Helper()

	f, err := New(quickOptions(extra...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return f
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	f, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if f.delayMin != 10*time.Second || f.delayMax != 20*time.Second {
		t.Errorf("delay = [%v, %v], want [10s, 20s]", f.delayMin, f.delayMax)
	}
	if f.retry.Wait != 30*time.Minute {
		t.Errorf("retry wait = %v, want 30m", f.retry.Wait)
	}
	if f.retry.MaxAttempts != 0 {
		t.Errorf("max attempts = %d, want 0 (unbounded)", f.retry.MaxAttempts)
	}
	if f.client.Timeout != 0 {
		t.Errorf("timeout = %v, want 0", f.client.Timeout)
	}
	if f.limiter != nil {
		t.Error("rate limiter should be disabled by default")
	}
}

func TestNew_InvalidProxy(t *testing.T) {
	t.Parallel()

	for _, addr := range []string{"localhost", ":9050", "host:0", "host:99999", "host:abc"} {
		t.Run(addr, func(t *testing.T) {
			t.Parallel()

			if _, err := New(WithProxy(addr)); !errors.Is(err, ErrInvalidProxy) {
				t.Errorf("New(WithProxy(%q)) error = %v, want ErrInvalidProxy", addr, err)
			}
		})
	}
}

func TestNew_ValidProxy(t *testing.T) {
	t.Parallel()

	f, err := New(WithProxy("127.0.0.1:9050"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, ok := f.client.Transport.(*http.Transport); !ok {
		t.Errorf("transport = %T, want *http.Transport", f.client.Transport)
	}
}

func TestFetcher_Fetch(t *testing.T) {
	t.Parallel()

	t.Run("returns body and sends a pooled user agent", func(t *testing.T) {
		t.Parallel()

		var gotUA atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA.Store(r.UserAgent())
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html>ok</html>"))
		}))
		defer server.Close()

		body, err := newTestFetcher(t).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if body != "<html>ok</html>" {
			t.Errorf("body = %q", body)
		}
		ua, _ := gotUA.Load().(string)
		if !slices.Contains(UserAgents(), ua) {
			t.Errorf("user agent %q not in pool", ua)
		}
	})

	t.Run("fixed user agent", func(t *testing.T) {
		t.Parallel()

		var gotUA atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotUA.Store(r.UserAgent())
		}))
		defer server.Close()

		if _, err := newTestFetcher(t, WithUserAgent("specscrape-test")).Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if ua, _ := gotUA.Load().(string); ua != "specscrape-test" {
			t.Errorf("user agent = %q, want specscrape-test", ua)
		}
	})

	t.Run("cookie and headers are injected", func(t *testing.T) {
		t.Parallel()

		var cookie, header atomic.Value
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie.Store(r.Header.Get("Cookie"))
			header.Store(r.Header.Get("X-Catalog"))
		}))
		defer server.Close()

		f := newTestFetcher(t,
			WithCookie("session=abc"),
			WithHeaders(map[string]string{"X-Catalog": "phones"}),
		)
		if _, err := f.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if got, _ := cookie.Load().(string); got != "session=abc" {
			t.Errorf("cookie = %q", got)
		}
		if got, _ := header.Load().(string); got != "phones" {
			t.Errorf("X-Catalog = %q", got)
		}
	})

	t.Run("decodes declared charset", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
			_, _ = w.Write([]byte("caf\xe9"))
		}))
		defer server.Close()

		body, err := newTestFetcher(t).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if body != "café" {
			t.Errorf("body = %q, want café", body)
		}
	})

	t.Run("limits body size", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte(strings.Repeat("a", 100)))
		}))
		defer server.Close()

		var logs bytes.Buffer
		f := newTestFetcher(t,
			WithMaxBodySize(10),
			WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		)
		body, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if len(body) != 10 {
			t.Errorf("len(body) = %d, want 10", len(body))
		}
		if !strings.Contains(logs.String(), "response body truncated") {
			t.Errorf("expected truncation warning, got %q", logs.String())
		}
	})

	t.Run("body at the limit is not reported", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte(strings.Repeat("a", 10)))
		}))
		defer server.Close()

		var logs bytes.Buffer
		f := newTestFetcher(t,
			WithMaxBodySize(10),
			WithLogger(slog.New(slog.NewTextHandler(&logs, nil))),
		)
		body, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if len(body) != 10 {
			t.Errorf("len(body) = %d, want 10", len(body))
		}
		if strings.Contains(logs.String(), "truncated") {
			t.Errorf("unexpected truncation warning: %q", logs.String())
		}
	})

	t.Run("empty 200 response is a success", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}))
		defer server.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		body, err := newTestFetcher(t).Fetch(ctx, server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if body != "" {
			t.Errorf("body = %q, want empty", body)
		}
		if got := hits.Load(); got != 1 {
			t.Errorf("server hit %d times, want 1", got)
		}
	})

	t.Run("invalid URL is not retried", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"ftp://example.com/", "/relative/path", "http://%zz"} {
			if _, err := newTestFetcher(t).Fetch(context.Background(), raw); !errors.Is(err, ErrInvalidURL) {
				t.Errorf("Fetch(%q) error = %v, want ErrInvalidURL", raw, err)
			}
		}
	})
}

func TestFetcher_Retry(t *testing.T) {
	t.Parallel()

	t.Run("fails once then succeeds", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) == 1 {
				http.Error(w, "banned", http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("content"))
		}))
		defer server.Close()

		m := metrics.New()
		body, err := newTestFetcher(t, WithMetrics(m)).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if body != "content" {
			t.Errorf("body = %q, want content", body)
		}
		if got := hits.Load(); got != 2 {
			t.Errorf("hits = %d, want 2", got)
		}
		rec := httptest.NewRecorder()
		m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		if !strings.Contains(rec.Body.String(), "specscrape_http_retries_total 1") {
			t.Errorf("retry counter not recorded:\n%s", rec.Body.String())
		}
	})

	t.Run("any non-200 status is a failure", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			_, _ = w.Write([]byte("done"))
		}))
		defer server.Close()

		body, err := newTestFetcher(t).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if body != "done" || hits.Load() != 2 {
			t.Errorf("body = %q, hits = %d", body, hits.Load())
		}
	})

	t.Run("transport error is retried", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			if hits.Add(1) == 1 {
				hj, ok := w.(http.Hijacker)
				if !ok {
					t.Error("response writer is not a Hijacker")
					return
				}
				conn, _, err := hj.Hijack()
				if err == nil {
					_ = conn.Close()
				}
				return
			}
			_, _ = w.Write([]byte("recovered"))
		}))
		defer server.Close()

		body, err := newTestFetcher(t).Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("Fetch() error = %v", err)
		}
		if body != "recovered" {
			t.Errorf("body = %q, want recovered", body)
		}
	})

	t.Run("max attempts", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			hits.Add(1)
			http.Error(w, "nope", http.StatusInternalServerError)
		}))
		defer server.Close()

		f := newTestFetcher(t, WithRetryPolicy(RetryPolicy{Wait: time.Millisecond, MaxAttempts: 3}))
		_, err := f.Fetch(context.Background(), server.URL)
		if !errors.Is(err, ErrRetriesExhausted) {
			t.Fatalf("error = %v, want ErrRetriesExhausted", err)
		}
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("error = %v, want wrapped ErrUnexpectedStatus", err)
		}
		if got := hits.Load(); got != 3 {
			t.Errorf("hits = %d, want 3", got)
		}
	})

	t.Run("cancel during retry wait", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "down", http.StatusBadGateway)
			cancel()
		}))
		defer server.Close()

		f := newTestFetcher(t, WithRetryPolicy(RetryPolicy{Wait: time.Hour}))
		done := make(chan error, 1)
		go func() {
			_, err := f.Fetch(ctx, server.URL)
			done <- err
		}()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("error = %v, want context.Canceled", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Fetch did not return after cancel")
		}
	})

	t.Run("cancel during courtesy delay", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		f := newTestFetcher(t, WithDelay(time.Hour, time.Hour))
		if _, err := f.Fetch(ctx, "http://example.invalid/"); !errors.Is(err, context.Canceled) {
			t.Errorf("error = %v, want context.Canceled", err)
		}
	})
}

func TestFetcher_RateLimit(t *testing.T) {
	t.Parallel()

	f := newTestFetcher(t, WithRateLimit(2.5))
	if f.limiter == nil {
		t.Fatal("expected limiter")
	}
	if got := float64(f.limiter.Limit()); got != 2.5 {
		t.Errorf("limit = %v, want 2.5", got)
	}

	if f := newTestFetcher(t, WithRateLimit(0)); f.limiter != nil {
		t.Error("expected no limiter for 0")
	}
}

func TestRetryPolicy_Next(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy RetryPolicy
		wait   time.Duration
		want   time.Duration
	}{
		{name: "fixed", policy: RetryPolicy{Multiplier: 1}, wait: 30 * time.Minute, want: 30 * time.Minute},
		{name: "zero multiplier is fixed", policy: RetryPolicy{}, wait: time.Second, want: time.Second},
		{name: "doubling", policy: RetryPolicy{Multiplier: 2}, wait: time.Minute, want: 2 * time.Minute},
		{name: "capped", policy: RetryPolicy{Multiplier: 3, MaxWait: 2 * time.Minute}, wait: time.Minute, want: 2 * time.Minute},
		{name: "no overflow", policy: RetryPolicy{Multiplier: 10}, wait: time.Duration(1 << 62), want: time.Duration(1<<63 - 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.policy.next(tt.wait); got != tt.want {
				t.Errorf("next(%v) = %v, want %v", tt.wait, got, tt.want)
			}
		})
	}
}

func TestRetryPolicy_Exhausted(t *testing.T) {
	t.Parallel()

	if (RetryPolicy{}).exhausted(1_000_000) {
		t.Error("unbounded policy must never be exhausted")
	}
	p := RetryPolicy{MaxAttempts: 2}
	if p.exhausted(1) {
		t.Error("attempt 1 of 2 must not be exhausted")
	}
	if !p.exhausted(2) {
		t.Error("attempt 2 of 2 must be exhausted")
	}
}

func TestRandomDelay(t *testing.T) {
	t.Parallel()

	t.Run("whole seconds", func(t *testing.T) {
		t.Parallel()

		for range 200 {
			d := randomDelay(10*time.Second, 20*time.Second)
			if d < 10*time.Second || d > 20*time.Second {
				t.Fatalf("delay %v out of range", d)
			}
			if d%time.Second != 0 {
				t.Fatalf("delay %v is not a whole number of seconds", d)
			}
		}
	})

	t.Run("sub-second bounds", func(t *testing.T) {
		t.Parallel()

		for range 200 {
			d := randomDelay(time.Millisecond, 5*time.Millisecond)
			if d < time.Millisecond || d > 5*time.Millisecond {
				t.Fatalf("delay %v out of range", d)
			}
		}
	})

	t.Run("equal bounds", func(t *testing.T) {
		t.Parallel()

		if d := randomDelay(3*time.Second, 3*time.Second); d != 3*time.Second {
			t.Errorf("delay = %v, want 3s", d)
		}
	})
}
