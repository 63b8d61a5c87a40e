package fetcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/nao1215/specscrape/internal/metrics"
)

// Defaults applied by New.
const (
	// DefaultDelayMin and DefaultDelayMax bound the courtesy delay.
	DefaultDelayMin = 10 * time.Second
	DefaultDelayMax = 20 * time.Second

	// DefaultMaxBodySize limits the bytes read per response.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// drainLimit bounds how much of a failed response is read before the
	// connection is reused.
	drainLimit = 64 * 1024
)

// Fetcher retrieves pages with a courtesy delay, a random user agent and
// retry on failure. It is safe for concurrent use.
type Fetcher struct {
	// client performs the requests.
	client *http.Client

	// delayMin and delayMax bound the pause before every request.
	delayMin time.Duration
	delayMax time.Duration

	// retry decides how failed requests are repeated.
	retry RetryPolicy

	// timeout is the per-request timeout. 0 disables it.
	timeout time.Duration

	// userAgent fixes the User-Agent header. Empty rotates the pool.
	userAgent string

	// proxyAddress is an optional SOCKS5 proxy in "host:port" form.
	proxyAddress string

	// cookie and headers are sent with every request.
	cookie  string
	headers map[string]string

	// limiter caps the request rate shared by all callers. nil disables it.
	limiter *rate.Limiter

	// maxBodySize limits the bytes read per response. 0 disables the limit.
	maxBodySize int64

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithDelay sets the bounds of the random pause taken before every request.
func WithDelay(lo, hi time.Duration) Option {
	return func(f *Fetcher) {
		f.delayMin = lo
		f.delayMax = hi
	}
}

// WithRetryPolicy sets how failed requests are retried.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(f *Fetcher) {
		f.retry = p
	}
}

// WithTimeout sets the per-request timeout. 0 disables it.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent fixes the User-Agent header. Empty keeps the random pool.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithProxy routes requests through a SOCKS5 proxy at "host:port".
func WithProxy(address string) Option {
	return func(f *Fetcher) {
		f.proxyAddress = address
	}
}

// WithCookie sends a raw Cookie header value with every request.
func WithCookie(cookie string) Option {
	return func(f *Fetcher) {
		f.cookie = cookie
	}
}

// WithHeaders sends extra headers with every request.
func WithHeaders(headers map[string]string) Option {
	return func(f *Fetcher) {
		f.headers = headers
	}
}

// WithRateLimit caps the request rate in requests per second, shared by
// every goroutine using the Fetcher. 0 disables the cap.
func WithRateLimit(perSecond float64) Option {
	return func(f *Fetcher) {
		if perSecond <= 0 {
			f.limiter = nil
			return
		}
		f.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// WithMaxBodySize limits the bytes read per response. 0 disables the limit.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithMetrics records requests and retries into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(f *Fetcher) {
		f.metrics = m
	}
}

// WithHTTPClient replaces the HTTP client. The proxy option is ignored;
// cookie, headers and timeout still apply.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// New creates a Fetcher. Without options it waits 10-20 seconds before
// every request, rotates user agents, has no timeout and retries forever
// with a fixed 30 minute wait.
func New(opts ...Option) (*Fetcher, error) {
	f := &Fetcher{
		delayMin:    DefaultDelayMin,
		delayMax:    DefaultDelayMax,
		retry:       DefaultRetryPolicy(),
		maxBodySize: DefaultMaxBodySize,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.logger == nil {
		f.logger = slog.Default()
	}

	var base http.RoundTripper
	if f.client == nil {
		transport, err := newTransport(f.proxyAddress)
		if err != nil {
			return nil, err
		}
		base = transport
		f.client = &http.Client{}
	} else {
		// Copy so the caller's client is left untouched.
		c := *f.client
		f.client = &c
		base = c.Transport
		if base == nil {
			base = http.DefaultTransport
		}
	}

	if f.cookie != "" || len(f.headers) > 0 {
		base = &headerInjectingTransport{
			base:    base,
			cookie:  f.cookie,
			headers: f.headers,
		}
	}
	f.client.Transport = base
	f.client.Timeout = f.timeout

	return f, nil
}

// Fetch returns the body of rawURL as UTF-8 text.
//
// Before every attempt it sleeps a random courtesy delay. Attempts failing
// with a transport error or a non-200 status are retried according to the
// RetryPolicy. Fetch returns only the final successful body, ctx.Err()
// when ctx is done, or an error wrapping ErrRetriesExhausted.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := validateURL(rawURL); err != nil {
		return "", err
	}

	wait := f.retry.Wait
	for attempt := 1; ; attempt++ {
		if err := sleep(ctx, randomDelay(f.delayMin, f.delayMax)); err != nil {
			return "", err
		}
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		body, err := f.get(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}

		if f.retry.exhausted(attempt) {
			return "", fmt.Errorf("%w: %s after %d attempts: %w", ErrRetriesExhausted, rawURL, attempt, err)
		}

		f.logger.Warn("request failed, waiting before retry",
			"url", rawURL,
			"attempt", attempt,
			"error", err,
			"wait", wait,
		)
		f.metrics.IncRetry()

		if err := sleep(ctx, wait); err != nil {
			return "", err
		}
		wait = f.retry.next(wait)
	}
}

// get performs a single attempt.
func (f *Fetcher) get(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	ua := f.userAgent
	if ua == "" {
		ua = randomUserAgent()
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	f.logger.Debug("fetching page", "url", rawURL, "user_agent", ua)

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		f.metrics.ObserveRequest(0, time.Since(start))
		return "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()
	f.metrics.ObserveRequest(resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, drainLimit)) //nolint:errcheck // draining only
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	raw, err := f.readBody(resp.Body, rawURL)
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", nil
	}

	decoded, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to detect charset: %w", err)
	}

	text, err := io.ReadAll(decoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode body: %w", err)
	}
	return string(text), nil
}

// readBody reads at most maxBodySize bytes of r. A longer body is cut at the
// limit and reported with a warning.
func (f *Fetcher) readBody(r io.Reader, rawURL string) ([]byte, error) {
	if f.maxBodySize <= 0 {
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read body: %w", err)
		}
		return raw, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	if int64(len(raw)) > f.maxBodySize {
		f.logger.Warn("response body truncated",
			"url", rawURL,
			"limit_bytes", f.maxBodySize,
		)
		raw = raw[:f.maxBodySize]
	}
	return raw, nil
}

// validateURL rejects URLs no retry could ever fetch.
func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidURL, rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return nil
}

// sleep pauses for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

