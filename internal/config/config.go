package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The crawl defaults are slow: a 10-20 second courtesy delay
// before every request and a fixed 30 minute wait before retrying a failed
// request, forever.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "specscrape"

	// DefaultRootURL is the catalog page listing every brand.
	DefaultRootURL = "https://www.gsmarena.com/makers.php3"

	// DefaultStorePath is the spreadsheet the results are appended to,
	// relative to the working directory.
	DefaultStorePath = "extracted_info.xlsx"

	// DefaultDelayMin and DefaultDelayMax bound the random pause taken
	// before every request.
	DefaultDelayMin = 10 * time.Second
	DefaultDelayMax = 20 * time.Second

	// DefaultRetryWait is the pause after a failed request before the same
	// URL is requested again. It is long enough to wait out a temporary ban.
	DefaultRetryWait = 30 * time.Minute

	// DefaultRetryMultiplier of 1 keeps the retry wait fixed.
	// Values above 1 grow the wait exponentially between attempts.
	DefaultRetryMultiplier = 1.0

	// DefaultMaxAttempts of 0 means requests are retried without limit.
	DefaultMaxAttempts = 0

	// DefaultTimeout of 0 disables the per-request timeout, so a request
	// blocks until the transport resolves or fails.
	DefaultTimeout = time.Duration(0)

	// DefaultMaxBodySize limits the response body size read per page.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultWorkers of 1 processes brands strictly sequentially.
	DefaultWorkers = 1

	// DefaultResumeMode skips a whole brand once any of its rows is stored.
	DefaultResumeMode = ResumeBrand
)

// Resume modes decide how work done by previous runs is skipped.
const (
	// ResumeBrand skips an entire brand when the store holds any row for it,
	// and additionally skips products whose link is already stored.
	ResumeBrand = "brand"

	// ResumeProduct never skips brands; only products whose link is
	// already stored are skipped. New products of known brands are picked up.
	ResumeProduct = "product"
)

// Config holds all configuration options for specscrape.
// It is populated from defaults, the config file, the environment and CLI
// flags, then passed down to the components that need it.
type Config struct {
	// RootURL is the catalog page enumerating all brands.
	RootURL string

	// StorePath is the store location: a .xlsx file (default), a SQLite file
	// (.db, .sqlite, .sqlite3) or a postgres:// connection string.
	StorePath string

	// DelayMin and DelayMax bound the random courtesy delay taken before
	// every request. Equal values give a fixed delay.
	DelayMin time.Duration
	DelayMax time.Duration

	// RetryWait is the wait before the first retry of a failed request.
	RetryWait time.Duration

	// RetryMultiplier grows the wait after each failed attempt.
	// 1 keeps the wait fixed.
	RetryMultiplier float64

	// RetryMaxWait caps the grown wait. 0 means no cap.
	RetryMaxWait time.Duration

	// MaxAttempts limits the number of requests made for one URL.
	// 0 retries forever.
	MaxAttempts int

	// Timeout is the per-request timeout. 0 disables it.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	MaxBodySize int64

	// Workers is the number of brands crawled concurrently.
	Workers int

	// ResumeMode is ResumeBrand or ResumeProduct.
	ResumeMode string

	// UserAgent fixes the User-Agent header. Empty picks a random browser
	// user agent for every request.
	UserAgent string

	// Proxy is an optional SOCKS5 proxy in "host:port" form.
	Proxy string

	// Cookie is an optional raw Cookie header sent with every request.
	Cookie string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// RateLimit caps the combined request rate of all workers in requests
	// per second. 0 disables the cap.
	RateLimit float64

	// MetricsAddr is the listen address of the Prometheus endpoint.
	// Empty disables it.
	MetricsAddr string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLog switches log output to JSON.
	JSONLog bool

	// ConfigFilePath is the path of the YAML configuration file.
	ConfigFilePath string

	// Selectors describe the catalog markup.
	Selectors Selectors
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		RootURL:         DefaultRootURL,
		StorePath:       DefaultStorePath,
		DelayMin:        DefaultDelayMin,
		DelayMax:        DefaultDelayMax,
		RetryWait:       DefaultRetryWait,
		RetryMultiplier: DefaultRetryMultiplier,
		MaxAttempts:     DefaultMaxAttempts,
		Timeout:         DefaultTimeout,
		MaxBodySize:     DefaultMaxBodySize,
		Workers:         DefaultWorkers,
		ResumeMode:      DefaultResumeMode,
		Headers:         make(map[string]string),
		Selectors:       DefaultSelectors(),
	}
}

// XDGConfigDir returns the XDG config directory for specscrape.
// On Linux: ~/.config/specscrape
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	u, err := url.Parse(c.RootURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidRootURL
	}

	if c.StorePath == "" {
		return ErrNoStore
	}

	if c.DelayMin < 0 || c.DelayMax < c.DelayMin {
		return ErrInvalidDelay
	}

	if c.RetryWait < 0 || c.RetryMaxWait < 0 {
		return ErrInvalidRetryWait
	}

	if c.RetryMultiplier < 1 {
		return ErrInvalidRetryMultiplier
	}

	if c.MaxAttempts < 0 {
		return ErrInvalidMaxAttempts
	}

	if c.Timeout < 0 {
		return ErrInvalidTimeout
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.ResumeMode != ResumeBrand && c.ResumeMode != ResumeProduct {
		return ErrInvalidResumeMode
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	return c.Selectors.Validate()
}
