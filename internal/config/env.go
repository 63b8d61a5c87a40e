package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvRootURL     = "SPECSCRAPE_ROOT_URL"
	EnvStore       = "SPECSCRAPE_STORE"
	EnvProxy       = "SPECSCRAPE_PROXY"
	EnvCookie      = "SPECSCRAPE_COOKIE"
	EnvUserAgent   = "SPECSCRAPE_USER_AGENT"
	EnvWorkers     = "SPECSCRAPE_WORKERS"
	EnvMetricsAddr = "SPECSCRAPE_METRICS_ADDR"
)

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the process
// environment. Missing files are ignored and variables that are already set
// win over the file.
func LoadDotEnv(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p) //nolint:errcheck // a malformed .env must not stop the crawl
	}
}

// ApplyEnv overrides c with the SPECSCRAPE_* variables returned by lookup.
// Pass os.LookupEnv in production.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvRootURL); ok && v != "" {
		c.RootURL = v
	}
	if v, ok := lookup(EnvStore); ok && v != "" {
		c.StorePath = v
	}
	if v, ok := lookup(EnvProxy); ok && v != "" {
		c.Proxy = v
	}
	if v, ok := lookup(EnvCookie); ok && v != "" {
		c.Cookie = v
	}
	if v, ok := lookup(EnvUserAgent); ok && v != "" {
		c.UserAgent = v
	}
	if v, ok := lookup(EnvMetricsAddr); ok && v != "" {
		c.MetricsAddr = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvWorkers, v, err)
		}
		c.Workers = n
	}
	return nil
}
