package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".specscrape"

// xdgConfigFile is the file name looked up inside XDGConfigDir.
const xdgConfigFile = "config.yaml"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// DelayConfig is the delay section of the configuration file.
type DelayConfig struct {
	Min time.Duration `yaml:"min,omitempty"`
	Max time.Duration `yaml:"max,omitempty"`
}

// RetryConfig is the retry section of the configuration file.
type RetryConfig struct {
	Wait        time.Duration `yaml:"wait,omitempty"`
	Multiplier  float64       `yaml:"multiplier,omitempty"`
	MaxWait     time.Duration `yaml:"maxWait,omitempty"`
	MaxAttempts int           `yaml:"maxAttempts,omitempty"`
}

// File represents the structure of the .specscrape configuration file.
// Every field is optional; zero values leave the current setting untouched.
type File struct {
	RootURL     string            `yaml:"rootURL,omitempty"`
	Store       string            `yaml:"store,omitempty"`
	UserAgent   string            `yaml:"userAgent,omitempty"`
	Proxy       string            `yaml:"proxy,omitempty"`
	Cookie      string            `yaml:"cookie,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Timeout     time.Duration     `yaml:"timeout,omitempty"`
	Workers     int               `yaml:"workers,omitempty"`
	Resume      string            `yaml:"resume,omitempty"`
	RateLimit   float64           `yaml:"rateLimit,omitempty"`
	MetricsAddr string            `yaml:"metricsAddr,omitempty"`
	Delay       DelayConfig       `yaml:"delay,omitempty"`
	Retry       RetryConfig       `yaml:"retry,omitempty"`
	Selectors   Selectors         `yaml:"selectors,omitempty"`
}

// LoadConfigFile loads a configuration file in YAML format.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	if cf.Headers == nil {
		cf.Headers = make(map[string]string)
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .specscrape in the current directory
// 3. Look for .specscrape in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return ""
}

// ApplyFile overrides c with every non-zero setting of f.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}

	if f.RootURL != "" {
		c.RootURL = f.RootURL
	}
	if f.Store != "" {
		c.StorePath = f.Store
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Proxy != "" {
		c.Proxy = f.Proxy
	}
	if f.Cookie != "" {
		c.Cookie = f.Cookie
	}
	if len(f.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range f.Headers {
			c.Headers[k] = v
		}
	}
	if f.Timeout != 0 {
		c.Timeout = f.Timeout
	}
	if f.Workers != 0 {
		c.Workers = f.Workers
	}
	if f.Resume != "" {
		c.ResumeMode = f.Resume
	}
	if f.RateLimit != 0 {
		c.RateLimit = f.RateLimit
	}
	if f.MetricsAddr != "" {
		c.MetricsAddr = f.MetricsAddr
	}
	if f.Delay.Min != 0 {
		c.DelayMin = f.Delay.Min
	}
	if f.Delay.Max != 0 {
		c.DelayMax = f.Delay.Max
	}
	if f.Retry.Wait != 0 {
		c.RetryWait = f.Retry.Wait
	}
	if f.Retry.Multiplier != 0 {
		c.RetryMultiplier = f.Retry.Multiplier
	}
	if f.Retry.MaxWait != 0 {
		c.RetryMaxWait = f.Retry.MaxWait
	}
	if f.Retry.MaxAttempts != 0 {
		c.MaxAttempts = f.Retry.MaxAttempts
	}

	c.Selectors = c.Selectors.Merge(f.Selectors)
}
