package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use errors.Is.
var (
	// ErrInvalidRootURL is returned when the root URL is not an absolute http(s) URL.
	ErrInvalidRootURL = errors.New("invalid root URL: must be an absolute http or https URL")

	// ErrNoStore is returned when no store location is configured.
	ErrNoStore = errors.New("no store specified: provide a spreadsheet path or database DSN")

	// ErrInvalidDelay is returned when the delay range is negative or inverted.
	ErrInvalidDelay = errors.New("invalid delay: minimum must be non-negative and not exceed maximum")

	// ErrInvalidRetryWait is returned when a retry wait is negative.
	ErrInvalidRetryWait = errors.New("invalid retry wait: must be non-negative")

	// ErrInvalidRetryMultiplier is returned when the retry multiplier is below 1.
	ErrInvalidRetryMultiplier = errors.New("invalid retry multiplier: must be at least 1")

	// ErrInvalidMaxAttempts is returned when max attempts is negative.
	// Use 0 to retry forever.
	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be non-negative")

	// ErrInvalidTimeout is returned when the timeout is negative.
	// Use 0 to disable the timeout.
	ErrInvalidTimeout = errors.New("invalid timeout: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid workers: must be positive")

	// ErrInvalidResumeMode is returned for an unknown resume mode.
	ErrInvalidResumeMode = errors.New("invalid resume mode: must be \"brand\" or \"product\"")

	// ErrInvalidRateLimit is returned when the rate limit is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit: must be non-negative")

	// ErrEmptySelector is returned when a required selector is blank.
	ErrEmptySelector = errors.New("invalid selectors: brand, entry, detail container, row and cell selectors must not be empty")
)
