package fetcher

import "errors"

var (
	// ErrRetriesExhausted is returned when a URL still fails after
	// RetryPolicy.MaxAttempts requests.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrUnexpectedStatus marks an attempt answered with a status other
	// than 200 OK.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrInvalidURL is returned for URLs that can never be fetched:
	// unparsable, missing host, or a scheme other than http and https.
	// Such URLs are not retried.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrInvalidProxy is returned when the proxy address is not in
	// "host:port" form.
	ErrInvalidProxy = errors.New("invalid proxy address: expected host:port")
)
