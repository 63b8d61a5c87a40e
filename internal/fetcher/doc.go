// Package fetcher downloads catalog pages politely.
//
// Every request is preceded by a random courtesy delay and carries a
// browser user agent picked at random from a built-in pool. A request that
// fails, either with a transport error or with any status other than
// 200 OK, is retried after a wait. By default the wait is fixed at 30
// minutes and retries never stop, which rides out temporary bans; the
// RetryPolicy can grow the wait and bound the number of attempts.
//
// Response bodies are decoded to UTF-8 from the charset announced by the
// server. Waiting always honors context cancellation.
package fetcher
