package ratelimit

import "time"

// UnknownClient is the shared bucket for requests whose client identity
// cannot be determined (e.g., missing origin-IP header). All unattributed
// clients share this bucket, which is deliberately conservative: a burst of
// anonymous traffic rate-limits all anonymous traffic together.
const UnknownClient = "unknown"

// Config contains the limiter settings.
type Config struct {
	// Enabled controls whether admission checks run at all. When false,
	// Admit allows everything and records nothing.
	Enabled bool

	// RequestsPerWindow is the maximum admitted requests per client within
	// one window.
	RequestsPerWindow int

	// Window is the sliding window duration.
	Window time.Duration
}

// Decision is the outcome of an admission check.
type Decision struct {
	// Allowed reports whether the request was admitted.
	Allowed bool

	// Limit is the configured per-window maximum.
	Limit int

	// Remaining is the number of further requests the client may make in
	// the current window.
	Remaining int

	// RetryAfter is how long the client should wait before retrying.
	// Set only on denial.
	RetryAfter time.Duration
}
