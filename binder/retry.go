package binder

import "time"

// RetryConfig holds retry configuration for bind requests.
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts per binding.
	MaxAttempts int

	// BackoffBase is the initial backoff duration.
	BackoffBase time.Duration

	// BackoffMultiplier is applied to backoff on each retry.
	BackoffMultiplier float64

	// MaxBackoff caps the maximum backoff duration.
	MaxBackoff time.Duration
}

// DefaultRetryConfig returns sensible retry defaults for a rate-limited
// platform: few attempts, generous spacing.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       5 * time.Second,
		BackoffMultiplier: 2.0,
		MaxBackoff:        2 * time.Minute,
	}
}
