package synapse

import "errors"

// The bind API is rate-limited and its large-schema processing can fail
// mid-flight, so every client error is classified for retry policy: transient
// errors are worth re-issuing after backoff, fatal ones never are.

// TransientError marks a failure that may succeed on retry: HTTP 429 from the
// platform's rate ceiling, 5xx gateway or service errors, and network-level
// failures including deadline expiry.
type TransientError struct {
	err error
}

func (e *TransientError) Error() string {
	return e.err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.err
}

// NewTransientError wraps an error as transient (retryable).
func NewTransientError(err error) error {
	return &TransientError{err: err}
}

// FatalError marks a failure that retrying cannot fix: a bad or expired
// access token, a malformed bind request, an unregistered schema, or a folder
// the platform does not know (4xx responses other than 429).
type FatalError struct {
	err error
}

func (e *FatalError) Error() string {
	return e.err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.err
}

// NewFatalError wraps an error as fatal (non-retryable).
func NewFatalError(err error) error {
	return &FatalError{err: err}
}

// IsTransient reports whether the error should be retried with backoff.
func IsTransient(err error) bool {
	var transient *TransientError
	return errors.As(err, &transient)
}

// IsFatal reports whether the error is terminal for its binding.
func IsFatal(err error) bool {
	var fatal *FatalError
	return errors.As(err, &fatal)
}
