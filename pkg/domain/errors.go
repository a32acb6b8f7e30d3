package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the session lifecycle. Background machinery records
// failures into the session record; these sentinels are what the read paths
// and the API layer branch on.
var (
	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("session not found")

	// ErrGameNotReady is returned when a result is requested before the
	// session reaches the ready status.
	ErrGameNotReady = errors.New("game not ready")

	// ErrFulfillmentTimeout means no randomness arrived within a single
	// fulfillment attempt. It is not terminal: the scheduler retries on
	// the next tick.
	ErrFulfillmentTimeout = errors.New("randomness fulfillment timed out")

	// ErrOracleUnavailable means the randomness request submission itself
	// failed. Terminal for the session; the caller decides about retries.
	ErrOracleUnavailable = errors.New("oracle unavailable")
)

// ValidationError reports bad request parameters. It is returned
// synchronously and never retried.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid parameters: " + e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ConfigError reports a misconfiguration such as missing credentials. It is
// fatal for the operation at hand and never retried.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var c *ConfigError
	return errors.As(err, &c)
}

// TransientError marks a failure that is worth retrying, such as a network
// drop or a provider-side 5xx.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return "transient error: " + e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as retryable. A nil err stays nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is (or wraps) a TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
