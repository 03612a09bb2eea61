package helpers

import (
	"context"
	"errors"
	"fmt"
	"stock-dashboard/src/logger"
	"sync"
	"time"
)

// -----------------------------------------------------------------------------
// Store Errors
// -----------------------------------------------------------------------------

var (
	// ErrDuplicateKey is returned when a symbol is already tracked.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrNotFound is returned when no record matches an id or symbol.
	ErrNotFound = errors.New("record not found")
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type DashboardError struct {
	Message string
	Cause   error
}

func (e *DashboardError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *DashboardError) Unwrap() error {
	return e.Cause
}

// ProviderUnavailableError covers transport failures, timeouts, bad statuses
// and provider-side error payloads.
type ProviderUnavailableError struct{ DashboardError }

// ProviderDataMissingError covers malformed payloads and missing fields.
type ProviderDataMissingError struct{ DashboardError }

// ValidationError is raised for bad client input.
type ValidationError struct{ DashboardError }

func NewProviderUnavailable(symbol string, cause error) error {
	return &ProviderUnavailableError{DashboardError{Message: fmt.Sprintf("provider unavailable for %s", symbol), Cause: cause}}
}

func NewProviderDataMissing(symbol string, cause error) error {
	return &ProviderDataMissingError{DashboardError{Message: fmt.Sprintf("provider data missing for %s", symbol), Cause: cause}}
}

func NewValidationError(format string, args ...interface{}) error {
	return &ValidationError{DashboardError{Message: fmt.Sprintf(format, args...)}}
}

// -----------------------------------------------------------------------------

// Classify returns a short label for an error, used in logs and job results.
func Classify(err error) string {
	var unavailable *ProviderUnavailableError
	var missing *ProviderDataMissingError
	var invalid *ValidationError

	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &unavailable):
		return "provider_unavailable"
	case errors.As(err, &missing):
		return "provider_data_missing"
	case errors.As(err, &invalid):
		return "validation"
	case errors.Is(err, ErrDuplicateKey):
		return "duplicate_key"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "internal"
	}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// permanentError marks an error that retrying cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so RetryWithBackoff returns it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err}
}

// RetryWithBackoff runs fn once plus up to maxRetries more times, doubling the
// delay after each failure. It stops early when ctx is done or fn returns a
// Permanent error, which is returned unwrapped.
func RetryWithBackoff(ctx context.Context, maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			delay := baseDelay * (1 << (attempt - 1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return errors.Join(lastErr, ctx.Err())
			}
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var perm *permanentError
		if errors.As(lastErr, &perm) {
			return perm.err
		}
	}

	return lastErr
}

// -----------------------------------------------------------------------------
// Error Handler
// -----------------------------------------------------------------------------

// ErrorHandler logs errors and keeps a per-class tally.
type ErrorHandler struct {
	Logger *logger.Logger
	counts map[string]int64
	mu     sync.Mutex
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	if log == nil {
		log = logger.NewLogger("ErrorHandler")
	}
	return &ErrorHandler{
		Logger: log,
		counts: make(map[string]int64),
	}
}

// -----------------------------------------------------------------------------

func (e *ErrorHandler) Handle(err error, where string) {
	if err == nil {
		return
	}

	class := Classify(err)
	e.mu.Lock()
	e.counts[class]++
	e.mu.Unlock()

	e.Logger.Error("Error in %s [%s]: %v", where, class, err)
}

// -----------------------------------------------------------------------------

// Counts returns a copy of the per-class error tally.
func (e *ErrorHandler) Counts() map[string]int64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]int64, len(e.counts))
	for k, v := range e.counts {
		out[k] = v
	}
	return out
}
