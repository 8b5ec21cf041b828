package domain

import "errors"

// Sentinel errors for clock and simulation error conditions.
// Use errors.Is() for matching - never compare error strings.
var (
	// Timing arithmetic
	ErrNegativeTimeDifference = errors.New("negative time difference")

	// Clock capability errors
	ErrUnsupportedOperation = errors.New("operation not supported on clock")
	ErrNotImplemented       = errors.New("operation not implemented")
	ErrInvalidConfiguration = errors.New("invalid clock configuration")

	// Registry errors
	ErrNotFound    = errors.New("clock not found")
	ErrEmptyName   = errors.New("clock name cannot be empty")
	ErrInvalidName = errors.New("invalid clock name")

	// Kernel errors
	ErrStopped   = errors.New("simulation stopped")
	ErrNoProcess = errors.New("no simulation process in context")

	// Configuration errors
	ErrConfigRequired = errors.New("required configuration key missing")
)

// IsWarning returns true if the error is a recoverable warning: the operation
// that produced it already returned a usable result.
func IsWarning(err error) bool {
	return errors.Is(err, ErrNegativeTimeDifference)
}

// IsFatal returns true if the error must stop the calling simulation process.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnsupportedOperation) ||
		errors.Is(err, ErrNotImplemented)
}

// configErrors enumerates errors caused by bad configuration input.
var configErrors = []error{
	ErrInvalidConfiguration,
	ErrEmptyName,
	ErrInvalidName,
	ErrConfigRequired,
}

// IsConfigurationError returns true if the error was caused by invalid
// configuration and will not go away without changing that configuration.
func IsConfigurationError(err error) bool {
	for _, target := range configErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound returns true if the error represents a missing clock.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
