// Package errmap maps domain errors to process exit codes.
package errmap

import (
	"context"
	"errors"

	"github.com/aelexs/virtualclock/internal/domain"
)

// Exit codes follow sysexits(3) where one fits.
const (
	ExitOK          = 0
	ExitFailure     = 1
	ExitSoftware    = 70  // simulation model bug
	ExitConfig      = 78  // unusable configuration
	ExitInterrupted = 130 // stopped by SIGINT/SIGTERM
)

// exitMappings maps domain errors to exit codes.
// Order matters: first match wins (via errors.Is).
var exitMappings = []struct {
	err  error
	code int
}{
	// Interruption
	{context.Canceled, ExitInterrupted},

	// Configuration errors
	{domain.ErrConfigRequired, ExitConfig},
	{domain.ErrInvalidConfiguration, ExitConfig},
	{domain.ErrEmptyName, ExitConfig},
	{domain.ErrInvalidName, ExitConfig},

	// Model errors raised by simulated processes
	{domain.ErrUnsupportedOperation, ExitSoftware},
	{domain.ErrNotImplemented, ExitSoftware},
	{domain.ErrNotFound, ExitSoftware},
	{domain.ErrNoProcess, ExitSoftware},
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	for _, m := range exitMappings {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return ExitFailure
}
