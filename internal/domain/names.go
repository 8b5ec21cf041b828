// Package domain contains the shared error vocabulary, default constants and
// value objects of the virtual clock library.
// No dependencies on other packages of this module are allowed.
package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ClockName is a value object naming a clock. Two names are the same clock
// whenever their contents are equal.
// Always valid in memory - use NewClockName to construct.
type ClockName struct {
	value string
}

// NewClockName creates a ClockName from a raw string. Names may not be empty
// and may not carry leading or trailing whitespace.
func NewClockName(raw string) (ClockName, error) {
	if raw == "" {
		return ClockName{}, ErrEmptyName
	}
	if strings.TrimSpace(raw) != raw {
		return ClockName{}, fmt.Errorf("clock name %q has surrounding whitespace: %w", raw, ErrInvalidName)
	}
	return ClockName{value: raw}, nil
}

// MustClockName creates a ClockName, panicking on invalid input. Use only in tests.
func MustClockName(raw string) ClockName {
	name, err := NewClockName(raw)
	if err != nil {
		panic(err)
	}
	return name
}

// GenerateClockName creates a unique name for a clock constructed without one.
func GenerateClockName() ClockName {
	return ClockName{value: GeneratedNamePrefix + uuid.NewString()}
}

func (n ClockName) String() string { return n.value }
func (n ClockName) IsZero() bool   { return n.value == "" }
