package domain

import "time"

// Compiled defaults for clocks and simulation runs.
// These can be overridden via configuration.
const (
	// Clock defaults
	DefaultDutyCycle = 0.5  // Fraction of the period the clock is high
	DefaultPositive  = true // First edge after the offset is a rising edge

	// Clock name generation
	GeneratedNamePrefix = "clock-"

	// Simulation defaults
	DefaultUntil              = "1us"  // Simulated time a run covers
	DefaultNegativeTimePolicy = "zero" // Recovery for negative time differences

	// Graceful shutdown
	ShutdownOTELTimeout = 5 * time.Second // Max time to flush telemetry on exit
)
