// Package config provides configuration loading using koanf.
// Precedence: environment, then the optional YAML file, then compiled defaults.
package config

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/aelexs/virtualclock/internal/domain"
	"github.com/aelexs/virtualclock/internal/simtime"
)

// EnvPrefix prefixes every environment variable the loader reads. A double
// underscore separates nesting levels: VCLOCK_CLOCKS__CPU__PERIOD sets
// clocks.cpu.period.
const EnvPrefix = "VCLOCK_"

// Config holds the simulation configuration.
type Config struct {
	// Environment identifier: "local", "dev", "prod"
	Environment string `koanf:"environment"`

	// Logging configuration
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	Simulation SimulationConfig `koanf:"simulation"`

	// Clocks maps global clock names to their definitions.
	Clocks map[string]ClockConfig `koanf:"clocks"`

	// OpenTelemetry configuration
	OTEL OTELConfig `koanf:"otel"`
}

// SimulationConfig holds kernel run settings.
type SimulationConfig struct {
	Until              string `koanf:"until"`                // simulated stop time, e.g. "1us"
	NegativeTimePolicy string `koanf:"negative_time_policy"` // "zero" or "invert"
}

// ClockConfig defines one global clock. Unset fields take the clock defaults.
type ClockConfig struct {
	Period   string   `koanf:"period"` // Required
	Duty     *float64 `koanf:"duty"`
	Offset   string   `koanf:"offset"`
	Sample   string   `koanf:"sample"`
	Setedge  string   `koanf:"setedge"`
	Positive *bool    `koanf:"positive"`
}

// OTELConfig holds OpenTelemetry configuration.
type OTELConfig struct {
	Endpoint    string `koanf:"endpoint"` // Empty disables OTLP export
	ServiceName string `koanf:"service_name"`
}

// defaults returns a Config with compiled default values.
func defaults() *Config {
	return &Config{
		Environment: "local",
		LogLevel:    "info",
		LogFormat:   "json",

		Simulation: SimulationConfig{
			Until:              domain.DefaultUntil,
			NegativeTimePolicy: domain.DefaultNegativeTimePolicy,
		},
	}
}

// Load loads configuration following the precedence:
// 1. Environment variables (highest)
// 2. YAML file at path, when path is not empty
// 3. Compiled defaults (lowest)
//
// A malformed or missing value fails loading; nothing falls back silently.
func Load(_ context.Context, path string) (*Config, error) {
	k := koanf.New(".")

	// Start with compiled defaults
	cfg := defaults()

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil)
	if err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	// Unmarshal into config struct
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	if err := validateRequired(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// envKey maps VCLOCK_SIMULATION__UNTIL to simulation.until.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// validate checks that every value present parses.
func validate(cfg *Config) error {
	if _, err := cfg.Until(); err != nil {
		return err
	}
	if _, err := cfg.NegativeTimePolicy(); err != nil {
		return err
	}
	for _, name := range cfg.ClockNames() {
		if _, err := cfg.Clocks[name].Timing(); err != nil {
			return fmt.Errorf("clock %s: %w", name, err)
		}
	}
	return nil
}

// validateRequired checks that required configuration is present.
func validateRequired(cfg *Config) error {
	// In local environment, most fields have sensible defaults
	if cfg.Environment == "local" {
		return nil
	}

	// In production, a simulation without clocks is a deployment mistake
	if cfg.Environment == "prod" {
		if len(cfg.Clocks) == 0 {
			return fmt.Errorf("%w: clocks", domain.ErrConfigRequired)
		}
	}

	return nil
}

// IsLocal returns true if running in local development environment.
func (c *Config) IsLocal() bool {
	return c.Environment == "local"
}

// IsProd returns true if running in production environment.
func (c *Config) IsProd() bool {
	return c.Environment == "prod"
}

// Until returns the parsed simulated stop time.
func (c *Config) Until() (simtime.Time, error) {
	t, err := simtime.Parse(c.Simulation.Until)
	if err != nil {
		return 0, fmt.Errorf("simulation.until: %w: %w", domain.ErrInvalidConfiguration, err)
	}
	if t < 0 {
		return 0, fmt.Errorf("simulation.until %v must not be negative: %w", t, domain.ErrInvalidConfiguration)
	}
	return t, nil
}

// NegativeTimePolicy returns the parsed negative time policy.
func (c *Config) NegativeTimePolicy() (simtime.NegativePolicy, error) {
	p, err := simtime.ParseNegativePolicy(c.Simulation.NegativeTimePolicy)
	if err != nil {
		return p, fmt.Errorf("simulation.negative_time_policy: %w", err)
	}
	return p, nil
}

// ClockNames returns the configured clock names in ascending order.
func (c *Config) ClockNames() []string {
	names := make([]string, 0, len(c.Clocks))
	for name := range c.Clocks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClockTiming is a parsed clock definition. Nil fields were not configured.
type ClockTiming struct {
	Period   simtime.Time
	Duty     *float64
	Offset   *simtime.Time
	Sample   *simtime.Time
	Setedge  *simtime.Time
	Positive *bool
}

// Timing parses the clock definition. Range checks are left to the clock.
func (c ClockConfig) Timing() (ClockTiming, error) {
	if c.Period == "" {
		return ClockTiming{}, fmt.Errorf("%w: period", domain.ErrConfigRequired)
	}
	period, err := simtime.Parse(c.Period)
	if err != nil {
		return ClockTiming{}, fmt.Errorf("period: %w: %w", domain.ErrInvalidConfiguration, err)
	}

	ct := ClockTiming{Period: period, Duty: c.Duty, Positive: c.Positive}
	for _, f := range []struct {
		key string
		raw string
		dst **simtime.Time
	}{
		{"offset", c.Offset, &ct.Offset},
		{"sample", c.Sample, &ct.Sample},
		{"setedge", c.Setedge, &ct.Setedge},
	} {
		if f.raw == "" {
			continue
		}
		t, err := simtime.Parse(f.raw)
		if err != nil {
			return ClockTiming{}, fmt.Errorf("%s: %w: %w", f.key, domain.ErrInvalidConfiguration, err)
		}
		*f.dst = &t
	}
	return ct, nil
}
