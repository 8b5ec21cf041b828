package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aelexs/virtualclock/internal/config"
	"github.com/aelexs/virtualclock/internal/domain"
	"github.com/aelexs/virtualclock/internal/simtime"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vclock.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const clocksYAML = `
environment: dev
log_level: debug
simulation:
  until: 500ns
  negative_time_policy: invert
clocks:
  CPU:
    period: 10ns
    duty: 0.25
    offset: 2ns
    positive: false
  BUS:
    period: 25ns
    sample: 5ns
`

func TestDefaults(t *testing.T) {
	cfg, err := config.Load(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, domain.DefaultUntil, cfg.Simulation.Until)
	assert.Equal(t, domain.DefaultNegativeTimePolicy, cfg.Simulation.NegativeTimePolicy)
	assert.Empty(t, cfg.Clocks)
	assert.Empty(t, cfg.OTEL.Endpoint)

	until, err := cfg.Until()
	require.NoError(t, err)
	assert.Equal(t, simtime.Microsecond, until)

	policy, err := cfg.NegativeTimePolicy()
	require.NoError(t, err)
	assert.Equal(t, simtime.PolicyZero, policy)
}

func TestIsLocal(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"local returns true", "local", true},
		{"prod returns false", "prod", false},
		{"dev returns false", "dev", false},
		{"empty returns false", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Environment: tt.env}

			assert.Equal(t, tt.want, cfg.IsLocal())
		})
	}
}

func TestIsProd(t *testing.T) {
	tests := []struct {
		name string
		env  string
		want bool
	}{
		{"prod returns true", "prod", true},
		{"local returns false", "local", false},
		{"dev returns false", "dev", false},
		{"empty returns false", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{Environment: tt.env}

			assert.Equal(t, tt.want, cfg.IsProd())
		})
	}
}

func TestLoadFile(t *testing.T) {
	cfg, err := config.Load(context.Background(), writeConfig(t, clocksYAML))

	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat, "unset keys keep their defaults")
	assert.Equal(t, "500ns", cfg.Simulation.Until)
	assert.Equal(t, []string{"BUS", "CPU"}, cfg.ClockNames())

	cpu, err := cfg.Clocks["CPU"].Timing()
	require.NoError(t, err)
	assert.Equal(t, 10*simtime.Nanosecond, cpu.Period)
	require.NotNil(t, cpu.Duty)
	assert.InDelta(t, 0.25, *cpu.Duty, 1e-12)
	require.NotNil(t, cpu.Offset)
	assert.Equal(t, 2*simtime.Nanosecond, *cpu.Offset)
	require.NotNil(t, cpu.Positive)
	assert.False(t, *cpu.Positive)
	assert.Nil(t, cpu.Sample)
	assert.Nil(t, cpu.Setedge)

	bus, err := cfg.Clocks["BUS"].Timing()
	require.NoError(t, err)
	assert.Equal(t, 25*simtime.Nanosecond, bus.Period)
	assert.Nil(t, bus.Duty)
	assert.Nil(t, bus.Positive)
	require.NotNil(t, bus.Sample)
	assert.Equal(t, 5*simtime.Nanosecond, *bus.Sample)

	policy, err := cfg.NegativeTimePolicy()
	require.NoError(t, err)
	assert.Equal(t, simtime.PolicyInvert, policy)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.yaml")
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("VCLOCK_SIMULATION__UNTIL", "2us")
	t.Setenv("VCLOCK_LOG_FORMAT", "text")

	cfg, err := config.Load(context.Background(), writeConfig(t, clocksYAML))

	require.NoError(t, err)
	assert.Equal(t, "2us", cfg.Simulation.Until)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadWithEnvOverride(t *testing.T) {
	t.Setenv("VCLOCK_ENVIRONMENT", "prod")
	t.Setenv("VCLOCK_CLOCKS__CPU__PERIOD", "10ns")
	t.Setenv("VCLOCK_CLOCKS__CPU__DUTY", "0.4")
	t.Setenv("VCLOCK_OTEL__ENDPOINT", "collector:4317")

	cfg, err := config.Load(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Environment)
	assert.Equal(t, "collector:4317", cfg.OTEL.Endpoint)
	require.Contains(t, cfg.Clocks, "cpu", "env clock names are lower-cased")

	cpu, err := cfg.Clocks["cpu"].Timing()
	require.NoError(t, err)
	assert.Equal(t, 10*simtime.Nanosecond, cpu.Period)
	require.NotNil(t, cpu.Duty)
	assert.InDelta(t, 0.4, *cpu.Duty, 1e-12)
}

func TestValidateRequired_LocalAllowsMissingClocks(t *testing.T) {
	t.Setenv("VCLOCK_ENVIRONMENT", "local")

	cfg, err := config.Load(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Environment)
}

func TestValidateRequired_ProdRequiresClocks(t *testing.T) {
	t.Setenv("VCLOCK_ENVIRONMENT", "prod")

	_, err := config.Load(context.Background(), "")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConfigRequired)
	assert.Contains(t, err.Error(), "clocks")
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
		wantMsg string
	}{
		{"unparsable until", "VCLOCK_SIMULATION__UNTIL", "soon", domain.ErrInvalidConfiguration, "simulation.until"},
		{"negative until", "VCLOCK_SIMULATION__UNTIL", "-1ns", domain.ErrInvalidConfiguration, "simulation.until"},
		{"unknown policy", "VCLOCK_SIMULATION__NEGATIVE_TIME_POLICY", "sideways", domain.ErrInvalidConfiguration, "negative_time_policy"},
		{"clock without period", "VCLOCK_CLOCKS__CPU__DUTY", "0.5", domain.ErrConfigRequired, "clock cpu: "},
		{"unparsable offset", "VCLOCK_CLOCKS__CPU__OFFSET", "3 parsecs", domain.ErrInvalidConfiguration, "offset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.key != "VCLOCK_CLOCKS__CPU__DUTY" {
				t.Setenv("VCLOCK_CLOCKS__CPU__PERIOD", "10ns")
			}
			t.Setenv(tt.key, tt.value)

			_, err := config.Load(context.Background(), "")

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, domain.IsConfigurationError(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}
