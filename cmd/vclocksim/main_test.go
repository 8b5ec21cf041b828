package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunHelp(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"--help"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "--config")
	assert.Contains(t, stderr.String(), "--until")
}

func TestRunRejectsArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"extra"}, &stdout, &stderr)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected argument: extra")
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := run(context.Background(), []string{"--frequency", "1GHz"}, &stdout, &stderr)

	assert.Error(t, err)
}

func TestRunPrintsSummary(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "vclock.yaml")
	require.NoError(t, os.WriteFile(path, []byte("clocks:\n  CLK:\n    period: 10ns\n"), 0o600))

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"--config", path, "--until", "45ns"}, &stdout, &stderr)

	require.NoError(t, err)
	assert.Contains(t, stdout.String(), "simulated until 45ns")
	assert.Regexp(t, `CLK\s+period=10ns\s+edges=5\s+cycles=4\s+level=true`, stdout.String())
	assert.Contains(t, stderr.String(), "clock summary")
}
