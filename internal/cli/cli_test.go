package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePositionalJobfile(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{"jobs.hcl"}, out)
	require.NoError(t, err)
	require.False(t, exit)
	assert.Equal(t, "jobs.hcl", cfg.JobfilePath)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "png", cfg.GraphFormat)
}

func TestParseAllFlags(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{
		"-f", "jobs.hcl",
		"-target", "webserver",
		"-no-act",
		"-no-cleanup",
		"-tries", "5",
		"-retry-delay", "2s",
		"-graph", "out.svg",
		"-graph-format", "svg",
		"-debug",
		"-log-format", "json",
	}, out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, "jobs.hcl", cfg.JobfilePath)
	assert.Equal(t, "webserver", cfg.Target)
	assert.True(t, cfg.NoAct)
	assert.True(t, cfg.NoCleanup)
	assert.Equal(t, 5, cfg.Tries)
	assert.Equal(t, "2s", cfg.RetryDelay)
	assert.Equal(t, "out.svg", cfg.GraphPath)
	assert.Equal(t, "svg", cfg.GraphFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestParseVerbose(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, _, err := Parse([]string{"-verbose", "jobs.hcl"}, out)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseNoJobfilePrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseHelpFlag(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, exit, err := Parse([]string{"-h"}, out)
	require.NoError(t, err)
	assert.True(t, exit)
	assert.Nil(t, cfg)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "unknown flag",
			args:    []string{"--bogus"},
			wantErr: "flag provided but not defined",
		},
		{
			name:    "bad log format",
			args:    []string{"-log-format", "xml", "jobs.hcl"},
			wantErr: "invalid log-format",
		},
		{
			name:    "bad retry delay",
			args:    []string{"-retry-delay", "whenever", "jobs.hcl"},
			wantErr: "invalid retry delay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			_, _, err := Parse(tt.args, out)
			require.Error(t, err)
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tt.wantErr)
		})
	}
}
