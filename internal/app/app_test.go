package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJobfile(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.hcl")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func newTestApp(t *testing.T, cfg Config) (*App, *bytes.Buffer) {
	t.Helper()
	if cfg.LogLevel == "" {
		cfg.LogLevel = "error"
	}
	validated, err := NewConfig(cfg)
	require.NoError(t, err)
	out := &bytes.Buffer{}
	return NewApp(out, validated), out
}

func TestRunConvergingJobfile(t *testing.T) {
	target := filepath.Join(t.TempDir(), "made-by-run.txt")
	path := writeJobfile(t, `
options {
  cleanup = false
}

job "file" "artifact" {
  path    = "`+target+`"
  content = "present\n"
}

job "print" "done" {
  message    = "artifact in place"
  depends_on = ["artifact"]
}
`)

	a, _ := newTestApp(t, Config{JobfilePath: path})
	require.NoError(t, a.Run(context.Background()))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "present\n", string(data))
}

func TestRunFailingJobfile(t *testing.T) {
	path := writeJobfile(t, `
options {
  default_tries       = 1
  default_retry_delay = "0s"
}

job "shell" "broken" {
  check_command = "exit 7"
}

job "print" "done" {
  message    = "never reached"
  depends_on = ["broken"]
}
`)

	a, _ := newTestApp(t, Config{JobfilePath: path})
	err := a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "run finished with failures")
	assert.ErrorContains(t, err, "broken")
}

func TestRunTargetedJob(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "root-side-effect")
	path := writeJobfile(t, `
job "shell" "dep" {
  check_command = "true"
}

job "shell_run" "root" {
  command    = "touch `+marker+`"
  depends_on = ["dep"]
}
`)

	a, _ := newTestApp(t, Config{JobfilePath: path, Target: "dep"})
	require.NoError(t, a.Run(context.Background()))

	_, err := os.Stat(marker)
	assert.True(t, os.IsNotExist(err), "targeting dep must not run the root job")
}

func TestRunNoActOverride(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "acted")
	path := writeJobfile(t, `
job "shell" "guarded" {
  check_command = "test -f `+marker+`"
  run_command   = "touch `+marker+`"
}
`)

	a, _ := newTestApp(t, Config{JobfilePath: path, NoAct: true})
	err := a.Run(context.Background())
	require.Error(t, err)

	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr), "no-act must suppress the run command")
}

func TestNewConfigValidation(t *testing.T) {
	_, err := NewConfig(Config{})
	assert.ErrorContains(t, err, "JobfilePath is a required")

	_, err = NewConfig(Config{JobfilePath: "jobs.hcl", RetryDelay: "later"})
	assert.ErrorContains(t, err, "invalid retry delay")

	cfg, err := NewConfig(Config{JobfilePath: "jobs.hcl"})
	require.NoError(t, err)
	assert.Equal(t, "png", cfg.GraphFormat)
}
