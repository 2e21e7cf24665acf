package jobfile

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dojobber/internal/job"
	"github.com/vk/dojobber/internal/registry"
)

type echoInput struct {
	Message string `hcl:"message"`
}

type echoJob struct {
	message string
}

func (e *echoJob) Check(context.Context, *job.Context) (any, error) { return e.message, nil }
func (e *echoJob) Run(context.Context, *job.Context) (any, error)   { return nil, nil }

func testRegistry() *registry.Registry {
	r := registry.New()
	r.RegisterKind("echo", &registry.Kind{
		NewInput: func() any { return &echoInput{} },
		Make: func(input any) (job.Job, error) {
			return &echoJob{message: input.(*echoInput).Message}, nil
		},
	})
	return r
}

func TestParse(t *testing.T) {
	src := `
options {
  no_act              = true
  default_tries       = 5
  default_retry_delay = "2s"
}

job "echo" "greet" {
  message = "hello"
}

job "echo" "all" {
  message     = "done"
  depends_on  = ["greet"]
  tries       = 1
  retry_delay = "500ms"
}
`
	root, opts, err := Parse([]byte(src), "test.hcl", testRegistry())
	require.NoError(t, err)

	assert.True(t, opts.NoAct)
	assert.True(t, opts.Cleanup)
	assert.Equal(t, 5, opts.DefaultTries)
	assert.Equal(t, 2*time.Second, opts.DefaultRetryDelay)

	require.Equal(t, "all", root.Name)
	assert.Equal(t, 1, root.Tries)
	require.NotNil(t, root.RetryDelay)
	assert.Equal(t, 500*time.Millisecond, *root.RetryDelay)

	require.Len(t, root.Deps, 1)
	assert.Equal(t, "greet", root.Deps[0].Name)

	j, err := root.Deps[0].New()
	require.NoError(t, err)
	res, err := j.Check(context.Background(), &job.Context{})
	require.NoError(t, err)
	assert.Equal(t, "hello", res)
}

func TestParseEnvInterpolation(t *testing.T) {
	t.Setenv("JOBFILE_TEST_GREETING", "bonjour")
	src := `
job "echo" "greet" {
  message = env.JOBFILE_TEST_GREETING
}
`
	root, _, err := Parse([]byte(src), "test.hcl", testRegistry())
	require.NoError(t, err)

	j, err := root.New()
	require.NoError(t, err)
	res, err := j.Check(context.Background(), &job.Context{})
	require.NoError(t, err)
	assert.Equal(t, "bonjour", res)
}

func TestParseExplicitRoot(t *testing.T) {
	src := `
options {
  root = "one"
}

job "echo" "one" {
  message = "a"
}

job "echo" "two" {
  message = "b"
}
`
	root, _, err := Parse([]byte(src), "test.hcl", testRegistry())
	require.NoError(t, err)
	assert.Equal(t, "one", root.Name)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr string
	}{
		{
			name:    "no jobs",
			src:     ``,
			wantErr: "declares no jobs",
		},
		{
			name: "unknown kind",
			src: `
job "mystery" "x" {}
`,
			wantErr: `unknown job kind "mystery"`,
		},
		{
			name: "unknown dependency",
			src: `
job "echo" "x" {
  message    = "a"
  depends_on = ["ghost"]
}
`,
			wantErr: `depends on unknown job "ghost"`,
		},
		{
			name: "duplicate job name",
			src: `
job "echo" "x" {
  message = "a"
}

job "echo" "x" {
  message = "b"
}
`,
			wantErr: `duplicate job name "x"`,
		},
		{
			name: "bad retry delay",
			src: `
job "echo" "x" {
  message     = "a"
  retry_delay = "soon"
}
`,
			wantErr: "invalid retry_delay",
		},
		{
			name: "bad default retry delay",
			src: `
options {
  default_retry_delay = "eventually"
}

job "echo" "x" {
  message = "a"
}
`,
			wantErr: "invalid default_retry_delay",
		},
		{
			name: "ambiguous root",
			src: `
job "echo" "one" {
  message = "a"
}

job "echo" "two" {
  message = "b"
}
`,
			wantErr: "cannot determine root job, set options.root (candidates: one, two)",
		},
		{
			name: "explicit root unknown",
			src: `
options {
  root = "ghost"
}

job "echo" "x" {
  message = "a"
}
`,
			wantErr: `options.root names unknown job "ghost"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse([]byte(tt.src), "test.hcl", testRegistry())
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, _, err := Load("/does/not/exist.hcl", testRegistry())
	assert.ErrorContains(t, err, "reading jobfile")
}
