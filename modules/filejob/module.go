// Package filejob provides the 'file' job kind: a job that verifies a
// file exists with the wanted content, writes it when it does not, and
// removes it again at cleanup if the run created it.
package filejob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/vk/dojobber/internal/job"
	"github.com/vk/dojobber/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the jobfile attributes for a 'file' job.
type Input struct {
	Path    string `hcl:"path"`
	Content string `hcl:"content,optional"`
}

type fileJob struct {
	path    string
	content string

	// created tracks whether Run brought the file into existence, so
	// Cleanup removes only what this job made.
	created bool
}

func (j *fileJob) Check(_ context.Context, _ *job.Context) (any, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", j.path, err)
	}
	if j.content != "" && string(data) != j.content {
		return nil, fmt.Errorf("%s exists but content differs", j.path)
	}
	return j.path, nil
}

func (j *fileJob) Run(_ context.Context, _ *job.Context) (any, error) {
	if _, err := os.Stat(j.path); errors.Is(err, fs.ErrNotExist) {
		j.created = true
	}
	if err := os.WriteFile(j.path, []byte(j.content), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", j.path, err)
	}
	return nil, nil
}

func (j *fileJob) Cleanup(_ context.Context) error {
	if !j.created {
		return nil
	}
	if err := os.Remove(j.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", j.path, err)
	}
	return nil
}

// Register registers the 'file' kind with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind("file", &registry.Kind{
		NewInput: func() any { return new(Input) },
		Make: func(input any) (job.Job, error) {
			in := input.(*Input)
			if in.Path == "" {
				return nil, errors.New("file job requires a path")
			}
			return &fileJob{path: in.Path, content: in.Content}, nil
		},
	})
}
