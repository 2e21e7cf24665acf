// Package printjob provides the 'print' and 'dummy' job kinds. Both
// are mainly useful as graph scaffolding: 'print' emits a message as a
// run-only action, 'dummy' is an always-green grouping node for fanning
// in dependencies.
package printjob

import (
	"context"
	"errors"

	"github.com/vk/dojobber/internal/ctxlog"
	"github.com/vk/dojobber/internal/job"
	"github.com/vk/dojobber/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the jobfile attributes for a 'print' job.
type Input struct {
	Message string `hcl:"message"`
}

type printJob struct {
	job.Runonly
	message string
}

func (j *printJob) Run(ctx context.Context, _ *job.Context) (any, error) {
	ctxlog.FromContext(ctx).Info(j.message)
	return j.message, nil
}

// Register registers the 'print' and 'dummy' kinds with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind("print", &registry.Kind{
		NewInput: func() any { return new(Input) },
		Make: func(input any) (job.Job, error) {
			in := input.(*Input)
			if in.Message == "" {
				return nil, errors.New("print job requires a message")
			}
			return &printJob{message: in.Message}, nil
		},
	})
	r.RegisterKind("dummy", &registry.Kind{
		NewInput: func() any { return new(struct{}) },
		Make: func(any) (job.Job, error) {
			return job.Dummy{}, nil
		},
	})
}
