// Package shelljob provides shell-backed job kinds.
//
// The 'shell' kind pairs a check command with an optional run command:
// the check's exit status decides whether the run is needed. The
// 'shell_run' kind is a run-only job for commands with no meaningful
// precondition, such as notifications.
package shelljob

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/vk/dojobber/internal/ctxlog"
	"github.com/vk/dojobber/internal/job"
	"github.com/vk/dojobber/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Input defines the jobfile attributes for a 'shell' job.
type Input struct {
	CheckCommand string `hcl:"check_command"`
	RunCommand   string `hcl:"run_command,optional"`
}

// RunInput defines the jobfile attributes for a 'shell_run' job.
type RunInput struct {
	Command string `hcl:"command"`
}

func shell(ctx context.Context, command string) (string, error) {
	cmd := exec.CommandContext(ctx, "/bin/sh", "-c", command)
	out, err := cmd.CombinedOutput()
	output := strings.TrimRight(string(out), "\n")
	if err != nil {
		return output, fmt.Errorf("%s (output: %s)", err, output)
	}
	return output, nil
}

type shellJob struct {
	checkCommand string
	runCommand   string
}

func (j *shellJob) Check(ctx context.Context, _ *job.Context) (any, error) {
	out, err := shell(ctx, j.checkCommand)
	if err != nil {
		return nil, fmt.Errorf("check command failed: %w", err)
	}
	return out, nil
}

func (j *shellJob) Run(ctx context.Context, _ *job.Context) (any, error) {
	if j.runCommand == "" {
		return nil, nil
	}
	ctxlog.FromContext(ctx).Debug("Running shell command.", "command", j.runCommand)
	out, err := shell(ctx, j.runCommand)
	if err != nil {
		return nil, fmt.Errorf("run command failed: %w", err)
	}
	return out, nil
}

type shellRunJob struct {
	job.Runonly
	command string
}

func (j *shellRunJob) Run(ctx context.Context, _ *job.Context) (any, error) {
	ctxlog.FromContext(ctx).Debug("Running shell command.", "command", j.command)
	out, err := shell(ctx, j.command)
	if err != nil {
		return nil, fmt.Errorf("command failed: %w", err)
	}
	return out, nil
}

// Register registers the 'shell' and 'shell_run' kinds with the
// registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind("shell", &registry.Kind{
		NewInput: func() any { return new(Input) },
		Make: func(input any) (job.Job, error) {
			in := input.(*Input)
			if in.CheckCommand == "" {
				return nil, errors.New("shell job requires a check_command")
			}
			return &shellJob{checkCommand: in.CheckCommand, runCommand: in.RunCommand}, nil
		},
	})
	r.RegisterKind("shell_run", &registry.Kind{
		NewInput: func() any { return new(RunInput) },
		Make: func(input any) (job.Job, error) {
			in := input.(*RunInput)
			if in.Command == "" {
				return nil, errors.New("shell_run job requires a command")
			}
			return &shellRunJob{command: in.Command}, nil
		},
	})
}
