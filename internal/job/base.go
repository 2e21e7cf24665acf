package job

import (
	"context"
	"errors"
)

// ErrRunonlyCheck is the failure a Runonly job reports on its first
// check, forcing the engine to execute Run.
var ErrRunonlyCheck = errors.New("run-only job: first check always fails")

// Dummy is a job whose Check and Run are unconditional no-ops. Embed it
// (or use it directly) to create a pure aggregation node whose only
// purpose is to group dependencies.
type Dummy struct{}

func (Dummy) Check(context.Context, *Context) (any, error) { return nil, nil }
func (Dummy) Run(context.Context, *Context) (any, error)   { return nil, nil }

// Runonly gives a job "run exactly once" semantics: embed it and define
// only Run. The embedded Check fails during the initial phase so that
// Run executes, and during the recheck returns Run's result or error
// verbatim instead of re-verifying state.
//
// Under no-act mode such a job can never succeed, because success cannot
// be confirmed without performing the action.
type Runonly struct{}

func (Runonly) Check(_ context.Context, jc *Context) (any, error) {
	if jc.Phase != PhaseRecheck {
		return nil, ErrRunonlyCheck
	}
	if jc.RunErr != nil {
		return nil, jc.RunErr
	}
	return jc.RunResult, nil
}
