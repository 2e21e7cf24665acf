package job

import (
	"context"
	"time"
)

// Phase identifies which verification pass of the check/run/recheck
// protocol is currently calling into a job.
type Phase string

const (
	// PhaseCheck is the initial verification, before any action ran.
	PhaseCheck Phase = "check"
	// PhaseRecheck is the verification that follows Run; its outcome
	// alone decides the node's final status for the attempt.
	PhaseRecheck Phase = "recheck"
)

// Job is the capability set of a schedulable unit of work.
//
// Check must be side-effect free: it returns an error if the current
// state does not already satisfy the job's goal, and an arbitrary result
// value otherwise. Run performs the action that should make a subsequent
// Check pass. Both receive the per-attempt Context.
type Job interface {
	Check(ctx context.Context, jc *Context) (any, error)
	Run(ctx context.Context, jc *Context) (any, error)
}

// Cleaner is implemented by jobs that acquire resources worth releasing.
// Cleanup is invoked for every constructed instance, in reverse creation
// order, regardless of the instance's Check/Run outcome.
type Cleaner interface {
	Cleanup(ctx context.Context) error
}

// Context carries the state the engine binds to one attempt of one job
// instance. It is created fresh for every attempt.
type Context struct {
	// Name is the graph identity of the job being attempted. Use it to
	// namespace writes into Shared.
	Name string

	// Args are the values handed to every Check and Run call of the run,
	// as set via the engine's SetArgs.
	Args []any

	// Local is scratch storage scoped to this single attempt: it is
	// visible across the attempt's check, run, and recheck calls and is
	// deliberately discarded between attempts of the same node. Retried
	// jobs must be able to converge from scratch.
	Local map[string]any

	// Shared is the run-wide storage, visible to and mutable by every
	// job instance of the run. There is no isolation; cooperating jobs
	// must namespace their own keys (by convention, under their Name).
	Shared map[string]any

	// Phase is the verification pass currently in flight.
	Phase Phase

	// Captured per-phase outcomes, recorded by the engine as the attempt
	// progresses. Provided for advanced jobs (see Runonly); most jobs
	// should not need them.
	CheckResult   any
	CheckErr      error
	RunResult     any
	RunErr        error
	RecheckResult any
	RecheckErr    error
}

// Descriptor statically describes a job to the engine. Descriptors are
// immutable once handed to the graph builder.
type Descriptor struct {
	// Name uniquely identifies the job within a graph.
	Name string

	// Deps lists the jobs that must succeed before this one may be
	// attempted.
	Deps []*Descriptor

	// Tries overrides the engine's default max-tries when > 0.
	Tries int

	// RetryDelay overrides the engine's default delay between retries
	// when non-nil. Use Delay to populate it.
	RetryDelay *time.Duration

	// New constructs a fresh instance for one attempt. A construction
	// error is terminal for that attempt only.
	New func() (Job, error)
}

// Delay is a convenience for populating Descriptor.RetryDelay.
func Delay(d time.Duration) *time.Duration {
	return &d
}
