package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/dojobber/internal/dag"
	"github.com/vk/dojobber/internal/job"
)

// Options configures one Engine instance.
type Options struct {
	// NoAct restricts the run to verification: Run is never invoked and
	// nothing is retried beyond the first pass.
	NoAct bool
	// Cleanup controls whether Cleanup methods run when a run stops.
	Cleanup bool
	// DefaultTries is the max-tries for jobs that declare no override.
	DefaultTries int
	// DefaultRetryDelay is the delay between retries for jobs that
	// declare no override.
	DefaultRetryDelay time.Duration
}

// DefaultOptions returns the stock configuration: cleanup enabled,
// three tries per job, one second between retries.
func DefaultOptions() Options {
	return Options{
		Cleanup:           true,
		DefaultTries:      3,
		DefaultRetryDelay: time.Second,
	}
}

// Engine owns the graph, the per-node bookkeeping, and the convergence
// loop for one configuration. It is not safe for concurrent use.
type Engine struct {
	graph *dag.Graph
	root  string
	opts  Options
	args  []any

	statuses map[string]Status
	results  map[string]any
	errs     map[string]error
	retry    map[string]*retryRecord

	// instantiated records every successfully constructed job instance
	// in creation order; cleanup consumes it in reverse.
	instantiated []*instance

	shared   map[string]any
	phase    int
	startDir string

	// now and sleep are injected for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// instance pairs a constructed job with the attempt context it was
// bound to.
type instance struct {
	name string
	job  job.Job
	jc   *job.Context
}

// New validates the options, builds the dependency graph rooted at the
// given descriptor, and returns an engine ready to run. All failures
// here are configuration errors.
func New(ctx context.Context, root *job.Descriptor, opts Options) (*Engine, error) {
	if opts.DefaultTries < 1 {
		return nil, fmt.Errorf("default tries %d must be >= 1", opts.DefaultTries)
	}
	if opts.DefaultRetryDelay < 0 {
		return nil, fmt.Errorf("default retry delay %s cannot be negative", opts.DefaultRetryDelay)
	}

	graph, err := dag.Build(ctx, root, dag.Defaults{
		Tries:      opts.DefaultTries,
		RetryDelay: opts.DefaultRetryDelay,
	})
	if err != nil {
		return nil, fmt.Errorf("building dependency graph: %w", err)
	}

	return &Engine{
		graph:    graph,
		root:     root.Name,
		opts:     opts,
		statuses: make(map[string]Status),
		results:  make(map[string]any),
		errs:     make(map[string]error),
		now:      time.Now,
		sleep:    time.Sleep,
	}, nil
}

// SetArgs sets the values handed to every Check and Run call.
func (e *Engine) SetArgs(args ...any) {
	e.args = args
}

// Graph exposes the built dependency graph, primarily for export.
func (e *Engine) Graph() *dag.Graph {
	return e.graph
}

// Success reports whether every node visited by the run ended
// succeeded or eventually-succeeded.
func (e *Engine) Success() bool {
	if len(e.statuses) == 0 {
		return false
	}
	for _, s := range e.statuses {
		if !s.OK() {
			return false
		}
	}
	return true
}

// PartialSuccess reports whether at least one node succeeded.
func (e *Engine) PartialSuccess() bool {
	for _, s := range e.statuses {
		if s.OK() {
			return true
		}
	}
	return false
}

// Failure reports whether the run fell short of full success.
func (e *Engine) Failure() bool {
	return !e.Success()
}

// NodeStatus returns the recorded status for a job name. Unvisited
// nodes report StatusUntested.
func (e *Engine) NodeStatus(name string) Status {
	return e.statuses[name]
}

// NodeResult returns the last captured Check result for a job name.
func (e *Engine) NodeResult(name string) any {
	return e.results[name]
}

// NodeErr returns the last captured failure for a job name.
func (e *Engine) NodeErr(name string) error {
	return e.errs[name]
}
