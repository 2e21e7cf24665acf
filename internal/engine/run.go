package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/vk/dojobber/internal/ctxlog"
	"github.com/vk/dojobber/internal/dag"
)

// Run drives the convergence loop rooted at the configured root job.
// The original working directory is always restored before returning,
// and cleanup runs unless disabled. The returned error reports cleanup
// or environment failures; scheduling outcomes are reported through
// Success, PartialSuccess, Failure and the per-node queries.
func (e *Engine) Run(ctx context.Context) error {
	return e.run(ctx, e.root)
}

// RunNode is Run targeted at an explicit node of the graph instead of
// the configured root.
func (e *Engine) RunNode(ctx context.Context, name string) error {
	if _, ok := e.graph.Nodes[name]; !ok {
		return fmt.Errorf("unknown job %q", name)
	}
	return e.run(ctx, name)
}

func (e *Engine) run(ctx context.Context, target string) error {
	logger := ctxlog.FromContext(ctx)

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	e.startDir = wd

	// Fresh bookkeeping per top-level run; the engine is re-entrant.
	e.shared = make(map[string]any)
	e.statuses = make(map[string]Status)
	e.results = make(map[string]any)
	e.errs = make(map[string]error)
	e.phase = 0
	e.initRetry()

	logger.Debug("Run starting.", "target", target, "no_act", e.opts.NoAct)

	for {
		e.pass(ctx, e.graph.Nodes[target])
		if e.Success() {
			logger.Debug("All nodes succeeded, stopping.")
			break
		}
		e.phase++
		if !e.retriable() {
			logger.Debug("No retriable nodes remain, stopping.")
			break
		}
		if e.opts.NoAct {
			logger.Debug("No-act mode, not retrying.")
			break
		}
		logger.Debug("Starting next phase.", "phase", e.phase)
	}

	if err := os.Chdir(e.startDir); err != nil {
		return fmt.Errorf("restoring working directory: %w", err)
	}
	if e.opts.Cleanup {
		return e.runCleanup(ctx)
	}
	return nil
}

// initRetry creates one fresh retry record per node: the full try
// budget, the resolved delay, eligibility now, and no phase attempted.
func (e *Engine) initRetry() {
	e.retry = make(map[string]*retryRecord, len(e.graph.Nodes))
	for name, n := range e.graph.Nodes {
		e.retry[name] = &retryRecord{
			tries:      n.Tries,
			retryDelay: n.RetryDelay,
			nextTry:    e.now(),
			lastPhase:  -1,
		}
	}
}

// retriable reports whether any node is worth another phase: failed,
// with tries remaining. Untested nodes are blocked by other failures
// and succeed or stay stuck on their own account.
func (e *Engine) retriable() bool {
	for name, r := range e.retry {
		if e.statuses[name] == StatusFailed && r.tries > 0 {
			return true
		}
	}
	return false
}

// pass performs one depth-first attempt pass over the graph rooted at
// n: dependencies first, then the node itself if nothing blocks it and
// the retry tracker permits an attempt this phase.
func (e *Engine) pass(ctx context.Context, n *dag.Node) {
	blocked := false
	for _, dep := range n.Deps {
		if !e.statuses[dep.Name].OK() {
			e.pass(ctx, dep)
		}
		if !e.statuses[dep.Name].OK() {
			blocked = true
		}
	}

	if _, seen := e.statuses[n.Name]; !seen {
		e.statuses[n.Name] = StatusUntested
	}
	if blocked {
		return
	}
	if !e.permitAttempt(n) {
		return
	}
	e.attempt(ctx, n)
}
