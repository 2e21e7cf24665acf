package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vk/dojobber/internal/ctxlog"
	"github.com/vk/dojobber/internal/dag"
	"github.com/vk/dojobber/internal/job"
)

// retryRecord is the per-node retry bookkeeping for one run.
type retryRecord struct {
	// tries remaining before the node is exhausted.
	tries int
	// retryDelay is the minimum interval between attempt starts.
	retryDelay time.Duration
	// nextTry is the earliest moment the next attempt may start.
	nextTry time.Time
	// lastPhase is the phase of the most recent attempt, -1 if none.
	lastPhase int
}

// permitAttempt applies the eligibility rules: at most one attempt per
// node per phase, and only while tries remain. When an attempt is
// permitted it blocks out any remaining backoff window, then consumes a
// try and restarts the window, measured from attempt start.
func (e *Engine) permitAttempt(n *dag.Node) bool {
	r := e.retry[n.Name]
	if e.phase <= r.lastPhase {
		return false
	}
	if r.tries <= 0 {
		return false
	}
	if wait := r.nextTry.Sub(e.now()); wait > 0 {
		e.sleep(wait)
	}
	r.nextTry = e.now().Add(r.retryDelay)
	r.lastPhase = e.phase
	r.tries--
	return true
}

// attempt takes one node through the check/run/recheck protocol and
// records the outcome.
func (e *Engine) attempt(ctx context.Context, n *dag.Node) {
	logger := ctxlog.FromContext(ctx).With("job", n.Name)

	inst, err := n.Desc.New()
	if err != nil {
		logger.Error("Could not construct job instance.", "error", err)
		e.markFailed(n.Name, fmt.Errorf("constructing job %q: %w", n.Name, err))
		return
	}

	jc := &job.Context{
		Name:   n.Name,
		Args:   e.args,
		Local:  make(map[string]any),
		Shared: e.shared,
	}
	e.instantiated = append(e.instantiated, &instance{name: n.Name, job: inst, jc: jc})

	// Check.
	if err := e.restoreDir(); err != nil {
		e.markFailed(n.Name, err)
		return
	}
	jc.Phase = job.PhaseCheck
	res, err := inst.Check(ctx, jc)
	if err == nil {
		jc.CheckResult = res
		e.markSucceeded(n.Name, res)
		logger.Info("check: pass")
		return
	}
	jc.CheckErr = err
	logger.Info("check: fail")
	logger.Debug("Check failed.", "error", err)

	// In no-act mode only the first check runs; the action cannot be
	// performed safely.
	if e.opts.NoAct {
		e.markFailed(n.Name, err)
		return
	}

	// Run. A failure here is recorded but never short-circuits: only
	// the recheck outcome decides the node's status.
	if cdErr := e.restoreDir(); cdErr != nil {
		jc.RunErr = cdErr
		logger.Info("run: fail")
		logger.Debug("Run failed.", "error", cdErr)
	} else {
		jc.RunResult, jc.RunErr = inst.Run(ctx, jc)
		if jc.RunErr == nil {
			logger.Info("run: pass")
		} else {
			logger.Info("run: fail")
			logger.Debug("Run failed.", "error", jc.RunErr)
		}
	}

	// Recheck.
	if cdErr := e.restoreDir(); cdErr != nil {
		jc.RecheckErr = cdErr
		e.markFailed(n.Name, cdErr)
		logger.Info("recheck: fail", "error", cdErr)
		return
	}
	jc.Phase = job.PhaseRecheck
	res, err = inst.Check(ctx, jc)
	if err == nil {
		jc.RecheckResult = res
		e.markEventuallySucceeded(n.Name, res)
		logger.Info("recheck: pass")
		return
	}
	jc.RecheckErr = err
	e.markFailed(n.Name, err)
	logger.Info("recheck: fail", "error", err)
}

// restoreDir returns the process to the run's starting directory; it is
// called before every phase call so jobs may chdir freely.
func (e *Engine) restoreDir() error {
	if err := os.Chdir(e.startDir); err != nil {
		return fmt.Errorf("restoring working directory: %w", err)
	}
	return nil
}

func (e *Engine) markSucceeded(name string, result any) {
	e.statuses[name] = StatusSucceeded
	e.results[name] = result
}

func (e *Engine) markEventuallySucceeded(name string, result any) {
	e.statuses[name] = StatusEventuallySucceeded
	e.results[name] = result
}

func (e *Engine) markFailed(name string, err error) {
	e.statuses[name] = StatusFailed
	e.errs[name] = err
}
