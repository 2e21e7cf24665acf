package engine

import (
	"context"
	"fmt"

	"github.com/vk/dojobber/internal/ctxlog"
	"github.com/vk/dojobber/internal/job"
)

// CleanupNow runs the cleanup stack on demand. It is how callers who
// disabled automatic cleanup unwind the instances a run constructed.
func (e *Engine) CleanupNow(ctx context.Context) error {
	return e.runCleanup(ctx)
}

// runCleanup invokes Cleanup on every constructed instance in reverse
// creation order, skipping instances whose type defines no Cleanup.
// The first failure halts the pass and is returned: judging which
// cleanup failures are safe to ignore is not the engine's job.
func (e *Engine) runCleanup(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Running cleanup stack.", "instances", len(e.instantiated))

	for i := len(e.instantiated) - 1; i >= 0; i-- {
		inst := e.instantiated[i]
		c, ok := inst.job.(job.Cleaner)
		if !ok {
			continue
		}
		// Cleanups may chdir just like run phases do.
		if e.startDir != "" {
			if err := e.restoreDir(); err != nil {
				e.instantiated = e.instantiated[:i+1]
				return err
			}
		}
		logger.Debug("cleanup: running", "job", inst.name)
		if err := c.Cleanup(ctx); err != nil {
			logger.Error("cleanup: fail", "job", inst.name, "error", err)
			// Instances already cleaned are dropped so a retried pass
			// resumes at the failure.
			e.instantiated = e.instantiated[:i+1]
			return fmt.Errorf("cleanup of job %q: %w", inst.name, err)
		}
		logger.Debug("cleanup: pass", "job", inst.name)
	}
	e.instantiated = nil
	return nil
}
