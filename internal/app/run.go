package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/vk/dojobber/internal/ctxlog"
	"github.com/vk/dojobber/internal/engine"
	"github.com/vk/dojobber/internal/graphviz"
	"github.com/vk/dojobber/internal/jobfile"
)

// Run executes the main application logic: load the jobfile, drive the
// engine to convergence, export the graph if requested, and report the
// outcome.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	root, opts, err := jobfile.Load(a.config.JobfilePath, a.registry)
	if err != nil {
		return fmt.Errorf("loading jobfile: %w", err)
	}
	a.logger.Debug("Jobfile loaded.", "path", a.config.JobfilePath, "root", root.Name)

	// Command-line settings override the jobfile's options block.
	if a.config.NoAct {
		opts.NoAct = true
	}
	if a.config.NoCleanup {
		opts.Cleanup = false
	}
	if a.config.Tries > 0 {
		opts.DefaultTries = a.config.Tries
	}
	if a.config.RetryDelay != "" {
		delay, err := time.ParseDuration(a.config.RetryDelay)
		if err != nil {
			return fmt.Errorf("invalid retry delay: %w", err)
		}
		opts.DefaultRetryDelay = delay
	}

	eng, err := engine.New(ctx, root, opts)
	if err != nil {
		return err
	}

	a.logger.Info("Starting run.", "root", root.Name, "no_act", opts.NoAct)
	if a.config.Target != "" {
		err = eng.RunNode(ctx, a.config.Target)
	} else {
		err = eng.Run(ctx)
	}
	if err != nil {
		return err
	}

	if exportErr := a.exportGraph(ctx, eng); exportErr != nil {
		return exportErr
	}

	if eng.Failure() {
		return a.failureSummary(eng)
	}
	a.logger.Info("Run finished successfully.")
	return nil
}

// exportGraph writes the colored dependency graph wherever the
// configuration asks for it.
func (a *App) exportGraph(ctx context.Context, eng *engine.Engine) error {
	if a.config.GraphPath != "" {
		f, err := os.Create(a.config.GraphPath)
		if err != nil {
			return fmt.Errorf("creating graph file: %w", err)
		}
		defer f.Close()
		if err := graphviz.Render(ctx, eng, f, a.config.GraphFormat); err != nil {
			return err
		}
		a.logger.Info("Graph exported.", "path", a.config.GraphPath, "format", a.config.GraphFormat)
	}
	if a.config.Display {
		if err := graphviz.Display(ctx, eng); err != nil {
			return err
		}
	}
	return nil
}

// failureSummary logs every non-OK node and folds them into one error.
func (a *App) failureSummary(eng *engine.Engine) error {
	names := make([]string, 0, len(eng.Graph().Nodes))
	for name := range eng.Graph().Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	var failed []string
	for _, name := range names {
		status := eng.NodeStatus(name)
		if status.OK() {
			continue
		}
		if err := eng.NodeErr(name); err != nil {
			a.logger.Error("Job did not converge.", "job", name, "status", status, "error", err)
			failed = append(failed, fmt.Sprintf("%s (%s)", name, err))
		} else {
			a.logger.Warn("Job was never attempted.", "job", name, "status", status)
			failed = append(failed, name)
		}
	}
	return fmt.Errorf("run finished with failures: %s", strings.Join(failed, "; "))
}
