// Package graphviz renders a job graph, colored by node outcome, as
// Graphviz DOT text or as an image via the local graphviz install.
package graphviz

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"

	"github.com/emicklei/dot"

	"github.com/vk/dojobber/internal/ctxlog"
	"github.com/vk/dojobber/internal/engine"
)

// DOT renders the engine's graph as DOT source. Nodes are emitted in
// sorted name order so output is stable, colored by their status from
// the most recent run: green for succeeded, dark green for eventually
// succeeded, red for failed, uncolored for untested.
func DOT(e *engine.Engine) string {
	g := dot.NewGraph(dot.Directed)

	names := make([]string, 0, len(e.Graph().Nodes))
	for name := range e.Graph().Nodes {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		n := g.Node(name)
		for k, v := range statusAttrs(e.NodeStatus(name)) {
			n.Attr(k, v)
		}
	}
	for _, name := range names {
		from := g.Node(name)
		for _, dep := range e.Graph().Nodes[name].Deps {
			g.Edge(from, g.Node(dep.Name))
		}
	}
	return g.String()
}

func statusAttrs(s engine.Status) map[string]string {
	switch s {
	case engine.StatusSucceeded:
		return map[string]string{"style": "filled", "fillcolor": "green"}
	case engine.StatusEventuallySucceeded:
		return map[string]string{"style": "filled", "fillcolor": "darkgreen"}
	case engine.StatusFailed:
		return map[string]string{"style": "filled", "fillcolor": "red"}
	default:
		return nil
	}
}

// Render pipes the DOT source through the graphviz "dot" binary and
// writes the result, in the requested output format, to w. A missing
// binary is logged and skipped rather than failing the run.
func Render(ctx context.Context, e *engine.Engine, w io.Writer, format string) error {
	logger := ctxlog.FromContext(ctx)

	path, err := exec.LookPath("dot")
	if err != nil {
		logger.Warn("Graphviz 'dot' binary not found, skipping graph render.")
		return nil
	}

	cmd := exec.CommandContext(ctx, path, "-T"+format)
	cmd.Stdin = strings.NewReader(DOT(e))
	cmd.Stdout = w
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("rendering graph with dot: %w", err)
	}
	return nil
}

// Display renders the graph to PNG and opens it with ImageMagick's
// "display". Like Render, missing binaries are logged and skipped.
func Display(ctx context.Context, e *engine.Engine) error {
	logger := ctxlog.FromContext(ctx)

	dotPath, err := exec.LookPath("dot")
	if err != nil {
		logger.Warn("Graphviz 'dot' binary not found, skipping graph display.")
		return nil
	}
	displayPath, err := exec.LookPath("display")
	if err != nil {
		logger.Warn("ImageMagick 'display' binary not found, skipping graph display.")
		return nil
	}

	render := exec.CommandContext(ctx, dotPath, "-Tpng")
	render.Stdin = strings.NewReader(DOT(e))
	show := exec.CommandContext(ctx, displayPath)
	pipe, err := render.StdoutPipe()
	if err != nil {
		return fmt.Errorf("wiring dot to display: %w", err)
	}
	show.Stdin = pipe

	if err := render.Start(); err != nil {
		return fmt.Errorf("starting dot: %w", err)
	}
	if err := show.Start(); err != nil {
		return fmt.Errorf("starting display: %w", err)
	}
	if err := render.Wait(); err != nil {
		return fmt.Errorf("rendering graph with dot: %w", err)
	}
	if err := show.Wait(); err != nil {
		return fmt.Errorf("displaying graph: %w", err)
	}
	return nil
}
