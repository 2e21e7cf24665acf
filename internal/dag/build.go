package dag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vk/dojobber/internal/ctxlog"
	"github.com/vk/dojobber/internal/job"
)

// Defaults carries the configured fallback retry metadata for jobs that
// declare no override of their own.
type Defaults struct {
	Tries      int
	RetryDelay time.Duration
}

// Build constructs a complete, validated dependency graph rooted at the
// given descriptor. Validation failures here are configuration errors:
// they abort before any run starts.
func Build(ctx context.Context, root *job.Descriptor, defaults Defaults) (*Graph, error) {
	logger := ctxlog.FromContext(ctx)
	if root == nil {
		return nil, errors.New("root job descriptor is nil")
	}
	logger.Debug("Build: starting graph construction.", "root", root.Name)

	graph := &Graph{Nodes: make(map[string]*Node)}

	// First pass: register every descriptor reachable from the root.
	if err := graph.register(ctx, root, defaults); err != nil {
		return nil, err
	}
	logger.Debug("Build: node registration complete.", "node_count", len(graph.Nodes))

	// Second pass: add one edge per (node, dependency) pair.
	for _, n := range graph.Nodes {
		for _, depDesc := range n.Desc.Deps {
			dep := graph.Nodes[depDesc.Name]
			n.Deps = append(n.Deps, dep)
			dep.Dependents[n.Name] = n
		}
	}

	if err := graph.detectCycles(); err != nil {
		return nil, fmt.Errorf("validating dependency graph: %w", err)
	}
	logger.Debug("Build: cycle detection passed.")

	return graph, nil
}

// register adds one node for the descriptor and recurses into its
// not-yet-visited dependencies.
func (g *Graph) register(ctx context.Context, desc *job.Descriptor, defaults Defaults) error {
	logger := ctxlog.FromContext(ctx)

	if desc.Name == "" {
		return errors.New("job descriptor has an empty name")
	}
	if existing, ok := g.Nodes[desc.Name]; ok {
		if existing.Desc != desc {
			return fmt.Errorf("duplicate job name %q refers to two different descriptors", desc.Name)
		}
		logger.Debug("Job already registered, skipping.", "job", desc.Name)
		return nil
	}
	if desc.New == nil {
		return fmt.Errorf("job %q has no factory", desc.Name)
	}

	tries := defaults.Tries
	if desc.Tries != 0 {
		tries = desc.Tries
	}
	if tries < 1 {
		return fmt.Errorf("job %q: tries %d must be >= 1", desc.Name, tries)
	}
	delay := defaults.RetryDelay
	if desc.RetryDelay != nil {
		delay = *desc.RetryDelay
	}
	if delay < 0 {
		return fmt.Errorf("job %q: retry delay %s cannot be negative", desc.Name, delay)
	}

	g.Nodes[desc.Name] = &Node{
		Name:       desc.Name,
		Desc:       desc,
		Dependents: make(map[string]*Node),
		Tries:      tries,
		RetryDelay: delay,
	}
	logger.Debug("Registered job node.", "job", desc.Name, "tries", tries, "retry_delay", delay)

	for _, dep := range desc.Deps {
		if dep == nil {
			return fmt.Errorf("job %q has a nil dependency", desc.Name)
		}
		if err := g.register(ctx, dep, defaults); err != nil {
			return err
		}
	}
	return nil
}
