package dag

import (
	"fmt"
	"strings"
	"time"

	"github.com/vk/dojobber/internal/job"
)

// Graph is the validated dependency graph for one configuration.
type Graph struct {
	// Nodes stores all nodes in the graph, keyed by job name.
	Nodes map[string]*Node
}

// Node is a single job in the graph, carrying its descriptor and the
// retry metadata resolved against the configured defaults.
type Node struct {
	Name string
	Desc *job.Descriptor

	// Deps holds this node's dependencies in declaration order.
	Deps []*Node
	// Dependents holds the nodes that depend on this one.
	Dependents map[string]*Node

	// Tries is the resolved max-tries: the descriptor's override when
	// set, else the configured default.
	Tries int
	// RetryDelay is the resolved minimum delay between retries.
	RetryDelay time.Duration
}

// detectCycles checks for circular dependencies in the graph using DFS.
// The returned error names the offending path.
func (g *Graph) detectCycles() error {
	visiting := make(map[string]bool)
	visited := make(map[string]bool)
	var stack []string

	var visit func(n *Node) error
	visit = func(n *Node) error {
		visiting[n.Name] = true
		stack = append(stack, n.Name)
		for _, dep := range n.Deps {
			if visiting[dep.Name] {
				return fmt.Errorf("cycle detected: %s -> %s", strings.Join(stack, " -> "), dep.Name)
			}
			if !visited[dep.Name] {
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		delete(visiting, n.Name)
		visited[n.Name] = true
		return nil
	}

	for _, n := range g.Nodes {
		if !visited[n.Name] {
			stack = stack[:0]
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}
