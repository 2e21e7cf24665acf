// Package dag builds the directed dependency graph the engine schedules
// over. It walks a root job descriptor transitively, resolves each
// node's effective retry metadata, validates the declarations, and
// rejects any graph containing a dependency cycle.
//
// The graph is built once per configuration and reused for every run.
package dag
