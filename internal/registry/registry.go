// Package registry maps the job kind names used in jobfiles (e.g.
// "shell", "http_check") to the compiled Go constructors that implement
// them. It is populated once at startup by the built-in modules, plus
// whatever a host program registers itself.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/vk/dojobber/internal/job"
)

// Kind holds the compiled Go parts of one job kind.
type Kind struct {
	// NewInput returns a fresh, pointer-typed input struct the jobfile
	// body is decoded into.
	NewInput func() any
	// Make constructs a job instance from a decoded input struct.
	Make func(input any) (job.Job, error)
}

// Registry stores every known job kind by name.
type Registry struct {
	kinds map[string]*Kind
}

// Module is the interface modules implement to contribute their kinds.
type Module interface {
	Register(r *Registry)
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{kinds: make(map[string]*Kind)}
}

// RegisterKind registers a job kind. Registering the same name twice is
// a programming error and panics.
func (r *Registry) RegisterKind(name string, kind *Kind) {
	if _, exists := r.kinds[name]; exists {
		panic(fmt.Sprintf("job kind with name '%s' already registered", name))
	}
	slog.Debug("Registering job kind.", "name", name)
	r.kinds[name] = kind
}

// Kind looks up a registered kind by name.
func (r *Registry) Kind(name string) (*Kind, error) {
	k, ok := r.kinds[name]
	if !ok {
		return nil, fmt.Errorf("unknown job kind %q", name)
	}
	return k, nil
}
