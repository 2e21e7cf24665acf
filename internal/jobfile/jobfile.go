// Package jobfile loads HCL job definitions and turns them into a
// dependency graph of job descriptors plus engine options.
//
// A jobfile is a flat list of 'job "kind" "name"' blocks, each decoded
// against the input schema its registered kind declares, with an
// optional 'options' block for engine-wide settings. Expressions may
// reference process environment variables through the env object, e.g.
// env.HOME.
package jobfile

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"github.com/vk/dojobber/internal/engine"
	"github.com/vk/dojobber/internal/job"
	"github.com/vk/dojobber/internal/registry"
)

// fileSchema is the top-level structure of a jobfile for decoding.
type fileSchema struct {
	Options *optionsBlock `hcl:"options,block"`
	Jobs    []*jobBlock   `hcl:"job,block"`
}

// optionsBlock carries engine-wide settings. Every field is optional;
// absent fields keep the engine defaults.
type optionsBlock struct {
	Root              *string `hcl:"root,optional"`
	NoAct             *bool   `hcl:"no_act,optional"`
	Cleanup           *bool   `hcl:"cleanup,optional"`
	DefaultTries      *int    `hcl:"default_tries,optional"`
	DefaultRetryDelay *string `hcl:"default_retry_delay,optional"`
}

// jobBlock is one job declaration. The kind-specific attributes stay in
// Remain and are decoded against the kind's own input schema.
type jobBlock struct {
	Kind       string   `hcl:"kind,label"`
	Name       string   `hcl:"name,label"`
	DependsOn  []string `hcl:"depends_on,optional"`
	Tries      *int     `hcl:"tries,optional"`
	RetryDelay *string  `hcl:"retry_delay,optional"`
	Remain     hcl.Body `hcl:",remain"`
}

// Load parses the jobfile at path and returns the root descriptor and
// the engine options it declares.
func Load(path string, reg *registry.Registry) (*job.Descriptor, engine.Options, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, engine.Options{}, fmt.Errorf("reading jobfile: %w", err)
	}
	return Parse(src, path, reg)
}

// Parse is Load for in-memory jobfile source.
func Parse(src []byte, filename string, reg *registry.Registry) (*job.Descriptor, engine.Options, error) {
	opts := engine.DefaultOptions()

	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, opts, fmt.Errorf("parsing jobfile %s: %w", filename, diags)
	}

	var parsed fileSchema
	diags = gohcl.DecodeBody(hclFile.Body, nil, &parsed)
	if diags.HasErrors() {
		return nil, opts, fmt.Errorf("decoding jobfile %s: %w", filename, diags)
	}
	if len(parsed.Jobs) == 0 {
		return nil, opts, fmt.Errorf("jobfile %s declares no jobs", filename)
	}

	if err := applyOptions(&opts, parsed.Options); err != nil {
		return nil, opts, err
	}

	evalCtx := envEvalContext()
	descs := make(map[string]*job.Descriptor, len(parsed.Jobs))
	for _, b := range parsed.Jobs {
		if _, exists := descs[b.Name]; exists {
			return nil, opts, fmt.Errorf("duplicate job name %q", b.Name)
		}
		d, err := buildDescriptor(b, reg, evalCtx)
		if err != nil {
			return nil, opts, err
		}
		descs[b.Name] = d
	}

	// Dependencies link up only once every job is known.
	for _, b := range parsed.Jobs {
		for _, depName := range b.DependsOn {
			dep, ok := descs[depName]
			if !ok {
				return nil, opts, fmt.Errorf("job %q depends on unknown job %q", b.Name, depName)
			}
			descs[b.Name].Deps = append(descs[b.Name].Deps, dep)
		}
	}

	root, err := selectRoot(parsed, descs)
	if err != nil {
		return nil, opts, err
	}
	return root, opts, nil
}

func buildDescriptor(b *jobBlock, reg *registry.Registry, evalCtx *hcl.EvalContext) (*job.Descriptor, error) {
	kind, err := reg.Kind(b.Kind)
	if err != nil {
		return nil, fmt.Errorf("job %q: %w", b.Name, err)
	}

	input := kind.NewInput()
	if diags := gohcl.DecodeBody(b.Remain, evalCtx, input); diags.HasErrors() {
		return nil, fmt.Errorf("decoding job %q: %w", b.Name, diags)
	}

	d := &job.Descriptor{
		Name: b.Name,
		New: func() (job.Job, error) {
			return kind.Make(input)
		},
	}
	if b.Tries != nil {
		d.Tries = *b.Tries
	}
	if b.RetryDelay != nil {
		delay, err := time.ParseDuration(*b.RetryDelay)
		if err != nil {
			return nil, fmt.Errorf("job %q: invalid retry_delay: %w", b.Name, err)
		}
		d.RetryDelay = job.Delay(delay)
	}
	return d, nil
}

func applyOptions(opts *engine.Options, b *optionsBlock) error {
	if b == nil {
		return nil
	}
	if b.NoAct != nil {
		opts.NoAct = *b.NoAct
	}
	if b.Cleanup != nil {
		opts.Cleanup = *b.Cleanup
	}
	if b.DefaultTries != nil {
		opts.DefaultTries = *b.DefaultTries
	}
	if b.DefaultRetryDelay != nil {
		delay, err := time.ParseDuration(*b.DefaultRetryDelay)
		if err != nil {
			return fmt.Errorf("invalid default_retry_delay: %w", err)
		}
		opts.DefaultRetryDelay = delay
	}
	return nil
}

// selectRoot picks the graph root: an explicit options.root wins,
// otherwise the single job no other job depends on. Anything else is
// ambiguous and reported with the candidates.
func selectRoot(parsed fileSchema, descs map[string]*job.Descriptor) (*job.Descriptor, error) {
	if parsed.Options != nil && parsed.Options.Root != nil {
		root, ok := descs[*parsed.Options.Root]
		if !ok {
			return nil, fmt.Errorf("options.root names unknown job %q", *parsed.Options.Root)
		}
		return root, nil
	}

	dependedOn := make(map[string]bool)
	for _, b := range parsed.Jobs {
		for _, depName := range b.DependsOn {
			dependedOn[depName] = true
		}
	}
	var candidates []string
	for name := range descs {
		if !dependedOn[name] {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 1 {
		return descs[candidates[0]], nil
	}
	sort.Strings(candidates)
	return nil, fmt.Errorf("cannot determine root job, set options.root (candidates: %s)", strings.Join(candidates, ", "))
}

// envEvalContext exposes the process environment to jobfile expressions
// as an env object of strings.
func envEvalContext() *hcl.EvalContext {
	vals := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vals[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"env": cty.ObjectVal(vals)},
	}
}
