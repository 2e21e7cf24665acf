package dag

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/dojobber/internal/job"
)

func nopFactory() (job.Job, error) { return job.Dummy{}, nil }

func desc(name string, deps ...*job.Descriptor) *job.Descriptor {
	return &job.Descriptor{Name: name, Deps: deps, New: nopFactory}
}

var testDefaults = Defaults{Tries: 3, RetryDelay: time.Second}

func TestBuild(t *testing.T) {
	a := desc("a")
	b := desc("b", a)
	root := desc("root", a, b)

	g, err := Build(context.Background(), root, testDefaults)
	require.NoError(t, err)
	require.Len(t, g.Nodes, 3)

	rootNode := g.Nodes["root"]
	require.NotNil(t, rootNode)
	require.Len(t, rootNode.Deps, 2)
	assert.Equal(t, "a", rootNode.Deps[0].Name)
	assert.Equal(t, "b", rootNode.Deps[1].Name)

	aNode := g.Nodes["a"]
	assert.Contains(t, aNode.Dependents, "root")
	assert.Contains(t, aNode.Dependents, "b")
	assert.Empty(t, aNode.Deps)
}

func TestBuildResolvesRetryMetadata(t *testing.T) {
	a := desc("a")
	a.Tries = 5
	a.RetryDelay = job.Delay(250 * time.Millisecond)
	root := desc("root", a)

	g, err := Build(context.Background(), root, testDefaults)
	require.NoError(t, err)

	assert.Equal(t, 5, g.Nodes["a"].Tries)
	assert.Equal(t, 250*time.Millisecond, g.Nodes["a"].RetryDelay)
	assert.Equal(t, 3, g.Nodes["root"].Tries)
	assert.Equal(t, time.Second, g.Nodes["root"].RetryDelay)
}

func TestBuildSharedDependencyRegisteredOnce(t *testing.T) {
	shared := desc("shared")
	left := desc("left", shared)
	right := desc("right", shared)
	root := desc("root", left, right)

	g, err := Build(context.Background(), root, testDefaults)
	require.NoError(t, err)
	assert.Len(t, g.Nodes, 4)
	assert.Len(t, g.Nodes["shared"].Dependents, 2)
}

func TestBuildValidation(t *testing.T) {
	t.Run("nil root", func(t *testing.T) {
		_, err := Build(context.Background(), nil, testDefaults)
		assert.ErrorContains(t, err, "root job descriptor is nil")
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := Build(context.Background(), desc(""), testDefaults)
		assert.ErrorContains(t, err, "empty name")
	})

	t.Run("missing factory", func(t *testing.T) {
		bad := &job.Descriptor{Name: "bad"}
		_, err := Build(context.Background(), desc("root", bad), testDefaults)
		assert.ErrorContains(t, err, `job "bad" has no factory`)
	})

	t.Run("tries below one", func(t *testing.T) {
		bad := desc("bad")
		bad.Tries = -1
		_, err := Build(context.Background(), desc("root", bad), testDefaults)
		assert.ErrorContains(t, err, "must be >= 1")
	})

	t.Run("negative retry delay", func(t *testing.T) {
		bad := desc("bad")
		bad.RetryDelay = job.Delay(-time.Second)
		_, err := Build(context.Background(), desc("root", bad), testDefaults)
		assert.ErrorContains(t, err, "cannot be negative")
	})

	t.Run("nil dependency", func(t *testing.T) {
		root := desc("root")
		root.Deps = []*job.Descriptor{nil}
		_, err := Build(context.Background(), root, testDefaults)
		assert.ErrorContains(t, err, "nil dependency")
	})

	t.Run("duplicate name for different descriptors", func(t *testing.T) {
		one := desc("same")
		two := desc("same")
		_, err := Build(context.Background(), desc("root", one, two), testDefaults)
		assert.ErrorContains(t, err, "duplicate job name")
	})

	t.Run("default tries below one", func(t *testing.T) {
		_, err := Build(context.Background(), desc("root"), Defaults{Tries: 0, RetryDelay: 0})
		assert.ErrorContains(t, err, "must be >= 1")
	})
}
