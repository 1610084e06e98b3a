package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/vtree/pkg/core"
)

func TestHooksObservePass(t *testing.T) {
	var created, diffed, rendered, unmounted []string
	var committed []int
	hooks := &core.Hooks{
		DescriptorCreated: func(d *core.Descriptor) { created = append(created, d.Name()) },
		AfterDiff:         func(d *core.Descriptor) { diffed = append(diffed, d.Name()) },
		AfterRender:       func(d *core.Descriptor) { rendered = append(rendered, d.Name()) },
		BeforeUnmount:     func(d *core.Descriptor) { unmounted = append(unmounted, d.Name()) },
		BeforeCommit: func(root *core.Descriptor, queue []*core.Instance) {
			committed = append(committed, len(queue))
		},
	}
	rec := &recorder{}
	_, _, root := newRoot(t, core.WithHooks(hooks))

	require.NoError(t, root.Render(core.Create(track("A", rec.add), nil, core.H("p", nil, "x"))))
	assert.Equal(t, []string{"#text"}, created)
	assert.Equal(t, []string{"#text", "p", "A", "Fragment"}, diffed)
	assert.Equal(t, []string{"Fragment", "A"}, rendered)
	assert.Equal(t, []int{1}, committed)

	require.NoError(t, root.Render(nil))
	assert.Equal(t, []string{"A", "p", "#text"}, unmounted)
}

func TestChainCallsEverySet(t *testing.T) {
	var calls []string
	first := &core.Hooks{BeforeDiff: func(*core.Descriptor) { calls = append(calls, "first") }}
	second := &core.Hooks{BeforeDiff: func(*core.Descriptor) { calls = append(calls, "second") }}
	_, _, root := newRoot(t, core.WithHooks(core.Chain(first, nil, second)))

	require.NoError(t, root.Render(core.H("div", nil)))
	assert.Equal(t, []string{"first", "second", "first", "second"}, calls)
}
