package core_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/vtree/pkg/core"
)

func consume(ch *core.Channel) *core.Descriptor {
	return core.Create(ch.Consumer, nil, func(v any) any { return fmt.Sprint(v) })
}

func TestNearestProviderWins(t *testing.T) {
	ch := core.CreateChannel("default")
	_, container, root := newRoot(t)

	require.NoError(t, root.Render(core.H("div", nil,
		consume(ch), "|",
		core.Create(ch.Provider, core.Props{"value": "outer"},
			consume(ch), "|",
			core.Create(ch.Provider, core.Props{"value": "inner"}, consume(ch)),
		),
	)))
	assert.Equal(t, "<div>default|outer|inner</div>", container.Markup())
}

func TestContextTypeReceivesValue(t *testing.T) {
	ch := core.CreateChannel("light")
	themed := &core.ComponentType{
		Name:        "Themed",
		ContextType: ch,
		Func: func(_ core.Props, theme any) any {
			return core.H("p", core.Props{"class": theme})
		},
	}
	_, container, root := newRoot(t)

	require.NoError(t, root.Render(core.Create(ch.Provider, core.Props{"value": "dark"}, core.Create(themed, nil))))
	assert.Equal(t, `<p class="dark"></p>`, container.Markup())
}

func TestProviderUpdateKeepsConsumer(t *testing.T) {
	ch := core.CreateChannel(0)
	var outputs []string
	consumer := func() *core.Descriptor {
		return core.Create(ch.Consumer, nil, func(v any) any {
			out := fmt.Sprint(v)
			outputs = append(outputs, out)
			return out
		})
	}

	_, container, root := newRoot(t)
	require.NoError(t, root.Render(core.Create(ch.Provider, core.Props{"value": 1}, consumer())))
	consumerInst := root.Tree().Rendered()[0].Rendered()[0].Instance()
	text := container.ChildNodes()[0]

	require.NoError(t, root.Render(core.Create(ch.Provider, core.Props{"value": 2}, consumer())))
	require.NoError(t, root.Flush())

	assert.Equal(t, []string{"1", "2"}, outputs)
	assert.Equal(t, "2", container.Markup())
	assert.Same(t, text, container.ChildNodes()[0])
	assert.Same(t, consumerInst, root.Tree().Rendered()[0].Rendered()[0].Instance())
}

func TestProviderReachesConsumerBehindSkippedUpdate(t *testing.T) {
	ch := core.CreateChannel("none")
	wall := core.Class("Wall", func() core.Component { return &wall{} })
	tree := func(value string) *core.Descriptor {
		return core.Create(ch.Provider, core.Props{"value": value},
			core.Create(wall, nil, consume(ch)),
		)
	}

	_, container, root := newRoot(t)
	require.NoError(t, root.Render(tree("a")))
	assert.Equal(t, "a", container.Markup())

	require.NoError(t, root.Render(tree("b")))
	assert.Equal(t, "a", container.Markup())
	assert.Equal(t, 1, root.Scheduler().Pending())

	require.NoError(t, root.Flush())
	assert.Equal(t, "b", container.Markup())
}

// wall never updates after mount.
type wall struct {
	core.Base
}

func (*wall) ShouldUpdate(core.Props, core.State, any) bool { return false }

func (*wall) Render(props core.Props, _ core.State, _ any) any {
	return props[core.ChildrenProp]
}

type legacyProvider struct {
	core.Base
	entries map[any]any
}

func (l *legacyProvider) ChildContext() map[any]any { return l.entries }

func (l *legacyProvider) Render(props core.Props, _ core.State, _ any) any {
	return props[core.ChildrenProp]
}

func TestChildContextLayers(t *testing.T) {
	layer := func(entries map[any]any) *core.ComponentType {
		return core.Class("Layer", func() core.Component { return &legacyProvider{entries: entries} })
	}
	read := core.Func("Read", func(_ core.Props, ctx any) any {
		m := ctx.(*core.ContextMap)
		a, _ := m.Get("a")
		b, _ := m.Get("b")
		return fmt.Sprintf("%v,%v;", a, b)
	})

	_, container, root := newRoot(t)
	require.NoError(t, root.Render(core.Create(layer(map[any]any{"a": 1, "b": 1}), nil,
		core.Create(layer(map[any]any{"b": 2}), nil, core.Create(read, nil)),
		core.Create(read, nil),
	)))
	assert.Equal(t, "1,2;1,1;", container.Markup())
}
