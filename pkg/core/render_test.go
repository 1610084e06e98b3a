package core_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/vtree/pkg/core"
	"github.com/go-drift/vtree/pkg/errors"
	"github.com/go-drift/vtree/pkg/host"
	"github.com/go-drift/vtree/pkg/host/memhost"
)

func TestRenderMarkup(t *testing.T) {
	tests := []struct {
		name string
		tree any
		want string
	}{
		{"element", core.H("div", core.Props{"id": "a"}), `<div id="a"></div>`},
		{"text", "hello", "hello"},
		{"number", core.H("span", nil, 42, 1.5), "<span>421.5</span>"},
		{"holes", core.H("p", nil, nil, "x", false, true, "y"), "<p>xy</p>"},
		{"nested slice", core.H("ul", nil, []any{core.H("li", nil, "a"), []any{core.H("li", nil, "b")}}), "<ul><li>a</li><li>b</li></ul>"},
		{"fragment", core.Frag(core.H("a", nil), core.H("b", nil)), "<a></a><b></b>"},
		{"function component", core.Create(core.Func("Hi", func(p core.Props, _ any) any {
			return core.H("em", nil, "hi ", p["name"])
		}), core.Props{"name": "ada"}), "<em>hi ada</em>"},
		{"false attribute", core.H("input", core.Props{"disabled": false, "data-x": false}), `<input data-x="false"></input>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, container, root := newRoot(t)
			require.NoError(t, root.Render(tt.tree))
			assert.Equal(t, tt.want, container.Markup())
		})
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	item := core.Func("Item", func(p core.Props, _ any) any {
		return core.H("li", core.Props{"class": "item"}, p["label"], " #", p["n"])
	})
	build := func() *core.Descriptor {
		return core.H("ul", core.Props{"id": "list"},
			core.Create(item, core.Props{"key": 1, "label": "one", "n": 1}),
			core.Create(item, core.Props{"key": 2, "label": "two", "n": 2}),
			core.Frag("tail", core.H("br", nil)),
		)
	}

	doc, container, root := newRoot(t)
	tree := build()
	require.NoError(t, root.Render(tree))
	markup := container.Markup()

	doc.Reset()
	require.NoError(t, root.Render(tree))
	assert.Zero(t, doc.Mutations(), "same descriptor: %v", doc.JournalEntries())

	doc.Reset()
	require.NoError(t, root.Render(build()))
	assert.Zero(t, doc.Mutations(), "equal tree: %v", doc.JournalEntries())
	assert.Equal(t, markup, container.Markup())
}

func TestRenderUpdatesInPlace(t *testing.T) {
	doc, container, root := newRoot(t)
	require.NoError(t, root.Render(core.H("div", core.Props{"a": 1, "b": 2}, "x")))
	div := container.ChildNodes()[0]

	doc.Reset()
	require.NoError(t, root.Render(core.H("div", core.Props{"a": 1, "c": 3}, "y")))

	assert.Same(t, div, container.ChildNodes()[0])
	assert.Equal(t, `<div a="1" c="3">y</div>`, container.Markup())
	assert.Equal(t, []memhost.Mutation{
		{Op: memhost.OpRemoveAttr, Target: "div#2", Detail: "b"},
		{Op: memhost.OpSetAttr, Target: "div#2", Detail: "c=3"},
		{Op: memhost.OpSetData, Target: "#text#3", Detail: `"y"`},
	}, doc.JournalEntries())
}

func TestRenderReplacesChangedType(t *testing.T) {
	_, container, root := newRoot(t)
	require.NoError(t, root.Render(core.H("div", nil, "a")))
	require.NoError(t, root.Render(core.H("section", nil, "a")))
	assert.Equal(t, "<section>a</section>", container.Markup())
	require.Len(t, container.ChildNodes(), 1)
}

func TestKeyedMovePreservesNodes(t *testing.T) {
	list := func(keys ...string) *core.Descriptor {
		items := make([]any, len(keys))
		for i, k := range keys {
			items[i] = core.H("li", core.Props{"key": k}, k)
		}
		return core.H("ul", nil, items...)
	}

	_, container, root := newRoot(t)
	require.NoError(t, root.Render(list("a", "b", "c", "d")))
	ul := container.ChildNodes()[0]
	before := map[string]host.Node{}
	for _, li := range ul.ChildNodes() {
		before[li.ChildNodes()[0].Data()] = li
	}

	require.NoError(t, root.Render(list("d", "b", "a")))
	assert.Equal(t, "<ul><li>d</li><li>b</li><li>a</li></ul>", container.Markup())
	after := ul.ChildNodes()
	assert.Same(t, before["d"], after[0])
	assert.Same(t, before["b"], after[1])
	assert.Same(t, before["a"], after[2])
	assert.Nil(t, before["c"].Parent())
}

type frozen struct {
	core.Base
}

func (*frozen) ShouldUpdate(core.Props, core.State, any) bool { return false }

func (*frozen) Render(props core.Props, _ core.State, _ any) any {
	return core.H("li", nil, props["label"])
}

func TestShouldUpdateFalseKeepsNodesAcrossReorder(t *testing.T) {
	frozenType := core.Class("Frozen", func() core.Component { return &frozen{} })
	list := func(keys ...string) *core.Descriptor {
		items := make([]any, len(keys))
		for i, k := range keys {
			items[i] = core.Create(frozenType, core.Props{"key": k, "label": k})
		}
		return core.H("ul", nil, items...)
	}

	_, container, root := newRoot(t)
	require.NoError(t, root.Render(list("a", "b", "c")))
	ul := container.ChildNodes()[0]
	lis := ul.ChildNodes()

	require.NoError(t, root.Render(list("c", "a", "b")))
	assert.Equal(t, "<ul><li>c</li><li>a</li><li>b</li></ul>", container.Markup())
	after := ul.ChildNodes()
	require.Len(t, after, 3)
	assert.Same(t, lis[2], after[0])
	assert.Same(t, lis[0], after[1])
	assert.Same(t, lis[1], after[2])
}

func TestCommitOrderChildrenFirst(t *testing.T) {
	rec := &recorder{}
	a, b, c := track("A", rec.add), track("B", rec.add), track("C", rec.add)
	tree := func() *core.Descriptor {
		return core.Create(a, nil, core.Create(b, nil, core.Create(c, nil, core.H("div", nil))))
	}

	_, _, root := newRoot(t)
	require.NoError(t, root.Render(tree()))
	assert.Equal(t, []string{"C.DidMount", "B.DidMount", "A.DidMount"}, rec.events)

	rec.events = nil
	require.NoError(t, root.Render(tree()))
	assert.Equal(t, []string{"C.DidUpdate", "B.DidUpdate", "A.DidUpdate"}, rec.events)
}

type explosive struct {
	core.Base
}

func (*explosive) DidMount() { panic("boom") }

func (*explosive) Render(core.Props, core.State, any) any { return nil }

func TestCommitIsolatesCallbackErrors(t *testing.T) {
	rec := &recorder{}
	a, c := track("A", rec.add), track("C", rec.add)
	bad := core.Class("Explosive", func() core.Component { return &explosive{} })

	_, container, root := newRoot(t)
	err := root.Render(core.Create(a, nil,
		core.Create(bad, nil),
		core.Create(c, nil, core.H("p", nil, "ok")),
	))

	require.Error(t, err)
	var renderErr *errors.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, "Explosive", renderErr.Component)
	assert.Equal(t, errors.PhaseCommit, renderErr.Phase)
	assert.Equal(t, "boom", renderErr.Recovered)
	assert.Equal(t, []string{"C.DidMount", "A.DidMount"}, rec.events)
	assert.Equal(t, "<p>ok</p>", container.Markup())
}

func TestUnmountTearsDownDepthFirstBeforeDetach(t *testing.T) {
	_, container, root := newRoot(t)
	rec := &recorder{}
	attached := func(event string) {
		rec.add(fmt.Sprintf("%s attached=%t", event, container.Markup() != ""))
	}
	a, b, c := track("A", attached), track("B", attached), track("C", attached)

	require.NoError(t, root.Render(core.Create(a, nil,
		core.Create(b, nil, core.Create(c, nil, core.H("div", nil, "x"))),
	)))
	rec.events = nil

	require.NoError(t, root.Render(nil))
	assert.Equal(t, []string{
		"A.WillUnmount attached=true",
		"B.WillUnmount attached=true",
		"C.WillUnmount attached=true",
	}, rec.events)
	assert.Empty(t, container.Markup())

	require.NoError(t, root.Render(nil))
	assert.Len(t, rec.events, 3)
}

func TestRootUnmount(t *testing.T) {
	rec := &recorder{}
	_, container, root := newRoot(t)
	require.NoError(t, root.Render(core.Create(track("A", rec.add), nil, core.H("div", nil))))

	require.NoError(t, root.Unmount())
	assert.Empty(t, container.Markup())
	assert.Contains(t, rec.events, "A.WillUnmount")
	assert.Nil(t, root.Tree())
}

func TestInvalidDescriptorsAreSkipped(t *testing.T) {
	_, container, root := newRoot(t)
	require.NoError(t, root.Render(&core.Descriptor{}))
	assert.Empty(t, container.Markup())

	require.NoError(t, root.Render(core.H("p", nil, &core.Descriptor{}, "x")))
	assert.Equal(t, "<p>x</p>", container.Markup())
}

func TestUnhandledErrorAbortsRender(t *testing.T) {
	var hooked []string
	hooks := &core.Hooks{Error: func(err error, d, _ *core.Descriptor) {
		hooked = append(hooked, d.Name())
	}}
	rec := &recorder{}
	_, container, root := newRoot(t, core.WithHooks(hooks))

	err := root.Render(core.Create(track("A", rec.add), nil, core.Create(failing, nil)))

	var renderErr *errors.RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, "Failing", renderErr.Component)
	assert.Equal(t, errors.PhaseRender, renderErr.Phase)
	assert.EqualError(t, renderErr, "panic in Failing (render): boom")
	assert.Equal(t, []string{"Failing"}, hooked)
	assert.Empty(t, rec.events, "commit must not run")
	assert.Empty(t, container.Markup())
}

func TestRefs(t *testing.T) {
	_, container, root := newRoot(t)
	ref := core.CreateRef()
	var calls []any
	cb := core.CallbackRef(func(v any) { calls = append(calls, v) })

	require.NoError(t, root.Render(core.H("div", nil,
		core.H("input", core.Props{"ref": ref}),
		core.H("span", core.Props{"ref": cb}),
	)))
	div := container.ChildNodes()[0]
	assert.Same(t, div.ChildNodes()[0], ref.Current)
	require.Len(t, calls, 1)
	assert.Same(t, div.ChildNodes()[1], calls[0])

	require.NoError(t, root.Render(core.H("div", nil)))
	assert.Nil(t, ref.Current)
	assert.Equal(t, []any{calls[0], nil}, calls)
}

func TestComponentRefReceivesComponent(t *testing.T) {
	_, _, root := newRoot(t)
	ref := core.CreateRef()
	require.NoError(t, root.Render(core.Create(track("A", func(string) {}), core.Props{"ref": ref})))
	_, ok := ref.Current.(*lifecycle)
	assert.True(t, ok, "got %T", ref.Current)
}

func TestSVGNamespace(t *testing.T) {
	_, container, root := newRoot(t)
	require.NoError(t, root.Render(core.H("svg", nil,
		core.H("circle", nil),
		core.H("foreignObject", nil, core.H("div", nil)),
	)))

	svg := container.ChildNodes()[0]
	circle := svg.ChildNodes()[0]
	foreign := svg.ChildNodes()[1]
	div := foreign.ChildNodes()[0]
	assert.True(t, host.IsSVG(svg))
	assert.True(t, host.IsSVG(circle))
	assert.True(t, host.IsSVG(foreign))
	assert.False(t, host.IsSVG(div))
}

func TestHydrateAdoptsExistingNodes(t *testing.T) {
	doc, container, root := newRoot(t)
	div := doc.CreateElement("div", false)
	div.SetAttribute("id", "a")
	text := doc.CreateText("hi")
	div.AppendChild(text)
	container.AppendChild(div)
	doc.Reset()

	require.NoError(t, root.Hydrate(core.H("div", core.Props{"id": "a"}, "hi")))
	assert.Zero(t, doc.Mutations(), "%v", doc.JournalEntries())
	assert.Same(t, div, container.ChildNodes()[0])
	assert.Same(t, text, div.ChildNodes()[0])

	doc.Reset()
	require.NoError(t, root.Render(core.H("div", core.Props{"id": "a"}, "hi")))
	assert.Zero(t, doc.Mutations())
}

func TestHydrateAppliesHandlers(t *testing.T) {
	doc, container, root := newRoot(t)
	button := doc.CreateElement("button", false)
	container.AppendChild(button)
	doc.Reset()

	clicked := false
	require.NoError(t, root.Hydrate(core.H("button", core.Props{"onclick": func() { clicked = true }})))
	handler, ok := button.Attribute("onclick")
	require.True(t, ok)
	handler.(func())()
	assert.True(t, clicked)
	assert.Equal(t, 1, doc.Mutations())
}

func TestFirstRenderRemovesUnmatchedContainerChildren(t *testing.T) {
	doc, container, root := newRoot(t)
	container.AppendChild(doc.CreateElement("span", false))
	container.AppendChild(doc.CreateElement("div", false))
	div := container.ChildNodes()[1]

	require.NoError(t, root.Render(core.H("div", core.Props{"id": "x"})))
	assert.Equal(t, `<div id="x"></div>`, container.Markup())
	assert.Same(t, div, container.ChildNodes()[0])
}

func TestRenderReplacing(t *testing.T) {
	doc, container, root := newRoot(t)
	container.AppendChild(doc.CreateElement("p", false))
	target := doc.CreateElement("span", false)
	container.AppendChild(target)

	require.NoError(t, root.RenderReplacing(core.H("span", core.Props{"id": "x"}), target))
	assert.Equal(t, `<p></p><span id="x"></span>`, container.Markup())
	assert.Same(t, target, container.ChildNodes()[1])
}

func TestPackageRenderKeepsRootPerContainer(t *testing.T) {
	doc := memhost.NewDocument()
	container := doc.NewContainer("root")

	require.NoError(t, core.Render(core.H("div", nil, "one"), doc, container))
	div := container.ChildNodes()[0]
	require.NoError(t, core.Render(core.H("div", nil, "two"), doc, container))

	assert.Same(t, div, container.ChildNodes()[0])
	assert.Equal(t, "<div>two</div>", container.Markup())
	root, ok := core.RootOf(container)
	require.True(t, ok)
	assert.NotEmpty(t, root.ID())
}
