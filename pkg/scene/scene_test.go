package scene

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/vtree/pkg/core"
	"github.com/go-drift/vtree/pkg/errors"
	"github.com/go-drift/vtree/pkg/host/memhost"
)

const listScene = `
schema: v1.0.0
name: list
components:
  Item:
    tag: li
    props: {class: $kind}
    children: [$label]
  Card:
    tag: section
    children:
      - {tag: h2, children: [$title]}
      - {slot: true}
steps:
  - name: initial
    tree:
      tag: ul
      children:
        - {component: Item, key: a, props: {label: A, kind: x}}
        - {component: Item, key: b, props: {label: B, kind: y}}
  - name: swap
    tree:
      tag: ul
      children:
        - {component: Item, key: b, props: {label: B, kind: y}}
        - {component: Item, key: a, props: {label: A, kind: x}}
  - name: card
    tree:
      component: Card
      props: {title: Hi}
      children:
        - plain text
        - {fragment: true, children: [{tag: br}]}
`

func TestDecodeAndReplay(t *testing.T) {
	s, err := Decode(strings.NewReader(listScene))
	require.NoError(t, err)
	assert.Equal(t, "list", s.Name)
	require.Len(t, s.Steps, 3)

	results := Replay(s, nil)
	require.Len(t, results, 3)

	assert.Equal(t, `<ul><li class="x">A</li><li class="y">B</li></ul>`, results[0].Markup)
	assert.Equal(t, `<ul><li class="y">B</li><li class="x">A</li></ul>`, results[1].Markup)
	assert.Equal(t, []string{"insert li#3 into ul#2"}, results[1].Journal)
	assert.Equal(t, `<section><h2>Hi</h2>plain text<br></br></section>`, results[2].Markup)
	for _, r := range results {
		assert.NoError(t, r.Err)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty", "", "empty document"},
		{"bad version", "schema: one\nsteps: [{tree: x}]", `invalid schema version "one"`},
		{"major", "schema: v2.0.0\nsteps: [{tree: x}]", "unsupported schema major version v2"},
		{"newer", "schema: v1.9.0\nsteps: [{tree: x}]", "newer than supported"},
		{"no steps", "schema: v1.0.0", "no steps"},
		{"unknown field", "schema: v1.0.0\nbogus: 1\nsteps: [{tree: x}]", "field bogus not found"},
		{"unknown component", "schema: v1.0.0\nsteps: [{tree: {component: Nope}}]", `unknown component "Nope"`},
		{"two kinds", "schema: v1.0.0\nsteps: [{tree: {tag: p, component: X}}]", "exactly one"},
		{"slot outside template", "schema: v1.0.0\nsteps: [{tree: {slot: true}}]", "slot outside"},
		{"reserved prop", "schema: v1.0.0\nsteps: [{tree: {tag: p, props: {key: 1}}}]", `reserved prop "key"`},
		{"self cycle", "schema: v1.0.0\ncomponents: {Loop: {tag: div, children: [{component: Loop}]}}\nsteps: [{tree: {component: Loop}}]", "component cycle Loop -> Loop"},
		{"indirect cycle", "schema: v1.0.0\ncomponents:\n  A: {tag: div, children: [{component: B}]}\n  B: {fragment: true, children: [x, {component: A}]}\nsteps: [{tree: {component: A}}]", "component cycle A -> B -> A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			var treeErr *errors.TreeError
			require.ErrorAs(t, err, &treeErr)
			assert.Equal(t, errors.KindScene, treeErr.Kind)
		})
	}
}

func TestCheckSchema(t *testing.T) {
	assert.NoError(t, CheckSchema("v1.0.0"))
	assert.NoError(t, CheckSchema(SupportedSchema))
	assert.Error(t, CheckSchema("1.0.0"))
}

func TestBuilderKeepsComponentTypes(t *testing.T) {
	s, err := Decode(strings.NewReader(listScene))
	require.NoError(t, err)
	b := NewBuilder(s)

	first, err := b.Step(0)
	require.NoError(t, err)
	second, err := b.Step(1)
	require.NoError(t, err)

	itemType := func(d *core.Descriptor) *core.ComponentType {
		return d.Props().Children()[0].(*core.Descriptor).Type()
	}
	require.NotNil(t, itemType(first))
	assert.Same(t, itemType(first), itemType(second))
	assert.Equal(t, "b", second.Props().Children()[0].(*core.Descriptor).Key())

	_, err = b.Step(3)
	assert.Error(t, err)
}

func TestBuildPlaceholders(t *testing.T) {
	s, err := Decode(strings.NewReader(listScene))
	require.NoError(t, err)

	doc := memhost.NewDocument()
	container := doc.NewContainer("root")
	root := core.NewRoot(doc, container)
	item := Node{Component: "Item", Props: map[string]any{"label": 7, "kind": "z"}}
	require.NoError(t, root.Render(NewBuilder(s).Build(item)))
	assert.Equal(t, `<li class="z">7</li>`, container.Markup())
}

// reports collects the tree errors sent to the global handler.
type reports struct {
	errs []*errors.TreeError
}

func (r *reports) HandleError(err *errors.TreeError)   { r.errs = append(r.errs, err) }
func (*reports) HandlePanic(*errors.PanicError)        {}
func (*reports) HandleRenderError(*errors.RenderError) {}

func captureReports(t *testing.T) *reports {
	t.Helper()
	r := &reports{}
	prev := errors.DefaultHandler
	errors.SetHandler(r)
	t.Cleanup(func() { errors.SetHandler(prev) })
	return r
}

func TestLoadMissingFile(t *testing.T) {
	reported := captureReports(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var treeErr *errors.TreeError
	require.ErrorAs(t, err, &treeErr)
	assert.Equal(t, "scene.Load", treeErr.Op)
	require.Len(t, reported.errs, 1)
	assert.Same(t, treeErr, reported.errs[0])
}

func TestLoadReportsInvalidScene(t *testing.T) {
	reported := captureReports(t)
	path := filepath.Join(t.TempDir(), "loop.yaml")
	doc := "schema: v1.0.0\ncomponents: {Loop: {tag: div, children: [{component: Loop}]}}\nsteps: [{tree: {component: Loop}}]\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	require.Len(t, reported.errs, 1)
	assert.Equal(t, "scene.Validate", reported.errs[0].Op)
	assert.Equal(t, "components.Loop", reported.errs[0].Path)
	assert.False(t, reported.errs[0].Timestamp.IsZero())
}

func TestReplayReportsFailingStep(t *testing.T) {
	reported := captureReports(t)
	s := &Scene{
		Schema: SupportedSchema,
		Steps: []Step{
			{Name: "ok", Tree: Node{Tag: "p"}},
			{Name: "bad ref", Tree: Node{Tag: "p", Props: map[string]any{
				"ref": core.CallbackRef(func(v any) {
					if v != nil {
						panic("bad ref")
					}
				}),
			}}},
		},
	}
	results := Replay(s, nil)
	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	require.Error(t, results[1].Err)
	assert.Contains(t, results[1].Error, "bad ref")

	var replayed []*errors.TreeError
	for _, err := range reported.errs {
		if err.Op == "scene.Replay" {
			replayed = append(replayed, err)
		}
	}
	require.Len(t, replayed, 1)
	assert.Equal(t, "steps[1]", replayed[0].Path)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(listScene), 0o644))
	s, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, s.Components, 2)
	require.NotNil(t, s.Steps[2].Tree.Children[0].Text)
	assert.Equal(t, "plain text", *s.Steps[2].Tree.Children[0].Text)
}

func TestReplayMissingPropLeavesAttributeUnset(t *testing.T) {
	s := &Scene{
		Schema: SupportedSchema,
		Steps: []Step{
			{Name: "first", Tree: Node{Component: "Box"}},
			{Name: "second", Tree: Node{Tag: "p"}},
		},
		Components: map[string]Node{"Box": {Tag: "div", Props: map[string]any{"title": "$missing"}}},
	}
	results := Replay(s, nil)
	require.Len(t, results, 2)
	assert.Equal(t, "<div></div>", results[0].Markup)
	assert.Equal(t, "<p></p>", results[1].Markup)
	for _, r := range results {
		assert.NoError(t, r.Err)
		assert.Empty(t, r.Error)
	}
}
