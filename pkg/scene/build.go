package scene

import (
	"fmt"

	"github.com/go-drift/vtree/pkg/core"
)

// Builder turns scene nodes into descriptors. Component types are created
// once per Builder so the same component keeps its instances across steps.
type Builder struct {
	scene *Scene
	types map[string]*core.ComponentType
}

// NewBuilder returns a builder for s.
func NewBuilder(s *Scene) *Builder {
	return &Builder{scene: s, types: make(map[string]*core.ComponentType)}
}

// Step builds the tree of step i.
func (b *Builder) Step(i int) (*core.Descriptor, error) {
	if i < 0 || i >= len(b.scene.Steps) {
		return nil, fmt.Errorf("step %d out of range [0, %d)", i, len(b.scene.Steps))
	}
	return b.Build(b.scene.Steps[i].Tree), nil
}

// Build converts n into a descriptor.
func (b *Builder) Build(n Node) *core.Descriptor {
	return b.build(n, nil, nil)
}

// build converts n, substituting "$name" placeholders from props and slot
// nodes with slot when expanding a component template.
func (b *Builder) build(n Node, props core.Props, slot any) *core.Descriptor {
	switch {
	case n.Text != nil:
		text := *n.Text
		if name, ok := placeholder(text); ok && props != nil {
			text = fmt.Sprint(props[name])
		}
		return core.Text(text)
	case n.Slot:
		return core.Frag(slot)
	}

	attrs := core.Props{}
	for name, value := range n.Props {
		if ph, ok := placeholder(value); ok && props != nil {
			value = props[ph]
		}
		attrs[name] = value
	}
	if n.Key != nil {
		attrs["key"] = n.Key
	}

	children := make([]any, 0, len(n.Children))
	for _, child := range n.Children {
		children = append(children, b.build(child, props, slot))
	}

	switch {
	case n.Fragment:
		return core.Create(core.Fragment, attrs, children...)
	case n.Component != "":
		return core.Create(b.componentType(n.Component), attrs, children...)
	default:
		return core.H(n.Tag, attrs, children...)
	}
}

func (b *Builder) componentType(name string) *core.ComponentType {
	if t, ok := b.types[name]; ok {
		return t
	}
	tmpl := b.scene.Components[name]
	t := core.Func(name, func(props core.Props, _ any) any {
		return b.build(tmpl, props, props[core.ChildrenProp])
	})
	b.types[name] = t
	return t
}
