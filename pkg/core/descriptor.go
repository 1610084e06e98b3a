package core

import (
	"fmt"
	"maps"

	"github.com/go-drift/vtree/pkg/host"
)

// Kind is the discriminant of a Descriptor, fixed when it is constructed.
type Kind uint8

const (
	kindInvalid Kind = iota
	// KindElement describes a tagged host element.
	KindElement
	// KindText describes a host text node.
	KindText
	// KindComponent describes a composite backed by an Instance.
	KindComponent
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	case KindComponent:
		return "component"
	default:
		return "invalid"
	}
}

// ChildrenProp is the prop under which a descriptor's children are stored.
const ChildrenProp = "children"

// Props are the inputs of a descriptor. Keys are unique by construction.
type Props map[string]any

// Children returns the children prop normalized to a slice. Holes (nil and
// bool values) are kept so positions stay stable.
func (p Props) Children() []any {
	return toChildList(p[ChildrenProp])
}

// Descriptor is an immutable description of the desired UI at one tree
// position. Construct descriptors with H, Text, Create, or Frag; a zero
// Descriptor is rejected by the reconciler.
//
// The unexported fields are bookkeeping owned by the reconciler for the
// pass in which the descriptor was diffed.
type Descriptor struct {
	kind  Kind
	tag   string
	text  string
	typ   *ComponentType
	props Props
	key   any
	ref   Ref

	children    []*Descriptor
	parent      *Descriptor
	node        host.Node
	nextNode    host.Node
	hasNextNode bool
	depth       int
	instance    *Instance
	original    *Descriptor
}

// Kind returns the descriptor discriminant.
func (d *Descriptor) Kind() Kind {
	if d == nil {
		return kindInvalid
	}
	return d.kind
}

// Tag returns the element tag of a KindElement descriptor.
func (d *Descriptor) Tag() string { return d.tag }

// Text returns the character data of a KindText descriptor.
func (d *Descriptor) Text() string { return d.text }

// Type returns the component type of a KindComponent descriptor.
func (d *Descriptor) Type() *ComponentType { return d.typ }

// Props returns the descriptor props. Callers must not mutate them.
func (d *Descriptor) Props() Props {
	if d == nil {
		return nil
	}
	return d.props
}

// Key returns the reconciliation key, or nil.
func (d *Descriptor) Key() any { return d.key }

// Ref returns the ref attached to the descriptor, or nil.
func (d *Descriptor) Ref() Ref {
	if d == nil {
		return nil
	}
	return d.ref
}

// Node returns the host node bound in the last pass. For composites this is
// the first host node of the rendered subtree.
func (d *Descriptor) Node() host.Node {
	if d == nil {
		return nil
	}
	return d.node
}

// Instance returns the composite instance bound to the descriptor.
func (d *Descriptor) Instance() *Instance {
	if d == nil {
		return nil
	}
	return d.instance
}

// Rendered returns the child descriptors produced in the last pass. Entries
// may be nil where a child rendered nothing.
func (d *Descriptor) Rendered() []*Descriptor {
	if d == nil {
		return nil
	}
	return d.children
}

// Parent returns the descriptor that rendered d in the last pass.
func (d *Descriptor) Parent() *Descriptor { return d.parent }

// Depth returns the distance from the render root.
func (d *Descriptor) Depth() int { return d.depth }

// Name returns a display name such as "div", "#text", or the component name.
func (d *Descriptor) Name() string {
	if d == nil {
		return "<nil>"
	}
	switch d.kind {
	case KindElement:
		return d.tag
	case KindText:
		return "#text"
	case KindComponent:
		if d.typ != nil {
			return d.typ.String()
		}
	}
	return "<invalid>"
}

func (d *Descriptor) String() string {
	if d != nil && d.key != nil {
		return fmt.Sprintf("%s[key=%v]", d.Name(), d.key)
	}
	return d.Name()
}

// valid reports whether d was produced by the factory.
func (d *Descriptor) valid() bool {
	if d == nil {
		return false
	}
	switch d.kind {
	case KindElement:
		return d.tag != ""
	case KindText:
		return true
	case KindComponent:
		return d.typ != nil
	}
	return false
}

func (d *Descriptor) setNextNode(n host.Node) {
	d.nextNode = n
	d.hasNextNode = true
}

func (d *Descriptor) takeNextNode() (host.Node, bool) {
	n, ok := d.nextNode, d.hasNextNode
	d.nextNode = nil
	d.hasNextNode = false
	return n, ok
}

// reuse returns a fresh descriptor for a value that is already bound to a
// host node or instance. The render identity is kept, the ref is dropped.
func (d *Descriptor) reuse() *Descriptor {
	return &Descriptor{
		kind:     d.kind,
		tag:      d.tag,
		text:     d.text,
		typ:      d.typ,
		props:    d.props,
		key:      d.key,
		original: d.original,
	}
}

// sameType reports whether a and b can share a tree position.
func sameType(a, b *Descriptor) bool {
	if a.kind != b.kind || !sameValue(a.key, b.key) {
		return false
	}
	switch a.kind {
	case KindElement:
		return a.tag == b.tag
	case KindComponent:
		return a.typ == b.typ
	}
	return true
}

// sameRender reports whether old is the previous pass of the very same
// descriptor value, so no new render was requested for this position.
func sameRender(d, old *Descriptor) bool {
	if old == nil {
		return false
	}
	if d.original != nil && d.original == old.original {
		return true
	}
	return d.kind == KindText && old.kind == KindText && d.text == old.text
}

// H creates a host element descriptor. The "key" and "ref" props are
// extracted and never reach the host node.
func H(tag string, props Props, children ...any) *Descriptor {
	return newDescriptor(KindElement, tag, nil, props, children)
}

// Create creates a composite descriptor for t. Default props declared by t
// are applied for missing keys.
func Create(t *ComponentType, props Props, children ...any) *Descriptor {
	return newDescriptor(KindComponent, "", t, props, children)
}

// Text creates a text descriptor.
func Text(data string) *Descriptor {
	d := &Descriptor{kind: KindText, text: data}
	d.original = d
	return d
}

// Frag creates a keyless fragment grouping children without a host node.
func Frag(children ...any) *Descriptor {
	return Create(Fragment, nil, children...)
}

func newDescriptor(kind Kind, tag string, t *ComponentType, props Props, children []any) *Descriptor {
	normalized := make(Props, len(props)+1)
	var key any
	var ref Ref
	for name, value := range props {
		switch name {
		case "key":
			key = value
		case "ref":
			ref, _ = value.(Ref)
		default:
			normalized[name] = value
		}
	}
	switch len(children) {
	case 0:
	case 1:
		normalized[ChildrenProp] = children[0]
	default:
		normalized[ChildrenProp] = children
	}
	if t != nil {
		for name, value := range t.DefaultProps {
			if _, ok := normalized[name]; !ok {
				normalized[name] = value
			}
		}
	}
	d := &Descriptor{kind: kind, tag: tag, typ: t, props: normalized, key: key, ref: ref}
	d.original = d
	return d
}

// WithProps returns a copy of d whose props are merged with overrides. The
// copy is a new render: it never short-circuits against d.
func (d *Descriptor) WithProps(overrides Props) *Descriptor {
	props := maps.Clone(d.props)
	if props == nil {
		props = Props{}
	}
	maps.Copy(props, overrides)
	c := &Descriptor{kind: d.kind, tag: d.tag, text: d.text, typ: d.typ, props: props, key: d.key, ref: d.ref}
	c.original = c
	return c
}

// Ref receives the host node or component bound to a descriptor, and nil
// when it is detached.
type Ref interface {
	Apply(value any)
}

// RefObject is a ref that stores the bound value in Current.
type RefObject struct {
	Current any
}

// CreateRef returns an empty RefObject.
func CreateRef() *RefObject {
	return &RefObject{}
}

// Apply implements Ref.
func (r *RefObject) Apply(value any) {
	r.Current = value
}

// RefCallback is a ref that calls a function with the bound value.
type RefCallback struct {
	fn func(any)
}

// CallbackRef returns a ref that invokes fn on attach and detach.
func CallbackRef(fn func(value any)) *RefCallback {
	return &RefCallback{fn: fn}
}

// Apply implements Ref.
func (r *RefCallback) Apply(value any) {
	if r.fn != nil {
		r.fn(value)
	}
}
